package service

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"agromitra/internal/app"
	"agromitra/internal/models"
	"agromitra/internal/tui"

	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

func parseDate(value string, now time.Time) (time.Time, error) {
	if value == "" || value == "today" {
		return now, nil
	}
	t, err := time.ParseInLocation(dateLayout, value, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return t, nil
}

func (h *handlers) calendarCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "calendar",
		Aliases: []string{"cal"},
		Short:   "Show crop calendars and upcoming activities",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := h.context(cmd)
			defer cancel()

			view := h.app.NewCalendar(h.confirm)
			if err := view.Load(ctx); err != nil {
				return fail(err)
			}
			h.printCalendars(view)
			return nil
		},
	}

	cmd.AddCommand(
		h.calendarCreateCommand(),
		h.calendarAddCommand(),
		h.calendarStatusCommand(),
		h.calendarCompleteCommand(),
		h.calendarRemoveCommand(),
		h.calendarRemoveActivityCommand(),
	)
	return cmd
}

func (h *handlers) printCalendars(view *app.CalendarView) {
	now := h.app.Now()

	h.println(tui.Title(h.t("upcomingActivities")))
	upcoming := view.Upcoming()
	if len(upcoming) == 0 {
		h.println(tui.Faint("  -"))
	}
	for _, a := range upcoming {
		h.printf("  %s %s %s %s\n", a.ScheduledDate.Format(dateLayout), a.Name, tui.Faint(a.Crop), h.relative(now, a.ScheduledDate))
	}

	h.println()
	h.println(tui.Title(h.t("myCropCalendars")))
	calendars := view.Calendars()
	if len(calendars) == 0 {
		h.println(tui.Faint("  -"))
	}
	for _, cal := range calendars {
		crop := cal.Crop
		if crop == "" {
			crop = h.t("unknownCrop")
		}
		c := app.Count(cal, now)
		h.printf("%s %s  %s %s\n", tui.Title(crop), tui.Faint(cal.Key()), h.t("plantedOn"), cal.PlantingDate.Format(dateLayout))
		h.printf("  %s: %d  upcoming: %d  overdue: %d\n", h.t("completed"), c.Completed, c.Upcoming, c.Overdue)
		for _, a := range app.Flow(cal) {
			timing := app.Classify(a.Status, a.ScheduledDate, now)
			h.printf("  %s %s %-28s %s %s\n", tui.TimingBadge(timing), a.ScheduledDate.Format(dateLayout), a.Name,
				h.relative(now, a.ScheduledDate), tui.Faint(a.Key()))
		}
	}
}

// relative renders how far t is from now in calendar days.
func (h *handlers) relative(now, t time.Time) string {
	days := app.DaysUntil(now, t)
	switch {
	case days == 0:
		return h.t("today")
	case days < 0:
		return fmt.Sprintf("%d %s", -days, h.t("daysAgo"))
	default:
		return fmt.Sprintf("%s %d %s", h.t("inDays"), days, h.t("days"))
	}
}

func (h *handlers) calendarCreateCommand() *cobra.Command {
	var planted string
	cmd := &cobra.Command{
		Use:   "create <crop-id>",
		Short: "Start a calendar for a crop",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDate(planted, h.app.Now())
			if err != nil {
				return err
			}
			ctx, cancel := h.context(cmd)
			defer cancel()

			view := h.app.NewCalendar(h.confirm)
			if err := view.Create(ctx, args[0], date); err != nil {
				return fail(err)
			}
			h.println("Calendar created.")
			h.printCalendars(view)
			return nil
		},
	}
	cmd.Flags().StringVar(&planted, "planted", "", "planting date YYYY-MM-DD (default today)")
	return cmd
}

func (h *handlers) calendarAddCommand() *cobra.Command {
	var req models.ActivityRequest
	var date string
	cmd := &cobra.Command{
		Use:   "add <calendar-id> <name>",
		Short: "Schedule an activity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(models.ActivityTypes, req.Type) {
				return fmt.Errorf("unknown activity type %q (%s)", req.Type, strings.Join(models.ActivityTypes, ", "))
			}
			if req.Priority != "" && !slices.Contains(models.Priorities, req.Priority) {
				return fmt.Errorf("unknown priority %q (%s)", req.Priority, strings.Join(models.Priorities, ", "))
			}
			scheduled, err := parseDate(date, h.app.Now())
			if err != nil {
				return err
			}
			req.Name = args[1]
			req.ScheduledDate = scheduled

			ctx, cancel := h.context(cmd)
			defer cancel()

			view := h.app.NewCalendar(h.confirm)
			if err := view.AddActivity(ctx, args[0], req); err != nil {
				return fail(err)
			}
			h.println("Activity added.")
			h.printCalendars(view)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Type, "type", "irrigation", "activity type")
	f.StringVar(&req.Description, "description", "", "description")
	f.StringVar(&req.Priority, "priority", "", "priority (default medium)")
	f.StringVar(&date, "date", "", "scheduled date YYYY-MM-DD (default today)")
	return cmd
}

func (h *handlers) calendarStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <calendar-id> <activity-id> <pending|completed|overdue|cancelled>",
		Short: "Change an activity's status",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := models.ActivityStatus(args[2])
			switch status {
			case models.ActivityPending, models.ActivityCompleted, models.ActivityOverdue, models.ActivityCancelled:
			default:
				return fmt.Errorf("unknown status %q", args[2])
			}
			ctx, cancel := h.context(cmd)
			defer cancel()

			view := h.app.NewCalendar(h.confirm)
			if err := view.SetStatus(ctx, args[0], args[1], status); err != nil {
				return fail(err)
			}
			h.printCalendars(view)
			return nil
		},
	}
}

func (h *handlers) calendarCompleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <calendar-id> <activity-id>",
		Short: "Mark an activity completed today",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := h.context(cmd)
			defer cancel()

			view := h.app.NewCalendar(h.confirm)
			if err := view.Complete(ctx, args[0], args[1]); err != nil {
				return fail(err)
			}
			h.printCalendars(view)
			return nil
		},
	}
}

func (h *handlers) calendarRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <calendar-id>",
		Short: "Delete a calendar and its activities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := h.context(cmd)
			defer cancel()

			view := h.app.NewCalendar(h.confirm)
			if err := view.DeleteCalendar(ctx, args[0]); err != nil {
				return fail(err)
			}
			h.println("Calendar deleted.")
			return nil
		},
	}
}

func (h *handlers) calendarRemoveActivityCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm-activity <calendar-id> <activity-id>",
		Short: "Delete an activity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := h.context(cmd)
			defer cancel()

			view := h.app.NewCalendar(h.confirm)
			if err := view.DeleteActivity(ctx, args[0], args[1]); err != nil {
				return fail(err)
			}
			h.println("Activity deleted.")
			return nil
		},
	}
}
