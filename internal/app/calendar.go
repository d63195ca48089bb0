package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"agromitra/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// UpcomingWindowDays is how far ahead the upcoming feed looks.
	UpcomingWindowDays = 30
	// DefaultMaturityDays is used for the synthesized harvest when a calendar has no maturity period.
	DefaultMaturityDays = 120
	// upcomingHorizonDays separates upcoming activities from future ones.
	upcomingHorizonDays = 7

	cropCatalogLimit   = 100
	plantingDateLayout = "2006-01-02"
)

// Confirmation prompts for destructive calendar actions.
const (
	DeleteCalendarPrompt = "Delete this calendar and all its activities?"
	DeleteActivityPrompt = "Delete this activity?"
)

// Timing is the display state of an activity relative to today.
type Timing string

const (
	TimingCompleted Timing = "completed"
	TimingOverdue   Timing = "overdue"
	TimingToday     Timing = "today"
	TimingUpcoming  Timing = "upcoming"
	TimingFuture    Timing = "future"
)

// Classify places an activity relative to now. Completed activities stay
// completed whatever their date; the others are compared by calendar day in
// now's location.
func Classify(status models.ActivityStatus, scheduled, now time.Time) Timing {
	if status == models.ActivityCompleted {
		return TimingCompleted
	}
	days := daysBetween(now, scheduled)
	switch {
	case days < 0:
		return TimingOverdue
	case days == 0:
		return TimingToday
	case days <= upcomingHorizonDays:
		return TimingUpcoming
	default:
		return TimingFuture
	}
}

// DaysUntil counts calendar days from now to t, negative when t is earlier.
func DaysUntil(now, t time.Time) int { return daysBetween(now, t) }

func daysBetween(now, t time.Time) int {
	y1, m1, d1 := now.Date()
	y2, m2, d2 := t.In(now.Location()).Date()
	from := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	to := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

// Flow returns the calendar's activities in scheduled order. A calendar
// without activities gets a synthesized planting and harvest pair.
func Flow(cal models.Calendar) []models.Activity {
	if len(cal.Activities) == 0 {
		maturity := DefaultMaturityDays
		if cal.MaturityPeriodDays != nil && *cal.MaturityPeriodDays > 0 {
			maturity = *cal.MaturityPeriodDays
		}
		return []models.Activity{
			{
				Type:          "planting",
				Name:          "Planting",
				ScheduledDate: cal.PlantingDate,
				Status:        models.ActivityPending,
			},
			{
				Type:          "harvesting",
				Name:          "Harvest",
				ScheduledDate: cal.PlantingDate.AddDate(0, 0, maturity),
				Status:        models.ActivityPending,
			},
		}
	}

	out := append([]models.Activity(nil), cal.Activities...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ScheduledDate.Before(out[j].ScheduledDate) })
	return out
}

// Counts summarises a calendar's stored activities.
type Counts struct {
	Completed int
	Upcoming  int
	Overdue   int
}

// Count classifies every stored activity of cal. Activities due today count
// as upcoming.
func Count(cal models.Calendar, now time.Time) Counts {
	var c Counts
	for _, a := range cal.Activities {
		switch Classify(a.Status, a.ScheduledDate, now) {
		case TimingCompleted:
			c.Completed++
		case TimingOverdue:
			c.Overdue++
		case TimingToday, TimingUpcoming:
			c.Upcoming++
		}
	}
	return c
}

// CalendarView manages the farmer's crop calendars.
type CalendarView struct {
	app     *App
	confirm Confirmer

	mu        sync.Mutex
	calendars []models.Calendar
	upcoming  []models.UpcomingActivity
}

// NewCalendar returns the calendar controller. Destructive actions ask confirm first.
func (app *App) NewCalendar(confirm Confirmer) *CalendarView {
	return &CalendarView{app: app, confirm: confirm}
}

// Load fetches the calendars and the upcoming feed in parallel; either
// failing fails the load. The crop catalogue is fetched alongside them on its
// own: a failure there is logged and the previous catalogue kept.
func (v *CalendarView) Load(ctx context.Context) error {
	if err := v.app.requireAuth(); err != nil {
		return err
	}
	lang := v.app.language()

	var (
		crops     []models.Crop
		cropsErr  error
		calendars []models.Calendar
		upcoming  []models.UpcomingActivity
		wg        sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		resp, err := v.app.farmer.Crops.List(ctx, models.CropQuery{Language: lang, Limit: cropCatalogLimit})
		if err != nil {
			cropsErr = err
			return
		}
		crops = resp.Crops
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		calendars, err = v.app.farmer.Calendar.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		upcoming, err = v.app.farmer.Calendar.Upcoming(gctx, UpcomingWindowDays, lang)
		return err
	})
	err := g.Wait()
	wg.Wait()

	if cropsErr != nil {
		v.app.log.Warn("crop catalogue load failed", zap.Error(cropsErr))
	} else {
		v.app.store.SetCrops(crops)
	}
	if err != nil {
		return failure(err, "Failed to load calendar")
	}

	v.app.store.SetCalendarEvents(calendars)
	v.mu.Lock()
	v.calendars = calendars
	v.upcoming = upcoming
	v.mu.Unlock()
	return nil
}

// Calendars returns the calendars from the last load.
func (v *CalendarView) Calendars() []models.Calendar {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]models.Calendar(nil), v.calendars...)
}

// Upcoming returns the upcoming feed from the last load.
func (v *CalendarView) Upcoming() []models.UpcomingActivity {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]models.UpcomingActivity(nil), v.upcoming...)
}

// Create starts a calendar for cropID planted on planted.
func (v *CalendarView) Create(ctx context.Context, cropID string, planted time.Time) error {
	req := models.CreateCalendarRequest{
		CropID:       cropID,
		PlantingDate: planted.Format(plantingDateLayout),
		Language:     v.app.language(),
	}
	if _, err := v.app.farmer.Calendar.Create(ctx, req); err != nil {
		return failure(err, "Failed to create calendar")
	}
	return v.Load(ctx)
}

// DeleteCalendar removes a calendar after confirmation.
func (v *CalendarView) DeleteCalendar(ctx context.Context, id string) error {
	if !confirmed(v.confirm, DeleteCalendarPrompt) {
		return ErrCancelled
	}
	if err := v.app.farmer.Calendar.Delete(ctx, id); err != nil {
		return failure(err, "Failed to delete calendar")
	}
	return v.Load(ctx)
}

// AddActivity schedules a new activity on a calendar.
func (v *CalendarView) AddActivity(ctx context.Context, calendarID string, req models.ActivityRequest) error {
	if req.Priority == "" {
		req.Priority = "medium"
	}
	if err := v.app.farmer.Calendar.AddActivity(ctx, calendarID, req); err != nil {
		return failure(err, "Failed to add activity")
	}
	return v.Load(ctx)
}

// SetStatus changes an activity's status.
func (v *CalendarView) SetStatus(ctx context.Context, calendarID, activityID string, status models.ActivityStatus) error {
	update := models.ActivityUpdate{Status: status}
	if status == models.ActivityCompleted {
		done := v.app.now()
		update.CompletedDate = &done
	}
	if err := v.app.farmer.Calendar.UpdateActivity(ctx, calendarID, activityID, update); err != nil {
		return failure(err, "Failed to update activity")
	}
	return v.Load(ctx)
}

// Complete marks an activity completed today.
func (v *CalendarView) Complete(ctx context.Context, calendarID, activityID string) error {
	return v.SetStatus(ctx, calendarID, activityID, models.ActivityCompleted)
}

// DeleteActivity removes an activity after confirmation.
func (v *CalendarView) DeleteActivity(ctx context.Context, calendarID, activityID string) error {
	if !confirmed(v.confirm, DeleteActivityPrompt) {
		return ErrCancelled
	}
	if err := v.app.farmer.Calendar.DeleteActivity(ctx, calendarID, activityID); err != nil {
		return failure(err, "Failed to delete activity")
	}
	return v.Load(ctx)
}
