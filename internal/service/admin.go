package service

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"

	"agromitra/internal/app"
	"agromitra/internal/models"
	"agromitra/internal/tui"

	"github.com/spf13/cobra"
)

// requireAdmin fails when no admin session is stored, before any request is
// sent.
func (h *handlers) requireAdmin() error {
	if _, ok := h.app.AdminSession(); !ok {
		return &commandError{msg: "Please login as admin to continue.", err: app.ErrSessionExpired}
	}
	return nil
}

func (h *handlers) adminCommand() *cobra.Command {
	var search, status string
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Show the admin dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := h.requireAdmin(); err != nil {
				return err
			}
			ctx, cancel := h.context(cmd)
			defer cancel()

			view := h.app.NewAdmin()
			view.FilterOrders(status)
			dash, err := view.Load(ctx, search)
			if err != nil {
				return fail(err)
			}
			h.printDashboard(dash)
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "user search")
	cmd.Flags().StringVar(&status, "status", "", "order status filter")

	var email, password string
	login := &cobra.Command{
		Use:   "login",
		Short: "Sign in as an administrator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := h.context(cmd)
			defer cancel()

			email = h.orPrompt(email, h.t("emailAddress"))
			secret, err := h.orSecret(cmd.Context(), password, h.t("password"))
			if err != nil {
				return fail(err)
			}
			admin, err := h.app.AdminLogin(ctx, email, secret)
			if err != nil {
				return fail(err)
			}
			h.printf("Logged in as admin %s\n", admin.Email)
			return nil
		},
	}
	login.Flags().StringVarP(&email, "email", "e", "", "admin email")
	login.Flags().StringVarP(&password, "password", "p", "", "admin password (prompted when empty)")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "End the admin session",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if err := h.app.AdminLogout(); err != nil {
				return fail(err)
			}
			h.println("Admin logged out.")
			return nil
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle <user-id>",
		Short: "Suspend an active account or activate a suspended one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := h.requireAdmin(); err != nil {
				return err
			}
			ctx, cancel := h.context(cmd)
			defer cancel()

			view := h.app.NewAdmin()
			dash, err := view.Load(ctx, "")
			if err != nil {
				return fail(err)
			}
			idx := slices.IndexFunc(dash.Users, func(u models.AdminUser) bool { return u.Key() == args[0] })
			if idx < 0 {
				return fmt.Errorf("user %s not found", args[0])
			}
			user := dash.Users[idx]
			if !h.confirm.Confirm(fmt.Sprintf("%s %s?", user.ToggleAction(), user.Email)) {
				return fail(app.ErrCancelled)
			}
			if err := view.ToggleUser(ctx, user); err != nil {
				return fail(err)
			}
			if notice := view.Notice(); notice != "" {
				h.println(notice)
			}
			if d := view.Dashboard(); d != nil {
				if i := slices.IndexFunc(d.Users, func(u models.AdminUser) bool { return u.Key() == args[0] }); i >= 0 {
					h.printUser(d.Users[i])
				}
			}
			return nil
		},
	}

	cmd.AddCommand(login, logout, toggle)
	return cmd
}

func (h *handlers) printDashboard(d *app.Dashboard) {
	h.printf("%s %s\n", tui.Title("Admin Dashboard"), tui.Faint(d.Admin.Email))
	if w := d.Warning(); w != "" {
		h.println(tui.Error(w))
	}

	if s := d.Summary; s != nil {
		h.printf("Users: %d (%d active, %d inactive)  Listings: %d (%d active, %d sold)  Orders: %d\n",
			s.Users.Total, s.Users.Active, s.Users.Inactive,
			s.Listings.Total, s.Listings.Active, s.Listings.Sold, s.Orders.Total)
	}

	if !slices.Contains(d.Failed, app.SectionUsers) {
		h.println()
		h.printf("%s (%d)\n", tui.Title("Users"), d.TotalUsers)
		for _, u := range d.Users {
			h.printUser(u)
		}
	}

	if !slices.Contains(d.Failed, app.SectionOrders) {
		h.println()
		h.println(tui.Title("Recent orders"))
		for _, o := range d.Orders {
			crop, buyer := "", ""
			if o.Listing != nil {
				crop = o.Listing.CropName
			}
			if o.Buyer != nil {
				buyer = o.Buyer.Name
			}
			h.printf("%s %-24s %s %g  %s\n", tui.OrderBadge(o.Status), o.Key(), crop, o.Quantity, tui.Faint(buyer))
		}
	}

	if d.Stats != nil || d.Performance != nil {
		h.println()
		h.println(tui.Title("Model"))
	}
	if d.Stats != nil {
		h.printStats(d.Stats)
	}
	if d.Performance != nil {
		h.printPerformance(d.Performance)
	}
}

func (h *handlers) printUser(u models.AdminUser) {
	h.printf("%s %-24s %-20s %s  %s\n", tui.UserBadge(u), u.Key(), u.Name, u.Email, tui.Faint(u.ToggleAction()))
}

func (h *handlers) printStats(s *models.TrainingStats) {
	h.printf("Samples: %d\n", s.TotalSamples)
	names := make([]string, 0, len(s.Categories))
	for name := range s.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		h.printf("  %-22s %d\n", tui.ClassificationLabel(name), s.Categories[name])
	}
}

func (h *handlers) printPerformance(p *models.ModelPerformance) {
	accuracy := "N/A"
	if p.Accuracy != nil {
		accuracy = fmt.Sprintf("%.1f%%", *p.Accuracy*100)
	}
	h.printf("Model: %s  Accuracy: %s\n", p.Model, accuracy)
}

func (h *handlers) trainingCommand() *cobra.Command {
	var asAdmin bool
	view := func() (*app.TrainingView, error) {
		if !asAdmin {
			return h.app.NewTraining(), nil
		}
		if err := h.requireAdmin(); err != nil {
			return nil, err
		}
		return h.app.NewAdmin().Training(), nil
	}

	cmd := &cobra.Command{
		Use:   "training",
		Short: "Show the intent classifier's dataset and performance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := view()
			if err != nil {
				return err
			}
			ctx, cancel := h.context(cmd)
			defer cancel()

			stats, err := v.Stats(ctx)
			if err != nil {
				return fail(err)
			}
			perf, err := v.Performance(ctx)
			if err != nil {
				return fail(err)
			}
			h.printStats(stats)
			h.printPerformance(perf)
			return nil
		},
	}
	cmd.PersistentFlags().BoolVar(&asAdmin, "admin", false, "use the admin training routes")

	var sample models.TrainingSample
	add := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a labelled training sample",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(models.TrainingCategories, sample.Category) {
				return fmt.Errorf("unknown category %q (%s)", sample.Category, strings.Join(models.TrainingCategories, ", "))
			}
			v, err := view()
			if err != nil {
				return err
			}
			ctx, cancel := h.context(cmd)
			defer cancel()

			sample.Text = args[0]
			msg, err := v.AddSample(ctx, sample)
			if err != nil {
				return fail(err)
			}
			h.println(msg)
			return nil
		},
	}
	add.Flags().StringVar(&sample.Category, "category", "general", "category")
	add.Flags().StringVar(&sample.Language, "language", "", "sample language (default current)")

	retrain := &cobra.Command{
		Use:   "retrain",
		Short: "Retrain the model from the stored samples",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := view()
			if err != nil {
				return err
			}
			ctx, cancel := h.context(cmd)
			defer cancel()

			msg, err := v.Retrain(ctx)
			if err != nil {
				return fail(err)
			}
			h.println(msg)
			return nil
		},
	}

	test := &cobra.Command{
		Use:   "test [query...]",
		Short: "Classify queries; without arguments one query per stdin line",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := view()
			if err != nil {
				return err
			}
			text := strings.Join(args, "\n")
			if len(args) == 0 {
				raw, err := io.ReadAll(h.in)
				if err != nil {
					return err
				}
				text = string(raw)
			}
			ctx, cancel := h.context(cmd)
			defer cancel()

			results, err := v.Test(ctx, text)
			if err != nil {
				return fail(err)
			}
			if len(results) == 0 {
				return fail(errors.New("no queries to test"))
			}
			for _, r := range results {
				switch {
				case r.Error != "":
					h.printf("%s → %s\n", r.Query, tui.Error(r.Error))
				case r.Confidence != nil:
					h.printf("%s → %s (%.2f)\n", r.Query, tui.Badge(tui.ClassificationLabel(r.Prediction), tui.Tint(r.Prediction)), *r.Confidence)
				default:
					h.printf("%s → %s\n", r.Query, tui.Badge(tui.ClassificationLabel(r.Prediction), tui.Tint(r.Prediction)))
				}
			}
			return nil
		},
	}

	cmd.AddCommand(add, retrain, test)
	return cmd
}
