package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"agromitra/internal/app"
	"agromitra/internal/models"
	"agromitra/internal/pkg/logger"
	"agromitra/internal/tui"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// listingFlags are the form fields shared by listings add and edit.
type listingFlags struct {
	crop        string
	quantity    float64
	unit        string
	price       string
	description string
	location    models.Location
}

func (lf *listingFlags) register(f *pflag.FlagSet) {
	f.StringVar(&lf.crop, "crop", "", "crop name")
	f.Float64Var(&lf.quantity, "quantity", 0, "quantity")
	f.StringVar(&lf.unit, "unit", "", "unit ("+strings.Join(models.Units, ", ")+")")
	f.StringVar(&lf.price, "price", "", "price per unit in rupees")
	f.StringVar(&lf.description, "description", "", "description")
	f.StringVar(&lf.location.State, "state", "", "state")
	f.StringVar(&lf.location.District, "district", "", "district")
	f.StringVar(&lf.location.Village, "village", "", "village")
}

// apply copies the flags that were set onto form.
func (lf *listingFlags) apply(f *pflag.FlagSet, form *models.ListingForm) error {
	if f.Changed("crop") {
		form.CropName = lf.crop
	}
	if f.Changed("quantity") {
		form.Quantity = lf.quantity
	}
	if f.Changed("unit") {
		form.Unit = lf.unit
	}
	if f.Changed("price") {
		price, err := decimal.NewFromString(strings.TrimSpace(lf.price))
		if err != nil {
			return fmt.Errorf("invalid price %q", lf.price)
		}
		form.PricePerUnit = price
	}
	if f.Changed("description") {
		form.Description = lf.description
	}
	if f.Changed("state") || f.Changed("district") || f.Changed("village") {
		loc := models.Location{}
		if form.Location != nil {
			loc = *form.Location
		}
		if f.Changed("state") {
			loc.State = lf.location.State
		}
		if f.Changed("district") {
			loc.District = lf.location.District
		}
		if f.Changed("village") {
			loc.Village = lf.location.Village
		}
		form.Location = &loc
	}
	return nil
}

func (h *handlers) listingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listings",
		Short: "List your marketplace listings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := h.context(cmd)
			defer cancel()

			view := h.app.NewSell(h.confirm)
			if err := view.LoadListings(ctx); err != nil {
				return fail(err)
			}
			h.printListings(view.Listings())
			return nil
		},
	}

	var add listingFlags
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create a listing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var form models.ListingForm
			if err := add.apply(cmd.Flags(), &form); err != nil {
				return err
			}
			ctx, cancel := h.context(cmd)
			defer cancel()

			view := h.app.NewSell(h.confirm)
			if err := view.SaveListing(ctx, "", form); err != nil {
				return fail(err)
			}
			h.println("Listing created.")
			h.printListings(view.Listings())
			return nil
		},
	}
	add.register(addCmd.Flags())

	var edit listingFlags
	editCmd := &cobra.Command{
		Use:   "edit <listing-id>",
		Short: "Change an active listing; unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := h.context(cmd)
			defer cancel()

			view := h.app.NewSell(h.confirm)
			l, err := h.findListing(ctx, view, args[0])
			if err != nil {
				return err
			}
			form, err := view.EditForm(l)
			if err != nil {
				return fail(err)
			}
			if err := edit.apply(cmd.Flags(), &form); err != nil {
				return err
			}
			if err := view.SaveListing(ctx, l.Key(), form); err != nil {
				return fail(err)
			}
			h.println("Listing updated.")
			h.printListings(view.Listings())
			return nil
		},
	}
	edit.register(editCmd.Flags())

	rmCmd := &cobra.Command{
		Use:   "rm <listing-id>",
		Short: "Remove an active listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := h.context(cmd)
			defer cancel()

			view := h.app.NewSell(h.confirm)
			l, err := h.findListing(ctx, view, args[0])
			if err != nil {
				return err
			}
			if err := view.RemoveListing(ctx, l); err != nil {
				return fail(err)
			}
			h.println("Listing removed.")
			return nil
		},
	}

	cmd.AddCommand(addCmd, editCmd, rmCmd)
	return cmd
}

func (h *handlers) findListing(ctx context.Context, view *app.SellView, id string) (models.Listing, error) {
	if err := view.LoadListings(ctx); err != nil {
		return models.Listing{}, fail(err)
	}
	for _, l := range view.Listings() {
		if l.Key() == id {
			return l, nil
		}
	}
	return models.Listing{}, fmt.Errorf("listing %s not found", id)
}

func (h *handlers) printListings(listings []models.Listing) {
	h.println(tui.Title(h.t("sellCrops")))
	if len(listings) == 0 {
		h.println("No listings yet.")
		return
	}
	for _, l := range listings {
		h.printListing(l)
		if app.Editable(l) {
			h.println(tui.Faint("    edit | rm"))
		}
	}
}

func (h *handlers) ordersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List the orders placed on your listings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := h.context(cmd)
			defer cancel()

			view := h.app.NewSell(h.confirm)
			if err := view.LoadOrders(ctx, true); err != nil {
				return fail(err)
			}
			h.printOrders(view.Orders())
			return nil
		},
	}

	for _, action := range []app.OrderAction{app.ActionAccept, app.ActionReject, app.ActionDeliver} {
		cmd.AddCommand(h.orderActionCommand(action))
	}
	cmd.AddCommand(h.ordersWatchCommand())
	return cmd
}

func (h *handlers) orderActionCommand(action app.OrderAction) *cobra.Command {
	return &cobra.Command{
		Use:   string(action) + " <order-id>",
		Short: fmt.Sprintf("Set an order to %s", action.Status()),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := h.context(cmd)
			defer cancel()

			view := h.app.NewSell(h.confirm)
			if err := view.UpdateOrderStatus(ctx, args[0], action); err != nil {
				return fail(err)
			}
			h.printf("Order %s %s.\n", args[0], action.Status())
			h.printOrders(view.Orders())
			return nil
		},
	}
}

func (h *handlers) printOrders(orders []models.Order) {
	if len(orders) == 0 {
		h.println("No orders yet.")
		return
	}
	for _, o := range orders {
		total := "-"
		if t := o.Total(); t.Valid {
			total = "₹" + t.Decimal.String()
		}
		h.printf("%s %-24s %s %g %s  %s  %s\n", tui.OrderBadge(o.Status), o.Key(),
			o.Listing.CropName, o.Quantity, o.Listing.Unit, total, tui.Faint(o.Buyer.Name+" "+o.Buyer.Phone))
		if actions := app.ActionsFor(o.Status); len(actions) > 0 {
			names := make([]string, len(actions))
			for i, a := range actions {
				names[i] = string(a)
			}
			h.println(tui.Faint("    " + strings.Join(names, " | ")))
		}
	}
}

func (h *handlers) ordersWatchCommand() *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh the orders periodically until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if !cmd.Flags().Changed("metrics-addr") {
				metricsAddr = h.env.Config.Orders.MetricsAddr
			}
			if metricsAddr != "" {
				addr, stop, err := serveMetrics(metricsAddr, h.env.Registry, h.env.Log)
				if err != nil {
					return err
				}
				defer stop()
				h.printf("Serving metrics on http://%s/metrics\n", addr)
			}

			view := h.app.NewSell(h.confirm)
			if err := view.LoadOrders(ctx, true); err != nil {
				h.println(tui.Error(app.Message(err, app.OrdersLoadFailed)))
			} else {
				h.printOrders(view.Orders())
			}

			var mu sync.Mutex
			err := view.Watch(ctx, func(orders []models.Order, err error) {
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					if !errors.Is(err, context.Canceled) {
						h.println(tui.Error(app.Message(err, app.OrdersLoadFailed)))
					}
					return
				}
				h.println(tui.Faint(h.app.Now().Format(time.TimeOnly)))
				h.printOrders(orders)
			})
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while watching")
	return cmd
}

// serveMetrics exposes reg on addr under /metrics. It returns the bound
// address and a function that shuts the server down.
func serveMetrics(addr string, reg *prometheus.Registry, l *logger.Logger) (net.Addr, func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("service: listen %s: %w", addr, err)
	}

	router := chi.NewRouter()
	router.Use(l.WithLogging())
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	const readHeaderTimeout = 5 * time.Second
	server := &http.Server{Handler: router, ReadHeaderTimeout: readHeaderTimeout}
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("metrics server stopped", zap.Error(err))
		}
	}()

	return ln.Addr(), func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			l.Warn("metrics server shutdown", zap.Error(err))
		}
	}, nil
}
