package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"agromitra/internal/api"
	"agromitra/internal/app"
	"agromitra/internal/models"
	"agromitra/internal/tui"

	"github.com/spf13/cobra"
)

const weatherUnavailable = "Weather is not available for this location."

var guides = map[string]api.CropGuide{
	"harvesting":    api.GuideHarvesting,
	"pest-control":  api.GuidePestControl,
	"irrigation":    api.GuideIrrigation,
	"fertilization": api.GuideFertilization,
}

func (h *handlers) cropsCommand() *cobra.Command {
	var q models.CropQuery
	cmd := &cobra.Command{
		Use:   "crops",
		Short: "List the crop catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := h.context(cmd)
			defer cancel()

			crops, err := h.app.NewDashboard().Crops(ctx, q)
			if err != nil {
				return fail(err)
			}
			for _, c := range crops {
				h.printf("%-26s %-12s %s\n", c.Key(), c.Name, tui.Faint(strings.Join(c.Seasons, ", ")))
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&q.Season, "season", "", "season filter")
	f.StringVar(&q.SoilType, "soil", "", "soil type filter")
	f.StringVar(&q.Search, "search", "", "name search")
	f.IntVar(&q.Page, "page", 0, "page number")
	f.IntVar(&q.Limit, "limit", 0, "page size")

	show := &cobra.Command{
		Use:   "show <crop-id>",
		Short: "Show one crop",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := h.context(cmd)
			defer cancel()

			crop, err := h.app.NewDashboard().Crop(ctx, args[0])
			if err != nil {
				return fail(err)
			}
			h.printCrop(*crop)
			return nil
		},
	}

	guide := &cobra.Command{
		Use:       "guide <crop-id> <harvesting|pest-control|irrigation|fertilization>",
		Short:     "Show one section of a crop's cultivation guide",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"harvesting", "pest-control", "irrigation", "fertilization"},
		RunE: func(cmd *cobra.Command, args []string) error {
			section, ok := guides[args[1]]
			if !ok {
				return fmt.Errorf("unknown guide %q", args[1])
			}
			ctx, cancel := h.context(cmd)
			defer cancel()

			raw, err := h.app.NewDashboard().Guide(ctx, args[0], section)
			if err != nil {
				return fail(err)
			}
			var pretty bytes.Buffer
			if err := json.Indent(&pretty, raw, "", "  "); err != nil {
				pretty.Reset()
				pretty.Write(raw)
			}
			h.println(pretty.String())
			return nil
		},
	}
	cmd.AddCommand(show, guide)
	return cmd
}

func (h *handlers) printCrop(c models.Crop) {
	h.printf("%s %s\n", tui.Title(c.Name), tui.Faint(c.ScientificName))
	if c.Description != "" {
		h.println(c.Description)
	}
	h.printf("Seasons:     %s\n", strings.Join(c.Seasons, ", "))
	soils := make([]string, len(c.SoilTypes))
	for i, s := range c.SoilTypes {
		soils[i] = models.SoilTypeLabel(s)
	}
	h.printf("Soil:        %s\n", strings.Join(soils, ", "))
	h.printf("Temperature: %g-%g °C\n", c.Climate.Temperature.Min, c.Climate.Temperature.Max)
	h.printf("Rainfall:    %g-%g mm\n", c.Climate.Rainfall.Min, c.Climate.Rainfall.Max)
	if c.Harvesting.MaturityPeriod > 0 {
		h.printf("Maturity:    %d days\n", c.Harvesting.MaturityPeriod)
	}
	if c.MarketPrice != nil && c.MarketPrice.Current.Valid {
		h.printf("Price:       ₹%s/%s\n", c.MarketPrice.Current.Decimal, c.MarketPrice.Unit)
	}
}

func (h *handlers) recommendCommand() *cobra.Command {
	f := app.DefaultRecommendFilters()
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend crops for a season, soil and state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := h.context(cmd)
			defer cancel()

			crops, err := h.app.NewDashboard().Recommend(ctx, f)
			if err != nil {
				return fail(err)
			}
			h.println(tui.Title(h.t("cropRecommendations")))
			if len(crops) == 0 {
				h.println("No crops match these conditions.")
				return nil
			}
			for _, c := range crops {
				line := c.Name
				if c.Suitability > 0 {
					line += fmt.Sprintf(" (%.0f%% match)", c.Suitability)
				}
				if c.MarketPrice != nil && c.MarketPrice.Current.Valid {
					line += " " + tui.Faint(fmt.Sprintf("₹%s/%s", c.MarketPrice.Current.Decimal, c.MarketPrice.Unit))
				}
				h.println("• " + line)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&f.Season, "season", f.Season, "season ("+strings.Join(app.Seasons, ", ")+")")
	cmd.Flags().StringVar(&f.SoilType, "soil", f.SoilType, "soil type")
	cmd.Flags().StringVar(&f.State, "state", f.State, "state")
	return cmd
}

func (h *handlers) pricesCommand() *cobra.Command {
	var state string
	var byState bool
	cmd := &cobra.Command{
		Use:   "prices",
		Short: "Show current market prices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := h.context(cmd)
			defer cancel()

			dash := h.app.NewDashboard()
			h.println(tui.Title(h.t("marketPrices")))
			if byState {
				if state == "" {
					state = app.States[0]
				}
				prices, err := dash.StatePrices(ctx, state)
				if err != nil {
					return fail(err)
				}
				names := make([]string, 0, len(prices))
				for name := range prices {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					p := prices[name]
					h.printf("%-16s %s\n", name, app.FormatPrice(models.MarketPrice{Price: p.Current, Unit: p.Unit}))
				}
				return nil
			}

			prices, err := dash.MarketPrices(ctx, state)
			if err != nil {
				return fail(err)
			}
			for _, p := range prices {
				h.printf("%-16s %-18s %s\n", p.Name, app.FormatPrice(p), tui.Faint(p.Location))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&state, "state", "", "limit to one state")
	cmd.Flags().BoolVar(&byState, "recommended", false, "prices of the crops recommended for the state")
	return cmd
}

func (h *handlers) weatherCommand() *cobra.Command {
	var lat, lon float64
	cmd := &cobra.Command{
		Use:   "weather [location]",
		Short: "Show the weather for a place, coordinates or the profile location",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := h.context(cmd)
			defer cancel()

			dash := h.app.NewDashboard()
			if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
				w, err := dash.WeatherAt(ctx, lat, lon)
				if err != nil {
					return fail(err)
				}
				h.printWeather(w)
				return nil
			}

			var loc models.Location
			switch {
			case len(args) == 1:
				loc.State = args[0]
			default:
				user := h.app.Store().State().User
				if user == nil {
					return fail(app.ErrNotAuthenticated)
				}
				loc = user.Location
			}
			w := dash.Weather(ctx, loc)
			if w == nil {
				return &commandError{msg: weatherUnavailable}
			}
			h.printWeather(w)
			return nil
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "longitude")
	cmd.MarkFlagsRequiredTogether("lat", "lon")
	return cmd
}

func (h *handlers) printWeather(w *models.Weather) {
	h.printf("%s %s\n", tui.Title(h.t("weather")), w.Location)
	h.printf("%s, %.1f °C, humidity %.0f%%, wind %.0f km/h, rain %.0f%%\n",
		w.Condition, w.TempC, w.Humidity, w.WindKph, w.RainProbability)
	for _, alert := range w.Alerts {
		h.println(tui.Error("! " + alert))
	}
	if w.Source != "" {
		h.println(tui.Faint("Source: " + w.Source))
	}
}

func (h *handlers) voiceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "voice",
		Short: "List the languages and audio formats of the voice service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := h.context(cmd)
			defer cancel()

			dash := h.app.NewDashboard()
			langs, err := dash.VoiceLanguages(ctx)
			if err != nil {
				return fail(err)
			}
			formats, err := dash.VoiceFormats(ctx)
			if err != nil {
				return fail(err)
			}
			for _, l := range langs {
				h.printf("%-6s %s\n", l.Code, l.Name)
			}
			h.printf("Formats: %s\n", strings.Join(formats, ", "))
			return nil
		},
	}
}

func (h *handlers) browseCommand() *cobra.Command {
	var q models.BrowseQuery
	cmd := &cobra.Command{
		Use:   "browse [listing-id]",
		Short: "Browse active marketplace listings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := h.context(cmd)
			defer cancel()

			dash := h.app.NewDashboard()
			if len(args) == 1 {
				l, err := dash.Listing(ctx, args[0])
				if err != nil {
					return fail(err)
				}
				h.printListing(*l)
				if l.Description != "" {
					h.println(l.Description)
				}
				if l.Seller != nil {
					h.printf("Seller: %s %s %s\n", l.Seller.Name, l.Seller.Phone, l.Seller.Email)
				}
				return nil
			}

			resp, err := dash.Browse(ctx, q)
			if err != nil {
				return fail(err)
			}
			if len(resp.Listings) == 0 {
				h.println("No listings found.")
				return nil
			}
			for _, l := range resp.Listings {
				h.printListing(l)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&q.State, "state", "", "state filter")
	f.StringVar(&q.CropName, "crop", "", "crop name filter")
	f.IntVar(&q.Page, "page", 0, "page number")
	f.IntVar(&q.Limit, "limit", 0, "page size")
	return cmd
}

func (h *handlers) printListing(l models.Listing) {
	h.printf("%s %-24s %s %g %s @ ₹%s/%s  %s\n",
		tui.ListingBadge(l.Status), l.Key(), l.CropName, l.Quantity, l.Unit,
		l.PricePerUnit.String(), l.Unit, tui.Faint(l.Location.String()))
}
