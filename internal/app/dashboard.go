package app

import (
	"context"
	"errors"
	"strings"

	"agromitra/internal/api"
	"agromitra/internal/models"

	"go.uber.org/zap"
)

// States offered by the location pickers.
var States = []string{
	"Maharashtra",
	"Karnataka",
	"Tamil Nadu",
	"Telangana",
	"Andhra Pradesh",
	"West Bengal",
	"Uttar Pradesh",
	"Punjab",
	"Haryana",
	"Madhya Pradesh",
	"Rajasthan",
	"Bihar",
	"Gujarat",
}

// Seasons accepted by the recommendation route.
var Seasons = []string{"kharif", "rabi", "zaid", "year-round"}

const (
	marketPricesLimit = 20

	recommendFailed     = "Failed to get recommendations"
	priceNotAvailable   = "Price not available"
	statePriceSeason    = "year-round"
	statePriceSoilType  = "black"
	profileLoadFailed   = "Failed to load profile"
	profileUpdateFailed = "Failed to update profile"
)

// RecommendFilters are the inputs of a recommendation request.
type RecommendFilters struct {
	Season   string
	SoilType string
	State    string
}

// DefaultRecommendFilters is the initial filter selection.
func DefaultRecommendFilters() RecommendFilters {
	return RecommendFilters{Season: "kharif", SoilType: "black", State: States[0]}
}

// WeatherCandidates lists the location strings tried for the weather card,
// from most to least specific.
func WeatherCandidates(loc models.Location) []string {
	var out []string
	add := func(parts ...string) {
		for _, p := range parts {
			if p == "" {
				return
			}
		}
		q := strings.Join(parts, ", ")
		for _, seen := range out {
			if seen == q {
				return
			}
		}
		out = append(out, q)
	}
	add(loc.Village, loc.District, loc.State)
	add(loc.District, loc.State)
	add(loc.State)
	return out
}

// FormatPrice renders a market price with its unit.
func FormatPrice(p models.MarketPrice) string {
	if !p.Price.Valid {
		return priceNotAvailable
	}
	num := "₹" + p.Price.Decimal.String()
	switch p.Unit {
	case "per kg":
		return num + "/kg"
	case "per quintal":
		return num + "/quintal"
	case "per ton":
		return num + "/ton"
	default:
		return num + "/" + p.Unit
	}
}

// RecommendationMessage is the error text of a failed recommendation: the
// server message followed by one line per error detail.
func RecommendationMessage(err error) string {
	msg := recommendFailed
	var details []models.ErrorDetail

	var apiErr *api.Error
	switch {
	case errors.As(err, &apiErr):
		if m := apiErr.Body.Message; m != "" {
			msg = m
		} else if m := apiErr.Body.Error; m != "" {
			msg = m
		}
		details = apiErr.Body.Details
	case errors.Is(err, api.ErrUnreachable):
		msg = api.NetworkMessage
	}

	if len(details) > 0 {
		msg += "\n" + formatDetails(details)
	}
	return msg
}

// DashboardView backs the farmer dashboard, recommendations, market prices
// and profile screens.
type DashboardView struct {
	app *App
}

// NewDashboard returns the dashboard controller.
func (app *App) NewDashboard() *DashboardView {
	return &DashboardView{app: app}
}

// Weather returns the conditions for the first candidate location the
// server resolves. It returns nil when none resolves.
func (v *DashboardView) Weather(ctx context.Context, loc models.Location) *models.Weather {
	for _, q := range WeatherCandidates(loc) {
		w, err := v.app.farmer.Weather.Current(ctx, models.WeatherQuery{Location: q})
		if err == nil {
			return w
		}
		v.app.log.Debug("weather lookup failed", zap.String("location", q), zap.Error(err))
		if ctx.Err() != nil {
			return nil
		}
	}
	return nil
}

// Recommend asks for crops matching the filters in the current language.
func (v *DashboardView) Recommend(ctx context.Context, f RecommendFilters) ([]models.Crop, error) {
	resp, err := v.app.farmer.Crops.Recommend(ctx, models.RecommendRequest{
		Season:   f.Season,
		SoilType: f.SoilType,
		Location: f.State,
		Language: v.app.language(),
	})
	if err != nil {
		return nil, &Error{Message: RecommendationMessage(err), Err: err}
	}
	return resp.Crops, nil
}

// StatePrices maps crop names to the market price the recommendation route
// reports for state.
func (v *DashboardView) StatePrices(ctx context.Context, state string) (map[string]models.CropPrice, error) {
	resp, err := v.app.farmer.Crops.Recommend(ctx, models.RecommendRequest{
		Season:   statePriceSeason,
		SoilType: statePriceSoilType,
		Location: state,
		Language: v.app.language(),
	})
	if err != nil {
		return nil, &Error{Message: RecommendationMessage(err), Err: err}
	}
	out := make(map[string]models.CropPrice, len(resp.Crops))
	for _, c := range resp.Crops {
		if c.MarketPrice != nil {
			out[c.Name] = *c.MarketPrice
		}
	}
	return out, nil
}

// MarketPrices lists current prices, optionally for one state.
func (v *DashboardView) MarketPrices(ctx context.Context, state string) ([]models.MarketPrice, error) {
	resp, err := v.app.farmer.Crops.MarketPrices(ctx, v.app.language(), marketPricesLimit, state)
	if err != nil {
		return nil, failure(err, "Failed to load market prices")
	}
	return resp.Prices, nil
}

// Crops lists the catalogue and caches it in the store.
func (v *DashboardView) Crops(ctx context.Context, q models.CropQuery) ([]models.Crop, error) {
	if q.Language == "" {
		q.Language = v.app.language()
	}
	resp, err := v.app.farmer.Crops.List(ctx, q)
	if err != nil {
		return nil, failure(err, "Failed to load crops")
	}
	v.app.store.SetCrops(resp.Crops)
	return resp.Crops, nil
}

// Guide returns one section of a crop's cultivation guide.
func (v *DashboardView) Guide(ctx context.Context, cropID string, guide api.CropGuide) ([]byte, error) {
	raw, err := v.app.farmer.Crops.Guide(ctx, cropID, guide, v.app.language())
	if err != nil {
		return nil, failure(err, "Failed to load crop guide")
	}
	return raw, nil
}

// Profile fetches the farmer profile.
func (v *DashboardView) Profile(ctx context.Context) (*models.User, error) {
	if err := v.app.requireAuth(); err != nil {
		return nil, err
	}
	user, err := v.app.farmer.Auth.Profile(ctx)
	if err != nil {
		return nil, failure(err, profileLoadFailed)
	}
	return user, nil
}

// UpdateProfile saves user and makes it the session user.
func (v *DashboardView) UpdateProfile(ctx context.Context, user models.User) (*models.User, error) {
	if err := v.app.requireAuth(); err != nil {
		return nil, err
	}
	updated, err := v.app.farmer.Auth.UpdateProfile(ctx, user)
	if err != nil {
		return nil, failure(err, profileUpdateFailed)
	}
	if err := v.app.store.SetUser(*updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// WeatherAt returns the conditions at a coordinate pair.
func (v *DashboardView) WeatherAt(ctx context.Context, lat, lon float64) (*models.Weather, error) {
	w, err := v.app.farmer.Weather.Current(ctx, models.WeatherQuery{Latitude: &lat, Longitude: &lon})
	if err != nil {
		return nil, failure(err, "Failed to load weather")
	}
	return w, nil
}

// Crop fetches one crop record in the current language.
func (v *DashboardView) Crop(ctx context.Context, id string) (*models.Crop, error) {
	crop, err := v.app.farmer.Crops.Get(ctx, id, v.app.language())
	if err != nil {
		return nil, failure(err, "Failed to load crop")
	}
	return crop, nil
}

// Browse lists the active listings of every seller.
func (v *DashboardView) Browse(ctx context.Context, q models.BrowseQuery) (*models.ListingsResponse, error) {
	resp, err := v.app.farmer.Marketplace.Browse(ctx, q)
	if err != nil {
		return nil, failure(err, ListingsLoadFailed)
	}
	return resp, nil
}

// Listing fetches one listing by id.
func (v *DashboardView) Listing(ctx context.Context, id string) (*models.Listing, error) {
	l, err := v.app.farmer.Marketplace.Get(ctx, id)
	if err != nil {
		return nil, failure(err, "Failed to load listing")
	}
	return l, nil
}

// VoiceLanguages lists the languages the server's voice routes support.
func (v *DashboardView) VoiceLanguages(ctx context.Context) ([]models.VoiceLanguage, error) {
	langs, err := v.app.farmer.Voice.Languages(ctx)
	if err != nil {
		return nil, failure(err, "Failed to load voice languages")
	}
	return langs, nil
}

// VoiceFormats lists the audio formats the server accepts.
func (v *DashboardView) VoiceFormats(ctx context.Context) ([]string, error) {
	formats, err := v.app.farmer.Voice.Formats(ctx)
	if err != nil {
		return nil, failure(err, "Failed to load voice formats")
	}
	return formats, nil
}
