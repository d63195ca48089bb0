package apitest

import (
	"net/http"
	"strconv"
	"strings"

	"agromitra/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// DefaultAdminEmail and DefaultAdminPassword identify the seeded admin account.
const (
	DefaultAdminEmail    = "admin@agromitra.in"
	DefaultAdminPassword = "admin123"
)

func (s *Server) seed() {
	_ = s.AddAdmin(DefaultAdminEmail, DefaultAdminPassword)

	s.crops = []models.Crop{
		newCrop("crop-rice", "Rice", "Oryza sativa", []string{"kharif"}, []string{"alluvial", "black"}, 120),
		newCrop("crop-wheat", "Wheat", "Triticum aestivum", []string{"rabi"}, []string{"alluvial"}, 140),
		newCrop("crop-cotton", "Cotton", "Gossypium", []string{"kharif"}, []string{"black", "red"}, 160),
		newCrop("crop-millet", "Pearl Millet", "Pennisetum glaucum", []string{"kharif", "year-round"}, []string{"black", "red", "desert"}, 0),
	}
	s.prices = []models.MarketPrice{
		newPrice("Rice", 2200, "per quintal", "Maharashtra", "up"),
		newPrice("Rice", 2150, "per quintal", "", "stable"),
		newPrice("Wheat", 2425, "per quintal", "Punjab", "up"),
		newPrice("Cotton", 68, "per kg", "Maharashtra", "down"),
		{Ref: models.Ref{OID: "price-millet"}, Name: "Pearl Millet", Unit: "per quintal", Source: "Agmarknet"},
	}
}

func newCrop(id, name, scientific string, seasons, soils []string, maturity int) models.Crop {
	c := models.Crop{
		Ref:            models.Ref{OID: id},
		Name:           name,
		ScientificName: scientific,
		Description:    name + " cultivation guide",
		Seasons:        seasons,
		SoilTypes:      soils,
	}
	c.Harvesting.MaturityPeriod = maturity
	c.Harvesting.Method = "Manual"
	c.Irrigation.Frequency = "weekly"
	c.Irrigation.Methods = []string{"drip", "flood"}
	c.PestControl.CommonPests = []string{"stem borer", "aphids"}
	c.Fertilization.Organic = []string{"farmyard manure"}
	return c
}

func newPrice(name string, price int64, unit, location, trend string) models.MarketPrice {
	return models.MarketPrice{
		Ref:      models.Ref{OID: "price-" + strings.ToLower(name) + "-" + strings.ToLower(location)},
		Name:     name,
		Price:    decimal.NewNullDecimal(decimal.NewFromInt(price)),
		Unit:     unit,
		Source:   "Agmarknet",
		Location: location,
		Trend:    trend,
	}
}

func nullDecimal(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NewNullDecimal(d)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}

func intParam(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func page[T any](items []T, pageNum, limit int) []T {
	start := (pageNum - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func (s *Server) findCrop(id string) (models.Crop, bool) {
	for _, c := range s.crops {
		if c.Key() == id {
			return c, true
		}
	}
	return models.Crop{}, false
}

// priceFor picks the state row for a crop, falling back to the national row.
func (s *Server) priceFor(name, state string) *models.CropPrice {
	var fallback *models.MarketPrice
	for i := range s.prices {
		p := &s.prices[i]
		if p.Name != name || !p.Price.Valid {
			continue
		}
		if state != "" && strings.EqualFold(p.Location, state) {
			return cropPrice(p)
		}
		if p.Location == "" {
			fallback = p
		}
	}
	if fallback == nil {
		return nil
	}
	return cropPrice(fallback)
}

func cropPrice(p *models.MarketPrice) *models.CropPrice {
	unit := strings.TrimPrefix(p.Unit, "per ")
	return &models.CropPrice{
		Current:  p.Price,
		Min:      decimal.NewNullDecimal(p.Price.Decimal.Mul(decimal.NewFromFloat(0.9)).Round(0)),
		Max:      decimal.NewNullDecimal(p.Price.Decimal.Mul(decimal.NewFromFloat(1.1)).Round(0)),
		Unit:     unit,
		Currency: "INR",
		Source:   p.Source,
		Location: p.Location,
	}
}

func (s *Server) listCropsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	season, soil, search := q.Get("season"), q.Get("soilType"), strings.ToLower(q.Get("search"))

	s.mu.Lock()
	var out []models.Crop
	for _, c := range s.crops {
		if season != "" && !contains(c.Seasons, season) {
			continue
		}
		if soil != "" && !contains(c.SoilTypes, soil) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(c.Name), search) {
			continue
		}
		out = append(out, c)
	}
	s.mu.Unlock()

	pageNum := intParam(r, "page", 1)
	writeJSON(w, http.StatusOK, models.CropListResponse{
		Crops: page(out, pageNum, intParam(r, "limit", 10)),
		Total: len(out),
		Page:  pageNum,
	})
}

func (s *Server) getCropHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	c, ok := s.findCrop(chi.URLParam(r, "id"))
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Crop not found")
		return
	}
	writeJSON(w, http.StatusOK, models.CropResponse{Crop: c})
}

func (s *Server) cropGuideHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	c, ok := s.findCrop(chi.URLParam(r, "id"))
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Crop not found")
		return
	}

	var section any
	key := chi.URLParam(r, "guide")
	switch key {
	case "harvesting":
		section = c.Harvesting
	case "pest-control":
		section = c.PestControl
	case "irrigation":
		section = c.Irrigation
	case "fertilization":
		section = c.Fertilization
	default:
		writeError(w, http.StatusNotFound, "Route not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"crop": c.Name, key: section})
}

func (s *Server) recommendHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RecommendRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var details []models.ErrorDetail
	if req.Season == "" {
		details = append(details, models.ErrorDetail{Field: "season", Value: req.Season, Message: "Season is required"})
	}
	if req.SoilType == "" {
		details = append(details, models.ErrorDetail{Field: "soilType", Value: req.SoilType, Message: "Soil type is required"})
	}
	if len(details) > 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed", Details: details})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Crop{}
	for _, c := range s.crops {
		if req.Season != "year-round" && !contains(c.Seasons, req.Season) {
			continue
		}
		c.Suitability = 60
		if contains(c.SoilTypes, req.SoilType) {
			c.Suitability = 90
		}
		c.MarketPrice = s.priceFor(c.Name, req.Location)
		out = append(out, c)
	}
	writeJSON(w, http.StatusOK, models.RecommendResponse{Crops: out})
}

func (s *Server) marketPricesHandler(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("location")
	limit := intParam(r, "limit", 20)

	s.mu.Lock()
	out := []models.MarketPrice{}
	for _, p := range s.prices {
		if location != "" && !strings.EqualFold(p.Location, location) {
			continue
		}
		out = append(out, p)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, models.MarketPricesResponse{Prices: page(out, 1, limit)})
}

func (s *Server) weatherHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	location := q.Get("location")

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case location != "":
		weather, ok := s.weather[strings.ToLower(location)]
		if !ok {
			writeError(w, http.StatusNotFound, "Location not found")
			return
		}
		writeJSON(w, http.StatusOK, weather)
	case q.Get("latitude") != "" && q.Get("longitude") != "":
		lat, _ := strconv.ParseFloat(q.Get("latitude"), 64)
		lon, _ := strconv.ParseFloat(q.Get("longitude"), 64)
		writeJSON(w, http.StatusOK, models.Weather{
			Location:  "Current location",
			Latitude:  lat,
			Longitude: lon,
			TempC:     29,
			Condition: "Clear",
			UpdatedAt: s.now(),
			Source:    "fake",
		})
	default:
		writeError(w, http.StatusBadRequest, "Location or coordinates are required")
	}
}

func (s *Server) voiceLanguagesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.VoiceLanguagesResponse{Languages: []models.VoiceLanguage{
		{Code: "en-US", Name: "English"},
		{Code: "hi-IN", Name: "Hindi"},
		{Code: "te-IN", Name: "Telugu"},
		{Code: "kn-IN", Name: "Kannada"},
		{Code: "ta-IN", Name: "Tamil"},
		{Code: "ml-IN", Name: "Malayalam"},
	}})
}

func (s *Server) voiceFormatsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.VoiceFormatsResponse{Formats: []string{"wav", "mp3", "webm", "ogg"}})
}
