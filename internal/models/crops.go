package models

import (
	"github.com/shopspring/decimal"
)

// Range is a numeric min/max pair.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Climate describes a crop's growing conditions.
type Climate struct {
	Temperature Range `json:"temperature"`
	Rainfall    Range `json:"rainfall"`
	Humidity    Range `json:"humidity"`
}

// Planting describes spacing, depth and timing.
type Planting struct {
	Spacing struct {
		Row   float64 `json:"row"`
		Plant float64 `json:"plant"`
	} `json:"spacing"`
	Depth        float64 `json:"depth"`
	SeedRate     float64 `json:"seedRate"`
	PlantingTime string  `json:"plantingTime"`
}

// Irrigation describes a crop's water needs.
type Irrigation struct {
	Frequency        string   `json:"frequency"`
	WaterRequirement float64  `json:"waterRequirement"`
	Methods          []string `json:"methods"`
}

// FertilizerStep is one stage of a fertilisation schedule.
type FertilizerStep struct {
	Stage      string `json:"stage"`
	Fertilizer string `json:"fertilizer"`
	Quantity   string `json:"quantity"`
	Timing     string `json:"timing"`
}

// Fertilization describes nutrient requirements.
type Fertilization struct {
	NPK struct {
		Nitrogen   float64 `json:"nitrogen"`
		Phosphorus float64 `json:"phosphorus"`
		Potassium  float64 `json:"potassium"`
	} `json:"npk"`
	Organic  []string         `json:"organic"`
	Schedule []FertilizerStep `json:"schedule"`
}

// Pesticide is a recommended chemical control.
type Pesticide struct {
	Name             string `json:"name"`
	ActiveIngredient string `json:"activeIngredient"`
	Dosage           string `json:"dosage"`
	Application      string `json:"application"`
	SafetyPeriod     int    `json:"safetyPeriod"`
}

// PestControl lists pests and their controls.
type PestControl struct {
	CommonPests    []string    `json:"commonPests"`
	Pesticides     []Pesticide `json:"pesticides"`
	OrganicControl []string    `json:"organicControl"`
}

// Harvesting describes maturity and yield.
type Harvesting struct {
	MaturityPeriod int      `json:"maturityPeriod"`
	Indicators     []string `json:"indicators"`
	Method         string   `json:"method"`
	Yield          struct {
		Min  float64 `json:"min"`
		Max  float64 `json:"max"`
		Unit string  `json:"unit"`
	} `json:"yield"`
}

// CropPrice is the market price attached to a crop or recommendation.
type CropPrice struct {
	Current  decimal.NullDecimal `json:"current"`
	Min      decimal.NullDecimal `json:"min"`
	Max      decimal.NullDecimal `json:"max"`
	Unit     string              `json:"unit"`
	Currency string              `json:"currency,omitempty"`
	Source   string              `json:"source,omitempty"`
	Location string              `json:"location,omitempty"`
}

// Crop is the descriptive agronomic record served by the crop routes.
type Crop struct {
	Ref
	Name           string        `json:"name"`
	ScientificName string        `json:"scientificName"`
	Description    string        `json:"description"`
	Seasons        []string      `json:"seasons"`
	SoilTypes      []string      `json:"soilTypes"`
	Climate        Climate       `json:"climate"`
	Planting       Planting      `json:"planting"`
	Irrigation     Irrigation    `json:"irrigation"`
	Fertilization  Fertilization `json:"fertilization"`
	PestControl    PestControl   `json:"pestControl"`
	Harvesting     Harvesting    `json:"harvesting"`
	MarketPrice    *CropPrice    `json:"marketPrice,omitempty"`
	Images         []string      `json:"images"`
	Suitability    float64       `json:"suitabilityScore,omitempty"`
}

// CropQuery filters the crop catalogue.
type CropQuery struct {
	Season   string
	SoilType string
	Language string
	Page     int
	Limit    int
	Search   string
}

// CropListResponse wraps GET /crops.
type CropListResponse struct {
	Crops []Crop `json:"crops"`
	Total int    `json:"total,omitempty"`
	Page  int    `json:"page,omitempty"`
}

// CropResponse wraps GET /crops/:id.
type CropResponse struct {
	Crop Crop `json:"crop"`
}

// RecommendRequest is the crop recommendation payload.
type RecommendRequest struct {
	Season   string `json:"season"`
	SoilType string `json:"soilType"`
	Location string `json:"location,omitempty"`
	Language string `json:"language,omitempty"`
}

// RecommendResponse wraps POST /crops/recommend.
type RecommendResponse struct {
	Crops []Crop `json:"crops"`
}

// MarketPrice is one row of the market price board.
type MarketPrice struct {
	Ref
	Name     string              `json:"name"`
	Price    decimal.NullDecimal `json:"price"`
	Unit     string              `json:"unit"`
	Source   string              `json:"source,omitempty"`
	Location string              `json:"location,omitempty"`
	Trend    string              `json:"trend,omitempty"`
	Date     string              `json:"date,omitempty"`
}

// MarketPricesResponse wraps GET /crops/market-prices.
type MarketPricesResponse struct {
	Prices []MarketPrice `json:"prices"`
}

// SoilType is a selectable soil value with its display label.
type SoilType struct {
	Value string
	Label string
}

// SoilTypes are the values the backend accepts for recommendations and profiles.
var SoilTypes = []SoilType{
	{Value: "alluvial", Label: "Alluvial Soil"},
	{Value: "black", Label: "Black Soil"},
	{Value: "red", Label: "Red Soil"},
	{Value: "laterite", Label: "Laterite Soil"},
	{Value: "mountain", Label: "Mountain Soil"},
	{Value: "saline", Label: "Saline Soil"},
	{Value: "desert", Label: "Desert Soil"},
}

// SoilTypeLabel returns the display label for value, or value itself.
func SoilTypeLabel(value string) string {
	for _, s := range SoilTypes {
		if s.Value == value {
			return s.Label
		}
	}
	return value
}
