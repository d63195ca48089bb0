package models

import (
	"time"
)

// WeatherQuery selects a location by name or by coordinates.
type WeatherQuery struct {
	Location  string
	Latitude  *float64
	Longitude *float64
}

// Weather is the current conditions for a location.
type Weather struct {
	Location        string    `json:"location"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	TempC           float64   `json:"tempC"`
	WindKph         float64   `json:"windKph"`
	Humidity        float64   `json:"humidity"`
	RainProbability float64   `json:"rainProbability"`
	Condition       string    `json:"condition"`
	Alerts          []string  `json:"alerts"`
	UpdatedAt       time.Time `json:"updatedAt"`
	Source          string    `json:"source"`
}

// VoiceLanguage is one entry of GET /voice/languages.
type VoiceLanguage struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// VoiceLanguagesResponse wraps GET /voice/languages.
type VoiceLanguagesResponse struct {
	Languages []VoiceLanguage `json:"languages"`
}

// VoiceFormatsResponse wraps GET /voice/formats.
type VoiceFormatsResponse struct {
	Formats []string `json:"formats"`
}
