package api

import (
	"context"
	"net/http"
	"strings"

	"agromitra/internal/models"
)

// countrySuffix is appended to bare place names the weather route cannot find.
const countrySuffix = ", India"

// WeatherService covers current conditions.
type WeatherService service

// Current returns the weather for q. A bare location name (no comma) that the
// server reports as not found is retried once with ", India" appended; the
// second failure is returned as is.
func (s *WeatherService) Current(ctx context.Context, q models.WeatherQuery) (*models.Weather, error) {
	w, err := s.fetch(ctx, q)
	if err == nil {
		return w, nil
	}
	if StatusOf(err) != http.StatusNotFound || q.Location == "" || strings.Contains(q.Location, ",") {
		return nil, err
	}

	q.Location += countrySuffix
	return s.fetch(ctx, q)
}

func (s *WeatherService) fetch(ctx context.Context, q models.WeatherQuery) (*models.Weather, error) {
	query := params{}.
		str("location", q.Location).
		coord("latitude", q.Latitude).
		coord("longitude", q.Longitude).
		values()

	var out models.Weather
	if err := s.client.do(ctx, "weather", http.MethodGet, "/weather/current", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VoiceService covers the speech capability listings.
type VoiceService service

// Languages lists the languages the backend can speak and transcribe.
func (s *VoiceService) Languages(ctx context.Context) ([]models.VoiceLanguage, error) {
	var out models.VoiceLanguagesResponse
	if err := s.client.do(ctx, "voice", http.MethodGet, "/voice/languages", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Languages, nil
}

// Formats lists the accepted audio formats.
func (s *VoiceService) Formats(ctx context.Context) ([]string, error) {
	var out models.VoiceFormatsResponse
	if err := s.client.do(ctx, "voice", http.MethodGet, "/voice/formats", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Formats, nil
}
