package api

import (
	"context"
	"encoding/json"
	"net/http"

	"agromitra/internal/models"
)

// CropsService covers the crop catalogue, recommendations and market prices.
type CropsService service

// List returns the crop catalogue filtered by q.
func (s *CropsService) List(ctx context.Context, q models.CropQuery) (*models.CropListResponse, error) {
	query := params{}.
		str("season", q.Season).
		str("soilType", q.SoilType).
		str("language", q.Language).
		num("page", q.Page).
		num("limit", q.Limit).
		str("search", q.Search).
		values()

	var out models.CropListResponse
	if err := s.client.do(ctx, "crops", http.MethodGet, "/crops", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get returns one crop in language.
func (s *CropsService) Get(ctx context.Context, id, language string) (*models.Crop, error) {
	var out models.CropResponse
	query := params{}.str("language", language).values()
	if err := s.client.do(ctx, "crops", http.MethodGet, "/crops/"+escape(id), query, nil, &out); err != nil {
		return nil, err
	}
	return &out.Crop, nil
}

// Recommend returns crops suited to the season, soil and location.
func (s *CropsService) Recommend(ctx context.Context, req models.RecommendRequest) (*models.RecommendResponse, error) {
	var out models.RecommendResponse
	if err := s.client.do(ctx, "crops", http.MethodPost, "/crops/recommend", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarketPrices returns up to limit price rows, optionally for one state.
func (s *CropsService) MarketPrices(ctx context.Context, language string, limit int, location string) (*models.MarketPricesResponse, error) {
	query := params{}.
		str("language", language).
		num("limit", limit).
		str("location", location).
		values()

	var out models.MarketPricesResponse
	if err := s.client.do(ctx, "crops", http.MethodGet, "/crops/market-prices", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CropGuide names one of the per-crop guidance sections.
type CropGuide string

const (
	GuideHarvesting    CropGuide = "harvesting"
	GuidePestControl   CropGuide = "pest-control"
	GuideIrrigation    CropGuide = "irrigation"
	GuideFertilization CropGuide = "fertilization"
)

// Guide fetches one guidance section of a crop. The section bodies differ per
// route and are returned undecoded.
func (s *CropsService) Guide(ctx context.Context, id string, guide CropGuide, language string) (json.RawMessage, error) {
	var out json.RawMessage
	query := params{}.str("language", language).values()
	path := "/crops/" + escape(id) + "/" + string(guide)
	if err := s.client.do(ctx, "crops", http.MethodGet, path, query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
