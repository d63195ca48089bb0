package api

import (
	"context"
	"net/http"

	"agromitra/internal/models"
)

// MarketplaceService covers the farmer's sale listings.
type MarketplaceService service

// MyListings returns the authenticated farmer's listings.
func (s *MarketplaceService) MyListings(ctx context.Context) ([]models.Listing, error) {
	var out models.ListingsResponse
	if err := s.client.do(ctx, "marketplace", http.MethodGet, "/marketplace/listings/my", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Listings, nil
}

// Create publishes a new listing.
func (s *MarketplaceService) Create(ctx context.Context, form models.ListingForm) (*models.Listing, error) {
	var out models.ListingResponse
	if err := s.client.do(ctx, "marketplace", http.MethodPost, "/marketplace/listings", nil, form, &out); err != nil {
		return nil, err
	}
	return &out.Listing, nil
}

// Update edits a listing; only the fields present in form are changed.
func (s *MarketplaceService) Update(ctx context.Context, id string, form models.ListingForm) (*models.Listing, error) {
	var out models.ListingResponse
	if err := s.client.do(ctx, "marketplace", http.MethodPatch, "/marketplace/listings/"+escape(id), nil, form, &out); err != nil {
		return nil, err
	}
	return &out.Listing, nil
}

// Remove deletes a listing.
func (s *MarketplaceService) Remove(ctx context.Context, id string) error {
	return s.client.do(ctx, "marketplace", http.MethodDelete, "/marketplace/listings/"+escape(id), nil, nil, nil)
}

// Browse searches every seller's active listings.
func (s *MarketplaceService) Browse(ctx context.Context, q models.BrowseQuery) (*models.ListingsResponse, error) {
	query := params{}.
		str("state", q.State).
		str("cropName", q.CropName).
		num("limit", q.Limit).
		num("page", q.Page).
		values()

	var out models.ListingsResponse
	if err := s.client.do(ctx, "marketplace", http.MethodGet, "/marketplace/listings/browse", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get returns one listing.
func (s *MarketplaceService) Get(ctx context.Context, id string) (*models.Listing, error) {
	var out models.ListingResponse
	if err := s.client.do(ctx, "marketplace", http.MethodGet, "/marketplace/listings/"+escape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Listing, nil
}

// OrdersService covers orders placed against the farmer's listings.
type OrdersService service

// ForSeller returns the orders on the authenticated seller's listings.
func (s *OrdersService) ForSeller(ctx context.Context) ([]models.Order, error) {
	var out models.OrdersResponse
	if err := s.client.do(ctx, "orders", http.MethodGet, "/orders/for-seller", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

// UpdateStatus asks the server to move an order to status. The server alone
// decides whether the transition is legal.
func (s *OrdersService) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	var out models.OrderResponse
	req := models.OrderStatusRequest{Status: status}
	if err := s.client.do(ctx, "orders", http.MethodPut, "/orders/"+escape(id)+"/status", nil, req, &out); err != nil {
		return nil, err
	}
	return &out.Order, nil
}
