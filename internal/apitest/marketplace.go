package apitest

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"agromitra/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) myListingsHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner := s.ownerID(r)
	out := []models.Listing{}
	for _, rec := range s.listings {
		if rec.owner == owner {
			out = append(out, rec.listing)
		}
	}
	sortListings(out)
	writeJSON(w, http.StatusOK, models.ListingsResponse{Listings: out})
}

func validateListing(form models.ListingForm, partial bool) []models.FieldError {
	var errs []models.FieldError
	if !partial || form.CropName != "" {
		if strings.TrimSpace(form.CropName) == "" {
			errs = append(errs, models.FieldError{Msg: "Crop name is required", Param: "cropName"})
		}
	}
	if !partial || form.Quantity != 0 {
		if form.Quantity <= 0 {
			errs = append(errs, models.FieldError{Msg: "Quantity must be greater than 0", Param: "quantity"})
		}
	}
	if !partial || !form.PricePerUnit.IsZero() {
		if !form.PricePerUnit.IsPositive() {
			errs = append(errs, models.FieldError{Msg: "Price per unit must be greater than 0", Param: "pricePerUnit"})
		}
	}
	if form.Unit != "" && !contains(models.Units, form.Unit) {
		errs = append(errs, models.FieldError{Msg: "Invalid unit", Param: "unit"})
	}
	return errs
}

func (s *Server) createListingHandler(w http.ResponseWriter, r *http.Request) {
	var form models.ListingForm
	if err := decode(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs := validateListing(form, false); len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found")
		return
	}
	unit := form.Unit
	if unit == "" {
		unit = "kg"
	}
	location := acc.user.Location
	if form.Location != nil {
		location = *form.Location
	}
	l := models.Listing{
		Ref:          models.Ref{OID: uuid.NewString()},
		CropName:     strings.TrimSpace(form.CropName),
		Quantity:     form.Quantity,
		Unit:         unit,
		PricePerUnit: form.PricePerUnit,
		Location:     location,
		Description:  form.Description,
		Status:       models.ListingActive,
		ContactPhone: acc.user.Phone,
		ContactEmail: acc.user.Email,
		CreatedAt:    s.now(),
		Seller: &models.Contact{
			Name:     acc.user.Name,
			Email:    acc.user.Email,
			Phone:    acc.user.Phone,
			Location: acc.user.Location,
		},
	}
	s.listings[l.Key()] = &listingRecord{owner: acc.user.ID, listing: l}
	writeJSON(w, http.StatusCreated, models.ListingResponse{Listing: l})
}

func (s *Server) updateListingHandler(w http.ResponseWriter, r *http.Request) {
	var form models.ListingForm
	if err := decode(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs := validateListing(form, true); len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.listings[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Listing not found")
		return
	}
	if rec.owner != s.ownerID(r) {
		writeError(w, http.StatusForbidden, "Not authorized to update this listing")
		return
	}
	l := &rec.listing
	if form.CropName != "" {
		l.CropName = strings.TrimSpace(form.CropName)
	}
	if form.Quantity > 0 {
		l.Quantity = form.Quantity
	}
	if form.Unit != "" {
		l.Unit = form.Unit
	}
	if form.PricePerUnit.IsPositive() {
		l.PricePerUnit = form.PricePerUnit
	}
	if form.Description != "" {
		l.Description = form.Description
	}
	if form.Location != nil {
		l.Location = *form.Location
	}
	if form.Status != "" {
		l.Status = form.Status
	}
	writeJSON(w, http.StatusOK, models.ListingResponse{Listing: *l})
}

func (s *Server) removeListingHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	rec, ok := s.listings[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Listing not found")
		return
	}
	if rec.owner != s.ownerID(r) {
		writeError(w, http.StatusForbidden, "Not authorized to delete this listing")
		return
	}
	delete(s.listings, id)
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Listing removed"})
}

func (s *Server) browseHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state, crop := q.Get("state"), strings.ToLower(q.Get("cropName"))
	pageNum, limit := intParam(r, "page", 1), intParam(r, "limit", 20)

	s.mu.Lock()
	out := []models.Listing{}
	for _, rec := range s.listings {
		l := rec.listing
		if l.Status != models.ListingActive {
			continue
		}
		if state != "" && !strings.EqualFold(l.Location.State, state) {
			continue
		}
		if crop != "" && !strings.Contains(strings.ToLower(l.CropName), crop) {
			continue
		}
		out = append(out, l)
	}
	s.mu.Unlock()

	sortListings(out)
	writeJSON(w, http.StatusOK, models.ListingsResponse{
		Listings: page(out, pageNum, limit),
		Total:    len(out),
		Page:     pageNum,
		Limit:    limit,
	})
}

func (s *Server) getListingHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.listings[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Listing not found")
		return
	}
	writeJSON(w, http.StatusOK, models.ListingResponse{Listing: rec.listing})
}

func sortListings(ls []models.Listing) {
	sort.Slice(ls, func(i, j int) bool { return ls[i].CreatedAt.After(ls[j].CreatedAt) })
}

// orderTransitions lists the statuses a seller may move an order to.
var orderTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderPending:   {models.OrderAccepted, models.OrderRejected, models.OrderDelivered},
	models.OrderAccepted:  {models.OrderDelivered},
	models.OrderConfirmed: {models.OrderDelivered},
}

func (s *Server) sellerOrdersHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner := s.ownerID(r)
	out := []models.Order{}
	for _, rec := range s.orders {
		if rec.seller == owner {
			out = append(out, rec.order)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	writeJSON(w, http.StatusOK, models.OrdersResponse{Orders: out})
}

func (s *Server) orderStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req models.OrderStatusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	switch req.Status {
	case models.OrderAccepted, models.OrderRejected, models.OrderDelivered:
	default:
		writeValidation(w, []models.FieldError{{Msg: "Status must be accepted, rejected or delivered", Param: "status"}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.orders[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	if rec.seller != s.ownerID(r) {
		writeError(w, http.StatusForbidden, "Not authorized to update this order")
		return
	}

	allowed := false
	for _, next := range orderTransitions[rec.order.Status] {
		if next == req.Status {
			allowed = true
		}
	}
	if !allowed {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Cannot change order status from %s to %s", rec.order.Status, req.Status))
		return
	}
	rec.order.Status = req.Status
	if req.Status == models.OrderDelivered {
		if l, ok := s.listings[rec.listingID]; ok {
			l.listing.Status = models.ListingSold
		}
	}
	writeJSON(w, http.StatusOK, models.OrderResponse{Order: rec.order})
}
