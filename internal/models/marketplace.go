package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ListingStatus is the lifecycle state of a sale listing.
type ListingStatus string

const (
	ListingActive    ListingStatus = "active"
	ListingSold      ListingStatus = "sold"
	ListingCancelled ListingStatus = "cancelled"
)

// Units are the quantity units a listing may use.
var Units = []string{"kg", "quintal", "ton", "bag", "unit"}

// Contact is the person record the server populates on listings and orders.
type Contact struct {
	Name     string   `json:"name,omitempty"`
	Email    string   `json:"email,omitempty"`
	Phone    string   `json:"phone,omitempty"`
	Location Location `json:"location,omitempty"`
}

// SellerRating summarises buyer reviews of a seller.
type SellerRating struct {
	AvgRating    *float64 `json:"avgRating"`
	TotalReviews int      `json:"totalReviews"`
}

// Listing is a farmer's offer to sell a quantity of a crop.
type Listing struct {
	Ref
	CropName     string          `json:"cropName"`
	Quantity     float64         `json:"quantity"`
	Unit         string          `json:"unit"`
	PricePerUnit decimal.Decimal `json:"pricePerUnit"`
	Location     Location        `json:"location"`
	Description  string          `json:"description"`
	Status       ListingStatus   `json:"status"`
	ContactPhone string          `json:"contactPhone,omitempty"`
	ContactEmail string          `json:"contactEmail,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	Seller       *Contact        `json:"sellerId,omitempty"`
	SellerRating *SellerRating   `json:"sellerRating,omitempty"`
}

// ListingForm is the create/update payload for a listing.
type ListingForm struct {
	CropName     string          `json:"cropName"`
	Quantity     float64         `json:"quantity"`
	Unit         string          `json:"unit"`
	PricePerUnit decimal.Decimal `json:"pricePerUnit"`
	Description  string          `json:"description,omitempty"`
	Location     *Location       `json:"location,omitempty"`
	Status       ListingStatus   `json:"status,omitempty"`
}

// FormFromListing pre-fills an edit form from an existing listing.
func FormFromListing(l Listing) ListingForm {
	form := ListingForm{
		CropName:     l.CropName,
		Quantity:     l.Quantity,
		Unit:         l.Unit,
		PricePerUnit: l.PricePerUnit,
		Description:  l.Description,
	}
	if !l.Location.IsZero() {
		loc := l.Location
		form.Location = &loc
	}
	return form
}

// BrowseQuery filters the public listing board.
type BrowseQuery struct {
	State    string
	CropName string
	Limit    int
	Page     int
}

// ListingsResponse wraps listing collection routes.
type ListingsResponse struct {
	Listings []Listing `json:"listings"`
	Total    int       `json:"total,omitempty"`
	Page     int       `json:"page,omitempty"`
	Limit    int       `json:"limit,omitempty"`
}

// ListingResponse wraps single-listing routes.
type ListingResponse struct {
	Listing Listing `json:"listing"`
}

// OrderStatus is the lifecycle state of an order. Legality of transitions is
// decided by the server.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderAccepted  OrderStatus = "accepted"
	OrderConfirmed OrderStatus = "confirmed"
	OrderDelivered OrderStatus = "delivered"
	OrderRejected  OrderStatus = "rejected"
	OrderCancelled OrderStatus = "cancelled"
)

// Address is a buyer's delivery address.
type Address struct {
	Location
	FullAddress string `json:"fullAddress,omitempty"`
}

// OrderBuyer is the buyer populated on a seller's order.
type OrderBuyer struct {
	Name    string   `json:"name,omitempty"`
	Email   string   `json:"email,omitempty"`
	Phone   string   `json:"phone,omitempty"`
	Address *Address `json:"address,omitempty"`
}

// OrderListing is the listing populated on an order.
type OrderListing struct {
	CropName     string              `json:"cropName,omitempty"`
	Unit         string              `json:"unit,omitempty"`
	Quantity     float64             `json:"quantity,omitempty"`
	PricePerUnit decimal.NullDecimal `json:"pricePerUnit"`
	Seller       *Contact            `json:"sellerId,omitempty"`
}

// Order links a buyer to a listing.
type Order struct {
	Ref
	Buyer     OrderBuyer   `json:"buyerId"`
	Listing   OrderListing `json:"listingId"`
	Quantity  float64      `json:"quantity"`
	Status    OrderStatus  `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
}

// Total is quantity times the listing's unit price, when the price is known.
func (o Order) Total() decimal.NullDecimal {
	if !o.Listing.PricePerUnit.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(o.Listing.PricePerUnit.Decimal.Mul(decimal.NewFromFloat(o.Quantity)))
}

// OrdersResponse wraps order collection routes.
type OrdersResponse struct {
	Orders     []Order `json:"orders"`
	Total      int     `json:"total,omitempty"`
	Page       int     `json:"page,omitempty"`
	Limit      int     `json:"limit,omitempty"`
	TotalPages int     `json:"totalPages,omitempty"`
}

// OrderResponse wraps PUT /orders/:id/status.
type OrderResponse struct {
	Order Order `json:"order"`
}

// OrderStatusRequest asks the server for a status transition.
type OrderStatusRequest struct {
	Status OrderStatus `json:"status"`
}
