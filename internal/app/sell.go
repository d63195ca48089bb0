package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"agromitra/internal/api"
	"agromitra/internal/models"

	"go.uber.org/zap"
)

// OrderPollInterval is how often Watch refreshes the seller's orders.
const OrderPollInterval = 15 * time.Second

// Fixed sell-crops texts.
const (
	ListingsLoadFailed  = "Failed to load listings"
	ListingSaveFailed   = "Failed to save listing"
	ListingDeleteFailed = "Failed to delete"
	OrdersLoadFailed    = "Failed to load orders"
	RemoveListingPrompt = "Remove this listing?"
	OrderStatusHint     = "Failed to update order status. Check you are logged in and the order is yours."
)

// OrderAction is a seller decision on an order.
type OrderAction string

const (
	ActionAccept  OrderAction = "accept"
	ActionReject  OrderAction = "reject"
	ActionDeliver OrderAction = "deliver"
)

var actionStatus = map[OrderAction]models.OrderStatus{
	ActionAccept:  models.OrderAccepted,
	ActionReject:  models.OrderRejected,
	ActionDeliver: models.OrderDelivered,
}

// Status is the order status the action requests.
func (a OrderAction) Status() models.OrderStatus { return actionStatus[a] }

// ActionsFor lists the actions offered for an order in status. Confirmed
// orders come from the buyer side and can only be delivered.
func ActionsFor(status models.OrderStatus) []OrderAction {
	switch status {
	case models.OrderPending:
		return []OrderAction{ActionAccept, ActionReject, ActionDeliver}
	case models.OrderAccepted, models.OrderConfirmed:
		return []OrderAction{ActionDeliver}
	default:
		return nil
	}
}

// ValidateListing checks the form before anything is sent.
func ValidateListing(form models.ListingForm) error {
	if strings.TrimSpace(form.CropName) == "" || form.Quantity <= 0 || !form.PricePerUnit.IsPositive() {
		return ErrInvalidListing
	}
	return nil
}

// Editable reports whether a listing may still be edited or removed.
func Editable(l models.Listing) bool {
	return l.Status == models.ListingActive
}

// SellView manages the farmer's listings and incoming orders.
type SellView struct {
	app     *App
	confirm Confirmer

	mu            sync.Mutex
	listings      []models.Listing
	orders        []models.Order
	ordersLoading bool
	ordersErr     string
}

// NewSell returns the sell-crops controller. Removals ask confirm first.
func (app *App) NewSell(confirm Confirmer) *SellView {
	return &SellView{app: app, confirm: confirm}
}

// Listings returns the listings from the last load.
func (v *SellView) Listings() []models.Listing {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]models.Listing(nil), v.listings...)
}

// LoadListings fetches the farmer's own listings.
func (v *SellView) LoadListings(ctx context.Context) error {
	listings, err := v.app.farmer.Marketplace.MyListings(ctx)
	if err != nil {
		return failure(err, ListingsLoadFailed)
	}
	v.mu.Lock()
	v.listings = listings
	v.mu.Unlock()
	return nil
}

// EditForm pre-fills the form for an active listing.
func (v *SellView) EditForm(l models.Listing) (models.ListingForm, error) {
	if !Editable(l) {
		return models.ListingForm{}, ErrListingLocked
	}
	return models.FormFromListing(l), nil
}

// SaveListing creates a listing when id is empty and updates it otherwise,
// then reloads the list.
func (v *SellView) SaveListing(ctx context.Context, id string, form models.ListingForm) error {
	if err := ValidateListing(form); err != nil {
		return err
	}
	form.CropName = strings.TrimSpace(form.CropName)
	if form.Unit == "" {
		form.Unit = "kg"
	}

	var err error
	if id == "" {
		_, err = v.app.farmer.Marketplace.Create(ctx, form)
	} else {
		_, err = v.app.farmer.Marketplace.Update(ctx, id, form)
	}
	if err != nil {
		return failure(err, ListingSaveFailed)
	}
	return v.LoadListings(ctx)
}

// RemoveListing deletes an active listing after confirmation.
func (v *SellView) RemoveListing(ctx context.Context, l models.Listing) error {
	if !Editable(l) {
		return ErrListingLocked
	}
	if !confirmed(v.confirm, RemoveListingPrompt) {
		return ErrCancelled
	}
	if err := v.app.farmer.Marketplace.Remove(ctx, l.Key()); err != nil {
		return failure(err, ListingDeleteFailed)
	}
	return v.LoadListings(ctx)
}

// Orders returns the orders from the last load.
func (v *SellView) Orders() []models.Order {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]models.Order(nil), v.orders...)
}

// OrdersLoading reports whether a visible order refresh is running.
func (v *SellView) OrdersLoading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ordersLoading
}

// OrdersError is the message of the last failed order load.
func (v *SellView) OrdersError() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ordersErr
}

// LoadOrders fetches the orders placed on the farmer's listings. showLoading
// raises the loading flag for the duration of the call. A failed load leaves
// the order list empty; a cancelled one leaves the view as it was.
func (v *SellView) LoadOrders(ctx context.Context, showLoading bool) error {
	if showLoading {
		v.mu.Lock()
		v.ordersLoading = true
		v.mu.Unlock()
		defer func() {
			v.mu.Lock()
			v.ordersLoading = false
			v.mu.Unlock()
		}()
	}

	orders, err := v.app.farmer.Orders.ForSeller(ctx)
	if errors.Is(err, context.Canceled) {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.orders = nil
		v.ordersErr = api.UserMessage(err, OrdersLoadFailed)
		return &Error{Message: v.ordersErr, Err: err}
	}
	v.orders = orders
	v.ordersErr = ""
	return nil
}

// Watch refreshes the orders silently on every tick until ctx is done. A tick
// starts a request even when the previous one has not returned. notify, if
// set, receives the result of every refresh.
func (v *SellView) Watch(ctx context.Context, notify func(orders []models.Order, err error)) error {
	ticker := time.NewTicker(v.app.pollInterval)
	defer ticker.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := v.LoadOrders(ctx, false)
				if err != nil && !errors.Is(err, context.Canceled) {
					v.app.log.Debug("order refresh failed", zap.Error(err))
				}
				if notify != nil {
					notify(v.Orders(), err)
				}
			}()
		}
	}
}

// UpdateOrderStatus applies action to an order and silently reloads the
// orders. Failures prefer the server message, then its first validation
// message, then a fixed hint.
func (v *SellView) UpdateOrderStatus(ctx context.Context, orderID string, action OrderAction) error {
	status := action.Status()
	if status == "" {
		return &Error{Message: OrderStatusHint}
	}
	if _, err := v.app.farmer.Orders.UpdateStatus(ctx, orderID, status); err != nil {
		return &Error{Message: orderStatusMessage(err), Err: err}
	}
	if err := v.LoadOrders(ctx, false); err != nil {
		v.app.log.Debug("order reload failed", zap.Error(err))
	}
	return nil
}

func orderStatusMessage(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		if apiErr.Body.Message != "" {
			return apiErr.Body.Message
		}
		if msgs := apiErr.ValidationMessages(); len(msgs) > 0 {
			return msgs[0]
		}
	}
	return OrderStatusHint
}
