package domain

import (
	"time"

	"tastycheckout/internal/errors"
)

type OrderStatus string

const (
	OrderStatusPlaced OrderStatus = "placed"
	OrderStatusPaid   OrderStatus = "paid"
)

type CartItem struct {
	MenuItemID string
	Name       string
	Quantity   int
}

type DeliveryDetails struct {
	Email        string
	Name         string
	AddressLine1 string
	City         string
}

// Order is a single purchase attempt. Everything except Status, TotalAmount
// and UpdatedAt is fixed at creation.
type Order struct {
	ID              string
	RestaurantID    string
	UserID          string
	CartItems       []CartItem
	DeliveryDetails DeliveryDetails
	Status          OrderStatus
	// TotalAmount is in minor currency units and stays nil until the payment
	// provider confirms the charge.
	TotalAmount *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewPlacedOrder(id, restaurantID, userID string, items []CartItem, details DeliveryDetails, now time.Time) *Order {
	cart := make([]CartItem, len(items))
	copy(cart, items)

	return &Order{
		ID:              id,
		RestaurantID:    restaurantID,
		UserID:          userID,
		CartItems:       cart,
		DeliveryDetails: details,
		Status:          OrderStatusPlaced,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (o *Order) CanMarkPaid() bool {
	return o.Status == OrderStatusPlaced
}

// MarkPaid applies the only transition of the order lifecycle.
func (o *Order) MarkPaid(amountMinor int64, at time.Time) error {
	if !o.CanMarkPaid() {
		return errors.NewConflictError("order is not in placed status")
	}
	if amountMinor < 0 {
		return errors.NewValidationError("paid amount must be non-negative")
	}

	amount := amountMinor
	o.TotalAmount = &amount
	o.Status = OrderStatusPaid
	o.UpdatedAt = at
	return nil
}

func (o *Order) IsTotalAuthoritative() bool {
	return o.Status == OrderStatusPaid && o.TotalAmount != nil
}

func (s OrderStatus) Valid() bool {
	return s == OrderStatusPlaced || s == OrderStatusPaid
}
