package dto

import (
	"strconv"
	"strings"

	apperrors "tastycheckout/internal/errors"
)

type CreateCheckoutSessionRequest struct {
	RestaurantID    string                 `json:"restaurantId"`
	CartItems       []CartItemRequest      `json:"cartItems"`
	DeliveryDetails DeliveryDetailsRequest `json:"deliveryDetails"`
}

type CartItemRequest struct {
	MenuItemID string `json:"menuItemId"`
	Name       string `json:"name"`
	Quantity   string `json:"quantity"`
}

type DeliveryDetailsRequest struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	AddressLine1 string `json:"addressLine1"`
	City         string `json:"city"`
}

// ParseQuantity converts the wire quantity into a positive integer.
func ParseQuantity(raw string) (int, error) {
	qty, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || qty < 1 {
		return 0, apperrors.NewValidationError("quantity must be a positive integer")
	}
	return qty, nil
}
