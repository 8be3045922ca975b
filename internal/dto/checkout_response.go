package dto

import (
	"time"

	apperrors "tastycheckout/internal/errors"
)

type CreateCheckoutSessionResponse struct {
	URL string `json:"url"`
}

type ErrorResponse struct {
	TraceID   string                       `json:"traceId"`
	Error     string                       `json:"error"`
	Message   string                       `json:"message"`
	Details   []apperrors.ValidationDetail `json:"details,omitempty"`
	Timestamp time.Time                    `json:"timestamp"`
}

type OrderResponse struct {
	ID              string                 `json:"id"`
	RestaurantID    string                 `json:"restaurantId"`
	Status          string                 `json:"status"`
	TotalAmount     *int64                 `json:"totalAmount,omitempty"`
	CartItems       []OrderCartItemDTO     `json:"cartItems"`
	DeliveryDetails DeliveryDetailsRequest `json:"deliveryDetails"`
	CreatedAt       time.Time              `json:"createdAt"`
}

type OrderCartItemDTO struct {
	MenuItemID string `json:"menuItemId"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
}
