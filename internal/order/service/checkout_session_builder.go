package service

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"tastycheckout/internal/domain"
	"tastycheckout/internal/dto"
	apperrors "tastycheckout/internal/errors"
)

// UnmatchedItemPolicy decides what happens to cart entries whose menu item
// does not exist in the restaurant's menu.
type UnmatchedItemPolicy string

const (
	UnmatchedItemDrop   UnmatchedItemPolicy = "drop"
	UnmatchedItemReject UnmatchedItemPolicy = "reject"
)

// PriceConvention says how catalog prices map to minor currency units.
//
// PriceConventionLegacy reads values of 100 or more as minor units already
// and scales anything smaller by 100. Catalog data written before prices were
// normalised mixes both forms. PriceConventionMinor treats every value as
// minor units.
type PriceConvention string

const (
	PriceConventionLegacy PriceConvention = "legacy"
	PriceConventionMinor  PriceConvention = "minor"
)

func (c PriceConvention) ToMinor(price float64) int64 {
	if c == PriceConventionMinor || price >= 100 {
		return int64(math.Round(price))
	}
	return int64(math.Round(price * 100))
}

type CheckoutSessionBuilder struct {
	convention PriceConvention
	unmatched  UnmatchedItemPolicy
	logger     *zap.Logger
}

func NewCheckoutSessionBuilder(convention PriceConvention, unmatched UnmatchedItemPolicy, logger *zap.Logger) *CheckoutSessionBuilder {
	return &CheckoutSessionBuilder{
		convention: convention,
		unmatched:  unmatched,
		logger:     logger,
	}
}

// Build prices the cart against the restaurant's own menu. Client-sent names
// and prices are never used for pricing.
func (b *CheckoutSessionBuilder) Build(cart dto.Cart, restaurant *domain.Restaurant) (*dto.PricedCheckout, error) {
	if cart.RestaurantID == "" {
		return nil, apperrors.NewValidationError("restaurant id required", apperrors.ValidationDetail{
			Field:   "restaurantId",
			Message: "restaurantId is required",
		})
	}

	if restaurant == nil {
		return nil, apperrors.NewNotFoundError("restaurant not found")
	}

	lineItems := make([]dto.PricedLineItem, 0, len(cart.Items))
	for idx, cartItem := range cart.Items {
		menuItem, ok := restaurant.FindMenuItem(cartItem.MenuItemID)
		if !ok {
			if b.unmatched == UnmatchedItemReject {
				return nil, apperrors.NewValidationError("cart contains unknown menu items", apperrors.ValidationDetail{
					Field:   fmt.Sprintf("cartItems[%d].menuItemId", idx),
					Message: fmt.Sprintf("menu item %s is not on this restaurant's menu", cartItem.MenuItemID),
				})
			}
			b.logger.Debug("dropping unmatched cart item",
				zap.String("restaurantId", restaurant.ID),
				zap.String("menuItemId", cartItem.MenuItemID))
			continue
		}

		if cartItem.Quantity < 1 {
			return nil, apperrors.NewValidationError("quantity must be a positive integer", apperrors.ValidationDetail{
				Field:   fmt.Sprintf("cartItems[%d].quantity", idx),
				Message: "quantity must be a positive integer",
			})
		}

		if menuItem.Price < 0 {
			return nil, apperrors.NewInternalError(fmt.Sprintf("menu item %s has a negative price", menuItem.ID), nil)
		}

		lineItems = append(lineItems, dto.PricedLineItem{
			UnitAmountMinor: b.convention.ToMinor(menuItem.Price),
			Quantity:        int64(cartItem.Quantity),
			DisplayName:     menuItem.Name,
		})
	}

	if len(lineItems) == 0 {
		return nil, apperrors.NewValidationError("no valid items in cart", apperrors.ValidationDetail{
			Field:   "cartItems",
			Message: "none of the cart items are on this restaurant's menu",
		})
	}

	if restaurant.DeliveryPrice < 0 {
		return nil, apperrors.NewInternalError(fmt.Sprintf("restaurant %s has a negative delivery price", restaurant.ID), nil)
	}

	return &dto.PricedCheckout{
		LineItems:           lineItems,
		DeliveryAmountMinor: b.convention.ToMinor(restaurant.DeliveryPrice),
	}, nil
}
