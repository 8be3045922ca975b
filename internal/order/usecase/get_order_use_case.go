package usecase

import (
	"context"
	"time"

	"tastycheckout/internal/domain"
	apperrors "tastycheckout/internal/errors"
)

type OrderFinder interface {
	FindByID(ctx context.Context, id string) (*domain.Order, error)
}

type GetOrderUseCase struct {
	orders       OrderFinder
	storeTimeout time.Duration
}

func NewGetOrderUseCase(orders OrderFinder, storeTimeout time.Duration) *GetOrderUseCase {
	return &GetOrderUseCase{orders: orders, storeTimeout: storeTimeout}
}

// GetOrder returns the buyer's own order. Orders of other users are reported
// as not found.
func (uc *GetOrderUseCase) GetOrder(ctx context.Context, orderID, userID string) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.storeTimeout)
	defer cancel()

	order, err := uc.orders.FindByID(ctx, orderID)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			return nil, apperrors.NewNotFoundError("order not found")
		}
		return nil, err
	}

	if order.UserID != userID {
		return nil, apperrors.NewNotFoundError("order not found")
	}

	return order, nil
}
