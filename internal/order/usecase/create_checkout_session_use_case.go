package usecase

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tastycheckout/internal/domain"
	"tastycheckout/internal/dto"
	apperrors "tastycheckout/internal/errors"
)

type MenuResolver interface {
	GetMenuAndDeliveryPrice(ctx context.Context, restaurantID string) (*domain.Restaurant, error)
}

type CheckoutBuilder interface {
	Build(cart dto.Cart, restaurant *domain.Restaurant) (*dto.PricedCheckout, error)
}

type OrderCreator interface {
	Create(ctx context.Context, order *domain.Order) error
}

type PaymentGateway interface {
	CreateSession(ctx context.Context, req dto.SessionRequest) (string, error)
}

type CreateCheckoutSessionUseCase struct {
	menus        MenuResolver
	builder      CheckoutBuilder
	orders       OrderCreator
	gateway      PaymentGateway
	logger       *zap.Logger
	frontendURL  string
	storeTimeout time.Duration
	newID        func() string
	now          func() time.Time
}

func NewCreateCheckoutSessionUseCase(
	menus MenuResolver,
	builder CheckoutBuilder,
	orders OrderCreator,
	gateway PaymentGateway,
	logger *zap.Logger,
	frontendURL string,
	storeTimeout time.Duration,
) *CreateCheckoutSessionUseCase {
	return &CreateCheckoutSessionUseCase{
		menus:        menus,
		builder:      builder,
		orders:       orders,
		gateway:      gateway,
		logger:       logger,
		frontendURL:  frontendURL,
		storeTimeout: storeTimeout,
		newID:        func() string { return uuid.New().String() },
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// CreateCheckoutSession prices the cart, stores the order as placed and only
// then opens the payment session. A completion webhook can therefore never
// reference an order that is not stored yet.
func (uc *CreateCheckoutSessionUseCase) CreateCheckoutSession(ctx context.Context, userID string, cart dto.Cart) (string, error) {
	uc.logger.Info("checkout started",
		zap.String("restaurantId", cart.RestaurantID),
		zap.String("userId", userID),
		zap.Int("itemCount", len(cart.Items)))

	if cart.RestaurantID == "" {
		return "", apperrors.NewValidationError("restaurant id required", apperrors.ValidationDetail{
			Field:   "restaurantId",
			Message: "restaurantId is required",
		})
	}

	restaurant, err := uc.resolveRestaurant(ctx, cart.RestaurantID)
	if err != nil {
		return "", err
	}

	priced, err := uc.builder.Build(cart, restaurant)
	if err != nil {
		return "", err
	}

	order := domain.NewPlacedOrder(uc.newID(), restaurant.ID, userID, cart.Items, cart.DeliveryDetails, uc.now())
	if err := uc.createOrder(ctx, order); err != nil {
		uc.logger.Error("failed to persist order", zap.String("orderId", order.ID), zap.Error(err))
		return "", err
	}

	uc.logger.Debug("order placed",
		zap.String("orderId", order.ID),
		zap.Int("lineItems", len(priced.LineItems)),
		zap.Int64("estimatedTotal", priced.EstimatedTotalMinor()))

	sessionURL, err := uc.gateway.CreateSession(ctx, dto.SessionRequest{
		LineItems:           priced.LineItems,
		OrderID:             order.ID,
		RestaurantID:        restaurant.ID,
		DeliveryAmountMinor: priced.DeliveryAmountMinor,
		SuccessURL:          uc.successURL(),
		CancelURL:           uc.cancelURL(restaurant.ID),
	})
	if err != nil {
		// the order stays placed; it is never paid without a session
		uc.logger.Error("failed to create payment session", zap.String("orderId", order.ID), zap.Error(err))
		return "", err
	}

	uc.logger.Info("checkout session created", zap.String("orderId", order.ID))
	return sessionURL, nil
}

func (uc *CreateCheckoutSessionUseCase) resolveRestaurant(ctx context.Context, restaurantID string) (*domain.Restaurant, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.storeTimeout)
	defer cancel()

	restaurant, err := uc.menus.GetMenuAndDeliveryPrice(ctx, restaurantID)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			return nil, apperrors.NewNotFoundError("restaurant not found")
		}
		return nil, err
	}
	return restaurant, nil
}

func (uc *CreateCheckoutSessionUseCase) createOrder(ctx context.Context, order *domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, uc.storeTimeout)
	defer cancel()

	if err := uc.orders.Create(ctx, order); err != nil {
		if _, ok := apperrors.IsPersistenceError(err); ok {
			return err
		}
		return apperrors.NewPersistenceError("creating order", err)
	}
	return nil
}

func (uc *CreateCheckoutSessionUseCase) successURL() string {
	return uc.frontendURL + "/order-status?success=true"
}

func (uc *CreateCheckoutSessionUseCase) cancelURL(restaurantID string) string {
	return fmt.Sprintf("%s/detail/%s?cancelled=true", uc.frontendURL, url.PathEscape(restaurantID))
}
