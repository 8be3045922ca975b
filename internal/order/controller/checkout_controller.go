package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tastycheckout/internal/auth"
	"tastycheckout/internal/domain"
	"tastycheckout/internal/dto"
	apperrors "tastycheckout/internal/errors"
)

const (
	maxCartItems = 100

	maxCheckoutBodyBytes = 64 * 1024
)

type CreateCheckoutSessionUseCase interface {
	CreateCheckoutSession(ctx context.Context, userID string, cart dto.Cart) (string, error)
}

type CheckoutController struct {
	useCase CreateCheckoutSessionUseCase
	logger  *zap.Logger
}

func NewCheckoutController(useCase CreateCheckoutSessionUseCase, logger *zap.Logger) *CheckoutController {
	return &CheckoutController{
		useCase: useCase,
		logger:  logger,
	}
}

func (c *CheckoutController) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "unauthorized"}, logger)
		return
	}

	var req dto.CreateCheckoutSessionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCheckoutBodyBytes)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.Warn("checkout body too large", zap.Int64("limit", tooLarge.Limit))
			writeValidationError(w, traceID, "request body too large", logger, apperrors.ValidationDetail{
				Field:   "body",
				Message: "request body exceeds " + strconv.Itoa(maxCheckoutBodyBytes) + " bytes",
			})
			return
		}
		logger.Warn("invalid JSON body", zap.Error(err))
		writeValidationError(w, traceID, "invalid JSON body", logger, apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	cart, err := toCart(req)
	if err != nil {
		ve, _ := apperrors.IsValidationError(err)
		writeValidationError(w, traceID, ve.Message, logger, ve.Details...)
		return
	}

	sessionURL, err := c.useCase.CreateCheckoutSession(r.Context(), userID, cart)
	if err != nil {
		writeError(w, traceID, err, logger)
		return
	}

	writeJSON(w, http.StatusOK, dto.CreateCheckoutSessionResponse{URL: sessionURL}, logger)
}

// toCart validates the request shape and converts wire quantities.
func toCart(req dto.CreateCheckoutSessionRequest) (dto.Cart, error) {
	var details []apperrors.ValidationDetail

	if strings.TrimSpace(req.RestaurantID) == "" {
		details = append(details, apperrors.ValidationDetail{
			Field:   "restaurantId",
			Message: "restaurantId is required",
		})
	}

	if len(req.CartItems) == 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "cartItems",
			Message: "cartItems must not be empty",
		})
	}

	if len(req.CartItems) > maxCartItems {
		details = append(details, apperrors.ValidationDetail{
			Field:   "cartItems",
			Message: "cartItems exceeds maximum of " + strconv.Itoa(maxCartItems),
		})
	}

	items := make([]domain.CartItem, 0, len(req.CartItems))
	for idx, item := range req.CartItems {
		if item.MenuItemID == "" {
			details = append(details, apperrors.ValidationDetail{
				Field:   "cartItems[" + strconv.Itoa(idx) + "].menuItemId",
				Message: "menuItemId is required",
			})
		}

		qty, err := dto.ParseQuantity(item.Quantity)
		if err != nil {
			details = append(details, apperrors.ValidationDetail{
				Field:   "cartItems[" + strconv.Itoa(idx) + "].quantity",
				Message: "quantity must be a positive integer",
			})
		}

		items = append(items, domain.CartItem{
			MenuItemID: item.MenuItemID,
			Name:       item.Name,
			Quantity:   qty,
		})
	}

	if len(details) > 0 {
		return dto.Cart{}, apperrors.NewValidationError("validation failed", details...)
	}

	return dto.Cart{
		RestaurantID: strings.TrimSpace(req.RestaurantID),
		Items:        items,
		DeliveryDetails: domain.DeliveryDetails{
			Email:        req.DeliveryDetails.Email,
			Name:         req.DeliveryDetails.Name,
			AddressLine1: req.DeliveryDetails.AddressLine1,
			City:         req.DeliveryDetails.City,
		},
	}, nil
}
