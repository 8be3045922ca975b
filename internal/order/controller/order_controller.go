package controller

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tastycheckout/internal/auth"
	"tastycheckout/internal/domain"
	"tastycheckout/internal/dto"
)

type GetOrderUseCase interface {
	GetOrder(ctx context.Context, orderID, userID string) (*domain.Order, error)
}

type OrderController struct {
	useCase GetOrderUseCase
	logger  *zap.Logger
}

func NewOrderController(useCase GetOrderUseCase, logger *zap.Logger) *OrderController {
	return &OrderController{
		useCase: useCase,
		logger:  logger,
	}
}

func (c *OrderController) GetOrder(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "unauthorized"}, logger)
		return
	}

	order, err := c.useCase.GetOrder(r.Context(), chi.URLParam(r, "orderId"), userID)
	if err != nil {
		writeError(w, traceID, err, logger)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order), logger)
}

func toOrderResponse(order *domain.Order) dto.OrderResponse {
	items := make([]dto.OrderCartItemDTO, len(order.CartItems))
	for i, item := range order.CartItems {
		items[i] = dto.OrderCartItemDTO{
			MenuItemID: item.MenuItemID,
			Name:       item.Name,
			Quantity:   item.Quantity,
		}
	}

	resp := dto.OrderResponse{
		ID:           order.ID,
		RestaurantID: order.RestaurantID,
		Status:       string(order.Status),
		CartItems:    items,
		DeliveryDetails: dto.DeliveryDetailsRequest{
			Email:        order.DeliveryDetails.Email,
			Name:         order.DeliveryDetails.Name,
			AddressLine1: order.DeliveryDetails.AddressLine1,
			City:         order.DeliveryDetails.City,
		},
		CreatedAt: order.CreatedAt,
	}
	// only the provider-confirmed amount is reported
	if order.IsTotalAuthoritative() {
		resp.TotalAmount = order.TotalAmount
	}
	return resp
}
