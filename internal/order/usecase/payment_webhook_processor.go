package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"tastycheckout/internal/domain"
	"tastycheckout/internal/dto"
	apperrors "tastycheckout/internal/errors"
)

type PaidOrderStore interface {
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	MarkPaid(ctx context.Context, id string, amountMinor int64, at time.Time) (bool, error)
}

// PaymentWebhookProcessor applies verified payment notifications to orders.
// Deliveries may repeat or overlap; each order is moved to paid at most once.
type PaymentWebhookProcessor struct {
	orders       PaidOrderStore
	logger       *zap.Logger
	storeTimeout time.Duration
	inflight     singleflight.Group
	now          func() time.Time
}

func NewPaymentWebhookProcessor(orders PaidOrderStore, logger *zap.Logger, storeTimeout time.Duration) *PaymentWebhookProcessor {
	return &PaymentWebhookProcessor{
		orders:       orders,
		logger:       logger,
		storeTimeout: storeTimeout,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (p *PaymentWebhookProcessor) Process(ctx context.Context, event dto.VerifiedEvent) (dto.WebhookOutcome, error) {
	logger := p.logger.With(zap.String("eventId", event.ID), zap.String("eventType", event.Type))

	if event.Type != dto.EventTypeCheckoutSessionCompleted {
		logger.Debug("ignoring webhook event")
		return dto.WebhookIgnored, nil
	}

	if event.OrderID == "" {
		logger.Warn("completed session without order id")
		return "", apperrors.NewValidationError("event metadata has no order id", apperrors.ValidationDetail{
			Field:   "metadata.orderId",
			Message: "orderId is required",
		})
	}

	if !event.HasAmount || event.AmountTotal < 0 {
		logger.Warn("completed session without a valid amount", zap.String("orderId", event.OrderID))
		return "", apperrors.NewValidationError("event has no valid amount total", apperrors.ValidationDetail{
			Field:   "amount_total",
			Message: "amount_total must be a non-negative integer",
		})
	}

	// concurrent deliveries for one order share a single store round-trip.
	// The shared work must not die with whichever delivery started it.
	detached := context.WithoutCancel(ctx)
	ch := p.inflight.DoChan(event.OrderID, func() (interface{}, error) {
		return p.markPaid(detached, event)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			logger.Error("failed to apply payment", zap.String("orderId", event.OrderID), zap.Error(res.Err))
			return "", res.Err
		}
		if res.Shared {
			logger.Debug("webhook delivery collapsed with a concurrent one", zap.String("orderId", event.OrderID))
		}
		return res.Val.(dto.WebhookOutcome), nil
	case <-ctx.Done():
		logger.Warn("webhook delivery abandoned by caller", zap.String("orderId", event.OrderID), zap.Error(ctx.Err()))
		return "", apperrors.NewPersistenceError("waiting for order update", ctx.Err())
	}
}

func (p *PaymentWebhookProcessor) markPaid(ctx context.Context, event dto.VerifiedEvent) (dto.WebhookOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, p.storeTimeout)
	defer cancel()

	logger := p.logger.With(zap.String("eventId", event.ID), zap.String("orderId", event.OrderID))

	order, err := p.orders.FindByID(ctx, event.OrderID)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			logger.Warn("payment for unknown order acknowledged")
			return dto.WebhookUnknownOrder, nil
		}
		return "", asPersistenceError("loading order", err)
	}

	if err := order.MarkPaid(event.AmountTotal, p.now()); err != nil {
		if _, ok := apperrors.IsConflictError(err); ok {
			logger.Info("order already paid, duplicate delivery ignored")
			return dto.WebhookAlreadyPaid, nil
		}
		return "", err
	}

	applied, err := p.orders.MarkPaid(ctx, order.ID, *order.TotalAmount, order.UpdatedAt)
	if err != nil {
		return "", asPersistenceError("marking order paid", err)
	}
	if !applied {
		logger.Info("order paid by a concurrent delivery")
		return dto.WebhookAlreadyPaid, nil
	}

	logger.Info("order paid", zap.Int64("totalAmount", event.AmountTotal))
	return dto.WebhookPaid, nil
}

func asPersistenceError(message string, err error) error {
	if _, ok := apperrors.IsPersistenceError(err); ok {
		return err
	}
	return apperrors.NewPersistenceError(message, err)
}
