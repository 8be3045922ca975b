package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	stripego "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"

	"tastycheckout/internal/config"
	"tastycheckout/internal/dto"
	apperrors "tastycheckout/internal/errors"
)

const (
	currency             = "usd"
	deliveryDisplayName  = "Delivery"
	metadataOrderID      = "orderId"
	metadataRestaurantID = "restaurantId"

	genericGatewayMessage = "payment provider unavailable"
	timeoutGatewayMessage = "payment provider timed out"
)

// SessionCreator is the part of the Stripe client used to open checkout
// sessions.
type SessionCreator interface {
	New(params *stripego.CheckoutSessionParams) (*stripego.CheckoutSession, error)
}

type Gateway struct {
	sessions      SessionCreator
	webhookSecret string
	timeout       time.Duration
	logger        *zap.Logger
}

// NewGateway builds a gateway with its own Stripe API client. Nothing is
// stored in stripe-go's package-level key.
func NewGateway(cfg config.StripeConfig, logger *zap.Logger) *Gateway {
	sc := client.New(cfg.APIKey, nil)
	return NewGatewayWithSessions(sc.CheckoutSessions, cfg.WebhookSecret, cfg.Timeout, logger)
}

func NewGatewayWithSessions(sessions SessionCreator, webhookSecret string, timeout time.Duration, logger *zap.Logger) *Gateway {
	return &Gateway{
		sessions:      sessions,
		webhookSecret: webhookSecret,
		timeout:       timeout,
		logger:        logger,
	}
}

// CreateSession opens a hosted checkout session and returns its redirect URL.
// The order and restaurant ids travel as session metadata so the completion
// webhook can be matched back to the order.
func (g *Gateway) CreateSession(ctx context.Context, req dto.SessionRequest) (string, error) {
	if len(req.LineItems) == 0 {
		return "", apperrors.NewValidationError("line items cannot be empty")
	}
	if req.OrderID == "" || req.RestaurantID == "" {
		return "", apperrors.NewValidationError("missing order id or restaurant id")
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	session, err := g.sessions.New(buildSessionParams(ctx, req))
	if err != nil {
		if ctx.Err() != nil {
			g.logger.Warn("stripe session creation timed out", zap.String("orderId", req.OrderID), zap.Error(ctx.Err()))
			return "", apperrors.NewGatewayError(timeoutGatewayMessage, ctx.Err(), true)
		}
		return "", g.classifyError(req.OrderID, err)
	}

	if session == nil || session.URL == "" {
		g.logger.Error("stripe session has no url", zap.String("orderId", req.OrderID))
		return "", apperrors.NewGatewayError(genericGatewayMessage, errors.New("session url missing"), false)
	}

	g.logger.Info("stripe session created",
		zap.String("orderId", req.OrderID),
		zap.String("sessionId", session.ID))

	return session.URL, nil
}

func buildSessionParams(ctx context.Context, req dto.SessionRequest) *stripego.CheckoutSessionParams {
	lineItems := make([]*stripego.CheckoutSessionLineItemParams, 0, len(req.LineItems))
	for _, item := range req.LineItems {
		lineItems = append(lineItems, &stripego.CheckoutSessionLineItemParams{
			PriceData: &stripego.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripego.String(currency),
				UnitAmount: stripego.Int64(item.UnitAmountMinor),
				ProductData: &stripego.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripego.String(item.DisplayName),
				},
			},
			Quantity: stripego.Int64(item.Quantity),
		})
	}

	params := &stripego.CheckoutSessionParams{
		Params:    stripego.Params{Context: ctx},
		LineItems: lineItems,
		ShippingOptions: []*stripego.CheckoutSessionShippingOptionParams{
			{
				ShippingRateData: &stripego.CheckoutSessionShippingOptionShippingRateDataParams{
					DisplayName: stripego.String(deliveryDisplayName),
					Type:        stripego.String("fixed_amount"),
					FixedAmount: &stripego.CheckoutSessionShippingOptionShippingRateDataFixedAmountParams{
						Amount:   stripego.Int64(req.DeliveryAmountMinor),
						Currency: stripego.String(currency),
					},
				},
			},
		},
		Mode:       stripego.String(string(stripego.CheckoutSessionModePayment)),
		SuccessURL: stripego.String(req.SuccessURL),
		CancelURL:  stripego.String(req.CancelURL),
	}
	params.AddMetadata(metadataOrderID, req.OrderID)
	params.AddMetadata(metadataRestaurantID, req.RestaurantID)
	// one session per order even if the request is retried
	params.SetIdempotencyKey("checkout-session-" + req.OrderID)

	return params
}

func (g *Gateway) classifyError(orderID string, err error) error {
	var stripeErr *stripego.Error
	if errors.As(err, &stripeErr) {
		g.logger.Error("stripe session creation failed",
			zap.String("orderId", orderID),
			zap.String("stripeCode", string(stripeErr.Code)),
			zap.Int("httpStatus", stripeErr.HTTPStatusCode),
			zap.String("requestId", stripeErr.RequestID),
			zap.String("stripeMessage", stripeErr.Msg))

		retryable := stripeErr.HTTPStatusCode >= http.StatusInternalServerError ||
			stripeErr.HTTPStatusCode == http.StatusTooManyRequests
		return apperrors.NewGatewayError(genericGatewayMessage, err, retryable)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		g.logger.Warn("stripe session creation timed out", zap.String("orderId", orderID), zap.Error(err))
		return apperrors.NewGatewayError(timeoutGatewayMessage, err, true)
	}

	g.logger.Error("stripe session creation failed", zap.String("orderId", orderID), zap.Error(err))
	return apperrors.NewGatewayError(genericGatewayMessage, err, true)
}

type checkoutSessionObject struct {
	ID          string            `json:"id"`
	AmountTotal *int64            `json:"amount_total"`
	Metadata    map[string]string `json:"metadata"`
}

// VerifySignature authenticates a webhook delivery. payload must be the body
// exactly as received; any re-encoding invalidates the signature.
func (g *Gateway) VerifySignature(ctx context.Context, payload []byte, signatureHeader string) (*dto.VerifiedEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewGatewayError(timeoutGatewayMessage, err, true)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, apperrors.NewSignatureError(err)
	}

	verified := &dto.VerifiedEvent{
		ID:   event.ID,
		Type: string(event.Type),
	}

	if verified.Type != dto.EventTypeCheckoutSessionCompleted {
		return verified, nil
	}

	if event.Data == nil {
		return nil, apperrors.NewValidationError("checkout session event has no data")
	}

	var session checkoutSessionObject
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, apperrors.NewValidationError("malformed checkout session payload")
	}

	verified.OrderID = session.Metadata[metadataOrderID]
	verified.RestaurantID = session.Metadata[metadataRestaurantID]
	if session.AmountTotal != nil {
		verified.AmountTotal = *session.AmountTotal
		verified.HasAmount = true
	}

	return verified, nil
}
