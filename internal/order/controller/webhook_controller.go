package controller

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tastycheckout/internal/dto"
	apperrors "tastycheckout/internal/errors"
)

const (
	SignatureHeader = "Stripe-Signature"

	maxWebhookBodyBytes = 64 * 1024
)

type SignatureVerifier interface {
	VerifySignature(ctx context.Context, payload []byte, signatureHeader string) (*dto.VerifiedEvent, error)
}

type WebhookProcessor interface {
	Process(ctx context.Context, event dto.VerifiedEvent) (dto.WebhookOutcome, error)
}

type WebhookController struct {
	verifier  SignatureVerifier
	processor WebhookProcessor
	logger    *zap.Logger
}

func NewWebhookController(verifier SignatureVerifier, processor WebhookProcessor, logger *zap.Logger) *WebhookController {
	return &WebhookController{
		verifier:  verifier,
		processor: processor,
		logger:    logger,
	}
}

// HandleWebhook verifies the exact bytes received. The body must not pass
// through any JSON decoding before verification.
func (c *WebhookController) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.Warn("webhook body too large", zap.Int64("limit", tooLarge.Limit))
		} else {
			logger.Warn("failed to read webhook body", zap.Error(err))
		}
		writeErrorResponse(w, traceID, http.StatusBadRequest, "INVALID_PAYLOAD", "invalid webhook payload", logger)
		return
	}

	event, err := c.verifier.VerifySignature(r.Context(), payload, r.Header.Get(SignatureHeader))
	if err != nil {
		if _, ok := apperrors.IsSignatureError(err); ok {
			logger.Warn("webhook signature rejected", zap.Error(err))
			writeErrorResponse(w, traceID, http.StatusBadRequest, "INVALID_SIGNATURE", "invalid webhook signature", logger)
			return
		}
		writeError(w, traceID, err, logger)
		return
	}

	outcome, err := c.processor.Process(r.Context(), *event)
	if err != nil {
		writeError(w, traceID, err, logger)
		return
	}

	logger.Info("webhook handled",
		zap.String("eventId", event.ID),
		zap.String("eventType", event.Type),
		zap.String("outcome", string(outcome)))
	w.WriteHeader(http.StatusOK)
}
