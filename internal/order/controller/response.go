package controller

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"tastycheckout/internal/dto"
	apperrors "tastycheckout/internal/errors"
)

// writeError maps use case errors to HTTP responses. Provider and storage
// causes are logged, never returned to the caller.
func writeError(w http.ResponseWriter, traceID string, err error, logger *zap.Logger) {
	if ve, ok := apperrors.IsValidationError(err); ok {
		writeValidationError(w, traceID, ve.Message, logger, ve.Details...)
		return
	}

	if nfe, ok := apperrors.IsNotFoundError(err); ok {
		writeErrorResponse(w, traceID, http.StatusNotFound, "NOT_FOUND", nfe.Message, logger)
		return
	}

	if ce, ok := apperrors.IsConflictError(err); ok {
		writeErrorResponse(w, traceID, http.StatusConflict, "CONFLICT", ce.Message, logger)
		return
	}

	if ge, ok := apperrors.IsGatewayError(err); ok {
		logger.Error("payment provider error", zap.Bool("retryable", ge.Retryable), zap.Error(err))
		writeErrorResponse(w, traceID, http.StatusInternalServerError, "PAYMENT_PROVIDER_ERROR", ge.Message, logger)
		return
	}

	if _, ok := apperrors.IsPersistenceError(err); ok {
		logger.Error("persistence error", zap.Error(err))
		writeErrorResponse(w, traceID, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred", logger)
		return
	}

	logger.Error("unexpected error", zap.Error(err))
	writeErrorResponse(w, traceID, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred", logger)
}

func writeErrorResponse(w http.ResponseWriter, traceID string, statusCode int, code, message string, logger *zap.Logger) {
	writeJSON(w, statusCode, dto.ErrorResponse{
		TraceID:   traceID,
		Error:     code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}, logger)
}

func writeValidationError(w http.ResponseWriter, traceID, message string, logger *zap.Logger, details ...apperrors.ValidationDetail) {
	writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
		TraceID:   traceID,
		Error:     "VALIDATION_ERROR",
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}, logger)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}
