package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dom/coursemarket/internal/api/response"
	"github.com/dom/coursemarket/internal/service"
)

const maxJSONBody = 1 << 20

// writeServiceError maps a service error onto the API's status codes.
// Client errors carry the service message; everything else is logged and
// hidden behind a generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var validationErr *service.ValidationError
	var paymentErr *service.PaymentError
	var uploadErr *service.UploadError

	switch {
	case errors.As(err, &validationErr):
		response.Errors(w, http.StatusBadRequest, validationErr.Messages)
	case errors.Is(err, service.ErrUnauthenticated):
		response.Error(w, http.StatusUnauthorized, service.PublicMessage(err))
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrNotFound),
		errors.Is(err, service.ErrForbidden):
		response.Error(w, http.StatusBadRequest, service.PublicMessage(err))
	case errors.As(err, &paymentErr):
		slog.ErrorContext(r.Context(), "payment processor failed", "op", op, "error", err)
		response.Error(w, http.StatusBadGateway, "Payment could not be initiated, please try again")
	case errors.As(err, &uploadErr):
		slog.ErrorContext(r.Context(), "image upload failed", "op", op, "error", err)
		response.Error(w, http.StatusBadGateway, "Error uploading image")
	default:
		slog.ErrorContext(r.Context(), "request failed", "op", op, "error", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON reads a JSON body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		slog.DebugContext(r.Context(), "invalid request body", "error", err)
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
