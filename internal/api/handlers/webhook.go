package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/dom/coursemarket/internal/api/response"
	"github.com/dom/coursemarket/internal/service"
)

const maxWebhookBody = 64 << 10

type WebhookHandler struct {
	purchaseService *service.PurchaseService
}

func NewWebhookHandler(purchaseService *service.PurchaseService) *WebhookHandler {
	return &WebhookHandler{purchaseService: purchaseService}
}

// Handle receives payment processor events. Events for unknown intents are
// acknowledged so the processor stops redelivering them; storage failures
// answer 500 so it retries.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err = h.purchaseService.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if errors.Is(err, service.ErrPurchaseNotFound) {
		slog.WarnContext(r.Context(), "webhook for unknown payment intent", "error", err)
		err = nil
	}
	if err != nil {
		writeServiceError(w, r, "order.webhook", err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]bool{"received": true})
}
