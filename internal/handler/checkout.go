package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/madison-marketplace/internal/payment"
	"github.com/sakif/madison-marketplace/internal/service"
)

// CheckoutHandler serves the simulated payment form.
type CheckoutHandler struct {
	svc    *service.CheckoutService
	logger *slog.Logger
}

func NewCheckoutHandler(svc *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{svc: svc, logger: logger}
}

// HandleCheckout validates the card and marks the listing sold.
//
// HTTP: POST /listings/{id}/checkout
// REQUEST BODY: {"name": "...", "number": "4242...", "expiry": "MM/YY", "cvc": "123"}
//
// The card is never logged.
func (h *CheckoutHandler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	var card payment.Card
	if err := decodeJSON(r, &card); err != nil {
		card.Wipe()
		writeError(w, h.logger, err)
		return
	}

	receipt, err := h.svc.Checkout(r.Context(), chi.URLParam(r, "id"), &card)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}
