package handlers

import (
	"io"
	"net/http"
)

// Stripe's recommended cap on webhook bodies.
const maxWebhookBody = 65536

// StripeWebhook verifies and applies billing events. Always responds quickly;
// Stripe retries on anything but 2xx.
func (a *App) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "unreadable payload")
		return
	}
	if err := a.Billing.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		a.Logger.Error().Err(err).Msg("billing: webhook rejected")
		a.error(w, http.StatusBadRequest, "webhook_error", "event rejected")
		return
	}
	a.json(w, http.StatusOK, map[string]bool{"received": true})
}
