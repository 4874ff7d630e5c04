package handlers

import "net/http"

// GetBenefits returns the caller's credit balances and plan status. The
// benefits service reconciles pending grants before deriving the view, so
// this read can write.
func (a *App) GetBenefits(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	a.json(w, http.StatusOK, a.Benefits.GetUserBenefits(r.Context(), userID))
}

// GetSubscription returns the detailed subscription view for the caller.
func (a *App) GetSubscription(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	a.json(w, http.StatusOK, a.Benefits.GetSubscriptionDetail(r.Context(), userID))
}
