package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"server/internal/domain"
	"server/internal/planner"
)

// Credit prices per regeneration, keyed by submission endpoint. Video work is
// priced by the provider an order of magnitude above stills.
var regenerationCost = map[planner.Endpoint]int{
	planner.EndpointTask:   5,
	planner.EndpointEffect: 20,
	planner.EndpointSound:  10,
}

func costForPlan(plan *planner.Plan) int {
	cost := regenerationCost[plan.Endpoint]
	if plan.Endpoint == planner.EndpointTask && plan.OptimisticItem.Source == domain.CreationSourceVideo {
		cost = 50
	}
	if cost <= 0 {
		cost = 5
	}
	return cost
}

// RegenerateCreation re-submits a historical generation job: plan, charge,
// submit to the provider, persist the new job record.
func (a *App) RegenerateCreation(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	creationID := chi.URLParam(r, "creation_id")
	if creationID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "creation_id required")
		return
	}

	job, err := a.Creations.GetByID(r.Context(), creationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "creation not found")
			return
		}
		a.Logger.Error().Err(err).Str("creation_id", creationID).Msg("regenerate: load creation failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load creation")
		return
	}
	// Ownership failures look identical to missing rows.
	if job.UserID != userID {
		a.error(w, http.StatusNotFound, "not_found", "creation not found")
		return
	}

	plan, err := planner.BuildRegenerationPlan(job)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedJob) {
			a.error(w, http.StatusUnprocessableEntity, "unsupported_job", err.Error())
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	cost := costForPlan(plan)
	if err := a.Ledger.DeductCredits(r.Context(), userID, cost); err != nil {
		if errors.Is(err, domain.ErrInsufficientCredits) {
			a.error(w, http.StatusPaymentRequired, "insufficient_credits", "not enough credits for regeneration")
			return
		}
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("regenerate: deduction failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to charge credits")
		return
	}

	ack, err := a.Submitter.Submit(r.Context(), plan.Endpoint, plan.Payload)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Str("creation_id", creationID).Msg("regenerate: provider submission failed")
		// Credits were charged; keep a failed record so support can refund.
		failed := plan.BuildPersistedItem(planner.SubmitResult{Status: domain.CreationStatusFailed})
		if cerr := a.Creations.Create(r.Context(), &failed); cerr != nil {
			a.Logger.Error().Err(cerr).Str("user_id", userID).Msg("regenerate: persist failed record")
		}
		a.error(w, http.StatusBadGateway, "provider_error", "generation provider rejected the task")
		return
	}

	persisted := plan.BuildPersistedItem(planner.SubmitResult{
		ProviderTaskID: ack.TaskID,
		Status:         domain.CreationStatusProcessing,
	})
	if err := a.Creations.Create(r.Context(), &persisted); err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Str("task_id", ack.TaskID).Msg("regenerate: persist creation failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to persist creation")
		return
	}

	a.json(w, http.StatusAccepted, map[string]any{
		"item":            persisted,
		"credits_charged": cost,
	})
}

// GetReprompt returns form-prefill parameters derived from a historical job.
func (a *App) GetReprompt(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	creationID := chi.URLParam(r, "creation_id")
	if creationID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "creation_id required")
		return
	}

	job, err := a.Creations.GetByID(r.Context(), creationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "creation not found")
			return
		}
		a.Logger.Error().Err(err).Str("creation_id", creationID).Msg("reprompt: load creation failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load creation")
		return
	}
	if job.UserID != userID {
		a.error(w, http.StatusNotFound, "not_found", "creation not found")
		return
	}

	draft, err := planner.BuildRepromptDraft(job)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedJob) {
			a.error(w, http.StatusUnprocessableEntity, "unsupported_job", err.Error())
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	a.json(w, http.StatusOK, draft)
}
