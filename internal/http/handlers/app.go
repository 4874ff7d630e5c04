package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"server/internal/benefits"
	"server/internal/billing"
	"server/internal/domain"
	"server/internal/middleware"
	"server/internal/planner"
	"server/internal/providers/genapi"
)

// TaskSubmitter submits a regeneration plan to the generation provider.
// Satisfied by *genapi.Client.
type TaskSubmitter interface {
	Submit(ctx context.Context, endpoint planner.Endpoint, payload map[string]any) (*genapi.TaskResponse, error)
}

type App struct {
	Logger    zerolog.Logger
	Benefits  *benefits.Service
	Creations domain.CreationJobRepository
	Ledger    domain.LedgerProcedures
	Submitter TaskSubmitter
	Billing   *billing.Service
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, errorResponse{Error: kind, Message: message})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}
