package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"server/internal/http/handlers"
	"server/internal/middleware"
)

// Options carries the router's middleware configuration.
type Options struct {
	Logger             zerolog.Logger
	JWTSecret          string
	CORSAllowedOrigins []string
	RateLimitPerMin    int
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.CORSAllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)

	// Stripe signs its own requests; no bearer token here.
	r.Post("/v1/billing/webhook", app.StripeWebhook)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(opts.JWTSecret))
		if opts.RateLimitPerMin > 0 {
			r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
		}

		r.Get("/v1/benefits", app.GetBenefits)
		r.Get("/v1/subscription", app.GetSubscription)
		r.Route("/v1/creations/{creation_id}", func(r chi.Router) {
			r.Post("/regenerate", app.RegenerateCreation)
			r.Get("/reprompt", app.GetReprompt)
		})
	})

	return r
}
