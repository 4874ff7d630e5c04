package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"server/internal/adapter/repo"
	"server/internal/benefits"
	"server/internal/billing"
	"server/internal/http/handlers"
	"server/internal/http/httpapi"
	"server/internal/infra"
	"server/internal/infra/credentials"
	"server/internal/providers/genapi"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "api")

	ctx := context.Background()
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()

	accounts := repo.NewUsageAccountRepository(pool)
	ledger := repo.NewLedgerProcedures(pool)
	subs := repo.NewSubscriptionRepository(pool)
	creations := repo.NewCreationJobRepository(pool)

	benefitsSvc := benefits.NewService(accounts, ledger, subs, logger, benefits.Options{
		WelcomeCreditAmount:   cfg.WelcomeCreditAmount,
		DailyFreeCreditAmount: cfg.DailyFreeCreditAmount,
		LowBalanceThreshold:   cfg.LowBalanceThreshold,
		MaxCatchUpPerRead:     cfg.MaxCatchUpPerRead,
	})

	// The provider key comes from the environment, falling back to the
	// rotatable database credential.
	apiKey := cfg.GenAPIKey
	if apiKey == "" {
		apiKey, err = credentials.NewStore(pool).GenAPIKey(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to load provider credentials")
		}
	}
	genClient, err := genapi.NewClient(genapi.Options{
		APIKey:  apiKey,
		BaseURL: cfg.GenAPIBaseURL,
		Logger:  &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build provider client")
	}

	billingSvc := billing.NewService(subs, ledger, logger, cfg.StripeWebhookSecret)

	app := &handlers.App{
		Logger:    logger,
		Benefits:  benefitsSvc,
		Creations: creations,
		Ledger:    ledger,
		Submitter: genClient,
		Billing:   billingSvc,
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:             logger,
		JWTSecret:          cfg.JWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerMin:    cfg.RateLimitPerMin,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
