// The reconciler drains yearly-allocation backlogs in the background so that
// user-facing reads only ever perform a bounded amount of catch-up work.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"server/internal/adapter/repo"
	"server/internal/benefits"
	"server/internal/infra"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "reconciler")

	ctx := context.Background()
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()

	accounts := repo.NewUsageAccountRepository(pool)
	ledger := repo.NewLedgerProcedures(pool)
	subs := repo.NewSubscriptionRepository(pool)

	svc := benefits.NewService(accounts, ledger, subs, logger, benefits.Options{
		WelcomeCreditAmount:   cfg.WelcomeCreditAmount,
		DailyFreeCreditAmount: cfg.DailyFreeCreditAmount,
		LowBalanceThreshold:   cfg.LowBalanceThreshold,
		MaxCatchUpPerRead:     cfg.MaxCatchUpPerRead,
	})

	sweep := func() {
		sweepCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
		defer cancel()

		userIDs, err := accounts.ListOverdueYearly(sweepCtx, time.Now().UTC(), cfg.ReconcilerBatchSize)
		if err != nil {
			logger.Error().Err(err).Msg("reconciler: list overdue accounts failed")
			return
		}
		total := 0
		for _, userID := range userIDs {
			total += svc.ReconcileBacklog(sweepCtx, userID)
		}
		logger.Info().Int("accounts", len(userIDs)).Int("months_allocated", total).Msg("reconciler: sweep complete")
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.ReconcilerSchedule, sweep); err != nil {
		logger.Fatal().Err(err).Str("schedule", cfg.ReconcilerSchedule).Msg("invalid reconciler schedule")
	}

	logger.Info().Str("schedule", cfg.ReconcilerSchedule).Msg("reconciler started")
	c.Start()

	// Run one sweep immediately so a long-stopped reconciler catches up
	// without waiting for the next tick.
	sweep()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	<-c.Stop().Done()
	logger.Info().Msg("reconciler stopped")
}
