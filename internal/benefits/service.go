package benefits

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
)

// Options configures the reconciliation service.
type Options struct {
	// WelcomeCreditAmount is granted on first sight of a user. Zero disables
	// the bootstrap entirely.
	WelcomeCreditAmount int
	// DailyFreeCreditAmount is passed to the daily top-up procedure.
	DailyFreeCreditAmount int
	// LowBalanceThreshold gates the daily top-up: the procedure only grants
	// when the one-time balance is below it.
	LowBalanceThreshold int
	// MaxCatchUpPerRead caps how many missed monthly installments a single
	// read reconciles. Larger backlogs are finished by the background
	// reconciler instead of stalling a user-facing request.
	MaxCatchUpPerRead int
	// Now is the clock, overridable in tests. Defaults to time.Now.
	Now func() time.Time
}

// Service reconciles the credit ledger lazily on read and assembles the
// benefits view models. Every remote failure is logged and degraded, never
// surfaced: callers always get a usable (possibly zeroed or stale) value.
type Service struct {
	accounts domain.UsageAccountRepository
	ledger   domain.LedgerProcedures
	subs     domain.SubscriptionRepository
	logger   zerolog.Logger
	opts     Options
}

// NewService creates a reconciliation service.
func NewService(accounts domain.UsageAccountRepository, ledger domain.LedgerProcedures, subs domain.SubscriptionRepository, logger zerolog.Logger, opts Options) *Service {
	if opts.MaxCatchUpPerRead <= 0 {
		opts.MaxCatchUpPerRead = 12
	}
	if opts.LowBalanceThreshold <= 0 {
		opts.LowBalanceThreshold = 10
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{accounts: accounts, ledger: ledger, subs: subs, logger: logger, opts: opts}
}

// GetUserBenefits reconciles the user's ledger (welcome grant, daily top-up,
// yearly catch-up) and returns the benefits view. Despite being a read, it
// may perform several writes through the ledger procedures; each procedure
// is individually idempotent so concurrent calls stay safe.
func (s *Service) GetUserBenefits(ctx context.Context, userID string) domain.UserBenefits {
	account, sub := s.reconcile(ctx, userID)
	return Derive(userID, account, sub, s.opts.Now())
}

// GetSubscriptionDetail runs the same reconciliation and returns the
// superset view with plan metadata and the yearly allocation snapshot.
func (s *Service) GetSubscriptionDetail(ctx context.Context, userID string) domain.SubscriptionDetail {
	account, sub := s.reconcile(ctx, userID)
	return DeriveDetail(userID, account, sub, s.opts.Now())
}

func (s *Service) reconcile(ctx context.Context, userID string) (*domain.UsageAccount, *domain.Subscription) {
	if userID == "" {
		return nil, nil
	}

	account, err := s.fetchAccount(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("benefits: usage account fetch failed")
		return nil, nil
	}

	if account == nil {
		account = s.bootstrapAccount(ctx, userID)
	}

	if account != nil {
		account = s.applyDailyGrant(ctx, userID, account)
		account, _ = s.catchUpYearly(ctx, userID, account, s.opts.MaxCatchUpPerRead)
	}

	if account == nil {
		return nil, nil
	}

	sub, err := s.subs.GetLatestByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("benefits: subscription fetch failed")
		}
		sub = nil
	}

	return account, sub
}

// fetchAccount maps "no row yet" to (nil, nil) so callers can branch on the
// bootstrap case without error juggling.
func (s *Service) fetchAccount(ctx context.Context, userID string) (*domain.UsageAccount, error) {
	account, err := s.accounts.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return account, nil
}

func (s *Service) bootstrapAccount(ctx context.Context, userID string) *domain.UsageAccount {
	if s.opts.WelcomeCreditAmount <= 0 {
		return nil
	}
	if err := s.ledger.GrantWelcomeCredits(ctx, userID, s.opts.WelcomeCreditAmount); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("benefits: welcome grant failed")
		return nil
	}
	account, err := s.fetchAccount(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("benefits: refetch after welcome grant failed")
		return nil
	}
	return account
}

func (s *Service) applyDailyGrant(ctx context.Context, userID string, account *domain.UsageAccount) *domain.UsageAccount {
	granted, err := s.ledger.GrantDailyFreeCredits(ctx, userID, s.opts.DailyFreeCreditAmount, s.opts.LowBalanceThreshold)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("benefits: daily grant failed")
		return account
	}
	if !granted {
		return account
	}
	fresh, err := s.fetchAccount(ctx, userID)
	if err != nil || fresh == nil {
		// Keep the stale row rather than dropping the whole read.
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("benefits: refetch after daily grant failed")
		return account
	}
	return fresh
}

// ReconcileBacklog drains the yearly catch-up backlog for one user without
// the per-read cap. Used by the background reconciler so that a user-facing
// request never has to pay for months of missed installments. Returns the
// number of months allocated.
func (s *Service) ReconcileBacklog(ctx context.Context, userID string) int {
	account, err := s.fetchAccount(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("benefits: backlog fetch failed")
		return 0
	}
	if account == nil {
		return 0
	}
	// One year of backlog per sweep is plenty; the next sweep resumes.
	_, allocated := s.catchUpYearly(ctx, userID, account, 12*s.opts.MaxCatchUpPerRead)
	return allocated
}

// catchUpYearly replays missed monthly installments for annual plans, one
// procedure call per month, up to the given cap. The procedure advances
// next_credit_date and remaining_months on success, so a failed or capped
// run simply resumes on a later read or from the background reconciler.
func (s *Service) catchUpYearly(ctx context.Context, userID string, account *domain.UsageAccount, maxMonths int) (*domain.UsageAccount, int) {
	allocated := 0
	for i := 0; i < maxMonths; i++ {
		yearly := account.Yearly()
		if !yearly.Due(s.opts.Now()) {
			return account, allocated
		}
		month := yearly.DueMonth()
		if err := s.ledger.AllocateMonthlyCredit(ctx, userID, month, yearly.MonthlyCredits); err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Str("month", month).Msg("benefits: monthly allocation failed")
			return account, allocated
		}
		allocated++
		fresh, err := s.fetchAccount(ctx, userID)
		if err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("benefits: refetch after allocation failed")
			return account, allocated
		}
		if fresh == nil {
			// Row vanished mid-loop. Not expected, treat as missing.
			s.logger.Warn().Str("user_id", userID).Msg("benefits: usage account disappeared during catch-up")
			return nil, allocated
		}
		account = fresh
	}
	return account, allocated
}
