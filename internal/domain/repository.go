package domain

import (
	"context"
	"time"
)

// UsageAccountRepository reads the per-user ledger row.
type UsageAccountRepository interface {
	// GetByUserID returns ErrNotFound when the user has no ledger row yet.
	GetByUserID(ctx context.Context, userID string) (*UsageAccount, error)
	// ListOverdueYearly returns user ids whose yearly allocation has an
	// installment due at or before the given instant.
	ListOverdueYearly(ctx context.Context, now time.Time, limit int) ([]string, error)
}

// LedgerProcedures is the atomic mutation surface of the credit ledger. Every
// method maps to a server-side SQL function that read-checks-writes the
// balance row in one transaction; this layer never assumes it is the only
// caller.
type LedgerProcedures interface {
	// GrantWelcomeCredits issues the one-time signup grant. Idempotent per
	// user at the store level.
	GrantWelcomeCredits(ctx context.Context, userID string, amount int) error
	// GrantDailyFreeCredits tops up eligible users and reports whether a
	// grant actually happened. Eligibility (plan type, elapsed time, balance
	// below threshold) is decided inside the procedure.
	GrantDailyFreeCredits(ctx context.Context, userID string, amount, lowBalanceThreshold int) (bool, error)
	// AllocateMonthlyCredit credits one "YYYY-MM" installment of a yearly
	// plan. Idempotent per (user, month); advances the allocation cursor.
	AllocateMonthlyCredit(ctx context.Context, userID, month string, amount int) error
	// DeductCredits spends from subscription credits first, then one-time
	// credits. Returns ErrInsufficientCredits rather than going negative.
	DeductCredits(ctx context.Context, userID string, amount int) error
	// RevokeSubscriptionCredits zeroes the subscription pool, e.g. after a
	// billing subscription is deleted.
	RevokeSubscriptionCredits(ctx context.Context, userID string) error
}

// SubscriptionRepository reads and writes billing subscription rows.
type SubscriptionRepository interface {
	// GetLatestByUserID returns the newest row by created_at, or ErrNotFound.
	GetLatestByUserID(ctx context.Context, userID string) (*Subscription, error)
	Upsert(ctx context.Context, sub *Subscription) error
	MarkCanceled(ctx context.Context, stripeSubscriptionID string) (userID string, err error)
}

// CreationJobRepository persists generation jobs.
type CreationJobRepository interface {
	GetByID(ctx context.Context, id string) (*CreationJob, error)
	Create(ctx context.Context, job *CreationJob) error
	UpdateStatus(ctx context.Context, id string, status CreationStatus, providerTaskID string) error
}
