package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/domain"
)

// SubscriptionRepositoryPG implements domain.SubscriptionRepository backed by
// PostgreSQL.
type SubscriptionRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepository creates a new SubscriptionRepositoryPG.
func NewSubscriptionRepository(pool *pgxpool.Pool) *SubscriptionRepositoryPG {
	return &SubscriptionRepositoryPG{pool: pool}
}

const subscriptionColumns = `id, user_id, plan_id, status, plan_interval, current_period_start, current_period_end, cancel_at_period_end, stripe_subscription_id, created_at, updated_at`

// GetLatestByUserID returns the newest subscription row for a user. The
// table keeps history, so ordering by created_at matters.
func (r *SubscriptionRepositoryPG) GetLatestByUserID(ctx context.Context, userID string) (*domain.Subscription, error) {
	row := r.pool.QueryRow(ctx, `
SELECT `+subscriptionColumns+`
FROM subscriptions
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT 1`, userID)
	return scanSubscription(row)
}

// Upsert inserts or refreshes a subscription row keyed by the Stripe
// subscription id.
func (r *SubscriptionRepositoryPG) Upsert(ctx context.Context, sub *domain.Subscription) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO subscriptions (id, user_id, plan_id, status, plan_interval, current_period_start, current_period_end, cancel_at_period_end, stripe_subscription_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (stripe_subscription_id) DO UPDATE
SET plan_id = EXCLUDED.plan_id,
    status = EXCLUDED.status,
    plan_interval = EXCLUDED.plan_interval,
    current_period_start = EXCLUDED.current_period_start,
    current_period_end = EXCLUDED.current_period_end,
    cancel_at_period_end = EXCLUDED.cancel_at_period_end,
    updated_at = NOW()`,
		sub.ID,
		sub.UserID,
		sub.PlanID,
		sub.Status,
		sub.Interval,
		sub.CurrentPeriodStart,
		sub.CurrentPeriodEnd,
		sub.CancelAtPeriodEnd,
		sub.StripeSubscriptionID,
	)
	if err != nil {
		return fmt.Errorf("upsert subscription for user %s: %w", sub.UserID, err)
	}
	return nil
}

// MarkCanceled flips the row for a deleted billing subscription and returns
// the owning user id.
func (r *SubscriptionRepositoryPG) MarkCanceled(ctx context.Context, stripeSubscriptionID string) (string, error) {
	row := r.pool.QueryRow(ctx, `
UPDATE subscriptions
SET status = 'canceled', updated_at = NOW()
WHERE stripe_subscription_id = $1
RETURNING user_id`, stripeSubscriptionID)

	var userID string
	if err := row.Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("cancel subscription %s: %w", stripeSubscriptionID, err)
	}
	return userID, nil
}

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var s domain.Subscription
	if err := row.Scan(&s.ID, &s.UserID, &s.PlanID, &s.Status, &s.Interval, &s.CurrentPeriodStart, &s.CurrentPeriodEnd, &s.CancelAtPeriodEnd, &s.StripeSubscriptionID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}
