package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/domain"
)

// UsageAccountRepositoryPG implements domain.UsageAccountRepository backed by
// PostgreSQL.
type UsageAccountRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewUsageAccountRepository creates a new UsageAccountRepositoryPG.
func NewUsageAccountRepository(pool *pgxpool.Pool) *UsageAccountRepositoryPG {
	return &UsageAccountRepositoryPG{pool: pool}
}

// GetByUserID fetches the ledger row for a user.
func (r *UsageAccountRepositoryPG) GetByUserID(ctx context.Context, userID string) (*domain.UsageAccount, error) {
	row := r.pool.QueryRow(ctx, `
SELECT user_id, subscription_credits_balance, one_time_credits_balance, balance_jsonb, created_at, updated_at
FROM usage_accounts
WHERE user_id = $1`, userID)
	return scanUsageAccount(row)
}

// ListOverdueYearly returns users whose yearly allocation still owes an
// installment due at or before now. Used by the background reconciler.
func (r *UsageAccountRepositoryPG) ListOverdueYearly(ctx context.Context, now time.Time, limit int) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
SELECT user_id
FROM usage_accounts
WHERE (balance_jsonb->'yearly_allocation_details'->>'remaining_months')::int > 0
  AND (balance_jsonb->'yearly_allocation_details'->>'next_credit_date')::timestamptz <= $1
ORDER BY (balance_jsonb->'yearly_allocation_details'->>'next_credit_date')::timestamptz
LIMIT $2`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list overdue yearly accounts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanUsageAccount(row pgx.Row) (*domain.UsageAccount, error) {
	var a domain.UsageAccount
	var detail []byte
	if err := row.Scan(&a.UserID, &a.SubscriptionCreditsBalance, &a.OneTimeCreditsBalance, &detail, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if len(detail) > 0 {
		if err := json.Unmarshal(detail, &a.BalanceDetail); err != nil {
			return nil, fmt.Errorf("decode balance_jsonb for user %s: %w", a.UserID, err)
		}
	}
	return &a, nil
}
