package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/domain"
)

// LedgerProceduresPG invokes the atomic credit-ledger SQL functions. The
// functions own all compare-and-set semantics; concurrent callers are safe
// because each procedure read-checks-writes inside one transaction with a
// row lock on the ledger row.
type LedgerProceduresPG struct {
	pool *pgxpool.Pool
}

// NewLedgerProcedures creates a new LedgerProceduresPG.
func NewLedgerProcedures(pool *pgxpool.Pool) *LedgerProceduresPG {
	return &LedgerProceduresPG{pool: pool}
}

// GrantWelcomeCredits issues the signup grant. The procedure records a
// credit_log entry keyed (user_id, 'welcome'); a second call is a no-op.
func (r *LedgerProceduresPG) GrantWelcomeCredits(ctx context.Context, userID string, amount int) error {
	if _, err := r.pool.Exec(ctx, `SELECT grant_welcome_credits_and_log($1, $2)`, userID, amount); err != nil {
		return fmt.Errorf("grant welcome credits for user %s: %w", userID, err)
	}
	return nil
}

// GrantDailyFreeCredits runs the daily top-up procedure and reports whether
// it actually granted anything.
func (r *LedgerProceduresPG) GrantDailyFreeCredits(ctx context.Context, userID string, amount, lowBalanceThreshold int) (bool, error) {
	var granted bool
	err := r.pool.QueryRow(ctx, `SELECT grant_daily_free_credits($1, $2, $3)`, userID, amount, lowBalanceThreshold).Scan(&granted)
	if err != nil {
		return false, fmt.Errorf("grant daily free credits for user %s: %w", userID, err)
	}
	return granted, nil
}

// AllocateMonthlyCredit credits one yearly-plan installment. month is the
// "YYYY-MM" key; the procedure ignores months it already allocated.
func (r *LedgerProceduresPG) AllocateMonthlyCredit(ctx context.Context, userID, month string, amount int) error {
	if _, err := r.pool.Exec(ctx, `SELECT allocate_specific_monthly_credit_for_year_plan($1, $2, $3)`, userID, month, amount); err != nil {
		return fmt.Errorf("allocate monthly credit %s for user %s: %w", month, userID, err)
	}
	return nil
}

// DeductCredits spends credits, subscription pool first. The procedure
// raises 'insufficient_credits' instead of letting a balance go negative.
func (r *LedgerProceduresPG) DeductCredits(ctx context.Context, userID string, amount int) error {
	if _, err := r.pool.Exec(ctx, `SELECT deduct_credits_by_priority($1, $2)`, userID, amount); err != nil {
		if strings.Contains(err.Error(), "insufficient_credits") {
			return domain.ErrInsufficientCredits
		}
		return fmt.Errorf("deduct %d credits for user %s: %w", amount, userID, err)
	}
	return nil
}

// RevokeSubscriptionCredits zeroes the subscription pool.
func (r *LedgerProceduresPG) RevokeSubscriptionCredits(ctx context.Context, userID string) error {
	if _, err := r.pool.Exec(ctx, `SELECT revoke_subscription_credits($1)`, userID); err != nil {
		return fmt.Errorf("revoke subscription credits for user %s: %w", userID, err)
	}
	return nil
}
