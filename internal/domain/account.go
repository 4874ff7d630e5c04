package domain

import "time"

// MonthKey is the "YYYY-MM" form used to identify a monthly credit drop.
const MonthKeyLayout = "2006-01"

// YearlyAllocation tracks the monthly installments owed to an annual plan.
// It lives inside the usage account's balance_jsonb column.
type YearlyAllocation struct {
	MonthlyCredits     int        `json:"monthly_credits"`
	NextCreditDate     *time.Time `json:"next_credit_date,omitempty"`
	RemainingMonths    int        `json:"remaining_months"`
	LastAllocatedMonth string     `json:"last_allocated_month,omitempty"`
}

// Due reports whether a monthly installment is owed at the given instant.
func (y *YearlyAllocation) Due(now time.Time) bool {
	if y == nil || y.RemainingMonths <= 0 || y.NextCreditDate == nil {
		return false
	}
	return !now.Before(*y.NextCreditDate)
}

// DueMonth returns the "YYYY-MM" key of the installment currently owed.
func (y *YearlyAllocation) DueMonth() string {
	if y == nil || y.NextCreditDate == nil {
		return ""
	}
	return y.NextCreditDate.UTC().Format(MonthKeyLayout)
}

// BalanceDetail is the structured document stored in balance_jsonb.
type BalanceDetail struct {
	YearlyAllocation *YearlyAllocation `json:"yearly_allocation_details,omitempty"`
}

// UsageAccount is the per-user credit ledger row. Balances are never
// negative; every mutation goes through a ledger procedure, never through a
// direct column write from the service layer.
type UsageAccount struct {
	UserID                     string
	SubscriptionCreditsBalance int
	OneTimeCreditsBalance      int
	BalanceDetail              BalanceDetail
	CreatedAt                  time.Time
	UpdatedAt                  time.Time
}

// TotalCredits returns the spendable credit total across both pools.
func (a *UsageAccount) TotalCredits() int {
	if a == nil {
		return 0
	}
	return a.SubscriptionCreditsBalance + a.OneTimeCreditsBalance
}

// Yearly returns the yearly allocation state, nil for monthly plans.
func (a *UsageAccount) Yearly() *YearlyAllocation {
	if a == nil {
		return nil
	}
	return a.BalanceDetail.YearlyAllocation
}
