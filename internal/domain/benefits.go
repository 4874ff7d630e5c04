package domain

import "time"

// UserBenefits is the view model returned to callers asking "what can this
// user do right now". It is assembled per request and never persisted.
type UserBenefits struct {
	UserID                     string             `json:"user_id"`
	ActivePlanID               string             `json:"active_plan_id,omitempty"`
	SubscriptionStatus         SubscriptionStatus `json:"subscription_status,omitempty"`
	CurrentPeriodEnd           *time.Time         `json:"current_period_end,omitempty"`
	NextCreditDate             *time.Time         `json:"next_credit_date,omitempty"`
	SubscriptionCreditsBalance int                `json:"subscription_credits_balance"`
	OneTimeCreditsBalance      int                `json:"one_time_credits_balance"`
	TotalAvailableCredits      int                `json:"total_available_credits"`
}

// SubscriptionDetail is the superset view used by account settings pages.
type SubscriptionDetail struct {
	UserBenefits

	PlanInterval       PlanInterval      `json:"plan_interval,omitempty"`
	CurrentPeriodStart *time.Time        `json:"current_period_start,omitempty"`
	CancelAtPeriodEnd  bool              `json:"cancel_at_period_end"`
	StripeSubscription string            `json:"stripe_subscription_id,omitempty"`
	YearlyAllocation   *YearlyAllocation `json:"yearly_allocation,omitempty"`
}

// ZeroBenefits is the fail-safe default for missing users and read failures.
func ZeroBenefits(userID string) UserBenefits {
	return UserBenefits{UserID: userID}
}
