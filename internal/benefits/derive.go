package benefits

import (
	"time"

	"server/internal/domain"
)

// Derive folds a ledger row and the latest subscription row into the
// UserBenefits view model. It is the single place that applies the
// period-end override and the credit totals; both read entry points go
// through it so the two derivations cannot drift.
func Derive(userID string, account *domain.UsageAccount, sub *domain.Subscription, now time.Time) domain.UserBenefits {
	b := domain.ZeroBenefits(userID)
	if account == nil {
		return b
	}

	b.SubscriptionCreditsBalance = account.SubscriptionCreditsBalance
	b.OneTimeCreditsBalance = account.OneTimeCreditsBalance
	b.TotalAvailableCredits = account.TotalCredits()

	if yearly := account.Yearly(); yearly != nil && yearly.NextCreditDate != nil {
		next := *yearly.NextCreditDate
		b.NextCreditDate = &next
	}

	if sub != nil {
		status := sub.EffectiveStatus(now)
		b.SubscriptionStatus = status
		if !sub.CurrentPeriodEnd.IsZero() {
			end := sub.CurrentPeriodEnd
			b.CurrentPeriodEnd = &end
		}
		if status.GrantsAccess() {
			b.ActivePlanID = sub.PlanID
		}
	}

	return b
}

// DeriveDetail builds the superset view used by account settings.
func DeriveDetail(userID string, account *domain.UsageAccount, sub *domain.Subscription, now time.Time) domain.SubscriptionDetail {
	d := domain.SubscriptionDetail{UserBenefits: Derive(userID, account, sub, now)}

	if account != nil {
		if yearly := account.Yearly(); yearly != nil {
			snapshot := *yearly
			d.YearlyAllocation = &snapshot
		}
	}
	if sub != nil {
		d.PlanInterval = sub.Interval
		if !sub.CurrentPeriodStart.IsZero() {
			start := sub.CurrentPeriodStart
			d.CurrentPeriodStart = &start
		}
		d.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
		d.StripeSubscription = sub.StripeSubscriptionID
	}
	return d
}
