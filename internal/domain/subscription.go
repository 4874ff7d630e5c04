package domain

import "time"

// SubscriptionStatus enumerates billing subscription states as reported by
// the billing provider, plus the synthetic view-level override.
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"

	// SubscriptionStatusInactivePeriodEnded is derived, never persisted: the
	// stored status is still truthy but the paid period is already over.
	SubscriptionStatusInactivePeriodEnded SubscriptionStatus = "inactive_period_ended"
)

// PlanInterval enumerates billing cadences.
type PlanInterval string

const (
	PlanIntervalMonthly PlanInterval = "monthly"
	PlanIntervalYearly  PlanInterval = "yearly"
)

// Subscription is a row in the subscriptions table. The table holds history;
// the effective record is the newest row by created_at.
type Subscription struct {
	ID                   string
	UserID               string
	PlanID               string
	Status               SubscriptionStatus
	Interval             PlanInterval
	CurrentPeriodStart   time.Time
	CurrentPeriodEnd     time.Time
	CancelAtPeriodEnd    bool
	StripeSubscriptionID string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// EffectiveStatus applies the period-end override: a truthy stored status
// whose paid period already ended is reported as inactive_period_ended.
func (s *Subscription) EffectiveStatus(now time.Time) SubscriptionStatus {
	if s == nil {
		return ""
	}
	if s.Status != "" && !s.CurrentPeriodEnd.IsZero() && s.CurrentPeriodEnd.Before(now) {
		return SubscriptionStatusInactivePeriodEnded
	}
	return s.Status
}

// GrantsAccess reports whether the status unlocks paid-plan benefits.
func (s SubscriptionStatus) GrantsAccess() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusTrialing
}
