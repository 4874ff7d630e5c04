// Package billing keeps the local subscriptions table in sync with Stripe.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"

	"server/internal/domain"
)

// Service applies Stripe subscription lifecycle events to the local store.
type Service struct {
	subs          domain.SubscriptionRepository
	ledger        domain.LedgerProcedures
	logger        zerolog.Logger
	webhookSecret string
}

// NewService creates a billing sync service.
func NewService(subs domain.SubscriptionRepository, ledger domain.LedgerProcedures, logger zerolog.Logger, webhookSecret string) *Service {
	return &Service{subs: subs, ledger: ledger, logger: logger, webhookSecret: webhookSecret}
}

// HandleWebhook verifies the Stripe signature and applies the event.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error {
	event, err := webhook.ConstructEvent(payload, signatureHeader, s.webhookSecret)
	if err != nil {
		return fmt.Errorf("verify stripe signature: %w", err)
	}
	return s.ApplyEvent(ctx, event)
}

// ApplyEvent dispatches a verified Stripe event. Unknown event types are
// acknowledged and skipped so Stripe stops retrying them.
func (s *Service) ApplyEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated":
		return s.upsertFromEvent(ctx, event)
	case "customer.subscription.deleted":
		return s.cancelFromEvent(ctx, event)
	default:
		s.logger.Debug().Str("type", string(event.Type)).Msg("billing: ignoring event")
		return nil
	}
}

func (s *Service) upsertFromEvent(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("decode subscription event: %w", err)
	}

	userID := sub.Metadata["user_id"]
	if userID == "" {
		// Checkout sessions created by this app always stamp user_id; a
		// subscription without it belongs to another system.
		s.logger.Warn().Str("stripe_subscription", sub.ID).Msg("billing: subscription event without user_id metadata")
		return nil
	}

	record := &domain.Subscription{
		ID:                   uuid.NewString(),
		UserID:               userID,
		PlanID:               sub.Metadata["plan_id"],
		Status:               domain.SubscriptionStatus(sub.Status),
		Interval:             intervalFromSubscription(&sub),
		CurrentPeriodStart:   time.Unix(sub.CurrentPeriodStart, 0).UTC(),
		CurrentPeriodEnd:     time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
		StripeSubscriptionID: sub.ID,
	}
	if err := s.subs.Upsert(ctx, record); err != nil {
		return fmt.Errorf("apply subscription %s: %w", sub.ID, err)
	}
	s.logger.Info().Str("user_id", userID).Str("status", string(record.Status)).Msg("billing: subscription synced")
	return nil
}

func (s *Service) cancelFromEvent(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("decode subscription event: %w", err)
	}

	userID, err := s.subs.MarkCanceled(ctx, sub.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn().Str("stripe_subscription", sub.ID).Msg("billing: deleted subscription not in store")
			return nil
		}
		return err
	}
	if err := s.ledger.RevokeSubscriptionCredits(ctx, userID); err != nil {
		// Subscription row is already canceled; the revoke can be retried by
		// a replayed webhook.
		return fmt.Errorf("revoke credits after cancellation for user %s: %w", userID, err)
	}
	s.logger.Info().Str("user_id", userID).Msg("billing: subscription canceled, credits revoked")
	return nil
}

func intervalFromSubscription(sub *stripe.Subscription) domain.PlanInterval {
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return ""
	}
	price := sub.Items.Data[0].Price
	if price == nil || price.Recurring == nil {
		return ""
	}
	if price.Recurring.Interval == stripe.PriceRecurringIntervalYear {
		return domain.PlanIntervalYearly
	}
	return domain.PlanIntervalMonthly
}
