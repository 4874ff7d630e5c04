package billing

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	stripe "github.com/stripe/stripe-go/v78"

	"server/internal/domain"
)

type fakeStore struct {
	upserted []*domain.Subscription
	canceled []string
	revoked  []string

	cancelUser string
	cancelErr  error
}

func (f *fakeStore) GetLatestByUserID(context.Context, string) (*domain.Subscription, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeStore) Upsert(_ context.Context, sub *domain.Subscription) error {
	f.upserted = append(f.upserted, sub)
	return nil
}

func (f *fakeStore) MarkCanceled(_ context.Context, stripeID string) (string, error) {
	if f.cancelErr != nil {
		return "", f.cancelErr
	}
	f.canceled = append(f.canceled, stripeID)
	return f.cancelUser, nil
}

func (f *fakeStore) GrantWelcomeCredits(context.Context, string, int) error { return nil }

func (f *fakeStore) GrantDailyFreeCredits(context.Context, string, int, int) (bool, error) {
	return false, nil
}

func (f *fakeStore) AllocateMonthlyCredit(context.Context, string, string, int) error { return nil }

func (f *fakeStore) DeductCredits(context.Context, string, int) error { return nil }

func (f *fakeStore) RevokeSubscriptionCredits(_ context.Context, userID string) error {
	f.revoked = append(f.revoked, userID)
	return nil
}

func subscriptionEvent(t *testing.T, eventType string, sub map[string]any) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(sub)
	if err != nil {
		t.Fatalf("marshal subscription: %v", err)
	}
	return stripe.Event{
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestApplyEventUpsertsSubscription(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, store, zerolog.Nop(), "whsec_test")

	periodEnd := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	event := subscriptionEvent(t, "customer.subscription.updated", map[string]any{
		"id":                   "sub_123",
		"status":               "active",
		"cancel_at_period_end": true,
		"current_period_start": periodEnd.AddDate(0, -1, 0).Unix(),
		"current_period_end":   periodEnd.Unix(),
		"metadata":             map[string]string{"user_id": "u1", "plan_id": "pro-yearly"},
		"items": map[string]any{
			"data": []map[string]any{
				{"price": map[string]any{"recurring": map[string]any{"interval": "year"}}},
			},
		},
	})

	if err := svc.ApplyEvent(context.Background(), event); err != nil {
		t.Fatalf("ApplyEvent: %v", err)
	}
	if len(store.upserted) != 1 {
		t.Fatalf("upserts = %d, want 1", len(store.upserted))
	}
	got := store.upserted[0]
	if got.UserID != "u1" || got.PlanID != "pro-yearly" {
		t.Fatalf("identity lost: %+v", got)
	}
	if got.Status != domain.SubscriptionStatusActive {
		t.Fatalf("status = %q", got.Status)
	}
	if got.Interval != domain.PlanIntervalYearly {
		t.Fatalf("interval = %q, want yearly", got.Interval)
	}
	if !got.CurrentPeriodEnd.Equal(periodEnd) {
		t.Fatalf("period end = %v, want %v", got.CurrentPeriodEnd, periodEnd)
	}
	if !got.CancelAtPeriodEnd {
		t.Fatalf("cancel_at_period_end lost")
	}
}

func TestApplyEventSkipsForeignSubscriptions(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, store, zerolog.Nop(), "whsec_test")

	event := subscriptionEvent(t, "customer.subscription.created", map[string]any{
		"id":     "sub_foreign",
		"status": "active",
	})
	if err := svc.ApplyEvent(context.Background(), event); err != nil {
		t.Fatalf("ApplyEvent: %v", err)
	}
	if len(store.upserted) != 0 {
		t.Fatalf("subscription without user_id metadata must be skipped")
	}
}

func TestApplyEventCancelRevokesCredits(t *testing.T) {
	store := &fakeStore{cancelUser: "u1"}
	svc := NewService(store, store, zerolog.Nop(), "whsec_test")

	event := subscriptionEvent(t, "customer.subscription.deleted", map[string]any{"id": "sub_123"})
	if err := svc.ApplyEvent(context.Background(), event); err != nil {
		t.Fatalf("ApplyEvent: %v", err)
	}
	if len(store.canceled) != 1 || store.canceled[0] != "sub_123" {
		t.Fatalf("canceled = %v", store.canceled)
	}
	if len(store.revoked) != 1 || store.revoked[0] != "u1" {
		t.Fatalf("revoked = %v", store.revoked)
	}
}

func TestApplyEventCancelUnknownSubscriptionIsAcknowledged(t *testing.T) {
	store := &fakeStore{cancelErr: domain.ErrNotFound}
	svc := NewService(store, store, zerolog.Nop(), "whsec_test")

	event := subscriptionEvent(t, "customer.subscription.deleted", map[string]any{"id": "sub_gone"})
	if err := svc.ApplyEvent(context.Background(), event); err != nil {
		t.Fatalf("unknown subscription should be acknowledged, got %v", err)
	}
	if len(store.revoked) != 0 {
		t.Fatalf("no credits should be revoked for unknown subscription")
	}
}

func TestApplyEventIgnoresUnrelatedTypes(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, store, zerolog.Nop(), "whsec_test")

	event := stripe.Event{Type: "invoice.paid", Data: &stripe.EventData{Raw: []byte(`{}`)}}
	if err := svc.ApplyEvent(context.Background(), event); err != nil {
		t.Fatalf("ApplyEvent: %v", err)
	}
	if len(store.upserted) != 0 || len(store.canceled) != 0 {
		t.Fatalf("unrelated event mutated the store")
	}
}
