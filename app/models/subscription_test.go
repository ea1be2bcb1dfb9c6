package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionSubscription(t *testing.T) {
	tests := []struct {
		from    string
		to      string
		allowed bool
	}{
		{SubscriptionPendingPayment, SubscriptionActive, true},
		{SubscriptionPendingPayment, SubscriptionCancelled, true},
		{SubscriptionActive, SubscriptionCancelled, true},
		{SubscriptionActive, SubscriptionExpired, true},
		{SubscriptionPendingPayment, SubscriptionExpired, false},
		{SubscriptionCancelled, SubscriptionActive, false},
		{SubscriptionExpired, SubscriptionActive, false},
		{SubscriptionExpired, SubscriptionCancelled, false},
	}

	for _, tt := range tests {
		if got := CanTransitionSubscription(tt.from, tt.to); got != tt.allowed {
			t.Fatalf("CanTransitionSubscription(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
		}
	}
}

func TestCanTransitionPayment(t *testing.T) {
	assert.True(t, CanTransitionPayment(PaymentPending, PaymentCompleted))
	assert.True(t, CanTransitionPayment(PaymentPending, PaymentFailed))
	assert.True(t, CanTransitionPayment(PaymentCompleted, PaymentRefunded))
	assert.False(t, CanTransitionPayment(PaymentFailed, PaymentCompleted))
	assert.False(t, CanTransitionPayment(PaymentRefunded, PaymentPending))
}

func TestSubscriptionIsExpiredAt(t *testing.T) {
	now := time.Now()

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	expired := Subscription{CurrentPeriodEnd: &past}
	assert.True(t, expired.IsExpiredAt(now))

	current := Subscription{CurrentPeriodEnd: &future}
	assert.False(t, current.IsExpiredAt(now))

	// Free subscriptions carry no period end and never expire.
	free := Subscription{CurrentPeriodEnd: nil}
	assert.False(t, free.IsExpiredAt(now))
}
