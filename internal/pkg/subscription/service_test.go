package subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zabora/subscription-service/app/models"
	"github.com/zabora/subscription-service/app/repository"
	"github.com/zabora/subscription-service/internal/pkg/apperror"
)

func newTestService(t *testing.T) (*Service, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()

	two := 2
	seven := 7
	require.NoError(t, store.Plans().Create(&models.Plan{
		Name:                models.PlanFree,
		Price:               decimal.Zero,
		Currency:            "COP",
		FavoriteRecipeCap:   &two,
		IngredientsPerQuery: &seven,
		IsActive:            true,
	}))
	require.NoError(t, store.Plans().Create(&models.Plan{
		Name:     models.PlanPremium,
		Price:    decimal.RequireFromString("29900.00"),
		Currency: "COP",
		IsActive: true,
	}))
	return NewService(store, nil), store
}

func TestSubscribeFreeActivatesImmediately(t *testing.T) {
	svc, store := newTestService(t)

	res, err := svc.Subscribe(context.Background(), "user-1", "free")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.False(t, res.RequiresPayment)
	assert.Nil(t, res.PaymentIntent)
	assert.Equal(t, models.SubscriptionActive, res.State)

	sub, err := store.Subscriptions().GetByID(res.SubscriptionID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, sub.State)
	assert.NotNil(t, sub.CurrentPeriodStart)
	assert.Nil(t, sub.CurrentPeriodEnd, "free subscriptions never expire")

	logs, err := store.Logs().ListBySubscriptionID(sub.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.LogActionCreation, logs[0].Action)
}

func TestSubscribePremiumPendsPayment(t *testing.T) {
	svc, store := newTestService(t)

	res, err := svc.Subscribe(context.Background(), "user-1", "premium")
	require.NoError(t, err)
	assert.True(t, res.RequiresPayment)
	require.NotNil(t, res.PaymentIntent)
	assert.Equal(t, "REQUIRES_PAYMENT_METHOD", res.PaymentIntent.Status)
	assert.True(t, res.PaymentIntent.Amount.Equal(decimal.RequireFromString("29900.00")))

	sub, err := store.Subscriptions().GetByID(res.SubscriptionID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionPendingPayment, sub.State)
	assert.Nil(t, sub.CurrentPeriodStart)
}

func TestSubscribeRejectsSecondActive(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Subscribe(context.Background(), "user-1", "free")
	require.NoError(t, err)

	_, err = svc.Subscribe(context.Background(), "user-1", "premium")
	assert.True(t, errors.Is(err, apperror.Conflict("")))
}

func TestSubscribeUnknownPlan(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Subscribe(context.Background(), "user-1", "gold")
	assert.True(t, errors.Is(err, apperror.NotFound("")))
}

func TestActivateGrantsFullPeriod(t *testing.T) {
	svc, store := newTestService(t)

	res, err := svc.Subscribe(context.Background(), "user-1", "premium")
	require.NoError(t, err)

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	require.NoError(t, svc.Activate(context.Background(), res.SubscriptionID, "pi_test"))

	sub, err := store.Subscriptions().GetByID(res.SubscriptionID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, sub.State)
	require.NotNil(t, sub.CurrentPeriodEnd)
	assert.Equal(t, start.Add(Period), *sub.CurrentPeriodEnd)
	assert.Equal(t, "pi_test", sub.ProviderSubscriptionID)
}

func TestActivateRejectsTerminalStates(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.Subscribe(context.Background(), "user-1", "premium")
	require.NoError(t, err)
	_, err = svc.Cancel(context.Background(), "user-1", res.SubscriptionID)
	require.NoError(t, err)

	err = svc.Activate(context.Background(), res.SubscriptionID, "pi_late")
	assert.True(t, errors.Is(err, apperror.InvalidState("")))

	err = svc.Activate(context.Background(), "missing", "pi_x")
	assert.True(t, errors.Is(err, apperror.NotFound("")))
}

func TestCancelWithinRefundWindow(t *testing.T) {
	svc, store := newTestService(t)

	res, err := svc.Subscribe(context.Background(), "user-1", "premium")
	require.NoError(t, err)
	require.NoError(t, svc.Activate(context.Background(), res.SubscriptionID, "pi_test"))

	paidAt := time.Now()
	require.NoError(t, store.Payments().Create(&models.Payment{
		ID:             "pay-1",
		SubscriptionID: res.SubscriptionID,
		UserID:         "user-1",
		Amount:         decimal.RequireFromString("29900.00"),
		Method:         models.PaymentMethodCard,
		State:          models.PaymentCompleted,
		PaidAt:         &paidAt,
	}))

	// Two hours after creation, well inside the 24h window.
	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	cancel, err := svc.Cancel(context.Background(), "user-1", res.SubscriptionID)
	require.NoError(t, err)
	assert.True(t, cancel.RefundEligible)
	assert.Equal(t, models.SubscriptionCancelled, cancel.State)

	pay, err := store.Payments().GetByID("pay-1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, pay.State)
}

func TestCancelOutsideRefundWindow(t *testing.T) {
	svc, store := newTestService(t)

	res, err := svc.Subscribe(context.Background(), "user-1", "premium")
	require.NoError(t, err)
	require.NoError(t, svc.Activate(context.Background(), res.SubscriptionID, "pi_test"))

	require.NoError(t, store.Payments().Create(&models.Payment{
		ID:             "pay-1",
		SubscriptionID: res.SubscriptionID,
		UserID:         "user-1",
		Amount:         decimal.RequireFromString("29900.00"),
		Method:         models.PaymentMethodCard,
		State:          models.PaymentCompleted,
	}))

	svc.now = func() time.Time { return time.Now().Add(25 * time.Hour) }

	cancel, err := svc.Cancel(context.Background(), "user-1", res.SubscriptionID)
	require.NoError(t, err)
	assert.False(t, cancel.RefundEligible)

	pay, err := store.Payments().GetByID("pay-1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, pay.State, "no refund outside the window")
}

func TestCancelOwnershipAndRepeat(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.Subscribe(context.Background(), "user-1", "free")
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), "user-2", res.SubscriptionID)
	assert.True(t, errors.Is(err, apperror.Forbidden("")))

	_, err = svc.Cancel(context.Background(), "user-1", res.SubscriptionID)
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), "user-1", res.SubscriptionID)
	assert.True(t, errors.Is(err, apperror.Conflict("")))
}

func TestVerifyPremiumActive(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.Subscribe(context.Background(), "user-1", "premium")
	require.NoError(t, err)
	require.NoError(t, svc.Activate(context.Background(), res.SubscriptionID, "pi_test"))

	v, err := svc.Verify(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, v.Valid)
	assert.Equal(t, models.PlanPremium, v.Plan)
	assert.Equal(t, models.SubscriptionActive, v.State)
	require.NotNil(t, v.ExpirationDate)
}

// mapCache is an in-process stand-in for the redis verify cache. Misses
// surface as redis.Nil, matching the real client.
type mapCache struct {
	data map[string]string
	gets int
}

func (c *mapCache) Get(key string) (string, error) {
	c.gets++
	v, ok := c.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (c *mapCache) Set(key string, value interface{}, _ time.Duration) error {
	c.data[key] = value.(string)
	return nil
}

func (c *mapCache) Delete(key string) error {
	delete(c.data, key)
	return nil
}

func TestVerifyCachesAndCancelInvalidates(t *testing.T) {
	svc, store := newTestService(t)
	cache := &mapCache{data: map[string]string{}}
	svc = NewService(store, cache)

	res, err := svc.Subscribe(context.Background(), "user-1", "premium")
	require.NoError(t, err)
	require.NoError(t, svc.Activate(context.Background(), res.SubscriptionID, "pi_test"))

	// First call misses and populates the cache.
	v, err := svc.Verify(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, v.Valid)
	require.Len(t, cache.data, 1)

	// Second call is served from the cache.
	before := cache.gets
	again, err := svc.Verify(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, v.Plan, again.Plan)
	assert.Equal(t, before+1, cache.gets)

	// A state change drops the cached verdict.
	_, err = svc.Cancel(context.Background(), "user-1", res.SubscriptionID)
	require.NoError(t, err)
	assert.Empty(t, cache.data)
}

func TestVerifyWithoutSubscriptionFallsBackToFree(t *testing.T) {
	svc, _ := newTestService(t)

	v, err := svc.Verify(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, v.Valid)
	assert.Equal(t, models.PlanFree, v.Plan)
	assert.Equal(t, StatusNoSubscription, v.State)
	require.NotNil(t, v.Limits["favorite_recipes"])
	assert.Equal(t, 2, *v.Limits["favorite_recipes"])
}

func TestVerifyLazilyExpiresOverdueSubscription(t *testing.T) {
	svc, store := newTestService(t)

	res, err := svc.Subscribe(context.Background(), "user-1", "premium")
	require.NoError(t, err)
	require.NoError(t, svc.Activate(context.Background(), res.SubscriptionID, "pi_test"))

	svc.now = func() time.Time { return time.Now().Add(Period + time.Hour) }

	v, err := svc.Verify(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, v.Valid)
	assert.Equal(t, models.PlanFree, v.Plan)
	assert.Equal(t, models.SubscriptionExpired, v.State)

	sub, err := store.Subscriptions().GetByID(res.SubscriptionID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionExpired, sub.State)

	expireEntries := 0
	logs, err := store.Logs().ListBySubscriptionID(res.SubscriptionID)
	require.NoError(t, err)
	for _, entry := range logs {
		if entry.Action == models.LogActionStateChange && entry.StateAfter == models.SubscriptionExpired {
			expireEntries++
		}
	}
	assert.Equal(t, 1, expireEntries)

	// A second verify sees no active subscription at all.
	v, err = svc.Verify(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, StatusNoSubscription, v.State)
}

func TestStatusWithAndWithoutSubscription(t *testing.T) {
	svc, _ := newTestService(t)

	status, err := svc.Status(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, status.HasSubscription)
	assert.Equal(t, models.PlanFree, status.Plan.Name)
	assert.False(t, status.IsPremium)

	res, err := svc.Subscribe(context.Background(), "user-1", "premium")
	require.NoError(t, err)
	require.NoError(t, svc.Activate(context.Background(), res.SubscriptionID, "pi_test"))

	status, err = svc.Status(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, status.HasSubscription)
	assert.Equal(t, res.SubscriptionID, status.SubscriptionID)
	assert.True(t, status.IsPremium)
}

func TestHistoryEnforcesOwnership(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.Subscribe(context.Background(), "user-1", "free")
	require.NoError(t, err)

	entries, err := svc.History(context.Background(), "user-1", res.SubscriptionID)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	_, err = svc.History(context.Background(), "user-2", res.SubscriptionID)
	assert.True(t, errors.Is(err, apperror.Forbidden("")))
}
