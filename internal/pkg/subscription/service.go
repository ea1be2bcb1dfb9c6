package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/zabora/subscription-service/app/models"
	"github.com/zabora/subscription-service/app/repository"
	"github.com/zabora/subscription-service/internal/pkg/apperror"
	"github.com/zabora/subscription-service/internal/pkg/audit"
	"github.com/zabora/subscription-service/internal/pkg/cache"
	"github.com/zabora/subscription-service/internal/pkg/plancatalog"
	"gorm.io/gorm"
)

// Period is the billing period granted by a successful payment.
const Period = 30 * 24 * time.Hour

// RefundWindow is how long after creation a cancellation still entitles the
// user to an automatic refund.
const RefundWindow = 24 * time.Hour

const verifyCacheTTL = time.Minute

// Cache is the optional read cache used by Verify. A nil cache disables
// caching entirely.
type Cache interface {
	Get(key string) (string, error)
	Set(key string, value interface{}, expiration time.Duration) error
	Delete(key string) error
}

// Service owns the subscription lifecycle: creation, activation after
// payment, cancellation with refund eligibility, and lazy expiry on the
// verification read path. Every transition is appended to the audit trail
// inside the same transaction.
type Service struct {
	store   repository.Store
	catalog *plancatalog.Catalog
	cache   Cache
	now     func() time.Time
	newID   func() string
}

// NewService creates a subscription service. cache may be nil.
func NewService(store repository.Store, cache Cache) *Service {
	return &Service{
		store:   store,
		catalog: plancatalog.NewCatalog(store),
		cache:   cache,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Subscribe enrolls the user in the named plan. Free plans activate
// immediately and never expire; priced plans start in PENDING_PAYMENT and
// report the payment intent the client must complete.
func (s *Service) Subscribe(ctx context.Context, userID, planName string) (*SubscribeResult, error) {
	if userID == "" {
		return nil, apperror.Validation("user id is required")
	}

	plan, err := s.catalog.FindByName(ctx, planName)
	if err != nil {
		return nil, err
	}

	var result *SubscribeResult
	err = s.store.Transaction(ctx, func(st repository.Store) error {
		// Check-then-insert inside the transaction; the unique constraint on
		// (user_id, state) is the authoritative backstop under races.
		if _, err := st.Subscriptions().GetActiveByUserID(userID); err == nil {
			return apperror.Conflict("user already has an active subscription")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.Storage(err)
		}

		now := s.now()
		sub := &models.Subscription{
			ID:     s.newID(),
			UserID: userID,
			PlanID: plan.ID,
		}

		if plan.IsFree() {
			sub.State = models.SubscriptionActive
			sub.CurrentPeriodStart = &now
			sub.CurrentPeriodEnd = nil // free plan never expires
			if err := st.Subscriptions().Create(sub); err != nil {
				return apperror.Storage(err)
			}
			if err := audit.Record(st, audit.Entry{
				SubscriptionID: sub.ID,
				UserID:         userID,
				Action:         models.LogActionCreation,
				StateAfter:     models.SubscriptionActive,
				Description:    "free subscription created",
				Actor:          userID,
			}); err != nil {
				return apperror.Storage(err)
			}

			result = &SubscribeResult{
				Success:         true,
				Message:         "free subscription activated",
				SubscriptionID:  sub.ID,
				Plan:            plan.Name,
				State:           sub.State,
				Limits:          plancatalog.PlanLimits(plan),
				RequiresPayment: false,
			}
			return nil
		}

		sub.State = models.SubscriptionPendingPayment
		if err := st.Subscriptions().Create(sub); err != nil {
			return apperror.Storage(err)
		}
		if err := audit.Record(st, audit.Entry{
			SubscriptionID: sub.ID,
			UserID:         userID,
			Action:         models.LogActionCreation,
			StateAfter:     models.SubscriptionPendingPayment,
			Description:    "premium subscription created, pending payment",
			Actor:          userID,
		}); err != nil {
			return apperror.Storage(err)
		}

		result = &SubscribeResult{
			Success:         true,
			Message:         "subscription created, proceed with payment",
			SubscriptionID:  sub.ID,
			Plan:            plan.Name,
			State:           sub.State,
			Limits:          plancatalog.PlanLimits(plan),
			RequiresPayment: true,
			PaymentIntent: &PaymentIntent{
				ID:           "pi_" + s.newID(),
				ClientSecret: "secret_" + s.newID(),
				Amount:       plan.Price,
				Currency:     plan.Currency,
				Status:       "REQUIRES_PAYMENT_METHOD",
			},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateVerifyCache(userID)
	return result, nil
}

// Activate moves a subscription to ACTIVE and grants one full period. It is
// called by the payment processor after a completed payment; the processor
// guarantees at most one call per completed payment, so a repeated external
// retry of the same payment is the only way to extend the period twice.
func (s *Service) Activate(ctx context.Context, subscriptionID, providerRef string) error {
	var userID string
	err := s.store.Transaction(ctx, func(st repository.Store) error {
		sub, err := st.Subscriptions().GetByID(subscriptionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("subscription not found")
			}
			return apperror.Storage(err)
		}
		if sub.State == models.SubscriptionCancelled || sub.State == models.SubscriptionExpired {
			return apperror.InvalidState("cannot activate a " + sub.State + " subscription")
		}

		stateBefore := sub.State
		now := s.now()
		end := now.Add(Period)
		sub.State = models.SubscriptionActive
		sub.CurrentPeriodStart = &now
		sub.CurrentPeriodEnd = &end
		if providerRef != "" {
			sub.ProviderSubscriptionID = providerRef
		}
		if err := st.Subscriptions().Update(sub); err != nil {
			return apperror.Storage(err)
		}
		userID = sub.UserID

		if err := audit.Record(st, audit.Entry{
			SubscriptionID: sub.ID,
			UserID:         sub.UserID,
			Action:         models.LogActionActivation,
			StateBefore:    stateBefore,
			StateAfter:     models.SubscriptionActive,
			Description:    "subscription activated after successful payment",
			Actor:          models.ActorSystem,
		}); err != nil {
			return apperror.Storage(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidateVerifyCache(userID)
	return nil
}

// Cancel transitions the subscription to CANCELLED and computes refund
// eligibility against the subscription's creation time. When eligible, the
// most recent completed payment is marked REFUNDED and a system refund entry
// is appended.
func (s *Service) Cancel(ctx context.Context, userID, subscriptionID string) (*CancelResult, error) {
	var result *CancelResult
	err := s.store.Transaction(ctx, func(st repository.Store) error {
		sub, err := st.Subscriptions().GetByID(subscriptionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("subscription not found")
			}
			return apperror.Storage(err)
		}
		if sub.UserID != userID {
			return apperror.Forbidden("you do not have permission to cancel this subscription")
		}
		if sub.State == models.SubscriptionCancelled {
			return apperror.Conflict("subscription is already cancelled")
		}
		if !models.CanTransitionSubscription(sub.State, models.SubscriptionCancelled) {
			return apperror.InvalidState("cannot cancel a " + sub.State + " subscription")
		}

		stateBefore := sub.State
		now := s.now()
		sub.State = models.SubscriptionCancelled
		sub.CancelledAt = &now
		sub.CancelAtPeriodEnd = true
		if err := st.Subscriptions().Update(sub); err != nil {
			return apperror.Storage(err)
		}

		// Refund eligibility is a window on the subscription's creation
		// time, not on any payment time.
		refundEligible := now.Add(-RefundWindow).Before(sub.CreatedAt)

		description := "subscription cancelled"
		if refundEligible {
			description = "subscription cancelled - eligible for refund"
		}
		if err := audit.Record(st, audit.Entry{
			SubscriptionID: sub.ID,
			UserID:         userID,
			Action:         models.LogActionCancellation,
			StateBefore:    stateBefore,
			StateAfter:     models.SubscriptionCancelled,
			Description:    description,
			Actor:          userID,
		}); err != nil {
			return apperror.Storage(err)
		}

		if refundEligible {
			if err := s.refundLatestPayment(st, sub); err != nil {
				return err
			}
			if err := audit.Record(st, audit.Entry{
				SubscriptionID: sub.ID,
				UserID:         userID,
				Action:         models.LogActionRefund,
				Description:    "automatic refund for cancellation within 24 hours",
				Actor:          models.ActorSystem,
			}); err != nil {
				return apperror.Storage(err)
			}
		}

		result = &CancelResult{
			Success:        true,
			Message:        "subscription cancelled",
			SubscriptionID: sub.ID,
			Plan:           sub.Plan.Name,
			State:          sub.State,
			RefundEligible: refundEligible,
			CancelledAt:    sub.CancelledAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateVerifyCache(userID)
	return result, nil
}

// refundLatestPayment flips the most recent completed payment of the
// subscription to REFUNDED, if there is one.
func (s *Service) refundLatestPayment(st repository.Store, sub *models.Subscription) error {
	payments, err := st.Payments().ListBySubscriptionID(sub.ID)
	if err != nil {
		return apperror.Storage(err)
	}
	for i := range payments {
		p := &payments[i]
		if p.State != models.PaymentCompleted {
			continue
		}
		if !models.CanTransitionPayment(p.State, models.PaymentRefunded) {
			break
		}
		p.State = models.PaymentRefunded
		if err := st.Payments().Update(p); err != nil {
			return apperror.Storage(err)
		}
		break
	}
	return nil
}

// Verify is the read path collaborators use to gate premium features. An
// ACTIVE subscription whose period already ended is lazily transitioned to
// EXPIRED before answering.
func (s *Service) Verify(ctx context.Context, userID string) (*VerifyResult, error) {
	if cached := s.cachedVerify(userID); cached != nil {
		return cached, nil
	}

	st := s.store.WithContext(ctx)
	sub, err := st.Subscriptions().GetActiveByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.verifyFallback(ctx, userID, StatusNoSubscription)
		}
		return nil, apperror.Storage(err)
	}

	if sub.IsExpiredAt(s.now()) {
		if err := s.expire(ctx, sub); err != nil {
			return nil, err
		}
		return s.verifyFallback(ctx, userID, models.SubscriptionExpired)
	}

	result := &VerifyResult{
		Valid:          plancatalog.IsPremium(sub.Plan.Name),
		Plan:           sub.Plan.Name,
		State:          sub.State,
		ExpirationDate: sub.CurrentPeriodEnd,
		Limits:         plancatalog.PlanLimits(&sub.Plan),
	}
	s.storeVerifyCache(userID, result)
	return result, nil
}

// expire transitions an overdue subscription to EXPIRED exactly once. A
// concurrent caller loses the race at the state guard and treats the record
// as already expired.
func (s *Service) expire(ctx context.Context, sub *models.Subscription) error {
	return s.store.Transaction(ctx, func(st repository.Store) error {
		current, err := st.Subscriptions().GetByID(sub.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("subscription not found")
			}
			return apperror.Storage(err)
		}
		if current.State != models.SubscriptionActive {
			return nil
		}
		if !models.CanTransitionSubscription(current.State, models.SubscriptionExpired) {
			return apperror.InvalidState("cannot expire a " + current.State + " subscription")
		}

		current.State = models.SubscriptionExpired
		if err := st.Subscriptions().Update(current); err != nil {
			return apperror.Storage(err)
		}
		return audit.Record(st, audit.Entry{
			SubscriptionID: current.ID,
			UserID:         current.UserID,
			Action:         models.LogActionStateChange,
			StateBefore:    models.SubscriptionActive,
			StateAfter:     models.SubscriptionExpired,
			Description:    "subscription expired automatically",
			Actor:          models.ActorSystem,
		})
	})
}

// verifyFallback answers with the free plan's limits for users without a
// valid subscription.
func (s *Service) verifyFallback(ctx context.Context, userID, status string) (*VerifyResult, error) {
	free, err := s.catalog.FreePlan(ctx)
	if err != nil {
		return nil, err
	}
	result := &VerifyResult{
		Valid:  false,
		Plan:   free.Name,
		State:  status,
		Limits: plancatalog.PlanLimits(free),
	}
	s.storeVerifyCache(userID, result)
	return result, nil
}

// Status returns the user's full subscription profile, including the
// history of past subscriptions when none is active.
func (s *Service) Status(ctx context.Context, userID string) (*StatusResult, error) {
	st := s.store.WithContext(ctx)
	subs, err := st.Subscriptions().ListByUserID(userID)
	if err != nil {
		return nil, apperror.Storage(err)
	}

	var active *models.Subscription
	for i := range subs {
		if subs[i].State == models.SubscriptionActive {
			active = &subs[i]
			break
		}
	}

	if active != nil {
		return &StatusResult{
			UserID:          userID,
			HasSubscription: true,
			SubscriptionID:  active.ID,
			Plan:            &active.Plan,
			State:           active.State,
			PeriodStart:     active.CurrentPeriodStart,
			PeriodEnd:       active.CurrentPeriodEnd,
			Limits:          plancatalog.PlanLimits(&active.Plan),
			IsPremium:       plancatalog.IsPremium(active.Plan.Name),
		}, nil
	}

	free, err := s.catalog.FreePlan(ctx)
	if err != nil {
		return nil, err
	}
	return &StatusResult{
		UserID:          userID,
		HasSubscription: false,
		Plan:            free,
		Limits:          plancatalog.PlanLimits(free),
		IsPremium:       false,
		History:         subs,
	}, nil
}

// ListPlans returns the active plan catalog.
func (s *Service) ListPlans(ctx context.Context) ([]models.Plan, error) {
	return s.catalog.ListActive(ctx)
}

// History returns the audit trail of one subscription, newest last.
func (s *Service) History(ctx context.Context, userID, subscriptionID string) ([]models.SubscriptionLog, error) {
	st := s.store.WithContext(ctx)
	sub, err := st.Subscriptions().GetByID(subscriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("subscription not found")
		}
		return nil, apperror.Storage(err)
	}
	if sub.UserID != userID {
		return nil, apperror.Forbidden("you do not have permission to view this subscription")
	}
	entries, err := st.Logs().ListBySubscriptionID(subscriptionID)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	return entries, nil
}

func verifyCacheKey(userID string) string {
	return "subscription:verify:" + userID
}

func (s *Service) cachedVerify(userID string) *VerifyResult {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(verifyCacheKey(userID))
	if err != nil {
		// A plain miss is routine; anything else is a cache outage worth a
		// log line. Either way Verify falls through to storage.
		if !cache.IsNotFound(err) {
			log.Printf("verify cache read failed for user %s: %v", userID, err)
		}
		return nil
	}
	var result VerifyResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil
	}
	return &result
}

func (s *Service) storeVerifyCache(userID string, result *VerifyResult) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(verifyCacheKey(userID), string(raw), verifyCacheTTL); err != nil {
		log.Printf("verify cache set failed for user %s: %v", userID, err)
	}
}

func (s *Service) invalidateVerifyCache(userID string) {
	if s.cache == nil || userID == "" {
		return
	}
	if err := s.cache.Delete(verifyCacheKey(userID)); err != nil {
		log.Printf("verify cache invalidation failed for user %s: %v", userID, err)
	}
}
