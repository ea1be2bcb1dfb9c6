package payment

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/zabora/subscription-service/app/models"
	"github.com/zabora/subscription-service/app/repository"
	"github.com/zabora/subscription-service/internal/pkg/apperror"
	"github.com/zabora/subscription-service/internal/pkg/audit"
	"gorm.io/gorm"
)

// SubscriptionActivator is the narrow surface the processor needs from the
// subscription service: activate after a completed payment. The processor
// calls it at most once per completed payment.
type SubscriptionActivator interface {
	Activate(ctx context.Context, subscriptionID, providerRef string) error
}

// Processor collects funds for subscriptions against a simulated provider.
// Test tokens force deterministic outcomes; without one, cards settle
// immediately and bank transfers stay pending until confirmed.
type Processor struct {
	store     repository.Store
	activator SubscriptionActivator
	now       func() time.Time
	newID     func() string
}

// NewProcessor creates a payment processor.
func NewProcessor(store repository.Store, activator SubscriptionActivator) *Processor {
	return &Processor{
		store:     store,
		activator: activator,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// ProcessPayment runs one payment attempt for the given subscription. The
// attempt row is created PENDING, the outcome is resolved, and the resolved
// state plus its audit entry commit in a single transaction. A row is only
// left PENDING when that is its resolved outcome (bank transfer awaiting
// confirmation, card awaiting authentication); any processing error marks
// the row FAILED before the error is returned.
func (p *Processor) ProcessPayment(ctx context.Context, userID string, req ProcessRequest) (*ProcessResult, error) {
	if !req.Amount.IsPositive() {
		return nil, apperror.Validation("amount must be greater than zero")
	}
	if !models.IsKnownPaymentMethod(req.Method) {
		return nil, apperror.Validation("unsupported payment method: " + req.Method)
	}

	st := p.store.WithContext(ctx)
	sub, err := st.Subscriptions().GetByID(req.SubscriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("subscription not found")
		}
		return nil, apperror.Storage(err)
	}
	if userID != "" && sub.UserID != userID {
		return nil, apperror.Forbidden("you do not have permission to pay for this subscription")
	}

	pay := &models.Payment{
		ID:               p.newID(),
		SubscriptionID:   sub.ID,
		UserID:           sub.UserID,
		Amount:           req.Amount,
		Currency:         "COP",
		Method:           req.Method,
		State:            models.PaymentPending,
		ProviderIntentID: "pi_" + p.newID(),
	}
	if err := st.Payments().Create(pay); err != nil {
		return nil, apperror.Storage(err)
	}

	var out outcome
	if req.TestToken != "" {
		out = resolveTestOutcome(req.TestToken)
	} else {
		out = resolveLiveOutcome(req.Method)
	}

	if err := p.settle(ctx, pay, sub, out); err != nil {
		p.markFailed(ctx, pay, "processing error")
		return nil, apperror.Processing("payment could not be processed", err)
	}

	if out.storedState == models.PaymentCompleted {
		if err := p.activator.Activate(ctx, sub.ID, pay.ProviderIntentID); err != nil {
			// The payment is committed COMPLETED; surface the activation
			// failure instead of inventing a retry the caller did not ask
			// for.
			return nil, err
		}
	}

	return &ProcessResult{
		Success:              out.storedState == models.PaymentCompleted,
		Message:              out.message,
		PaymentID:            pay.ID,
		State:                out.responseState,
		Amount:               pay.Amount,
		Currency:             pay.Currency,
		PaidAt:               pay.PaidAt,
		ReceiptURL:           pay.ReceiptURL,
		RequiresConfirmation: out.requiresConfirmation,
	}, nil
}

// settle persists the resolved outcome and its audit entry atomically.
func (p *Processor) settle(ctx context.Context, pay *models.Payment, sub *models.Subscription, out outcome) error {
	if out.storedState == models.PaymentPending {
		// Nothing to transition yet; the row stays PENDING until the bank
		// confirms or the user completes authentication.
		return nil
	}
	if !models.CanTransitionPayment(pay.State, out.storedState) {
		return apperror.InvalidState("cannot move payment from " + pay.State + " to " + out.storedState)
	}

	// Work on a copy so a rolled-back transaction leaves *pay untouched;
	// markFailed relies on the in-memory state still reading PENDING.
	settled := *pay
	settled.State = out.storedState
	switch out.storedState {
	case models.PaymentCompleted:
		now := p.now()
		settled.PaidAt = &now
		settled.ReceiptURL = "https://receipts.zabora.com/" + settled.ID
	case models.PaymentFailed:
		settled.FailureReason = out.failureReason
	}

	err := p.store.Transaction(ctx, func(st repository.Store) error {
		if err := st.Payments().Update(&settled); err != nil {
			return err
		}

		entry := audit.Entry{
			SubscriptionID: sub.ID,
			UserID:         sub.UserID,
			Action:         models.LogActionPaymentSuccess,
			StateBefore:    models.PaymentPending,
			StateAfter:     settled.State,
			Description:    "payment " + settled.ID + " completed",
			Actor:          models.ActorSystem,
		}
		if out.storedState == models.PaymentFailed {
			entry.Action = models.LogActionPaymentFailed
			entry.Description = "payment " + settled.ID + " failed: " + out.failureReason
		}
		return audit.Record(st, entry)
	})
	if err != nil {
		return err
	}

	*pay = settled
	return nil
}

// markFailed is the error-path backstop: whatever went wrong, the attempt
// must not stay undecided. Best effort; the original error is what the
// caller sees.
func (p *Processor) markFailed(ctx context.Context, pay *models.Payment, reason string) {
	if pay.State != models.PaymentPending {
		return
	}
	pay.State = models.PaymentFailed
	pay.FailureReason = reason
	if err := p.store.WithContext(ctx).Payments().Update(pay); err != nil {
		log.Printf("could not mark payment %s as failed: %v", pay.ID, err)
		return
	}
	audit.RecordBestEffort(p.store.WithContext(ctx), audit.Entry{
		SubscriptionID: pay.SubscriptionID,
		UserID:         pay.UserID,
		Action:         models.LogActionPaymentFailed,
		StateBefore:    models.PaymentPending,
		StateAfter:     models.PaymentFailed,
		Description:    "payment " + pay.ID + " failed: " + reason,
		Actor:          models.ActorSystem,
	})
}

// GetPayment returns one payment, enforcing ownership.
func (p *Processor) GetPayment(ctx context.Context, userID, paymentID string) (*models.Payment, error) {
	pay, err := p.store.WithContext(ctx).Payments().GetByID(paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("payment not found")
		}
		return nil, apperror.Storage(err)
	}
	if pay.UserID != userID {
		return nil, apperror.Forbidden("you do not have permission to view this payment")
	}
	return pay, nil
}

// ListPayments returns the user's payment history, newest first.
func (p *Processor) ListPayments(ctx context.Context, userID string) ([]models.Payment, error) {
	payments, err := p.store.WithContext(ctx).Payments().ListByUserID(userID)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	return payments, nil
}
