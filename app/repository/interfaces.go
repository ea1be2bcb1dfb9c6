package repository

import (
	"context"

	"github.com/zabora/subscription-service/app/models"
)

// PlanRepository defines the read-mostly plan catalog operations.
type PlanRepository interface {
	Create(plan *models.Plan) error
	GetByID(id uint) (*models.Plan, error)
	GetByName(name string) (*models.Plan, error)
	ListActive() ([]models.Plan, error)
}

// SubscriptionRepository defines subscription persistence operations.
type SubscriptionRepository interface {
	Create(sub *models.Subscription) error
	GetByID(id string) (*models.Subscription, error)
	GetActiveByUserID(userID string) (*models.Subscription, error)
	ListByUserID(userID string) ([]models.Subscription, error)
	Update(sub *models.Subscription) error
}

// PaymentRepository defines payment persistence operations.
type PaymentRepository interface {
	Create(payment *models.Payment) error
	GetByID(id string) (*models.Payment, error)
	ListBySubscriptionID(subscriptionID string) ([]models.Payment, error)
	ListByUserID(userID string) ([]models.Payment, error)
	Update(payment *models.Payment) error
}

// PaymentMethodRepository defines stored payment instrument operations.
type PaymentMethodRepository interface {
	Create(method *models.PaymentMethod) error
	GetByID(id string) (*models.PaymentMethod, error)
	ListByUserID(userID string) ([]models.PaymentMethod, error)
	Delete(id string) error
}

// InvoiceRepository defines invoice persistence plus the sequence counter.
// NextSequence must be called inside a Store transaction: it locks the
// counter row, increments it and returns the new value, so concurrent
// allocations are serialized by the row lock.
type InvoiceRepository interface {
	Create(invoice *models.Invoice) error
	GetByID(id string) (*models.Invoice, error)
	GetByPaymentID(paymentID string) (*models.Invoice, error)
	GetByFullNumber(fullNumber string) (*models.Invoice, error)
	ListByUserID(userID string) ([]models.Invoice, error)
	Update(invoice *models.Invoice) error
	NextSequence() (int64, error)
}

// LogRepository is the append-only audit sink. Entries are never updated.
type LogRepository interface {
	Append(entry *models.SubscriptionLog) error
	ListBySubscriptionID(subscriptionID string) ([]models.SubscriptionLog, error)
	ListByUserID(userID string) ([]models.SubscriptionLog, error)
}

// Store bundles the repositories behind a single injection point and owns
// the transactional boundary. Services depend only on this interface, never
// on process-wide collections or a concrete database handle.
type Store interface {
	Plans() PlanRepository
	Subscriptions() SubscriptionRepository
	Payments() PaymentRepository
	PaymentMethods() PaymentMethodRepository
	Invoices() InvoiceRepository
	Logs() LogRepository

	// WithContext returns a Store whose operations are bound to ctx
	// (deadline and cancellation propagation).
	WithContext(ctx context.Context) Store

	// Transaction runs fn inside one atomic transaction. The Store passed
	// to fn sees uncommitted writes; returning an error rolls back.
	Transaction(ctx context.Context, fn func(Store) error) error
}
