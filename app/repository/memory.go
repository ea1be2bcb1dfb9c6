package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/zabora/subscription-service/app/models"
	"gorm.io/gorm"
)

// MemoryStore is an in-memory Store implementation used by tests and local
// development. It honors the same not-found and duplicate-key error
// contracts as the GORM store (gorm.ErrRecordNotFound, gorm.ErrDuplicatedKey)
// and serializes Transaction calls with a mutex, which gives the sequence
// counter the same exactly-once guarantee as the row lock.
//
// Transactions are a serialized critical section, not a rollback unit; the
// services are written to leave records in a terminal state on their error
// paths rather than relying on rollback alone.
type MemoryStore struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	plans          map[uint]models.Plan
	nextPlanID     uint
	subscriptions  map[string]models.Subscription
	payments       map[string]models.Payment
	paymentMethods map[string]models.PaymentMethod
	invoices       map[string]models.Invoice
	sequence       int64
	logs           []models.SubscriptionLog
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		plans:          make(map[uint]models.Plan),
		nextPlanID:     1,
		subscriptions:  make(map[string]models.Subscription),
		payments:       make(map[string]models.Payment),
		paymentMethods: make(map[string]models.PaymentMethod),
		invoices:       make(map[string]models.Invoice),
	}
}

func (s *MemoryStore) Plans() PlanRepository                   { return (*memPlanRepo)(s) }
func (s *MemoryStore) Subscriptions() SubscriptionRepository   { return (*memSubscriptionRepo)(s) }
func (s *MemoryStore) Payments() PaymentRepository             { return (*memPaymentRepo)(s) }
func (s *MemoryStore) PaymentMethods() PaymentMethodRepository { return (*memPaymentMethodRepo)(s) }
func (s *MemoryStore) Invoices() InvoiceRepository             { return (*memInvoiceRepo)(s) }
func (s *MemoryStore) Logs() LogRepository                     { return (*memLogRepo)(s) }

func (s *MemoryStore) WithContext(ctx context.Context) Store { return s }

func (s *MemoryStore) Transaction(ctx context.Context, fn func(Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(s)
}

// SeedSequence sets the counter's last issued value.
func (s *MemoryStore) SeedSequence(value int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequence = value
}

type memPlanRepo MemoryStore

func (r *memPlanRepo) Create(plan *models.Plan) error {
	s := (*MemoryStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if plan.ID == 0 {
		plan.ID = s.nextPlanID
		s.nextPlanID++
	}
	s.plans[plan.ID] = *plan
	return nil
}

func (r *memPlanRepo) GetByID(id uint) (*models.Plan, error) {
	s := (*MemoryStore)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	plan, ok := s.plans[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &plan, nil
}

func (r *memPlanRepo) GetByName(name string) (*models.Plan, error) {
	s := (*MemoryStore)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, plan := range s.plans {
		if plan.Name == name {
			p := plan
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memPlanRepo) ListActive() ([]models.Plan, error) {
	s := (*MemoryStore)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var plans []models.Plan
	for _, plan := range s.plans {
		if plan.IsActive {
			plans = append(plans, plan)
		}
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].Price.LessThan(plans[j].Price) })
	return plans, nil
}

type memSubscriptionRepo MemoryStore

func (r *memSubscriptionRepo) Create(sub *models.Subscription) error {
	s := (*MemoryStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	sub.UpdatedAt = time.Now()
	if plan, ok := s.plans[sub.PlanID]; ok {
		sub.Plan = plan
	}
	s.subscriptions[sub.ID] = *sub
	return nil
}

func (r *memSubscriptionRepo) GetByID(id string) (*models.Subscription, error) {
	s := (*MemoryStore)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subscriptions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if plan, ok := s.plans[sub.PlanID]; ok {
		sub.Plan = plan
	}
	return &sub, nil
}

func (r *memSubscriptionRepo) GetActiveByUserID(userID string) (*models.Subscription, error) {
	s := (*MemoryStore)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subscriptions {
		if sub.UserID == userID && sub.State == models.SubscriptionActive {
			if plan, ok := s.plans[sub.PlanID]; ok {
				sub.Plan = plan
			}
			out := sub
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memSubscriptionRepo) ListByUserID(userID string) ([]models.Subscription, error) {
	s := (*MemoryStore)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var subs []models.Subscription
	for _, sub := range s.subscriptions {
		if sub.UserID == userID {
			if plan, ok := s.plans[sub.PlanID]; ok {
				sub.Plan = plan
			}
			subs = append(subs, sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].CreatedAt.After(subs[j].CreatedAt) })
	return subs, nil
}

func (r *memSubscriptionRepo) Update(sub *models.Subscription) error {
	s := (*MemoryStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscriptions[sub.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	sub.UpdatedAt = time.Now()
	s.subscriptions[sub.ID] = *sub
	return nil
}

type memPaymentRepo MemoryStore

func (r *memPaymentRepo) Create(payment *models.Payment) error {
	s := (*MemoryStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now()
	}
	payment.UpdatedAt = time.Now()
	s.payments[payment.ID] = *payment
	return nil
}

func (r *memPaymentRepo) GetByID(id string) (*models.Payment, error) {
	s := (*MemoryStore)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	payment, ok := s.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &payment, nil
}

func (r *memPaymentRepo) ListBySubscriptionID(subscriptionID string) ([]models.Payment, error) {
	s := (*MemoryStore)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var payments []models.Payment
	for _, payment := range s.payments {
		if payment.SubscriptionID == subscriptionID {
			payments = append(payments, payment)
		}
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].CreatedAt.After(payments[j].CreatedAt) })
	return payments, nil
}

func (r *memPaymentRepo) ListByUserID(userID string) ([]models.Payment, error) {
	s := (*MemoryStore)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var payments []models.Payment
	for _, payment := range s.payments {
		if payment.UserID == userID {
			payments = append(payments, payment)
		}
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].CreatedAt.After(payments[j].CreatedAt) })
	return payments, nil
}

func (r *memPaymentRepo) Update(payment *models.Payment) error {
	s := (*MemoryStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payments[payment.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	payment.UpdatedAt = time.Now()
	s.payments[payment.ID] = *payment
	return nil
}

type memPaymentMethodRepo MemoryStore

func (r *memPaymentMethodRepo) Create(method *models.PaymentMethod) error {
	s := (*MemoryStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if method.CreatedAt.IsZero() {
		method.CreatedAt = time.Now()
	}
	s.paymentMethods[method.ID] = *method
	return nil
}

func (r *memPaymentMethodRepo) GetByID(id string) (*models.PaymentMethod, error) {
	s := (*MemoryStore)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	method, ok := s.paymentMethods[id]
	if !ok || method.DeletedAt != nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &method, nil
}

func (r *memPaymentMethodRepo) ListByUserID(userID string) ([]models.PaymentMethod, error) {
	s := (*MemoryStore)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var methods []models.PaymentMethod
	for _, method := range s.paymentMethods {
		if method.UserID == userID && method.DeletedAt == nil {
			methods = append(methods, method)
		}
	}
	sort.Slice(methods, func(i, j int) bool {
		if methods[i].IsDefault != methods[j].IsDefault {
			return methods[i].IsDefault
		}
		return methods[i].CreatedAt.Before(methods[j].CreatedAt)
	})
	return methods, nil
}

func (r *memPaymentMethodRepo) Delete(id string) error {
	s := (*MemoryStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	method, ok := s.paymentMethods[id]
	if !ok || method.DeletedAt != nil {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	method.DeletedAt = &now
	s.paymentMethods[id] = method
	return nil
}

type memInvoiceRepo MemoryStore

func (r *memInvoiceRepo) Create(invoice *models.Invoice) error {
	s := (*MemoryStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.invoices {
		if existing.PaymentID == invoice.PaymentID {
			return gorm.ErrDuplicatedKey
		}
	}
	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = time.Now()
	}
	s.invoices[invoice.ID] = *invoice
	return nil
}

func (r *memInvoiceRepo) GetByID(id string) (*models.Invoice, error) {
	s := (*MemoryStore)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	invoice, ok := s.invoices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &invoice, nil
}

func (r *memInvoiceRepo) GetByPaymentID(paymentID string) (*models.Invoice, error) {
	s := (*MemoryStore)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, invoice := range s.invoices {
		if invoice.PaymentID == paymentID {
			out := invoice
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memInvoiceRepo) GetByFullNumber(fullNumber string) (*models.Invoice, error) {
	s := (*MemoryStore)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, invoice := range s.invoices {
		if invoice.FullNumber == fullNumber {
			out := invoice
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memInvoiceRepo) ListByUserID(userID string) ([]models.Invoice, error) {
	s := (*MemoryStore)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var invoices []models.Invoice
	for _, invoice := range s.invoices {
		if invoice.UserID == userID {
			invoices = append(invoices, invoice)
		}
	}
	sort.Slice(invoices, func(i, j int) bool { return invoices[i].SequenceNumber > invoices[j].SequenceNumber })
	return invoices, nil
}

func (r *memInvoiceRepo) Update(invoice *models.Invoice) error {
	s := (*MemoryStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invoices[invoice.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	s.invoices[invoice.ID] = *invoice
	return nil
}

func (r *memInvoiceRepo) NextSequence() (int64, error) {
	s := (*MemoryStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequence++
	return s.sequence, nil
}

type memLogRepo MemoryStore

func (r *memLogRepo) Append(entry *models.SubscriptionLog) error {
	s := (*MemoryStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = uint(len(s.logs) + 1)
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	s.logs = append(s.logs, *entry)
	return nil
}

func (r *memLogRepo) ListBySubscriptionID(subscriptionID string) ([]models.SubscriptionLog, error) {
	s := (*MemoryStore)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var entries []models.SubscriptionLog
	for _, entry := range s.logs {
		if entry.SubscriptionID == subscriptionID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (r *memLogRepo) ListByUserID(userID string) ([]models.SubscriptionLog, error) {
	s := (*MemoryStore)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var entries []models.SubscriptionLog
	for _, entry := range s.logs {
		if entry.UserID == userID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}
