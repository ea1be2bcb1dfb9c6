package repository

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

// gormStore implements Store on top of a GORM handle. Transactions reuse the
// same type bound to the transaction handle, so repositories created inside
// a transaction see uncommitted writes.
type gormStore struct {
	db *gorm.DB
}

// NewStore creates a Store backed by GORM.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Plans() PlanRepository                   { return &planRepository{db: s.db} }
func (s *gormStore) Subscriptions() SubscriptionRepository   { return &subscriptionRepository{db: s.db} }
func (s *gormStore) Payments() PaymentRepository             { return &paymentRepository{db: s.db} }
func (s *gormStore) PaymentMethods() PaymentMethodRepository { return &paymentMethodRepository{db: s.db} }
func (s *gormStore) Invoices() InvoiceRepository             { return &invoiceRepository{db: s.db} }
func (s *gormStore) Logs() LogRepository                     { return &logRepository{db: s.db} }

func (s *gormStore) WithContext(ctx context.Context) Store {
	return &gormStore{db: s.db.WithContext(ctx)}
}

func (s *gormStore) Transaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// Factory manages the Store instance and ensures it is a singleton.
type Factory struct {
	db    *gorm.DB
	store Store
	once  sync.Once
}

// NewFactory creates a new repository factory.
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{db: db}
}

// GetStore returns the singleton Store instance.
func (f *Factory) GetStore() Store {
	f.once.Do(func() {
		f.store = NewStore(f.db)
	})
	return f.store
}

// Global factory instance
var globalFactory *Factory
var factoryOnce sync.Once

// InitializeFactory initializes the global repository factory.
func InitializeFactory(db *gorm.DB) {
	factoryOnce.Do(func() {
		globalFactory = NewFactory(db)
	})
}

// GetGlobalFactory returns the global repository factory instance.
func GetGlobalFactory() *Factory {
	if globalFactory == nil {
		panic("Repository factory not initialized. Call InitializeFactory first.")
	}
	return globalFactory
}

// GetGlobalStore returns the global Store instance.
func GetGlobalStore() Store {
	return GetGlobalFactory().GetStore()
}
