package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentPending   = "PENDING"
	PaymentCompleted = "COMPLETED"
	PaymentFailed    = "FAILED"
	PaymentRefunded  = "REFUNDED"
	PaymentCancelled = "CANCELLED"
)

const (
	PaymentMethodCard         = "CARD"
	PaymentMethodBankTransfer = "BANK_TRANSFER"
)

// paymentTransitions: PENDING resolves once to a terminal state; REFUNDED is
// a later transition out of COMPLETED driven by cancellation-window logic.
var paymentTransitions = map[string][]string{
	PaymentPending:   {PaymentCompleted, PaymentFailed, PaymentCancelled},
	PaymentCompleted: {PaymentRefunded},
	PaymentFailed:    {},
	PaymentRefunded:  {},
	PaymentCancelled: {},
}

// CanTransitionPayment reports whether a payment state change is valid.
func CanTransitionPayment(from, to string) bool {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsKnownPaymentMethod reports whether the given method string is supported.
func IsKnownPaymentMethod(method string) bool {
	return method == PaymentMethodCard || method == PaymentMethodBankTransfer
}

// Payment is one attempt to collect funds for a subscription.
type Payment struct {
	ID                string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	SubscriptionID    string          `gorm:"type:varchar(36);not null;index" json:"subscription_id"`
	Subscription      Subscription    `gorm:"foreignKey:SubscriptionID" json:"-"`
	UserID            string          `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Amount            decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Currency          string          `gorm:"type:varchar(3);not null;default:'COP'" json:"currency"`
	Method            string          `gorm:"type:varchar(20);not null" json:"method"`
	State             string          `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"state"`
	ProviderIntentID  string          `gorm:"type:varchar(191)" json:"provider_intent_id,omitempty"`
	PaidAt            *time.Time      `gorm:"type:timestamp;default:null" json:"paid_at,omitempty"`
	ReceiptURL        string          `gorm:"type:varchar(255)" json:"receipt_url,omitempty"`
	FailureReason     string          `gorm:"type:varchar(255)" json:"failure_reason,omitempty"`
	MetadataJSON      string          `gorm:"type:json" json:"-"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
