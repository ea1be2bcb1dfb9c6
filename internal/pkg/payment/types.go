package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

// Response states reported to the caller. FAILED/COMPLETED mirror the stored
// payment state; REQUIRES_AUTHENTICATION and PENDING describe instruments
// that need a further step before the payment resolves.
const (
	StateRequiresAuthentication = "REQUIRES_AUTHENTICATION"
)

// ProcessRequest is a request to collect funds for a subscription.
type ProcessRequest struct {
	SubscriptionID string
	Amount         decimal.Decimal
	Method         string
	TestToken      string
}

// ProcessResult is the outcome of a payment attempt.
type ProcessResult struct {
	Success              bool            `json:"success"`
	Message              string          `json:"message"`
	PaymentID            string          `json:"payment_id"`
	State                string          `json:"state"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency"`
	PaidAt               *time.Time      `json:"paid_at,omitempty"`
	ReceiptURL           string          `json:"receipt_url,omitempty"`
	RequiresConfirmation bool            `json:"requires_confirmation"`
}

// AddMethodInput carries the fields needed to store a payment instrument.
type AddMethodInput struct {
	Type            string
	CardLastFour    string
	CardBrand       string
	CardExpiryMonth int
	CardExpiryYear  int
	BankName        string
	BankAccountType string
}
