package subscription

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/zabora/subscription-service/app/models"
	"github.com/zabora/subscription-service/internal/pkg/plancatalog"
)

// Verification statuses reported to collaborators gating premium features.
const (
	StatusNoSubscription = "NO_SUBSCRIPTION"
)

// PaymentIntent is the placeholder handed to the client when a priced plan
// still needs to be paid. In production this would come from the real
// payment provider.
type PaymentIntent struct {
	ID           string          `json:"id"`
	ClientSecret string          `json:"client_secret"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Status       string          `json:"status"`
}

// SubscribeResult is the outcome of a subscribe request.
type SubscribeResult struct {
	Success         bool               `json:"success"`
	Message         string             `json:"message"`
	SubscriptionID  string             `json:"subscription_id"`
	Plan            string             `json:"plan"`
	State           string             `json:"state"`
	Limits          plancatalog.Limits `json:"limits"`
	RequiresPayment bool               `json:"requires_payment"`
	PaymentIntent   *PaymentIntent     `json:"payment_intent,omitempty"`
}

// CancelResult is the outcome of a cancel request.
type CancelResult struct {
	Success        bool       `json:"success"`
	Message        string     `json:"message"`
	SubscriptionID string     `json:"subscription_id"`
	Plan           string     `json:"plan"`
	State          string     `json:"state"`
	RefundEligible bool       `json:"refund_eligible"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
}

// VerifyResult answers "does this user have a valid premium subscription".
type VerifyResult struct {
	Valid          bool               `json:"valid"`
	Plan           string             `json:"plan"`
	State          string             `json:"state"`
	ExpirationDate *time.Time         `json:"expiration_date,omitempty"`
	Limits         plancatalog.Limits `json:"limits"`
}

// StatusResult is the full subscription profile for a user.
type StatusResult struct {
	UserID          string                `json:"user_id"`
	HasSubscription bool                  `json:"has_subscription"`
	SubscriptionID  string                `json:"subscription_id,omitempty"`
	Plan            *models.Plan          `json:"plan"`
	State           string                `json:"state,omitempty"`
	PeriodStart     *time.Time            `json:"period_start,omitempty"`
	PeriodEnd       *time.Time            `json:"period_end,omitempty"`
	Limits          plancatalog.Limits    `json:"limits"`
	IsPremium       bool                  `json:"is_premium"`
	History         []models.Subscription `json:"history,omitempty"`
}
