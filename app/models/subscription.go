package models

import "time"

const (
	SubscriptionPendingPayment = "PENDING_PAYMENT"
	SubscriptionActive         = "ACTIVE"
	SubscriptionCancelled      = "CANCELLED"
	SubscriptionExpired        = "EXPIRED"
)

// subscriptionTransitions is the explicit transition table for the
// subscription lifecycle. CANCELLED and EXPIRED are terminal.
var subscriptionTransitions = map[string][]string{
	SubscriptionPendingPayment: {SubscriptionActive, SubscriptionCancelled},
	SubscriptionActive:         {SubscriptionCancelled, SubscriptionExpired},
	SubscriptionCancelled:      {},
	SubscriptionExpired:        {},
}

// CanTransitionSubscription reports whether moving a subscription from one
// state to another is a valid lifecycle transition.
func CanTransitionSubscription(from, to string) bool {
	for _, next := range subscriptionTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Subscription is a user's enrollment in a plan. Records are never deleted,
// only transitioned; a NULL CurrentPeriodEnd means the subscription never
// expires (free plan).
type Subscription struct {
	ID                     string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID                 string     `gorm:"type:varchar(36);not null;index:idx_subscriptions_user_state,priority:1" json:"user_id"`
	PlanID                 uint       `gorm:"not null;index" json:"plan_id"`
	Plan                   Plan       `gorm:"foreignKey:PlanID" json:"plan"`
	State                  string     `gorm:"type:varchar(20);not null;default:'PENDING_PAYMENT';index:idx_subscriptions_user_state,priority:2" json:"state"`
	CurrentPeriodStart     *time.Time `gorm:"type:timestamp;default:null" json:"current_period_start,omitempty"`
	CurrentPeriodEnd       *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	CancelAtPeriodEnd      bool       `gorm:"default:false" json:"cancel_at_period_end"`
	CancelledAt            *time.Time `gorm:"type:timestamp;default:null" json:"cancelled_at,omitempty"`
	ProviderCustomerRef    string     `gorm:"type:varchar(191)" json:"provider_customer_ref,omitempty"`
	ProviderSubscriptionID string     `gorm:"type:varchar(191)" json:"provider_subscription_id,omitempty"`
	CreatedAt              time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsExpiredAt reports whether the subscription's current period ended before
// the given instant. Subscriptions without a period end never expire.
func (s *Subscription) IsExpiredAt(now time.Time) bool {
	return s.CurrentPeriodEnd != nil && s.CurrentPeriodEnd.Before(now)
}
