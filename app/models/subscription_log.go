package models

import "time"

// Lifecycle actions recorded in the audit trail.
const (
	LogActionCreation       = "CREATION"
	LogActionActivation     = "ACTIVATION"
	LogActionCancellation   = "CANCELLATION"
	LogActionRenewal        = "RENEWAL"
	LogActionPaymentSuccess = "PAYMENT_SUCCESS"
	LogActionPaymentFailed  = "PAYMENT_FAILED"
	LogActionPlanChange     = "PLAN_CHANGE"
	LogActionRefund         = "REFUND"
	LogActionStateChange    = "CHANGE_STATE"
)

// ActorSystem marks audit entries written by the platform itself rather than
// on behalf of a user request.
const ActorSystem = "system"

// SubscriptionLog is one append-only audit entry. Rows are written for every
// state transition and are never updated or deleted.
type SubscriptionLog struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SubscriptionID string    `gorm:"type:varchar(36);index" json:"subscription_id"`
	UserID         string    `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Action         string    `gorm:"type:varchar(30);not null" json:"action"`
	StateBefore    string    `gorm:"type:varchar(20)" json:"state_before,omitempty"`
	StateAfter     string    `gorm:"type:varchar(20)" json:"state_after,omitempty"`
	Description    string    `gorm:"type:varchar(255)" json:"description"`
	Actor          string    `gorm:"type:varchar(36)" json:"actor"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}
