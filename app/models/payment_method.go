package models

import "time"

const (
	MethodTypeCreditCard   = "CREDIT_CARD"
	MethodTypeBankTransfer = "PSE"
)

const (
	BankAccountSavings  = "SAVINGS"
	BankAccountChecking = "CHECKING"
)

// PaymentMethod is a stored payment instrument for a user. Card rows keep
// only the brand and last four digits; bank rows keep bank and account type.
type PaymentMethod struct {
	ID              string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID          string     `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Type            string     `gorm:"type:varchar(20);not null" json:"type"`
	CardLastFour    string     `gorm:"type:varchar(4)" json:"card_last_four,omitempty"`
	CardBrand       string     `gorm:"type:varchar(20)" json:"card_brand,omitempty"`
	CardExpiryMonth int        `gorm:"default:0" json:"card_expiry_month,omitempty"`
	CardExpiryYear  int        `gorm:"default:0" json:"card_expiry_year,omitempty"`
	BankName        string     `gorm:"type:varchar(100)" json:"bank_name,omitempty"`
	BankAccountType string     `gorm:"type:varchar(20)" json:"bank_account_type,omitempty"`
	IsDefault       bool       `gorm:"default:false" json:"is_default"`
	DeletedAt       *time.Time `gorm:"type:timestamp;default:null" json:"-"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
