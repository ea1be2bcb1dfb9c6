package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	InvoiceDraft  = "DRAFT"
	InvoiceIssued = "ISSUED"
	InvoiceVoid   = "VOID"
)

// InvoicePrefix is the fiscal numbering prefix assigned to the company.
const InvoicePrefix = "FZ"

// VoidWindow is how long after issuance an invoice may still be voided.
const VoidWindow = 24 * time.Hour

// Invoice is the fiscal document issued for a completed payment. PaymentID
// carries a unique index: the constraint is the authoritative backstop for
// the one-invoice-per-payment rule.
type Invoice struct {
	ID              string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	PaymentID       string          `gorm:"type:varchar(36);not null;uniqueIndex" json:"payment_id"`
	Payment         Payment         `gorm:"foreignKey:PaymentID" json:"-"`
	UserID          string          `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Prefix          string          `gorm:"type:varchar(10);not null;default:'FZ'" json:"prefix"`
	SequenceNumber  int64           `gorm:"not null;uniqueIndex" json:"sequence_number"`
	FullNumber      string          `gorm:"type:varchar(50);not null;uniqueIndex" json:"full_number"`
	IssueDate       time.Time       `gorm:"type:date;not null" json:"issue_date"`
	DueDate         time.Time       `gorm:"type:date;not null" json:"due_date"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	Tax             decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"tax"`
	Total           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`
	State           string          `gorm:"type:varchar(20);not null;default:'ISSUED';index" json:"state"`
	IntegrityCode   string          `gorm:"type:varchar(100)" json:"integrity_code"`
	PDFURL          string          `gorm:"type:varchar(255)" json:"pdf_url,omitempty"`
	XMLURL          string          `gorm:"type:varchar(255)" json:"xml_url,omitempty"`
	VoidRecordJSON  string          `gorm:"type:json" json:"-"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// FormatInvoiceNumber renders the canonical full number for a sequence value.
func FormatInvoiceNumber(prefix string, sequence int64) string {
	return fmt.Sprintf("%s-%d", prefix, sequence)
}

// CanVoidAt reports whether the invoice is still inside its void window.
func (i *Invoice) CanVoidAt(now time.Time) bool {
	return now.Sub(i.IssueDate) <= VoidWindow
}

// InvoiceSequence is the single-row counter behind invoice numbering. The
// row is read under a row-level lock and incremented in the same transaction
// as the invoice insert, so concurrent callers always receive distinct,
// strictly increasing values.
type InvoiceSequence struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Value     int64     `gorm:"not null;default:0" json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
