package repository

import (
	"github.com/zabora/subscription-service/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// invoiceSequenceRowID is the fixed primary key of the single counter row.
const invoiceSequenceRowID = 1

// invoiceRepository implements the InvoiceRepository interface
type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository instance.
func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(invoice *models.Invoice) error {
	return r.db.Create(invoice).Error
}

func (r *invoiceRepository) GetByID(id string) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.Where("id = ?", id).First(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) GetByPaymentID(paymentID string) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.Where("payment_id = ?", paymentID).First(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) GetByFullNumber(fullNumber string) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.Where("full_number = ?", fullNumber).First(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) ListByUserID(userID string) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.Where("user_id = ?", userID).
		Order("issue_date DESC, sequence_number DESC").
		Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepository) Update(invoice *models.Invoice) error {
	return r.db.Save(invoice).Error
}

// NextSequence locks the counter row (SELECT ... FOR UPDATE), increments it
// and returns the new value. The lock is held until the surrounding
// transaction commits, which serializes concurrent allocations: N callers
// receive N distinct, strictly increasing values with no duplicates.
func (r *invoiceRepository) NextSequence() (int64, error) {
	var seq models.InvoiceSequence
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", invoiceSequenceRowID).
		First(&seq).Error; err != nil {
		return 0, err
	}

	seq.Value++
	if err := r.db.Model(&models.InvoiceSequence{}).
		Where("id = ?", invoiceSequenceRowID).
		Update("value", seq.Value).Error; err != nil {
		return 0, err
	}
	return seq.Value, nil
}
