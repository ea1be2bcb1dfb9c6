package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zabora/subscription-service/app/models"
	"github.com/zabora/subscription-service/app/repository"
	"github.com/zabora/subscription-service/internal/pkg/apperror"
	"gorm.io/gorm"
)

// taxRate is the Colombian IVA applied to subscription charges. Stored
// totals are tax-inclusive, so the tax portion is total * rate / (1 + rate).
var (
	taxRate    = decimal.RequireFromString("0.19")
	taxDivisor = decimal.RequireFromString("1.19")
)

// dueTerm is how long after issuance an invoice falls due.
const dueTerm = 30 * 24 * time.Hour

const documentBaseURL = "https://facturas.zabora.com/"

// Service issues fiscal invoices for completed payments. Numbering comes
// from a single locked counter row, so full numbers are gapless per issued
// sequence and strictly increasing even under concurrent generation.
type Service struct {
	store repository.Store
	now   func() time.Time
	newID func() string
}

// NewService creates an invoice service.
func NewService(store repository.Store) *Service {
	return &Service{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Generate issues the invoice for a completed payment. At most one invoice
// ever exists per payment: a pre-check catches the common repeat call, and
// the unique constraint on payment_id catches the concurrent race.
func (s *Service) Generate(ctx context.Context, paymentID string) (*models.Invoice, error) {
	st := s.store.WithContext(ctx)
	pay, err := st.Payments().GetByID(paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("payment not found")
		}
		return nil, apperror.Storage(err)
	}
	if pay.State != models.PaymentCompleted {
		return nil, apperror.InvalidState("only completed payments can be invoiced")
	}
	if _, err := st.Invoices().GetByPaymentID(paymentID); err == nil {
		return nil, apperror.Conflict("payment already has an invoice")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Storage(err)
	}

	var inv *models.Invoice
	err = s.store.Transaction(ctx, func(st repository.Store) error {
		seq, err := st.Invoices().NextSequence()
		if err != nil {
			return apperror.Storage(err)
		}

		now := s.now()
		issueDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		fullNumber := models.FormatInvoiceNumber(models.InvoicePrefix, seq)

		tax := pay.Amount.Mul(taxRate).Div(taxDivisor).Round(2)
		inv = &models.Invoice{
			ID:             s.newID(),
			PaymentID:      pay.ID,
			UserID:         pay.UserID,
			Prefix:         models.InvoicePrefix,
			SequenceNumber: seq,
			FullNumber:     fullNumber,
			IssueDate:      issueDate,
			DueDate:        issueDate.Add(dueTerm),
			Subtotal:       pay.Amount.Sub(tax),
			Tax:            tax,
			Total:          pay.Amount,
			State:          models.InvoiceIssued,
			IntegrityCode:  integrityCode(models.InvoicePrefix, seq, pay.UserID, issueDate),
			PDFURL:         documentBaseURL + fullNumber + ".pdf",
			XMLURL:         documentBaseURL + fullNumber + ".xml",
		}
		if err := st.Invoices().Create(inv); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperror.Conflict("payment already has an invoice")
			}
			return apperror.Storage(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// voidRecord is what gets serialized into the invoice when it is voided.
type voidRecord struct {
	Reason   string    `json:"reason"`
	VoidedAt time.Time `json:"voided_at"`
}

// Void cancels an issued invoice inside its 24 hour void window. The
// sequence number is never reused; the voided invoice keeps it.
func (s *Service) Void(ctx context.Context, userID, invoiceID, reason string) (*models.Invoice, error) {
	if reason == "" {
		return nil, apperror.Validation("a void reason is required")
	}

	var inv *models.Invoice
	err := s.store.Transaction(ctx, func(st repository.Store) error {
		var err error
		inv, err = st.Invoices().GetByID(invoiceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("invoice not found")
			}
			return apperror.Storage(err)
		}
		if inv.UserID != userID {
			return apperror.Forbidden("you do not have permission to void this invoice")
		}
		if inv.State == models.InvoiceVoid {
			return apperror.Conflict("invoice is already void")
		}
		now := s.now()
		if !inv.CanVoidAt(now) {
			return apperror.InvalidState("void window expired for invoice " + inv.FullNumber)
		}

		record, err := json.Marshal(voidRecord{Reason: reason, VoidedAt: now})
		if err != nil {
			return apperror.Storage(err)
		}
		inv.State = models.InvoiceVoid
		inv.VoidRecordJSON = string(record)
		if err := st.Invoices().Update(inv); err != nil {
			return apperror.Storage(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// GetByPayment returns the invoice issued for a payment, enforcing
// ownership.
func (s *Service) GetByPayment(ctx context.Context, userID, paymentID string) (*models.Invoice, error) {
	inv, err := s.store.WithContext(ctx).Invoices().GetByPaymentID(paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("no invoice for payment " + paymentID)
		}
		return nil, apperror.Storage(err)
	}
	if inv.UserID != userID {
		return nil, apperror.Forbidden("you do not have permission to view this invoice")
	}
	return inv, nil
}

// GetByNumber resolves an invoice by its full number, enforcing ownership.
func (s *Service) GetByNumber(ctx context.Context, userID, fullNumber string) (*models.Invoice, error) {
	inv, err := s.store.WithContext(ctx).Invoices().GetByFullNumber(fullNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("invoice not found: " + fullNumber)
		}
		return nil, apperror.Storage(err)
	}
	if inv.UserID != userID {
		return nil, apperror.Forbidden("you do not have permission to view this invoice")
	}
	return inv, nil
}

// ListByUser returns the user's invoices, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]models.Invoice, error) {
	invoices, err := s.store.WithContext(ctx).Invoices().ListByUserID(userID)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	return invoices, nil
}

// integrityCode derives the deterministic verification code printed on the
// invoice. The same inputs always produce the same code, so a document can
// be checked without access to the database row.
func integrityCode(prefix string, sequence int64, userID string, issueDate time.Time) string {
	seed := fmt.Sprintf("%s-%d-%s-%s", prefix, sequence, userID, issueDate.Format("2006-01-02"))
	return "CUFE-" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}
