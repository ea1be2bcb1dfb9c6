package payment

import (
	"context"
	"errors"

	"github.com/zabora/subscription-service/app/models"
	"github.com/zabora/subscription-service/app/repository"
	"github.com/zabora/subscription-service/internal/pkg/apperror"
	"gorm.io/gorm"
)

// AddPaymentMethod stores a payment instrument for the user. The first
// instrument a user adds becomes their default.
func (p *Processor) AddPaymentMethod(ctx context.Context, userID string, in AddMethodInput) (*models.PaymentMethod, error) {
	if userID == "" {
		return nil, apperror.Validation("user id is required")
	}

	method := &models.PaymentMethod{
		ID:     p.newID(),
		UserID: userID,
		Type:   in.Type,
	}
	switch in.Type {
	case models.MethodTypeCreditCard:
		if len(in.CardLastFour) != 4 {
			return nil, apperror.Validation("card last four digits are required")
		}
		if in.CardExpiryMonth < 1 || in.CardExpiryMonth > 12 {
			return nil, apperror.Validation("card expiry month must be between 1 and 12")
		}
		method.CardLastFour = in.CardLastFour
		method.CardBrand = in.CardBrand
		method.CardExpiryMonth = in.CardExpiryMonth
		method.CardExpiryYear = in.CardExpiryYear
	case models.MethodTypeBankTransfer:
		if in.BankName == "" {
			return nil, apperror.Validation("bank name is required")
		}
		if in.BankAccountType != models.BankAccountSavings && in.BankAccountType != models.BankAccountChecking {
			return nil, apperror.Validation("bank account type must be SAVINGS or CHECKING")
		}
		method.BankName = in.BankName
		method.BankAccountType = in.BankAccountType
	default:
		return nil, apperror.Validation("unsupported payment method type: " + in.Type)
	}

	err := p.store.Transaction(ctx, func(st repository.Store) error {
		existing, err := st.PaymentMethods().ListByUserID(userID)
		if err != nil {
			return err
		}
		method.IsDefault = len(existing) == 0
		return st.PaymentMethods().Create(method)
	})
	if err != nil {
		return nil, apperror.Storage(err)
	}
	return method, nil
}

// ListPaymentMethods returns the user's stored instruments.
func (p *Processor) ListPaymentMethods(ctx context.Context, userID string) ([]models.PaymentMethod, error) {
	methods, err := p.store.WithContext(ctx).PaymentMethods().ListByUserID(userID)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	return methods, nil
}

// RemovePaymentMethod soft-deletes one of the user's instruments.
func (p *Processor) RemovePaymentMethod(ctx context.Context, userID, methodID string) error {
	st := p.store.WithContext(ctx)
	method, err := st.PaymentMethods().GetByID(methodID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("payment method not found")
		}
		return apperror.Storage(err)
	}
	if method.UserID != userID {
		return apperror.Forbidden("you do not have permission to remove this payment method")
	}
	if err := st.PaymentMethods().Delete(methodID); err != nil {
		return apperror.Storage(err)
	}
	return nil
}
