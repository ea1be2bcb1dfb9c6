package apiv1

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// SubscribeRequest enrolls the caller in a plan. When a payment method is
// supplied for a priced plan, the payment is attempted in the same call.
type SubscribeRequest struct {
	Plan          string `json:"plan" validate:"required,min=1,max=50"`
	PaymentMethod string `json:"payment_method,omitempty" validate:"omitempty,oneof=CARD BANK_TRANSFER"`
	TestToken     string `json:"test_token,omitempty" validate:"omitempty,max=100"`
}

// ProcessPaymentRequest runs a payment attempt for a subscription.
type ProcessPaymentRequest struct {
	SubscriptionID string          `json:"subscription_id" validate:"required,uuid4"`
	Amount         decimal.Decimal `json:"amount"`
	Method         string          `json:"method" validate:"required,oneof=CARD BANK_TRANSFER"`
	TestToken      string          `json:"test_token,omitempty" validate:"omitempty,max=100"`
}

// AddPaymentMethodRequest stores a payment instrument.
type AddPaymentMethodRequest struct {
	Type            string `json:"type" validate:"required,oneof=CREDIT_CARD PSE"`
	CardLastFour    string `json:"card_last_four,omitempty" validate:"omitempty,len=4,numeric"`
	CardBrand       string `json:"card_brand,omitempty" validate:"omitempty,max=20"`
	CardExpiryMonth int    `json:"card_expiry_month,omitempty" validate:"omitempty,min=1,max=12"`
	CardExpiryYear  int    `json:"card_expiry_year,omitempty" validate:"omitempty,min=2024,max=2100"`
	BankName        string `json:"bank_name,omitempty" validate:"omitempty,max=100"`
	BankAccountType string `json:"bank_account_type,omitempty" validate:"omitempty,oneof=SAVINGS CHECKING"`
}

// GenerateInvoiceRequest issues the invoice for a completed payment.
type GenerateInvoiceRequest struct {
	PaymentID string `json:"payment_id" validate:"required,uuid4"`
}

// VoidInvoiceRequest cancels an issued invoice.
type VoidInvoiceRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=255"`
}

// parseBody binds and validates a JSON request body.
func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return errors.New("malformed JSON body")
	}
	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return errors.New("invalid field: " + verrs[0].Namespace())
		}
		return err
	}
	return nil
}
