package apiv1

import (
	"github.com/gofiber/fiber/v2"
	"github.com/zabora/subscription-service/internal/pkg/payment"
	"github.com/zabora/subscription-service/internal/pkg/usercontext"
)

// ProcessPayment runs a payment attempt for one of the caller's
// subscriptions.
func (s *APIServer) ProcessPayment(c *fiber.Ctx) error {
	var req ProcessPaymentRequest
	if err := parseBody(c, &req); err != nil {
		return writeValidationError(c, err.Error())
	}

	result, err := s.payments.ProcessPayment(c.UserContext(), usercontext.GetUserID(c), payment.ProcessRequest{
		SubscriptionID: req.SubscriptionID,
		Amount:         req.Amount,
		Method:         req.Method,
		TestToken:      req.TestToken,
	})
	if err != nil {
		return writeError(c, err)
	}
	if s.recordOutcome != nil {
		s.recordOutcome(result.State)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

// ListPayments returns the caller's payment history.
func (s *APIServer) ListPayments(c *fiber.Ctx) error {
	payments, err := s.payments.ListPayments(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"payments": payments})
}

// GetPayment returns one of the caller's payments.
func (s *APIServer) GetPayment(c *fiber.Ctx) error {
	pay, err := s.payments.GetPayment(c.UserContext(), usercontext.GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(pay)
}

// AddPaymentMethod stores a payment instrument for the caller.
func (s *APIServer) AddPaymentMethod(c *fiber.Ctx) error {
	var req AddPaymentMethodRequest
	if err := parseBody(c, &req); err != nil {
		return writeValidationError(c, err.Error())
	}

	method, err := s.payments.AddPaymentMethod(c.UserContext(), usercontext.GetUserID(c), payment.AddMethodInput{
		Type:            req.Type,
		CardLastFour:    req.CardLastFour,
		CardBrand:       req.CardBrand,
		CardExpiryMonth: req.CardExpiryMonth,
		CardExpiryYear:  req.CardExpiryYear,
		BankName:        req.BankName,
		BankAccountType: req.BankAccountType,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(method)
}

// ListPaymentMethods returns the caller's stored instruments.
func (s *APIServer) ListPaymentMethods(c *fiber.Ctx) error {
	methods, err := s.payments.ListPaymentMethods(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"payment_methods": methods})
}

// RemovePaymentMethod removes one of the caller's stored instruments.
func (s *APIServer) RemovePaymentMethod(c *fiber.Ctx) error {
	if err := s.payments.RemovePaymentMethod(c.UserContext(), usercontext.GetUserID(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
