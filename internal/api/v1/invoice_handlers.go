package apiv1

import (
	"github.com/gofiber/fiber/v2"
	"github.com/zabora/subscription-service/internal/pkg/usercontext"
)

// GenerateInvoice issues the invoice for a completed payment.
func (s *APIServer) GenerateInvoice(c *fiber.Ctx) error {
	var req GenerateInvoiceRequest
	if err := parseBody(c, &req); err != nil {
		return writeValidationError(c, err.Error())
	}

	// Ownership check happens against the payment before any sequence
	// number is consumed.
	if _, err := s.payments.GetPayment(c.UserContext(), usercontext.GetUserID(c), req.PaymentID); err != nil {
		return writeError(c, err)
	}

	inv, err := s.invoices.Generate(c.UserContext(), req.PaymentID)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inv)
}

// VoidInvoice cancels one of the caller's issued invoices inside its void
// window.
func (s *APIServer) VoidInvoice(c *fiber.Ctx) error {
	var req VoidInvoiceRequest
	if err := parseBody(c, &req); err != nil {
		return writeValidationError(c, err.Error())
	}

	inv, err := s.invoices.Void(c.UserContext(), usercontext.GetUserID(c), c.Params("id"), req.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(inv)
}

// ListInvoices returns the caller's invoices.
func (s *APIServer) ListInvoices(c *fiber.Ctx) error {
	invoices, err := s.invoices.ListByUser(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"invoices": invoices})
}

// GetInvoiceByPayment returns the invoice issued for one of the caller's
// payments.
func (s *APIServer) GetInvoiceByPayment(c *fiber.Ctx) error {
	inv, err := s.invoices.GetByPayment(c.UserContext(), usercontext.GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(inv)
}

// GetInvoiceByNumber resolves one of the caller's invoices by full number.
func (s *APIServer) GetInvoiceByNumber(c *fiber.Ctx) error {
	inv, err := s.invoices.GetByNumber(c.UserContext(), usercontext.GetUserID(c), c.Params("number"))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(inv)
}
