package apiv1

import (
	"github.com/gofiber/fiber/v2"
	"github.com/zabora/subscription-service/internal/pkg/payment"
	"github.com/zabora/subscription-service/internal/pkg/usercontext"
)

// ListPlans returns the active plan catalog. Public, no identity required.
func (s *APIServer) ListPlans(c *fiber.Ctx) error {
	plans, err := s.subscriptions.ListPlans(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"plans": plans})
}

// Subscribe enrolls the caller in a plan. For priced plans the client may
// supply a payment method to attempt the payment in the same call; the
// subscription stays PENDING_PAYMENT if that attempt does not complete.
func (s *APIServer) Subscribe(c *fiber.Ctx) error {
	var req SubscribeRequest
	if err := parseBody(c, &req); err != nil {
		return writeValidationError(c, err.Error())
	}

	result, err := s.subscriptions.Subscribe(c.UserContext(), usercontext.GetUserID(c), req.Plan)
	if err != nil {
		return writeError(c, err)
	}

	if result.RequiresPayment && req.PaymentMethod != "" {
		pay, err := s.payments.ProcessPayment(c.UserContext(), usercontext.GetUserID(c), payment.ProcessRequest{
			SubscriptionID: result.SubscriptionID,
			Amount:         result.PaymentIntent.Amount,
			Method:         req.PaymentMethod,
			TestToken:      req.TestToken,
		})
		if err != nil {
			return writeError(c, err)
		}
		if s.recordOutcome != nil {
			s.recordOutcome(pay.State)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"subscription": result,
			"payment":      pay,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// CancelSubscription cancels the caller's subscription.
func (s *APIServer) CancelSubscription(c *fiber.Ctx) error {
	result, err := s.subscriptions.Cancel(c.UserContext(), usercontext.GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

// VerifySubscription answers whether the caller holds a valid premium
// subscription, with the limits that currently apply.
func (s *APIServer) VerifySubscription(c *fiber.Ctx) error {
	result, err := s.subscriptions.Verify(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

// SubscriptionStatus returns the caller's full subscription profile.
func (s *APIServer) SubscriptionStatus(c *fiber.Ctx) error {
	result, err := s.subscriptions.Status(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

// SubscriptionHistory returns the audit trail of one of the caller's
// subscriptions.
func (s *APIServer) SubscriptionHistory(c *fiber.Ctx) error {
	entries, err := s.subscriptions.History(c.UserContext(), usercontext.GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"history": entries})
}
