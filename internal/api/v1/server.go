package apiv1

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/zabora/subscription-service/app/repository"
	"github.com/zabora/subscription-service/internal/pkg/cache"
	"github.com/zabora/subscription-service/internal/pkg/invoice"
	"github.com/zabora/subscription-service/internal/pkg/metrics/counter"
	"github.com/zabora/subscription-service/internal/pkg/middleware"
	"github.com/zabora/subscription-service/internal/pkg/payment"
	"github.com/zabora/subscription-service/internal/pkg/subscription"
)

// APIServer bundles the domain services behind the HTTP handlers.
type APIServer struct {
	subscriptions *subscription.Service
	payments      *payment.Processor
	invoices      *invoice.Service

	// recordOutcome buffers payment outcome counts; nil disables it.
	recordOutcome func(state string)
}

// NewAPIServer creates an API server over the global store and cache.
func NewAPIServer() *APIServer {
	store := repository.GetGlobalStore()
	s := NewAPIServerWith(store, redisCache{})
	s.recordOutcome = func(state string) { _ = counter.AddPaymentOutcome(state) }
	return s
}

// NewAPIServerWith creates an API server over explicit dependencies. Tests
// use this with an in-memory store and a nil cache.
func NewAPIServerWith(store repository.Store, verifyCache subscription.Cache) *APIServer {
	subs := subscription.NewService(store, verifyCache)
	return &APIServer{
		subscriptions: subs,
		payments:      payment.NewProcessor(store, subs),
		invoices:      invoice.NewService(store),
	}
}

// RegisterHandlers attaches all v1 routes to the given router group. Every
// route past /plans requires an identified user.
func RegisterHandlers(r fiber.Router, s *APIServer) {
	r.Get("/plans", s.ListPlans)

	authed := r.Group("", middleware.RequireUser())

	authed.Post("/subscriptions", s.Subscribe)
	authed.Get("/subscriptions/status", s.SubscriptionStatus)
	authed.Get("/subscriptions/verify", s.VerifySubscription)
	authed.Get("/subscriptions/:id/history", s.SubscriptionHistory)
	authed.Delete("/subscriptions/:id", s.CancelSubscription)

	authed.Post("/payments", s.ProcessPayment)
	authed.Get("/payments", s.ListPayments)
	authed.Get("/payments/:id", s.GetPayment)
	authed.Get("/payments/:id/invoice", s.GetInvoiceByPayment)

	authed.Post("/payment-methods", s.AddPaymentMethod)
	authed.Get("/payment-methods", s.ListPaymentMethods)
	authed.Delete("/payment-methods/:id", s.RemovePaymentMethod)

	authed.Post("/invoices", s.GenerateInvoice)
	authed.Get("/invoices", s.ListInvoices)
	authed.Get("/invoices/number/:number", s.GetInvoiceByNumber)
	authed.Post("/invoices/:id/void", s.VoidInvoice)
}

// redisCache adapts the process-wide cache package to the verify cache
// interface.
type redisCache struct{}

func (redisCache) Get(key string) (string, error) { return cache.Get(key) }

func (redisCache) Set(key string, value interface{}, expiration time.Duration) error {
	return cache.Set(key, value, expiration)
}

func (redisCache) Delete(key string) error { return cache.Delete(key) }
