package router

import (
	apiv1 "github.com/zabora/subscription-service/internal/api/v1"
	"github.com/zabora/subscription-service/internal/pkg/metrics/counter"
	"github.com/zabora/subscription-service/internal/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(), middleware.UserContextMiddleware, trackUsage)
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "zabora subscription api",
		})
	})
	api.Get("/usage", func(ctx *fiber.Ctx) error {
		snapshot, err := counter.Snapshot()
		if err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "counters unavailable"})
		}
		return ctx.Status(fiber.StatusOK).JSON(snapshot)
	})

	// API v1 routes
	v1 := api.Group("/v1")
	apiServer := apiv1.NewAPIServer()
	apiv1.RegisterHandlers(v1, apiServer)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

// trackUsage buffers per-route request counts in Redis. Counters are
// advisory; a failed increment never fails the request.
func trackUsage(c *fiber.Ctx) error {
	_ = counter.AddRequest(c.Method() + " " + c.Path())
	return c.Next()
}
