package apiv1

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zabora/subscription-service/app/models"
	"github.com/zabora/subscription-service/app/repository"
	"github.com/zabora/subscription-service/internal/pkg/middleware"
	"github.com/zabora/subscription-service/internal/pkg/usercontext"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	store := repository.NewMemoryStore()

	four := 4
	require.NoError(t, store.Plans().Create(&models.Plan{
		Name:              models.PlanFree,
		Price:             decimal.Zero,
		Currency:          "COP",
		FavoriteRecipeCap: &four,
		IsActive:          true,
	}))
	require.NoError(t, store.Plans().Create(&models.Plan{
		Name:     models.PlanPremium,
		Price:    decimal.RequireFromString("29900.00"),
		Currency: "COP",
		IsActive: true,
	}))

	app := fiber.New()
	app.Use(middleware.UserContextMiddleware)
	RegisterHandlers(app.Group("/api/v1"), NewAPIServerWith(store, nil))
	return app
}

func jsonRequest(t *testing.T, method, path, userID string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(usercontext.HeaderUserID, userID)
	}
	return req
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out), "body: %s", raw)
}

func TestPlansEndpointIsPublic(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/api/v1/plans", "", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Plans []models.Plan `json:"plans"`
	}
	decodeBody(t, resp, &body)
	require.Len(t, body.Plans, 2)
	assert.Equal(t, models.PlanFree, body.Plans[0].Name)
}

func TestAuthedRoutesRejectAnonymous(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/api/v1/subscriptions/status", "", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSubscribePayAndInvoiceFlow(t *testing.T) {
	app := newTestApp(t)

	// Enroll in the premium plan.
	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/subscriptions", "user-1", fiber.Map{"plan": "premium"}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var sub struct {
		SubscriptionID  string `json:"subscription_id"`
		State           string `json:"state"`
		RequiresPayment bool   `json:"requires_payment"`
	}
	decodeBody(t, resp, &sub)
	assert.Equal(t, models.SubscriptionPendingPayment, sub.State)
	assert.True(t, sub.RequiresPayment)

	// Pay with a card.
	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/v1/payments", "user-1", fiber.Map{
		"subscription_id": sub.SubscriptionID,
		"amount":          "29900.00",
		"method":          "CARD",
	}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var pay struct {
		Success   bool   `json:"success"`
		PaymentID string `json:"payment_id"`
		State     string `json:"state"`
	}
	decodeBody(t, resp, &pay)
	assert.True(t, pay.Success)
	assert.Equal(t, models.PaymentCompleted, pay.State)

	// The subscription is now active and premium verification passes.
	resp, err = app.Test(jsonRequest(t, http.MethodGet, "/api/v1/subscriptions/verify", "user-1", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var verify struct {
		Valid bool   `json:"valid"`
		Plan  string `json:"plan"`
	}
	decodeBody(t, resp, &verify)
	assert.True(t, verify.Valid)
	assert.Equal(t, models.PlanPremium, verify.Plan)

	// Issue the invoice for the completed payment.
	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/v1/invoices", "user-1", fiber.Map{"payment_id": pay.PaymentID}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var inv struct {
		FullNumber string `json:"full_number"`
		Tax        string `json:"tax"`
		Subtotal   string `json:"subtotal"`
		State      string `json:"state"`
	}
	decodeBody(t, resp, &inv)
	assert.Equal(t, "FZ-1", inv.FullNumber)
	assert.Equal(t, "4774.79", inv.Tax)
	assert.Equal(t, "25125.21", inv.Subtotal)
	assert.Equal(t, models.InvoiceIssued, inv.State)

	// A second invoice for the same payment conflicts.
	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/v1/invoices", "user-1", fiber.Map{"payment_id": pay.PaymentID}), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestDeclinedPaymentKeepsSubscriptionPending(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/subscriptions", "user-1", fiber.Map{"plan": "premium"}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var sub struct {
		SubscriptionID string `json:"subscription_id"`
	}
	decodeBody(t, resp, &sub)

	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/v1/payments", "user-1", fiber.Map{
		"subscription_id": sub.SubscriptionID,
		"amount":          "29900.00",
		"method":          "CARD",
		"test_token":      "tok_decline",
	}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var pay struct {
		Success bool   `json:"success"`
		State   string `json:"state"`
		Message string `json:"message"`
	}
	decodeBody(t, resp, &pay)
	assert.False(t, pay.Success)
	assert.Equal(t, models.PaymentFailed, pay.State)
	assert.Contains(t, pay.Message, "card declined")

	resp, err = app.Test(jsonRequest(t, http.MethodGet, "/api/v1/subscriptions/status", "user-1", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var status struct {
		HasSubscription bool `json:"has_subscription"`
	}
	decodeBody(t, resp, &status)
	assert.False(t, status.HasSubscription)
}

func TestSubscribeWithInlinePayment(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/subscriptions", "user-1", fiber.Map{
		"plan":           "premium",
		"payment_method": "CARD",
	}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body struct {
		Subscription struct {
			SubscriptionID string `json:"subscription_id"`
		} `json:"subscription"`
		Payment struct {
			Success bool   `json:"success"`
			State   string `json:"state"`
		} `json:"payment"`
	}
	decodeBody(t, resp, &body)
	assert.True(t, body.Payment.Success)
	assert.Equal(t, models.PaymentCompleted, body.Payment.State)

	resp, err = app.Test(jsonRequest(t, http.MethodGet, "/api/v1/subscriptions/verify", "user-1", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var verify struct {
		Valid bool `json:"valid"`
	}
	decodeBody(t, resp, &verify)
	assert.True(t, verify.Valid)
}

func TestErrorPayloadShape(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/subscriptions", "user-1", fiber.Map{"plan": "gold"}), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var body ErrorResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "NOT_FOUND", body.ErrorCode)
	assert.NotEmpty(t, body.Message)
	assert.Equal(t, "/api/v1/subscriptions", body.Path)
	assert.NotEmpty(t, body.Timestamp)
}

func TestSubscribeValidation(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/subscriptions", "user-1", fiber.Map{}), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body ErrorResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "VALIDATION_ERROR", body.ErrorCode)
}

func TestCancelForeignSubscriptionForbidden(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/subscriptions", "user-1", fiber.Map{"plan": "free"}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var sub struct {
		SubscriptionID string `json:"subscription_id"`
	}
	decodeBody(t, resp, &sub)

	resp, err = app.Test(jsonRequest(t, http.MethodDelete, "/api/v1/subscriptions/"+sub.SubscriptionID, "user-2", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
