package apiv1

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/zabora/subscription-service/internal/pkg/apperror"
)

// ErrorResponse is the uniform error payload of the API.
type ErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	Detail    string `json:"detail,omitempty"`
	Path      string `json:"path"`
	Timestamp string `json:"timestamp"`
}

var statusByCode = map[apperror.Code]int{
	apperror.CodeValidation:     fiber.StatusBadRequest,
	apperror.CodeForbidden:      fiber.StatusForbidden,
	apperror.CodeNotFound:       fiber.StatusNotFound,
	apperror.CodeConflict:       fiber.StatusConflict,
	apperror.CodeInvalidState:   fiber.StatusUnprocessableEntity,
	apperror.CodeProcessing:     fiber.StatusInternalServerError,
	apperror.CodeStorageTimeout: fiber.StatusGatewayTimeout,
	apperror.CodeStorage:        fiber.StatusInternalServerError,
}

// writeError maps a business error to its HTTP status and the uniform
// payload. Unclassified errors become 500s and are logged; their raw text
// never reaches the client.
func writeError(c *fiber.Ctx, err error) error {
	code := apperror.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok {
		status = fiber.StatusInternalServerError
	}
	if status >= fiber.StatusInternalServerError {
		log.Printf("%s %s failed: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(ErrorResponse{
		ErrorCode: string(code),
		Message:   apperror.MessageOf(err),
		Path:      c.Path(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// writeValidationError reports a malformed request body or parameter.
func writeValidationError(c *fiber.Ctx, detail string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		ErrorCode: string(apperror.CodeValidation),
		Message:   "invalid request",
		Detail:    detail,
		Path:      c.Path(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
