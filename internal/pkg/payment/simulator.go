package payment

import (
	"strings"

	"github.com/zabora/subscription-service/app/models"
)

// outcome is the resolved result of a payment attempt before persistence.
// storedState is what ends up on the Payment row; responseState is what the
// caller sees (they differ for the authentication-required case, where the
// row stays PENDING awaiting the extra step).
type outcome struct {
	storedState          string
	responseState        string
	message              string
	failureReason        string
	requiresConfirmation bool
}

// resolveTestOutcome maps a test token to a deterministic outcome. Matching
// is by substring, case-insensitive, and the order below is the precedence
// when a token matches more than one pattern.
func resolveTestOutcome(token string) outcome {
	t := strings.ToLower(token)
	switch {
	case strings.Contains(t, "fail"), strings.Contains(t, "decline"):
		return failedOutcome("card declined")
	case strings.Contains(t, "insufficient"):
		return failedOutcome("insufficient funds")
	case strings.Contains(t, "expired"):
		return failedOutcome("card expired")
	case strings.Contains(t, "3ds"), strings.Contains(t, "authentication"):
		return outcome{
			storedState:          models.PaymentPending,
			responseState:        StateRequiresAuthentication,
			message:              "additional authentication required",
			requiresConfirmation: true,
		}
	default:
		return completedOutcome()
	}
}

// resolveLiveOutcome is the simulated production behavior when no test token
// is supplied: cards settle immediately, bank transfers (PSE) stay pending
// until the bank confirms.
func resolveLiveOutcome(method string) outcome {
	if method == models.PaymentMethodBankTransfer {
		return outcome{
			storedState:          models.PaymentPending,
			responseState:        models.PaymentPending,
			message:              "bank transfer initiated, awaiting confirmation",
			requiresConfirmation: true,
		}
	}
	return completedOutcome()
}

func completedOutcome() outcome {
	return outcome{
		storedState:   models.PaymentCompleted,
		responseState: models.PaymentCompleted,
		message:       "payment completed",
	}
}

func failedOutcome(reason string) outcome {
	return outcome{
		storedState:   models.PaymentFailed,
		responseState: models.PaymentFailed,
		message:       "payment failed: " + reason,
		failureReason: reason,
	}
}
