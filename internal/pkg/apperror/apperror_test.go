package apperror

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := NotFound("plan not found: gold")

	assert.True(t, errors.Is(err, NotFound("")))
	assert.False(t, errors.Is(err, Conflict("")))

	wrapped := fmt.Errorf("subscribe: %w", err)
	assert.True(t, errors.Is(wrapped, NotFound("")))
	assert.Equal(t, CodeNotFound, CodeOf(wrapped))
	assert.Equal(t, "plan not found: gold", MessageOf(wrapped))
}

func TestStorageClassifiesTimeouts(t *testing.T) {
	timeout := Storage(fmt.Errorf("query: %w", context.DeadlineExceeded))
	assert.Equal(t, CodeStorageTimeout, timeout.Code)

	plain := Storage(errors.New("connection reset"))
	assert.Equal(t, CodeStorage, plain.Code)
}

func TestCodeOfUnclassified(t *testing.T) {
	assert.Equal(t, CodeStorage, CodeOf(errors.New("boom")))
	assert.Equal(t, "internal error", MessageOf(errors.New("boom")))
}
