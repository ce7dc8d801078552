package types

import (
	"errors"
	"fmt"
	"testing"

	appErr "github.com/cloudemu/engine/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestFromAppError(t *testing.T) {
	assert.Nil(t, FromAppError(nil))

	wrapped := fmt.Errorf("handler: %w", appErr.Wrap(errors.New("sql: no rows"), appErr.CodeNotFound, "Instance not found"))
	got := FromAppError(wrapped)
	assert.Equal(t, "not_found", got.Code)
	assert.Equal(t, "Instance not found", got.Message)

	got = FromAppError(errors.New("plain"))
	assert.Equal(t, "unknown", got.Code)
	assert.Equal(t, "plain", got.Message)
}
