package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsCodeThroughWrapping(t *testing.T) {
	base := New(CodeNotFound, "instance not found")
	wrapped := fmt.Errorf("start: %w", base)

	assert.True(t, IsCode(wrapped, CodeNotFound))
	assert.False(t, IsCode(wrapped, CodeConflict))
	assert.Equal(t, CodeNotFound, CodeOf(wrapped))
	assert.Equal(t, CodeUnknown, CodeOf(fmt.Errorf("plain")))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeNotFound:          http.StatusNotFound,
		CodeConflict:          http.StatusBadRequest,
		CodeUnsupportedEngine: http.StatusBadRequest,
		CodeInvalid:           http.StatusBadRequest,
		CodeUnauthorized:      http.StatusUnauthorized,
		CodeRuntime:           http.StatusInternalServerError,
		CodeInternal:          http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, HTTPStatus(New(code, "x")), string(code))
	}
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(fmt.Errorf("boom")))
}

func TestErrorString(t *testing.T) {
	err := Wrap(fmt.Errorf("daemon down"), CodeRuntime, "create container failed")
	assert.Equal(t, "runtime_fault: create container failed: daemon down", err.Error())
	assert.Equal(t, "conflict: duplicate", New(CodeConflict, "duplicate").Error())
}
