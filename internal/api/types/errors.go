package types

import (
	"errors"

	appErr "github.com/cloudemu/engine/pkg/errors"
)

// FromAppError converts err to the wire error. Only the AppError message is
// exposed; wrapped causes stay in the logs.
func FromAppError(err error) *APIError {
	if err == nil {
		return nil
	}
	var e *appErr.AppError
	if errors.As(err, &e) {
		return &APIError{Code: string(e.Code), Message: e.Message}
	}
	return &APIError{Code: string(appErr.CodeUnknown), Message: err.Error()}
}
