package apiclient

import "fmt"

// APIError is the error object of a failed response.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

func (e *APIError) IsAuthError() bool { return e.Code == "unauthorized" }
func (e *APIError) IsNotFound() bool  { return e.Code == "not_found" }
func (e *APIError) IsConflict() bool  { return e.Code == "conflict" }
