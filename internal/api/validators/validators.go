// Package validators builds the request validator used by the HTTP handlers.
package validators

import (
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
)

// resourceName matches names the container runtime accepts once prefixed.
var resourceName = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]{0,62}$`)

var (
	once sync.Once
	v    *validator.Validate
)

// New returns the shared validator with the custom tags registered.
func New() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("resource_name", func(fl validator.FieldLevel) bool {
			return resourceName.MatchString(fl.Field().String())
		})
	})
	return v
}
