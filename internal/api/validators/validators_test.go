package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResourceName(t *testing.T) {
	type req struct {
		Identifier string `validate:"required,resource_name"`
	}
	v := New()
	assert.NoError(t, v.Struct(req{Identifier: "web-1"}))
	assert.NoError(t, v.Struct(req{Identifier: "orders_db.v2"}))
	assert.Error(t, v.Struct(req{Identifier: ""}))
	assert.Error(t, v.Struct(req{Identifier: "-leading"}))
	assert.Error(t, v.Struct(req{Identifier: "has space"}))
	assert.Error(t, v.Struct(req{Identifier: "slash/name"}))
	assert.Same(t, v, New())
}
