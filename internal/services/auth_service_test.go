package services

import (
	"context"
	"testing"
	"time"

	"github.com/cloudemu/engine/internal/auth"
	"github.com/cloudemu/engine/internal/repository"
	"github.com/cloudemu/engine/internal/testutil"
	appErr "github.com/cloudemu/engine/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_RegisterLoginMe(t *testing.T) {
	users := repository.NewUserRepository(testutil.NewDB(t))
	tokens := auth.NewTokens([]byte("secret"), time.Hour)
	svc := NewAuthService(users, tokens)
	ctx := context.Background()

	u, err := svc.Register(ctx, " Dev@Example.com", "correct horse", "Dev")
	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", u.Email)
	assert.NotEqual(t, "correct horse", u.PasswordHash)

	_, err = svc.Register(ctx, "dev@example.com", "another one", "Dev")
	assert.True(t, appErr.IsCode(err, appErr.CodeConflict))

	_, err = svc.Login(ctx, "dev@example.com", "wrong password")
	assert.True(t, appErr.IsCode(err, appErr.CodeUnauthorized))
	_, err = svc.Login(ctx, "nobody@example.com", "correct horse")
	assert.True(t, appErr.IsCode(err, appErr.CodeUnauthorized))

	res, err := svc.Login(ctx, "DEV@example.com", "correct horse")
	require.NoError(t, err)
	email, err := tokens.Parse(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", email)

	me, err := svc.Me(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, me.ID)
}
