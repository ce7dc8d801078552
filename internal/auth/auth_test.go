package auth

import (
	"context"
	"testing"
	"time"

	"github.com/cloudemu/engine/internal/models"
	"github.com/cloudemu/engine/internal/repository"
	"github.com/cloudemu/engine/internal/testutil"
	appErr "github.com/cloudemu/engine/pkg/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokensRoundTrip(t *testing.T) {
	tk := NewTokens([]byte("secret"), time.Hour)
	token, exp, err := tk.Issue("dev@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	email, err := tk.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", email)
}

func TestTokensRejects(t *testing.T) {
	tk := NewTokens([]byte("secret"), time.Hour)

	_, err := tk.Parse("")
	assert.True(t, IsUnauthorized(err))

	_, err = tk.Parse("not-a-jwt")
	assert.True(t, IsUnauthorized(err))

	other, _, err := NewTokens([]byte("other"), time.Hour).Issue("dev@example.com")
	require.NoError(t, err)
	_, err = tk.Parse(other)
	assert.True(t, IsUnauthorized(err))

	expired := NewTokens([]byte("secret"), time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Issue("dev@example.com")
	require.NoError(t, err)
	_, err = tk.Parse(old)
	assert.True(t, IsUnauthorized(err))

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "dev@example.com"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tk.Parse(unsigned)
	assert.True(t, IsUnauthorized(err))
}

func TestVerifierRequiresKnownUser(t *testing.T) {
	users := repository.NewUserRepository(testutil.NewDB(t))
	tk := NewTokens([]byte("secret"), 0)
	v := NewVerifier(tk, users)
	ctx := context.Background()

	token, _, err := tk.Issue("dev@example.com")
	require.NoError(t, err)

	_, err = v.Verify(ctx, token)
	assert.True(t, appErr.IsCode(err, appErr.CodeUnauthorized))

	require.NoError(t, users.Create(ctx, &models.User{Email: "dev@example.com", PasswordHash: "x", Name: "Dev"}))
	email, err := v.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", email)
}
