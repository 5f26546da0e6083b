package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndReadClaims(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)

	token, expiresAt, err := svc.GenerateAccessToken(Claims{
		UserID:     "user-1",
		TenantID:   "tenant-a",
		EmployeeID: "employee-1",
		IsAdmin:    true,
	})
	require.NoError(t, err)
	assert.Greater(t, expiresAt, time.Now().Unix())

	decoded, err := svc.JWTAuth().Decode(token)
	require.NoError(t, err)

	ctx := jwtauth.NewContext(context.Background(), decoded, nil)
	claims, err := ClaimsFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, Claims{UserID: "user-1", TenantID: "tenant-a", EmployeeID: "employee-1", IsAdmin: true}, claims)
}

func TestClaimsFromContext_Rejects(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)

	t.Run("no token", func(t *testing.T) {
		_, err := ClaimsFromContext(context.Background())
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong type", func(t *testing.T) {
		_, token, err := svc.JWTAuth().Encode(map[string]interface{}{
			"tenant_id": "tenant-a",
			"type":      "refresh",
		})
		require.NoError(t, err)
		decoded, err := svc.JWTAuth().Decode(token)
		require.NoError(t, err)

		_, err = ClaimsFromContext(jwtauth.NewContext(context.Background(), decoded, nil))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing tenant", func(t *testing.T) {
		token, _, err := svc.GenerateAccessToken(Claims{UserID: "user-1"})
		require.NoError(t, err)
		decoded, err := svc.JWTAuth().Decode(token)
		require.NoError(t, err)

		_, err = ClaimsFromContext(jwtauth.NewContext(context.Background(), decoded, nil))
		assert.ErrorIs(t, err, ErrTenantRequired)
	})
}
