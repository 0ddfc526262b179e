package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubetrade/dealdesk/internal/models"
)

func TestGenerateAndValidateJWT(t *testing.T) {
	SetJWTSecret("test-secret")

	token, err := GenerateJWT(models.Caller{
		UserID:   42,
		Email:    "ops@example.com",
		Username: "ops",
		Role:     models.RoleAdmin,
	}, 1)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "42", claims.Subject)

	caller := claims.Caller()
	assert.Equal(t, models.RoleAdmin, caller.Role)
	assert.True(t, caller.IsAdmin())
}

func TestValidateJWT_Rejects(t *testing.T) {
	SetJWTSecret("test-secret")

	expired, err := GenerateJWT(models.Caller{UserID: 1, Role: models.RoleUser}, -1)
	require.NoError(t, err)
	_, err = ValidateJWT(expired)
	assert.Error(t, err)

	SetJWTSecret("other-secret")
	token, err := GenerateJWT(models.Caller{UserID: 1}, 1)
	require.NoError(t, err)
	SetJWTSecret("test-secret")
	_, err = ValidateJWT(token)
	assert.Error(t, err)

	_, err = ValidateJWT("not-a-token")
	assert.Error(t, err)
}

func TestClaimsCaller_UnknownRoleIsUser(t *testing.T) {
	claims := JWTClaims{UserID: 7, Role: "superuser"}
	assert.Equal(t, models.RoleUser, claims.Caller().Role)
}
