package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	m := NewJWTManager("test-secret", "godesk", time.Hour)

	token, err := m.GenerateToken(42, "dev@example.com", "user_employee")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "dev@example.com", claims.Email)
	assert.Equal(t, "user_employee", claims.Role)
	assert.Equal(t, "godesk", claims.Issuer)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	issuer := NewJWTManager("secret-a", "godesk", time.Hour)
	verifier := NewJWTManager("secret-b", "godesk", time.Hour)

	token, err := issuer.GenerateToken(1, "a@example.com", "admin_manager")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateExpiredToken(t *testing.T) {
	m := NewJWTManager("test-secret", "godesk", -time.Minute)

	token, err := m.GenerateToken(1, "a@example.com", "admin_manager")
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateGarbageToken(t *testing.T) {
	m := NewJWTManager("test-secret", "godesk", time.Hour)
	_, err := m.ValidateToken("not.a.token")
	assert.Error(t, err)
}
