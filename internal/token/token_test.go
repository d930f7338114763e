package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerify(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour, "go-user-desk")

	raw, err := m.Generate("uid-1", "alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	claims, err := m.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", claims.UID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "go-user-desk", claims.Issuer)
}

func TestVerifyExpiredToken(t *testing.T) {
	m := NewJWTManager("test-secret", -time.Minute, "go-user-desk")

	raw, err := m.Generate("uid-1", "alice@example.com")
	require.NoError(t, err)

	_, err = m.Verify(raw)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyWrongSecret(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour, "go-user-desk")
	other := NewJWTManager("other-secret", time.Hour, "go-user-desk")

	raw, err := m.Generate("uid-1", "alice@example.com")
	require.NoError(t, err)

	_, err = other.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyWrongIssuer(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour, "someone-else")
	verifier := NewJWTManager("test-secret", time.Hour, "go-user-desk")

	raw, err := m.Generate("uid-1", "alice@example.com")
	require.NoError(t, err)

	_, err = verifier.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyGarbage(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour, "go-user-desk")

	_, err := m.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
