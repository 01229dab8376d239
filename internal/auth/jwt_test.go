package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberapp/ember-server/internal/auth"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := auth.GenerateToken(42, "test-secret", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := auth.ParseToken(token, "test-secret")
	require.NoError(t, err)
	assert.EqualValues(t, 42, userID)
}

func TestTokenWrongSecretRejected(t *testing.T) {
	token, err := auth.GenerateToken(42, "test-secret", time.Hour)
	require.NoError(t, err)

	_, err = auth.ParseToken(token, "other-secret")
	assert.Error(t, err)
}

func TestTokenExpiredRejected(t *testing.T) {
	token, err := auth.GenerateToken(42, "test-secret", -time.Minute)
	require.NoError(t, err)

	_, err = auth.ParseToken(token, "test-secret")
	assert.Error(t, err)
}

func TestTokenGarbageRejected(t *testing.T) {
	_, err := auth.ParseToken("not.a.token", "test-secret")
	assert.Error(t, err)
}
