package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mshami/kwikship-backend/internal/auth"
)

func newTM() *auth.TokenManager {
	return auth.NewTokenManager("acc-secret", "ref-secret", "kwikship-test", 15*time.Minute, 24*time.Hour)
}

func TestTokenPairRoundTrip(t *testing.T) {
	tm := newTM()
	pair, err := tm.GeneratePair("user-1", "admin")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, isRefresh, err := tm.ParseAny(pair.AccessToken)
	require.NoError(t, err)
	assert.False(t, isRefresh)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)

	claims, isRefresh, err = tm.ParseAny(pair.RefreshToken)
	require.NoError(t, err)
	assert.True(t, isRefresh)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestParseAnyRejectsGarbage(t *testing.T) {
	tm := newTM()
	_, _, err := tm.ParseAny("not-a-token")
	assert.Error(t, err)
}

func TestTokensFromOtherSecretRejected(t *testing.T) {
	other := auth.NewTokenManager("different", "secrets", "kwikship-test", time.Minute, time.Hour)
	pair, err := other.GeneratePair("user-1", "user")
	require.NoError(t, err)

	_, _, err = newTM().ParseAny(pair.AccessToken)
	assert.Error(t, err)
}
