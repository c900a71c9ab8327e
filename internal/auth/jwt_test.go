package auth

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mmiyara/naim-hub-go/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		JWTSecret:                "0123456789abcdef0123456789abcdef",
		JWTAccessTokenExpirySec:  3600,
		JWTRefreshTokenExpirySec: 86400,
	}
}

func TestGenerateAndVerifyTokenPair(t *testing.T) {
	cfg := testConfig()

	pair, err := GenerateTokenPair(cfg, TokenPayload{Sub: "host-1", HostName: "Remote Two"})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, 3600, pair.ExpiresInSec)

	payload, err := VerifyToken(cfg, pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "host-1", payload.Sub)
	require.Equal(t, "Remote Two", payload.HostName)
	require.Equal(t, TokenTypeAccess, payload.Type)

	refresh, err := VerifyToken(cfg, pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, TokenTypeRefresh, refresh.Type)
}

func TestRefreshAccessToken(t *testing.T) {
	cfg := testConfig()
	pair, err := GenerateTokenPair(cfg, TokenPayload{Sub: "host-1", HostName: "Remote Two"})
	require.NoError(t, err)

	accessToken, expiresIn, err := RefreshAccessToken(cfg, pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, 3600, expiresIn)

	payload, err := VerifyToken(cfg, accessToken)
	require.NoError(t, err)
	require.Equal(t, TokenTypeAccess, payload.Type)

	// An access token must not be accepted as a refresh token.
	_, _, err = RefreshAccessToken(cfg, pair.AccessToken)
	require.ErrorIs(t, err, ErrTokenType)
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	cfg := testConfig()
	pair, err := GenerateTokenPair(cfg, TokenPayload{Sub: "host-1", HostName: "Remote Two"})
	require.NoError(t, err)

	other := cfg
	other.JWTSecret = "ffffffffffffffffffffffffffffffff"
	_, err = VerifyToken(other, pair.AccessToken)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyToken_ExpiredToken(t *testing.T) {
	cfg := testConfig()
	cfg.JWTAccessTokenExpirySec = -60

	pair, err := GenerateTokenPair(cfg, TokenPayload{Sub: "host-1", HostName: "Remote Two"})
	require.NoError(t, err)

	_, err = VerifyToken(cfg, pair.AccessToken)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyToken_Garbage(t *testing.T) {
	_, err := VerifyToken(testConfig(), "not.a.token")
	require.ErrorIs(t, err, ErrTokenInvalid)
}
