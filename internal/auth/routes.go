package auth

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mmiyara/naim-hub-go/internal/api"
	"github.com/mmiyara/naim-hub-go/internal/apperrors"
	"github.com/mmiyara/naim-hub-go/internal/config"
)

// RegisterRoutes wires auth routes to the router.
func RegisterRoutes(router chi.Router, cfg config.Config) {
	router.Method(http.MethodPost, "/v1/auth/pair", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		var body struct {
			PairingCode string `json:"pairing_code"`
			HostName    string `json:"host_name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return apperrors.NewValidationError("pairing_code is required", nil)
		}
		if body.PairingCode == "" {
			return apperrors.NewValidationError("pairing_code is required", nil)
		}
		if body.HostName == "" {
			return apperrors.NewValidationError("host_name is required", nil)
		}

		if cfg.PairingCode == "" ||
			subtle.ConstantTimeCompare([]byte(body.PairingCode), []byte(cfg.PairingCode)) != 1 {
			return apperrors.NewUnauthorizedError("Invalid pairing code", apperrors.ErrorCodePairingInvalid)
		}

		tokens, err := GenerateTokenPair(cfg, TokenPayload{
			Sub:      uuid.NewString(),
			HostName: body.HostName,
		})
		if err != nil {
			return apperrors.NewInternalError("Failed to generate token pair")
		}

		return api.WriteResource(w, http.StatusOK, map[string]any{
			"object":         "token_pair",
			"access_token":   tokens.AccessToken,
			"refresh_token":  tokens.RefreshToken,
			"expires_in_sec": tokens.ExpiresInSec,
		})
	}))

	router.Method(http.MethodPost, "/v1/auth/refresh", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return apperrors.NewValidationError("refresh_token is required", nil)
		}
		if body.RefreshToken == "" {
			return apperrors.NewValidationError("refresh_token is required", nil)
		}

		accessToken, expiresIn, err := RefreshAccessToken(cfg, body.RefreshToken)
		if err != nil {
			switch err {
			case ErrTokenExpired:
				return apperrors.NewUnauthorizedError("Refresh token has expired", apperrors.ErrorCodeAuthTokenExpired)
			case ErrTokenType:
				return apperrors.NewUnauthorizedError("Invalid token: expected refresh token", apperrors.ErrorCodeAuthTokenInvalid)
			default:
				return apperrors.NewUnauthorizedError("Invalid refresh token", apperrors.ErrorCodeAuthTokenInvalid)
			}
		}

		return api.WriteResource(w, http.StatusOK, map[string]any{
			"object":         "token_refresh",
			"access_token":   accessToken,
			"expires_in_sec": expiresIn,
		})
	}))
}
