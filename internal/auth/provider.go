package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/datalab-ops/dremio-token-operator/internal/config"
)

var (
	ErrNoToken = errors.New("no token available for dremio auth")
)

// Provider abstracts how we acquire a Dremio token (no renew here).
type Provider interface {
	Acquire(ctx context.Context) (string, error)
}

// New selects the provider based on cfg.Auth.Method.
// NOTE: This package never initializes logging; main() does via logx.InitFromEnv().
func New(cfg config.Config) (Provider, error) {
	method := strings.ToLower(strings.TrimSpace(cfg.Auth.Method))
	switch method {
	case "token":
		log.Debug().
			Str("action", "auth_new").
			Str("method", "token").
			Str("token_file", cfg.Auth.TokenFile).
			Msg("auth provider selected")
		return &tokenProvider{
			token: strings.TrimSpace(cfg.Auth.Token),
			file:  strings.TrimSpace(cfg.Auth.TokenFile),
		}, nil

	case "password":
		log.Debug().
			Str("action", "auth_new").
			Str("method", "password").
			Str("user", cfg.Auth.User).
			Msg("auth provider selected")
		return newPasswordProvider(cfg)

	case "":
		return nil, errors.New("no auth method configured: set DREMIO_USER and DREMIO_PASSWORD for a password login, or provide DREMIO_TOKEN / a readable DREMIO_TOKEN_FILE")

	default:
		return nil, errors.New("unsupported auth method: " + method)
	}
}
