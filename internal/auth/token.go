package auth

import (
	"context"

	"github.com/rs/zerolog/log"

	tokenfile "github.com/datalab-ops/dremio-token-operator/internal/token"
)

// tokenProvider resolves a previously acquired token: DREMIO_TOKEN first,
// then the token artifact file. Same precedence the downstream clients use.
type tokenProvider struct {
	token string
	file  string
}

func (p *tokenProvider) Acquire(ctx context.Context) (string, error) {
	// Never log the token content.
	if p.token != "" {
		log.Debug().
			Str("action", "auth_acquire").
			Str("method", "token").
			Msg("token acquired from env")
		return p.token, nil
	}
	if p.file == "" {
		return "", ErrNoToken
	}
	tok, err := tokenfile.LoadFile(p.file)
	if err != nil {
		log.Debug().
			Err(err).
			Str("action", "auth_acquire").
			Str("method", "token").
			Str("token_file", p.file).
			Msg("missing token")
		return "", ErrNoToken
	}
	log.Debug().
		Str("action", "auth_acquire").
		Str("method", "token").
		Str("token_file", p.file).
		Msg("token acquired from file")
	return tok, nil
}
