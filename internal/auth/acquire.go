package auth

import (
	"context"

	"github.com/datalab-ops/dremio-token-operator/internal/config"
)

// AcquireToken is a convenience for call sites that only need the string token.
func AcquireToken(ctx context.Context, cfg config.Config) (string, error) {
	p, err := New(cfg)
	if err != nil {
		return "", err
	}
	return p.Acquire(ctx)
}
