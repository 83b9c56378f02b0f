package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/datalab-ops/dremio-token-operator/internal/config"
	"github.com/datalab-ops/dremio-token-operator/internal/dremio"
)

// passwordProvider implements Dremio auth by logging in with credentials.
type passwordProvider struct {
	cfg     config.AuthConfig
	addr    string
	timeout time.Duration
}

// newPasswordProvider validates configuration and returns a provider.
// Both credentials are mandatory; absence is a configuration error caught
// before any network activity.
func newPasswordProvider(cfg config.Config) (*passwordProvider, error) {
	if strings.TrimSpace(cfg.Auth.User) == "" {
		return nil, errors.New("password auth requires DREMIO_USER")
	}
	if cfg.Auth.Password == "" {
		return nil, errors.New("password auth requires DREMIO_PASSWORD")
	}
	return &passwordProvider{cfg: cfg.Auth, addr: cfg.DremioAddr, timeout: cfg.HTTPTimeout}, nil
}

// Acquire exchanges the configured credentials for a session token.
func (p *passwordProvider) Acquire(ctx context.Context) (string, error) {
	return dremio.Login(ctx, p.addr, p.cfg.User, p.cfg.Password, p.timeout)
}
