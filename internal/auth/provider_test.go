package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/datalab-ops/dremio-token-operator/internal/config"
)

func TestNew_TokenFromEnv(t *testing.T) {
	cfg := config.Config{Auth: config.AuthConfig{Method: "token", Token: "abc123"}}

	p, err := New(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tok, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok != "abc123" {
		t.Fatalf("want abc123, got %q", tok)
	}
}

func TestNew_TokenFallsBackToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.txt")
	if err := os.WriteFile(path, []byte("from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := config.Config{Auth: config.AuthConfig{Method: "token", TokenFile: path}}

	p, err := New(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tok, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok != "from-file" {
		t.Fatalf("want from-file, got %q", tok)
	}
}

func TestNew_TokenMissingEverywhere(t *testing.T) {
	cfg := config.Config{Auth: config.AuthConfig{
		Method:    "token",
		TokenFile: filepath.Join(t.TempDir(), "absent.txt"),
	}}

	p, err := New(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Acquire(context.Background()); !errors.Is(err, ErrNoToken) {
		t.Fatalf("want ErrNoToken, got %v", err)
	}
}

func TestNew_PasswordRequiresCredentials(t *testing.T) {
	_, err := New(config.Config{Auth: config.AuthConfig{Method: "password", User: "admin"}})
	if err == nil {
		t.Fatal("want error for missing password, got nil")
	}
	_, err = New(config.Config{Auth: config.AuthConfig{Method: "password", Password: "secret"}})
	if err == nil {
		t.Fatal("want error for missing user, got nil")
	}
}

func TestPasswordProvider_Acquire(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/apiv2/login" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"token":"session-tok"}`))
	}))
	defer srv.Close()

	cfg := config.Config{
		DremioAddr:  srv.URL,
		HTTPTimeout: 5 * time.Second,
		Auth:        config.AuthConfig{Method: "password", User: "admin", Password: "secret"},
	}
	tok, err := AcquireToken(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok != "session-tok" {
		t.Fatalf("want session-tok, got %q", tok)
	}
}

func TestNew_UnresolvedMethod(t *testing.T) {
	_, err := New(config.Config{})
	if err == nil {
		t.Fatal("want error for unresolved method, got nil")
	}
	if !strings.Contains(err.Error(), "no auth method") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_UnsupportedMethod(t *testing.T) {
	if _, err := New(config.Config{Auth: config.AuthConfig{Method: "ldap"}}); err == nil {
		t.Fatal("want error for unsupported method, got nil")
	}
}
