package dremio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const pathLogin = "/apiv2/login"

type loginRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a session token via POST /apiv2/login.
// A single blocking attempt: a failed login is final and the caller decides
// what to do with it. Failures are typed so the raw response body stays
// available for diagnosis (StatusError for non-200, ExtractionError for a
// 200 without a usable token).
func Login(ctx context.Context, addr, user, password string, timeout time.Duration) (string, error) {
	if strings.TrimSpace(addr) == "" {
		addr = "http://localhost:9047"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	payload, err := json.Marshal(loginRequest{UserName: user, Password: password})
	if err != nil {
		return "", err
	}

	url := strings.TrimRight(addr, "/") + pathLogin
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("dremio login request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read login response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var out loginResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", &ExtractionError{Body: strings.TrimSpace(string(body)), Cause: fmt.Errorf("parse login response: %w", err)}
	}
	if out.Token == "" {
		return "", &ExtractionError{Body: strings.TrimSpace(string(body)), Cause: ErrTokenMissing}
	}

	// Never log the token content.
	log.Info().
		Str("action", "login").
		Str("user", user).
		Str("addr", addr).
		Msg("dremio login OK")

	return out.Token, nil
}
