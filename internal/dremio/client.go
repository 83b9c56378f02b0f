package dremio

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/datalab-ops/dremio-token-operator/internal/retry"
)

// ClientOptions tunes the v3 API client. Zero values fall back to the same
// defaults the login path uses.
type ClientOptions struct {
	// Scheme is the Authorization scheme ("_dremio" for session tokens,
	// "Bearer" for PATs on some deployments).
	Scheme     string
	Timeout    time.Duration
	SkipVerify bool
	Retry      retry.Options
}

// Client talks to the Dremio v3 REST API using an already-acquired token.
type Client struct {
	addr   string
	token  string
	scheme string
	http   *http.Client
	ro     retry.Options
}

// NewClient builds a v3 API client for addr authenticating with token.
func NewClient(addr, token string, opts ClientOptions) *Client {
	if strings.TrimSpace(addr) == "" {
		addr = "http://localhost:9047"
	}
	scheme := strings.TrimSpace(opts.Scheme)
	if scheme == "" {
		scheme = "_dremio"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	hc := &http.Client{Timeout: timeout}
	if opts.SkipVerify {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 -- opt-in via DREMIO_SKIP_VERIFY
		hc.Transport = tr
	}

	return &Client{
		addr:   strings.TrimRight(addr, "/"),
		token:  token,
		scheme: scheme,
		http:   hc,
		ro:     opts.Retry,
	}
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", c.scheme+" "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

// isTransient returns true if the error should be retried.
// 429/408/5xx are transient; auth and client errors are not.
func isTransient(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		if se.Code == http.StatusTooManyRequests ||
			se.Code == http.StatusRequestTimeout ||
			(se.Code >= 500 && se.Code <= 599) {
			return true
		}
	}
	return false
}

// doJSON executes one request with retries and decodes the JSON response
// into out (when out is non-nil).
func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	url := c.addr + path

	var body []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = b
	}

	attempt := 0
	return retry.Do(ctx, c.ro, isTransient, func(ctx context.Context) error {
		attempt++

		var rd io.Reader = http.NoBody
		if body != nil {
			rd = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, rd)
		if err != nil {
			return err
		}
		c.setHeaders(req)

		resp, err := c.http.Do(req)
		if err != nil {
			log.Debug().Err(err).Str("action", "dremio_api").Str("path", path).
				Int("attempt", attempt).Msg("request error")
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			log.Debug().Int("status", resp.StatusCode).Str("action", "dremio_api").Str("path", path).
				Int("attempt", attempt).Msg("non-2xx response")
			return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
		}

		if out == nil {
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)
	})
}
