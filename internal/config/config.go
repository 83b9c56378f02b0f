package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/datalab-ops/dremio-token-operator/internal/retry"
)

type Config struct {
	DremioAddr string
	TokenFile  string
	Auth       AuthConfig

	// Artifact publish/fetch I/O
	PublishSource string
	PublishTarget string
	FetchSource   string
	FetchTarget   string

	Sink    string
	SinkDir string
	Azure   AzureConfig

	HTTPTimeout time.Duration
	SkipVerify  bool

	RetryMaxAttempts  int
	RetryInitialDelay time.Duration
	RetryMaxDelay     time.Duration
	RetryMultiplier   float64
	RetryEnableJitter bool
}

type AzureConfig struct {
	Account   string
	Container string
	SASToken  string

	ClientID     string
	ClientSecret string
	TenantID     string
}

type AuthConfig struct {
	Method    string // "password", "token", or "" (resolved lazily)
	User      string // required if Method == password
	Password  string // required if Method == password
	Token     string // DREMIO_TOKEN; wins over any file when set
	TokenFile string // fallback token source, defaults to TOKFILE
	Scheme    string // Authorization scheme for v3 calls, default "_dremio"
}

// Load reads config from environment variables, applies defaults and validates.
func Load() (Config, error) {
	get := func(key, def string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return def
	}

	parseInt := func(key string, def int) int {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				return n
			}
		}
		return def
	}

	parseDur := func(key string, def time.Duration) time.Duration {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			if d, err := time.ParseDuration(v); err == nil {
				return d
			}
		}
		return def
	}

	parseFloat := func(key string, def float64) float64 {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
				return f
			}
		}
		return def
	}

	parseBool := func(key string, def bool) bool {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			switch strings.ToLower(v) {
			case "1", "true", "yes", "y", "on":
				return true
			case "0", "false", "no", "n", "off":
				return false
			}
		}
		return def
	}

	fileReadable := func(path string) bool {
		if strings.TrimSpace(path) == "" {
			return false
		}
		f, err := os.Open(path)
		if err != nil {
			return false
		}
		_ = f.Close()
		return true
	}

	// Coordinator address with default
	dremioAddr := get("DREMIO", "")
	if strings.TrimSpace(dremioAddr) == "" {
		dremioAddr = "http://localhost:9047"
	}

	tokenFile := get("TOKFILE", "")
	if strings.TrimSpace(tokenFile) == "" {
		tokenFile = "token.txt"
	}

	// -------------------------
	// Auth parsing (fallbacks)
	// -------------------------
	method := strings.ToLower(strings.TrimSpace(get("DREMIO_AUTH_METHOD", "")))
	userEnv := strings.TrimSpace(get("DREMIO_USER", ""))
	passEnv := get("DREMIO_PASSWORD", "")
	tokenEnv := strings.TrimSpace(get("DREMIO_TOKEN", ""))
	readFile := strings.TrimSpace(get("DREMIO_TOKEN_FILE", tokenFile))

	if method == "" {
		switch {
		case userEnv != "":
			method = "password"
		case tokenEnv != "" || fileReadable(readFile):
			method = "token"
		}
		// Otherwise auth stays unresolved. Sink-only commands (publish,
		// fetch) never need it; auth.New and the login path error out for
		// the commands that do.
	}

	// User, password and env token are captured regardless of method:
	// "operator token" prints the env token even when login credentials
	// select the password method.
	auth := AuthConfig{
		Method:    method,
		User:      userEnv,
		Password:  passEnv,
		Token:     tokenEnv,
		TokenFile: readFile,
		Scheme:    strings.TrimSpace(get("DREMIO_AUTH_SCHEME", "_dremio")),
	}
	if auth.Scheme == "" {
		auth.Scheme = "_dremio"
	}

	switch method {
	case "password":
		if auth.User == "" || auth.Password == "" {
			return Config{}, errors.New("auth method password requires DREMIO_USER and DREMIO_PASSWORD")
		}

	case "token":
		if auth.Token == "" && !fileReadable(auth.TokenFile) {
			return Config{}, errors.New("auth method token requires DREMIO_TOKEN or a readable DREMIO_TOKEN_FILE")
		}

	case "":
		// resolved lazily

	default:
		return Config{}, errors.New("unsupported auth method: " + method)
	}

	cfg := Config{
		DremioAddr: dremioAddr,
		TokenFile:  tokenFile,
		Auth:       auth,

		PublishSource: get("PUBLISH_SOURCE", ""),
		PublishTarget: get("PUBLISH_TARGET", ""),
		FetchSource:   get("FETCH_SOURCE", ""),
		FetchTarget:   get("FETCH_TARGET", ""),

		Sink:    strings.ToLower(get("TOKEN_SINK", "file")),
		SinkDir: get("SINK_DIR", "./artifacts"),
		Azure: AzureConfig{
			Account:      get("AZURE_STORAGE_ACCOUNT", ""),
			Container:    get("AZURE_STORAGE_CONTAINER", ""),
			SASToken:     get("AZURE_STORAGE_SAS", ""),
			ClientID:     get("AZURE_CLIENT_ID", ""),
			ClientSecret: get("AZURE_CLIENT_SECRET", ""),
			TenantID:     get("AZURE_TENANT_ID", ""),
		},

		HTTPTimeout: parseDur("DREMIO_TIMEOUT", 30*time.Second),
		SkipVerify:  parseBool("DREMIO_SKIP_VERIFY", false),

		RetryMaxAttempts:  parseInt("RETRY_MAX_ATTEMPTS", retry.Default.MaxAttempts),
		RetryInitialDelay: parseDur("RETRY_INITIAL_DELAY", retry.Default.InitialDelay),
		RetryMaxDelay:     parseDur("RETRY_MAX_DELAY", retry.Default.MaxDelay),
		RetryMultiplier:   parseFloat("RETRY_MULTIPLIER", retry.Default.Multiplier),
		RetryEnableJitter: parseBool("RETRY_JITTER", retry.Default.Jitter),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// validate checks sink-specific requirements.
// For azblob: must have Account+Container and either SAS or Service Principal (or MSI).
func (c *Config) validate() error {
	switch c.Sink {
	case "file":
		if strings.TrimSpace(c.SinkDir) == "" {
			return errors.New("file sink: SINK_DIR must not be empty")
		}
	case "azblob":
		if c.Azure.Account == "" || c.Azure.Container == "" {
			return errors.New("azblob: AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_CONTAINER are required")
		}
		// Accept SAS or SP (ClientID/Secret/Tenant). If neither, MSI is tried in the sink impl.
	default:
		return errors.New("unsupported sink: " + c.Sink)
	}
	return nil
}

// RetryOptions converts retry-related config values to retry.Options.
func (c Config) RetryOptions() retry.Options {
	return retry.Options{
		MaxAttempts:  c.RetryMaxAttempts,
		InitialDelay: c.RetryInitialDelay,
		MaxDelay:     c.RetryMaxDelay,
		Multiplier:   c.RetryMultiplier,
		Jitter:       c.RetryEnableJitter,
	}
}
