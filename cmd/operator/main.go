package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/datalab-ops/dremio-token-operator/internal/auth"
	"github.com/datalab-ops/dremio-token-operator/internal/config"
	"github.com/datalab-ops/dremio-token-operator/internal/dremio"
	"github.com/datalab-ops/dremio-token-operator/internal/logx"
	"github.com/datalab-ops/dremio-token-operator/internal/sink"
	"github.com/datalab-ops/dremio-token-operator/internal/token"
	"github.com/datalab-ops/dremio-token-operator/internal/util"
	"github.com/datalab-ops/dremio-token-operator/internal/version"

	_ "github.com/datalab-ops/dremio-token-operator/internal/sink/azure"
	_ "github.com/datalab-ops/dremio-token-operator/internal/sink/file"
)

// Test seams — overridden in unit tests. Keep signatures in sync with packages.
var (
	loadConfig func() (config.Config, error)                                                       = config.Load
	newSink    func(name string, cfg any) (sink.Sink, error)                                       = sink.New
	loginFn    func(ctx context.Context, addr, user, pass string, t time.Duration) (string, error) = dremio.Login
	acquireFn  func(ctx context.Context, cfg config.Config) (string, error)                        = auth.AcquireToken
	exit       func(int)                                                                           = os.Exit
)

const usage = `
Usage:
  operator login
  operator token
  operator views
  operator seed    <file.sql>
  operator publish [source] [targetKey]
  operator fetch   [remoteKey] [localFile]
  operator version | --version | -v
  operator help    | --help    | -h

Notes:
  - Credentials: DREMIO_USER / DREMIO_PASSWORD (required for login),
    or DREMIO_TOKEN / DREMIO_TOKEN_FILE for token-based commands.
  - Coordinator address: DREMIO (default http://localhost:9047).
  - Token artifact path: TOKFILE (default token.txt).
  - Publish/fetch sink is selected with TOKEN_SINK (default: file).
`

// defaultArtifactKey is where publish/fetch look in the sink when no key is
// given; consumers poll a fixed location.
const defaultArtifactKey = "dremio/token.txt"

// main wires CLI -> config -> auth/sink -> command.
// Exit codes: 0 success, 1 runtime error, 2 usage error.
func main() {
	_ = godotenv.Load() // best-effort
	logx.InitFromEnv()

	args := os.Args[1:]
	if len(args) < 1 {
		fmt.Print(usage)
		exit(2)
	}
	action := strings.ToLower(args[0])

	// Handle version command
	if action == "version" || action == "--version" || action == "-v" {
		fmt.Printf("dremio-token-operator %s\n", version.Info())
		exit(0)
	}

	// Handle help command
	if action == "help" || action == "--help" || action == "-h" {
		fmt.Print(usage)
		exit(0)
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Error().Err(err).Msg("config error")
		exit(1)
	}

	ctx := withSignals(context.Background())

	switch action {
	case "login":
		runLogin(ctx, cfg)

	case "token":
		runToken(cfg)

	case "views":
		runViews(ctx, cfg)

	case "seed":
		file := pickArgOrEnv(2, "SEED_FILE", "")
		if file == "" {
			fmt.Print(usage)
			exit(2)
		}
		runSeed(ctx, cfg, file)

	case "publish":
		source := pickArgOrEnv(2, "PUBLISH_SOURCE", cfg.PublishSource)
		target := pickArgOrEnv(3, "PUBLISH_TARGET", cfg.PublishTarget)
		runPublish(ctx, cfg, source, target)

	case "fetch":
		source := pickArgOrEnv(2, "FETCH_SOURCE", cfg.FetchSource)
		target := pickArgOrEnv(3, "FETCH_TARGET", cfg.FetchTarget)
		runFetch(ctx, cfg, source, target)

	default:
		fmt.Print(usage)
		exit(2)
	}
}

// runLogin is the credential acquisition routine: one POST to /apiv2/login,
// then the token artifact write. Every failure is fatal and leaves the
// artifact untouched.
func runLogin(ctx context.Context, cfg config.Config) {
	if cfg.Auth.User == "" || cfg.Auth.Password == "" {
		log.Error().Str("action", "login").Msg("DREMIO_USER and DREMIO_PASSWORD are required")
		exit(1)
	}

	start := time.Now()
	tok, err := loginFn(ctx, cfg.DremioAddr, cfg.Auth.User, cfg.Auth.Password, cfg.HTTPTimeout)
	if err != nil {
		var se *dremio.StatusError
		var xe *dremio.ExtractionError
		switch {
		case errors.As(err, &se):
			log.Error().Int("status", se.Code).Str("body", se.Body).
				Str("action", "login").Msg("dremio login failed")
		case errors.As(err, &xe):
			log.Error().Err(xe.Cause).Str("body", xe.Body).
				Str("action", "login").Msg("no token in login response")
		default:
			log.Error().Err(err).Str("action", "login").Msg("dremio login failed")
		}
		exit(1)
	}

	if err := token.WriteFile(cfg.TokenFile, tok); err != nil {
		log.Error().Err(err).Str("action", "login").Str("path", cfg.TokenFile).
			Msg("write token file failed")
		exit(1)
	}
	log.Info().
		Str("action", "login").
		Str("path", cfg.TokenFile).
		Dur("elapsed_ms", time.Since(start)).
		Msg("token written")
}

// runToken resolves the current token (env, then artifact file) and prints it
// without a trailing newline so it can go straight into an HTTP header.
func runToken(cfg config.Config) {
	tok := cfg.Auth.Token
	if tok == "" {
		var err error
		tok, err = token.LoadFile(cfg.Auth.TokenFile)
		if err != nil {
			log.Error().Err(err).Str("action", "token").Str("path", cfg.Auth.TokenFile).
				Msg("no token available")
			exit(1)
		}
	}
	fmt.Print(tok)
}

// runViews lists every visible view (virtual dataset) as JSON lines.
func runViews(ctx context.Context, cfg config.Config) {
	tok, err := acquireFn(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Str("action", "views").Str("method", cfg.Auth.Method).
			Msg("dremio auth failed")
		exit(1)
	}

	client := dremio.NewClient(cfg.DremioAddr, tok, dremio.ClientOptions{
		Scheme:     cfg.Auth.Scheme,
		Timeout:    cfg.HTTPTimeout,
		SkipVerify: cfg.SkipVerify,
		Retry:      cfg.RetryOptions(),
	})

	start := time.Now()
	views, err := client.ListViews(ctx)
	if err != nil {
		log.Error().Err(err).Str("action", "views").Msg("catalog walk failed")
		exit(1)
	}
	for _, v := range views {
		b, err := json.Marshal(v)
		if err != nil {
			log.Error().Err(err).Str("action", "views").Str("id", v.ID).Msg("encode view failed")
			exit(1)
		}
		fmt.Println(string(b))
	}
	log.Info().
		Str("action", "views").
		Int("count", len(views)).
		Dur("elapsed_ms", time.Since(start)).
		Msg("catalog walk OK")
}

// runSeed submits each statement of a SQL seed file as a v3 job.
func runSeed(ctx context.Context, cfg config.Config, file string) {
	data, err := os.ReadFile(file)
	if err != nil {
		log.Error().Err(err).Str("action", "seed").Str("file", file).Msg("read seed file failed")
		exit(1)
	}
	stmts := dremio.SplitStatements(string(data))
	if len(stmts) == 0 {
		log.Warn().Str("action", "seed").Str("file", file).Msg("no statements found")
		return
	}

	tok, err := acquireFn(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Str("action", "seed").Str("method", cfg.Auth.Method).
			Msg("dremio auth failed")
		exit(1)
	}
	client := dremio.NewClient(cfg.DremioAddr, tok, dremio.ClientOptions{
		Scheme:     cfg.Auth.Scheme,
		Timeout:    cfg.HTTPTimeout,
		SkipVerify: cfg.SkipVerify,
		Retry:      cfg.RetryOptions(),
	})

	start := time.Now()
	for i, stmt := range stmts {
		jobID, err := client.SubmitSQL(ctx, stmt)
		if err != nil {
			log.Error().Err(err).Str("action", "seed").Str("file", file).
				Int("statement", i+1).Msg("submit failed")
			exit(1)
		}
		log.Info().Str("action", "seed").Int("statement", i+1).Str("job_id", jobID).
			Msg("statement submitted")
	}
	log.Info().
		Str("action", "seed").
		Str("file", file).
		Int("statements", len(stmts)).
		Dur("elapsed_ms", time.Since(start)).
		Msg("seed OK")
}

// runPublish pushes the token artifact to the configured sink.
func runPublish(ctx context.Context, cfg config.Config, source, target string) {
	if source == "" {
		source = cfg.TokenFile
	}
	if target == "" {
		target = defaultArtifactKey
	}

	s, err := newSink(cfg.Sink, cfg)
	if err != nil {
		log.Error().Err(err).Str("sink", cfg.Sink).Msg("sink init error")
		exit(1)
	}

	sum, size, err := util.SHA256File(source)
	if err != nil {
		log.Error().Err(err).Str("action", "publish").Str("local", source).
			Msg("read artifact failed")
		exit(1)
	}

	start := time.Now()
	if err := s.Store(ctx, source, target); err != nil {
		log.Error().Err(err).Str("action", "publish").Str("remote", target).Msg("publish failed")
		exit(1)
	}
	log.Info().
		Str("action", "publish").
		Str("sink", cfg.Sink).
		Str("remote", target).
		Str("sha256", sum).
		Int64("size", size).
		Dur("elapsed_ms", time.Since(start)).
		Msg("publish OK")
}

// runFetch pulls the token artifact out of the configured sink.
func runFetch(ctx context.Context, cfg config.Config, source, target string) {
	if source == "" {
		source = defaultArtifactKey
	}
	if target == "" {
		target = cfg.TokenFile
	}

	s, err := newSink(cfg.Sink, cfg)
	if err != nil {
		log.Error().Err(err).Str("sink", cfg.Sink).Msg("sink init error")
		exit(1)
	}

	start := time.Now()
	if err := s.Fetch(ctx, source, target); err != nil {
		log.Error().Err(err).Str("action", "fetch").Str("remote", source).Msg("fetch failed")
		exit(1)
	}
	log.Info().
		Str("action", "fetch").
		Str("sink", cfg.Sink).
		Str("remote", source).
		Str("local", target).
		Dur("elapsed_ms", time.Since(start)).
		Msg("fetch OK")
}

func pickArgOrEnv(idx int, env string, def string) string {
	if len(os.Args) > idx && os.Args[idx] != "" {
		return os.Args[idx]
	}
	if v, ok := os.LookupEnv(env); ok && v != "" {
		return v
	}
	return def
}

func withSignals(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		<-ch
		cancel()
	}()
	return ctx
}
