// Package file implements the default sink: a local directory shared with the
// downstream consumers (bind mount, shared volume).
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/datalab-ops/dremio-token-operator/internal/config"
	"github.com/datalab-ops/dremio-token-operator/internal/sink"
)

func init() {
	sink.Register("file", func(cfg any) (sink.Sink, error) {
		c, ok := cfg.(config.Config)
		if !ok {
			return nil, fmt.Errorf("file: invalid config type")
		}
		if strings.TrimSpace(c.SinkDir) == "" {
			return nil, fmt.Errorf("file: sink directory is empty")
		}
		return &FileSink{dir: c.SinkDir}, nil
	})
}

type FileSink struct {
	dir string
}

func (s *FileSink) Name() string { return "file" }

// Store copies the artifact under the sink directory at the given key.
func (s *FileSink) Store(ctx context.Context, source, target string) error {
	dst := filepath.Join(s.dir, filepath.FromSlash(normalizeKey(target)))
	if err := copyFile(ctx, source, dst); err != nil {
		return fmt.Errorf("file store: %w", err)
	}
	log.Info().
		Str("action", "sink_store").
		Str("sink", "file").
		Str("key", target).
		Str("path", dst).
		Msg("artifact stored")
	return nil
}

// Fetch copies the artifact back out of the sink directory.
func (s *FileSink) Fetch(ctx context.Context, source, target string) error {
	src := filepath.Join(s.dir, filepath.FromSlash(normalizeKey(source)))
	if err := copyFile(ctx, src, target); err != nil {
		return fmt.Errorf("file fetch: %w", err)
	}
	log.Info().
		Str("action", "sink_fetch").
		Str("sink", "file").
		Str("key", source).
		Str("path", target).
		Msg("artifact fetched")
	return nil
}

// copyFile writes through a .part rename so readers never see a torn file.
func copyFile(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	if dir := filepath.Dir(dst); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmp := dst + ".part"
	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, dst)
}

func normalizeKey(k string) string {
	return strings.TrimPrefix(k, "/")
}
