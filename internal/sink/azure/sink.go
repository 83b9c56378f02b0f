// Package azure publishes token artifacts to Azure Blob storage so consumers
// on other hosts (MCP bridge, web app containers) can fetch them.
package azure

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"github.com/datalab-ops/dremio-token-operator/internal/retry"
	"github.com/datalab-ops/dremio-token-operator/internal/util"
)

type AzureSink struct {
	client     *azblob.Client
	account    string
	container  string
	endpoint   string // e.g. https://<account>.blob.core.windows.net/
	sas        string // raw SAS without leading "?"
	authViaSAS bool
	ro         retry.Options
}

func (s *AzureSink) Name() string { return "azblob" }

// Store uploads the artifact and validates it landed intact (HEAD with SAS,
// list otherwise). The blob carries a sha256 metadata tag so consumers can
// verify what they fetched; the artifact content itself is never logged.
func (s *AzureSink) Store(ctx context.Context, source, target string) error {
	if err := s.ensureContainer(ctx); err != nil {
		return fmt.Errorf("ensure container: %w", err)
	}
	key := normalizeKey(target)

	sum, size, err := util.SHA256File(source)
	if err != nil {
		return fmt.Errorf("checksum: %w", err)
	}

	upStart := time.Now()
	attempt := 0
	uploadOnce := func(ctx context.Context) error {
		attempt++

		f, err := os.Open(source)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				log.Warn().Err(cerr).Str("file", source).Msg("failed to close source file after upload")
			}
		}()
		if _, err = s.client.UploadFile(ctx, s.container, key, f, &azblob.UploadFileOptions{
			Metadata: map[string]*string{"sha256": to.Ptr(sum)},
		}); err != nil {
			log.Debug().Err(err).Str("action", "sink_store").Str("container", s.container).
				Str("key", key).Int("attempt", attempt).Msg("attempt failed")
			return err
		}
		return nil
	}
	if err := retry.Do(ctx, s.ro, s.isAzRetryable, uploadOnce); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	log.Info().Str("action", "sink_store").Str("sink", "azblob").Str("container", s.container).
		Str("key", key).Str("sha256", sum).Int64("size", size).
		Int("attempts", attempt).Dur("elapsed_ms", time.Since(upStart)).Msg("artifact stored")

	return s.validateUpload(ctx, key, sum, size)
}

// Fetch downloads an artifact blob to a local path with retries.
func (s *AzureSink) Fetch(ctx context.Context, source, target string) error {
	key := normalizeKey(source)

	dlStart := time.Now()
	attempt := 0
	downloadOnce := func(ctx context.Context) error {
		attempt++

		out, err := os.Create(target)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := out.Close(); cerr != nil {
				log.Warn().Err(cerr).Str("file", target).Msg("failed to close local file after download")
			}
		}()
		if _, err = s.client.DownloadFile(ctx, s.container, key, out, nil); err != nil {
			log.Debug().Err(err).Str("action", "sink_fetch").Str("container", s.container).
				Str("key", key).Int("attempt", attempt).Msg("attempt failed")
			return err
		}
		return nil
	}
	if err := retry.Do(ctx, s.ro, s.isAzRetryable, downloadOnce); err != nil {
		return err
	}
	log.Info().Str("action", "sink_fetch").Str("sink", "azblob").Str("container", s.container).
		Str("key", key).Str("local", target).
		Int("attempts", attempt).Dur("elapsed_ms", time.Since(dlStart)).Msg("artifact fetched")
	return nil
}

func normalizeKey(k string) string {
	return strings.TrimPrefix(k, "/")
}
