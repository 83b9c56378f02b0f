package azure

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/datalab-ops/dremio-token-operator/internal/retry"
)

// ensureContainer checks access using a minimal list (SAS sr=c cannot create containers).
func (s *AzureSink) ensureContainer(ctx context.Context) error {
	attempt := 0
	ensureOnce := func(ctx context.Context) error {
		attempt++

		pager := s.client.NewListBlobsFlatPager(s.container, &azblob.ListBlobsFlatOptions{
			MaxResults: to.Ptr(int32(1)),
		})
		if !pager.More() {
			return nil
		}
		_, err := pager.NextPage(ctx)
		if err == nil {
			return nil
		}
		var re *azcore.ResponseError
		if errors.As(err, &re) {
			switch re.ErrorCode {
			case string(bloberror.ContainerNotFound):
				return fmt.Errorf("container %q not found: create it first (container SAS cannot create containers)", s.container)
			case string(bloberror.AuthorizationFailure),
				string(bloberror.AuthorizationPermissionMismatch),
				string(bloberror.AuthenticationFailed):
				return fmt.Errorf("not authorized for container %q; ensure a container SAS with at least rwl", s.container)
			}
		}
		log.Debug().Err(err).Str("action", "sink_container_check").Str("container", s.container).
			Int("attempt", attempt).Msg("attempt failed")
		return err
	}
	return retry.Do(ctx, s.ro, s.isAzRetryable, ensureOnce)
}

// validateUpload verifies the stored blob matches the local artifact.
// With a SAS we can HEAD the blob directly and compare size + sha256
// metadata; otherwise a list lookup checks size only.
func (s *AzureSink) validateUpload(ctx context.Context, key, sum string, size int64) error {
	attempt := 0
	validateOnce := func(ctx context.Context) error {
		attempt++

		if s.authViaSAS {
			remoteSize, remoteSHA, err := s.headSizeAndSHA(ctx, key)
			if err != nil {
				return err
			}
			if remoteSize != size {
				return fmt.Errorf("size mismatch: local=%d, remote=%d", size, remoteSize)
			}
			if remoteSHA == "" {
				return fmt.Errorf("missing metadata: sha256")
			}
			if remoteSHA != sum {
				return fmt.Errorf("sha256 mismatch: local=%s, remote=%s", sum, remoteSHA)
			}
			return nil
		}

		found, remoteSize, err := s.sizeByList(ctx, key)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("uploaded blob not found at %q", key)
		}
		if remoteSize != size {
			return fmt.Errorf("size mismatch: local=%d, remote=%d", size, remoteSize)
		}
		return nil
	}
	if err := retry.Do(ctx, s.ro, s.isAzRetryable, validateOnce); err != nil {
		return fmt.Errorf("validate upload: %w", err)
	}
	log.Debug().Str("action", "sink_validate").Str("container", s.container).Str("key", key).
		Int("attempts", attempt).Msg("validation OK")
	return nil
}

// headSizeAndSHA does a direct HEAD (SAS) to read Content-Length and x-ms-meta-sha256.
func (s *AzureSink) headSizeAndSHA(ctx context.Context, key string) (int64, string, error) {
	base := s.endpoint
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	url := base + s.container + "/" + normalizeKey(key) + "?" + s.sas

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, http.NoBody)
	if err != nil {
		return 0, "", err
	}
	cli := &http.Client{Timeout: 15 * time.Second}
	resp, err := cli.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, "", fmt.Errorf("HEAD %s: %s", url, resp.Status)
	}

	cl := resp.Header.Get("Content-Length")
	if cl == "" {
		return 0, "", fmt.Errorf("missing Content-Length")
	}
	n, err := strconv.ParseInt(cl, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("parse Content-Length: %w", err)
	}
	return n, resp.Header.Get("x-ms-meta-sha256"), nil
}

// sizeByList finds the exact blob and returns (found, size).
func (s *AzureSink) sizeByList(ctx context.Context, exactKey string) (bool, int64, error) {
	pager := s.client.NewListBlobsFlatPager(s.container, &azblob.ListBlobsFlatOptions{
		Prefix:     to.Ptr(exactKey),
		MaxResults: to.Ptr(int32(1)),
	})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return false, 0, err
		}
		for _, it := range page.Segment.BlobItems {
			if it.Name != nil && *it.Name == exactKey {
				if it.Properties != nil && it.Properties.ContentLength != nil {
					return true, *it.Properties.ContentLength, nil
				}
				return true, 0, nil
			}
		}
	}
	return false, 0, nil
}

// isAzRetryable: retry rules for Azure (timeout, 5xx, 429, 408, ServerBusy).
func (s *AzureSink) isAzRetryable(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	var re *azcore.ResponseError
	if errors.As(err, &re) {
		if re.StatusCode == http.StatusTooManyRequests || re.StatusCode == http.StatusRequestTimeout {
			return true
		}
		if re.StatusCode >= 500 && re.StatusCode <= 599 {
			return true
		}
		if re.ErrorCode == string(bloberror.ServerBusy) {
			return true
		}
	}
	return false
}
