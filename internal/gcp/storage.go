package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// RetryBaseDelay is the first backoff between upload attempts.
var RetryBaseDelay = 1 * time.Second

const (
	maxUploadAttempts = 4
	uploadTimeout     = 50 * time.Second
)

// GetEnv is a helper to read an environment variable or return a default value.
// A variable set to the empty string counts as unset.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// ParseGSURI splits "gs://bucket/prefix" into its bucket and prefix.
func ParseGSURI(uri string) (bucket, prefix string, err error) {
	rest, ok := strings.CutPrefix(uri, "gs://")
	if !ok {
		return "", "", fmt.Errorf("%q is not a gs:// URI", uri)
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("%q has no bucket", uri)
	}
	return bucket, prefix, nil
}

// SaveToGCSAtomically writes content to a GCS object only if it doesn't already exist.
// An existing object is not an error.
func SaveToGCSAtomically(ctx context.Context, bucket *storage.BucketHandle, objectName string, content []byte, contentType string) error {
	writer := bucket.Object(objectName).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := io.Copy(writer, bytes.NewReader(content)); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write to GCS: %w", err)
	}
	if err := writer.Close(); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == 412 {
			slog.Info("Object already exists, skipping.", "gcsObject", objectName)
			return nil
		}
		return fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return nil
}

// UploadWithRetry writes content to objectName, retrying with exponential
// backoff. Each attempt has its own timeout.
func UploadWithRetry(ctx context.Context, bucket *storage.BucketHandle, objectName string, content []byte, contentType string) error {
	return retryWithBackoff(ctx, objectName, func(ctx context.Context) error {
		writeCtx, cancel := context.WithTimeout(ctx, uploadTimeout)
		defer cancel()

		gcsWriter := bucket.Object(objectName).NewWriter(writeCtx)
		gcsWriter.ContentType = contentType
		if _, err := io.Copy(gcsWriter, bytes.NewReader(content)); err != nil {
			_ = gcsWriter.Close()
			return fmt.Errorf("io.Copy to GCS failed: %w", err)
		}
		if err := gcsWriter.Close(); err != nil {
			return fmt.Errorf("failed to close GCS writer (finalize upload): %w", err)
		}
		return nil
	})
}

// sleep waits for d or until ctx is done.
var sleep = func(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// retryWithBackoff runs attempt up to maxUploadAttempts times, doubling the
// wait between attempts. There is no wait after the last attempt.
func retryWithBackoff(ctx context.Context, objectName string, attempt func(context.Context) error) error {
	backoff := RetryBaseDelay
	var lastErr error

	for i := 0; i < maxUploadAttempts; i++ {
		err := attempt(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == maxUploadAttempts-1 {
			break
		}

		slog.Warn(
			"Upload failed, will retry.",
			"gcsObject", objectName,
			"attempt", i+1,
			"maxRetries", maxUploadAttempts,
			"backoff", backoff.String(),
			"error", err,
		)
		if err := sleep(ctx, backoff); err != nil {
			return err
		}
		backoff *= 2
	}
	return fmt.Errorf("upload for %s failed after all retries: %w", objectName, lastErr)
}

// objectPath joins non-empty object name segments with "/".
func objectPath(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.Trim(p, "/"); p != "" {
			kept = append(kept, p)
		}
	}
	return path.Join(kept...)
}
