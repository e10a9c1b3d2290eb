package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Lllllllleong/pdfinterleaver/internal/models"
)

// DirEmitter writes artifacts into a local directory.
type DirEmitter struct {
	Dir string
}

// Emit writes the artifact to Dir under its base filename.
func (e DirEmitter) Emit(ctx context.Context, batchID string, artifact models.Artifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", e.Dir, err)
	}
	path := filepath.Join(e.Dir, filepath.Base(artifact.Filename))
	if err := os.WriteFile(path, artifact.Content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
