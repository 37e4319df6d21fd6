package file

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/rewind/pkg/domain"
)

// Save writes cfg to path atomically, choosing the encoding from the extension.
// It writes to a temporary file first, syncs it, and then renames it to the destination.
func Save(ctx context.Context, path string, cfg *domain.Config) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if cfg.IsEmpty() {
		return domain.ErrConfigMissing
	}

	format, err := FormatOf(path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := Encode(&buf, cfg, format); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure directory: %w", err)
	}

	// Same directory as the destination so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(dir, "tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpFile.Write(buf.Bytes()); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename config file: %w", err)
	}
	return nil
}
