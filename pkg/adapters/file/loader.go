package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/rewind/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Format identifies a configuration encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ErrUnsupportedFormat is returned for files whose extension is neither YAML nor JSON.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// FormatOf picks the encoding from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// Loader implements ports.ConfigLoader for a single YAML or JSON file.
type Loader struct {
	Path string
}

// New creates a loader for the file at path.
func New(path string) *Loader {
	return &Loader{Path: path}
}

// Load reads and decodes the file. States keep the order they are written in.
func (l *Loader) Load(ctx context.Context) (*domain.Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format, err := FormatOf(l.Path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := Decode(bytes.NewReader(data), format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.Path, err)
	}
	return cfg, nil
}

// Decode reads a configuration in the given format.
func Decode(r io.Reader, format Format) (*domain.Config, error) {
	cfg := &domain.Config{}

	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(cfg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, domain.ErrConfigMissing
			}
			return nil, fmt.Errorf("failed to decode yaml: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, domain.ErrConfigMissing
			}
			return nil, fmt.Errorf("failed to decode json: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if cfg.IsEmpty() {
		return nil, domain.ErrConfigMissing
	}
	return cfg, nil
}

// Encode writes cfg in the given format, preserving state order.
func Encode(w io.Writer, cfg *domain.Config, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}
