package cli

import (
	"fmt"
	"os"

	"github.com/aretw0/rewind/pkg/adapters/file"
	loamadapter "github.com/aretw0/rewind/pkg/adapters/loam"
	"github.com/aretw0/rewind/pkg/ports"
)

// OpenLoader picks the loader for path: a directory is read as a Loam repository
// (one document per state), anything else as a single YAML or JSON file.
// initial overrides the directory's initial marker and is ignored for files.
func OpenLoader(path, initial string) (ports.ConfigLoader, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	if info.IsDir() {
		l, err := loamadapter.Open(path)
		if err != nil {
			return nil, err
		}
		l.Initial = initial
		return l, nil
	}

	if _, err := file.FormatOf(path); err != nil {
		return nil, err
	}
	return file.New(path), nil
}
