package loam

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/rewind/pkg/domain"
)

var (
	// ErrNoInitial is returned when no document is marked initial and no override is set.
	ErrNoInitial = errors.New("no state is marked initial")

	// ErrMultipleInitial is returned when more than one document is marked initial.
	ErrMultipleInitial = errors.New("more than one state is marked initial")
)

// Loader adapts a Loam repository, one document per state, to ports.ConfigLoader.
type Loader struct {
	Repo *loam.TypedRepository[StateMetadata]

	// Initial overrides the document marked `initial: true`.
	Initial string
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[StateMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes a read-only Loam repository at dir.
func Open(dir string) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	// Strict mode keeps numeric metadata as json.Number across serializers.
	// ReadOnly avoids Loam's dev-mode sandbox: loading never writes.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}

	return New(loam.NewTypedRepository[StateMetadata](repo)), nil
}

type entry struct {
	id   string
	path string
	meta StateMetadata
	body string
}

// Load reads every document and assembles them into a configuration.
// States are ordered by their `order` key, then by id.
func (l *Loader) Load(ctx context.Context) (*domain.Config, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	entries := make([]entry, 0, len(docs))

	for _, listed := range docs {
		// List only carries metadata; Get hydrates the body.
		doc, err := l.Repo.Get(ctx, listed.ID)
		if err != nil {
			return nil, fmt.Errorf("loam get failed for %s: %w", listed.ID, err)
		}

		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		if existingPath, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: state '%s' is defined in both '%s' and '%s'", id, existingPath, doc.ID)
		}
		seen[id] = doc.ID

		entries = append(entries, entry{
			id:   id,
			path: doc.ID,
			meta: doc.Data,
			body: strings.TrimSpace(doc.Content),
		})
	}

	if len(entries) == 0 {
		return nil, domain.ErrConfigMissing
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].meta.Order != entries[j].meta.Order {
			return entries[i].meta.Order < entries[j].meta.Order
		}
		return entries[i].id < entries[j].id
	})

	initial, err := l.resolveInitial(entries)
	if err != nil {
		return nil, err
	}

	cfg := domain.NewConfig(initial)
	for _, e := range entries {
		cfg.Put(e.id, domain.StateDescriptor{
			Transitions: e.meta.Transitions,
			Description: e.body,
		})
	}
	return cfg, nil
}

func (l *Loader) resolveInitial(entries []entry) (string, error) {
	if l.Initial != "" {
		return l.Initial, nil
	}

	var marked []string
	for _, e := range entries {
		if e.meta.Initial {
			marked = append(marked, e.id)
		}
	}

	switch len(marked) {
	case 0:
		return "", ErrNoInitial
	case 1:
		return marked[0], nil
	}
	return "", fmt.Errorf("%w: %s", ErrMultipleInitial, strings.Join(marked, ", "))
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
