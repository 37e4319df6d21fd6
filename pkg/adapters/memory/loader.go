package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/aretw0/rewind/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Loader implements ports.ConfigLoader over an already built configuration.
type Loader struct {
	config *domain.Config
}

// New creates a Loader that always returns cfg.
func New(cfg *domain.Config) *Loader {
	return &Loader{config: cfg}
}

// Load returns the wrapped configuration.
func (l *Loader) Load(ctx context.Context) (*domain.Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.config.IsEmpty() {
		return nil, domain.ErrConfigMissing
	}
	return l.config, nil
}

type rawConfig struct {
	Initial string                            `mapstructure:"initial"`
	States  map[string]domain.StateDescriptor `mapstructure:"states"`
}

// FromMap decodes a generic map (as produced by JSON/YAML decoders into map[string]any)
// into a configuration. Maps carry no order, so states are declared sorted by id.
func FromMap(raw map[string]any) (*domain.Config, error) {
	if len(raw) == 0 {
		return nil, domain.ErrConfigMissing
	}

	var rc rawConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &rc,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	ids := make([]string, 0, len(rc.States))
	for id := range rc.States {
		ids = append(ids, id)
	}
	sort.Strings(ids) // Deterministic order

	cfg := domain.NewConfig(rc.Initial)
	for _, id := range ids {
		cfg.AddState(id, rc.States[id].Transitions)
	}
	return cfg, nil
}
