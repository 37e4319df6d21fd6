package dsl

import (
	"github.com/aretw0/rewind/pkg/adapters/memory"
	"github.com/aretw0/rewind/pkg/domain"
)

// Builder manages the configuration construction.
type Builder struct {
	initial string
	order   []string
	states  map[string]*StateBuilder
}

// New creates a new configuration builder.
func New() *Builder {
	return &Builder{
		states: make(map[string]*StateBuilder),
	}
}

// Initial sets the state the machine starts in.
// When never called, the first declared state is used.
func (b *Builder) Initial(id string) *Builder {
	b.initial = id
	return b
}

// State declares a state, or returns the existing builder if it was already declared.
func (b *Builder) State(id string) *StateBuilder {
	if sb, ok := b.states[id]; ok {
		return sb
	}
	sb := &StateBuilder{
		id:          id,
		transitions: make(map[string]string),
		builder:     b,
	}
	b.states[id] = sb
	b.order = append(b.order, id)
	return sb
}

// Build compiles the declared states, in declaration order, into a Config.
func (b *Builder) Build() *domain.Config {
	initial := b.initial
	if initial == "" && len(b.order) > 0 {
		initial = b.order[0]
	}

	cfg := domain.NewConfig(initial)
	for _, id := range b.order {
		sb := b.states[id]
		transitions := make(map[string]string, len(sb.transitions))
		for event, to := range sb.transitions {
			transitions[event] = to
		}
		cfg.Put(id, domain.StateDescriptor{
			Transitions: transitions,
			Description: sb.description,
		})
	}
	return cfg
}

// Loader compiles the configuration and wraps it into an in-memory loader.
func (b *Builder) Loader() *memory.Loader {
	return memory.New(b.Build())
}
