package dsl

import (
	"github.com/aretw0/rewind/pkg/adapters/memory"
	"github.com/aretw0/rewind/pkg/domain"
)

// StateBuilder provides a fluent API for configuring a state.
type StateBuilder struct {
	id          string
	transitions map[string]string
	description string
	builder     *Builder
}

// Describe attaches documentation to the state.
func (s *StateBuilder) Describe(text string) *StateBuilder {
	s.description = text
	return s
}

// On adds a transition to state `to` when `event` is triggered.
// Declaring the same event twice keeps the last destination.
func (s *StateBuilder) On(event, to string) *StateBuilder {
	s.transitions[event] = to
	return s
}

// Initial marks this state as the machine's starting state.
func (s *StateBuilder) Initial() *StateBuilder {
	s.builder.Initial(s.id)
	return s
}

// State continues with another state on the parent builder.
func (s *StateBuilder) State(id string) *StateBuilder {
	return s.builder.State(id)
}

// Build compiles the parent builder.
func (s *StateBuilder) Build() *domain.Config {
	return s.builder.Build()
}

// Loader returns the parent builder's loader.
func (s *StateBuilder) Loader() *memory.Loader {
	return s.builder.Loader()
}
