package domain

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// StateDescriptor describes a single configured state.
type StateDescriptor struct {
	// Transitions maps an event identifier to its destination state.
	Transitions map[string]string `json:"transitions,omitempty" yaml:"transitions,omitempty" mapstructure:"transitions"`

	// Description is free-form documentation shown by describe and graph tooling.
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
}

// Config is the declarative description a machine is built from.
// It is never modified by the engine and may be shared by many machines.
type Config struct {
	Initial string `json:"initial" yaml:"initial"`

	// States keeps declaration order, which is the enumeration order
	// reported by Machine.States.
	States *orderedmap.OrderedMap[string, StateDescriptor] `json:"states" yaml:"states"`
}

// NewConfig creates an empty configuration starting at initial.
func NewConfig(initial string) *Config {
	return &Config{
		Initial: initial,
		States:  orderedmap.New[string, StateDescriptor](),
	}
}

// AddState registers (or replaces) a state, keeping its original position
// when it was already declared.
func (c *Config) AddState(id string, transitions map[string]string) *Config {
	return c.Put(id, StateDescriptor{Transitions: transitions})
}

// Put registers (or replaces) a full state descriptor.
func (c *Config) Put(id string, desc StateDescriptor) *Config {
	if c.States == nil {
		c.States = orderedmap.New[string, StateDescriptor]()
	}
	c.States.Set(id, desc)
	return c
}

// IsEmpty reports whether the configuration carries nothing usable.
func (c *Config) IsEmpty() bool {
	return c == nil || (c.Initial == "" && c.Len() == 0)
}

// Len returns the number of configured states.
func (c *Config) Len() int {
	if c == nil || c.States == nil {
		return 0
	}
	return c.States.Len()
}

// Lookup returns the descriptor of a state and whether it is configured.
func (c *Config) Lookup(id string) (StateDescriptor, bool) {
	if c == nil || c.States == nil {
		return StateDescriptor{}, false
	}
	return c.States.Get(id)
}

// Has reports whether id is a configured state.
func (c *Config) Has(id string) bool {
	_, ok := c.Lookup(id)
	return ok
}

// Destination resolves the target of event from state.
func (c *Config) Destination(state, event string) (string, bool) {
	desc, ok := c.Lookup(state)
	if !ok {
		return "", false
	}
	to, ok := desc.Transitions[event]
	return to, ok
}

// StateIDs returns every configured state id in declaration order.
func (c *Config) StateIDs() []string {
	ids := make([]string, 0, c.Len())
	c.Each(func(id string, _ StateDescriptor) {
		ids = append(ids, id)
	})
	return ids
}

// Each visits the states in declaration order.
func (c *Config) Each(fn func(id string, desc StateDescriptor)) {
	if c == nil || c.States == nil {
		return
	}
	for pair := c.States.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}
