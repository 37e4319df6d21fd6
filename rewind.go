package rewind

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/rewind/internal/logging"
	"github.com/aretw0/rewind/internal/runtime"
	"github.com/aretw0/rewind/internal/validator"
	"github.com/aretw0/rewind/pkg/domain"
	"github.com/aretw0/rewind/pkg/ports"
)

// Machine is the high-level entry point for the rewind library.
// It wraps the internal runtime and is not safe for concurrent use;
// see package session for a synchronized registry of machines.
type Machine struct {
	runtime *runtime.Machine
	logger  *slog.Logger
	hooks   domain.LifecycleHooks
	strict  bool
	Name    string
}

// Option defines a functional option for configuring the Machine.
type Option func(*Machine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Machine) {
		m.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the machine.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// WithName labels the machine in logs and emitted events.
func WithName(name string) Option {
	return func(m *Machine) {
		m.Name = name
	}
}

// WithStrict validates the configuration eagerly, rejecting undeclared initial
// states and transitions that point at undeclared states.
func WithStrict() Option {
	return func(m *Machine) {
		m.strict = true
	}
}

// New builds a Machine positioned at the configuration's initial state.
// It fails with domain.ErrConfigMissing when cfg is nil or empty.
func New(cfg *domain.Config, opts ...Option) (*Machine, error) {
	m := &Machine{}
	for _, opt := range opts {
		opt(m)
	}

	if m.logger == nil {
		m.logger = logging.NewNop()
	}
	if m.Name != "" {
		m.logger = m.logger.With("machine", m.Name)
	}

	if m.strict && !cfg.IsEmpty() {
		report := validator.Validate(cfg)
		for _, w := range report.Warnings {
			m.logger.Warn("config warning", "issue", w.String())
		}
		if err := report.Err(); err != nil {
			return nil, err
		}
	}

	rt, err := runtime.NewMachine(cfg,
		runtime.WithLogger(m.logger),
		runtime.WithLifecycleHooks(m.hooks),
		runtime.WithName(m.Name),
	)
	if err != nil {
		return nil, err
	}
	m.runtime = rt
	return m, nil
}

// Load materializes a configuration through loader and builds a Machine from it.
func Load(ctx context.Context, loader ports.ConfigLoader, opts ...Option) (*Machine, error) {
	cfg, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return New(cfg, opts...)
}

// State returns the active state.
func (m *Machine) State() string {
	return m.runtime.State()
}

// ChangeState moves directly to state. Any redo-able history is discarded.
// It returns an error wrapping domain.ErrUnknownState when state is not configured.
func (m *Machine) ChangeState(state string) (string, error) {
	return m.runtime.ChangeState(state)
}

// Trigger applies event to the active state.
// It returns an error wrapping domain.ErrNoTransition when the active state does not handle event.
func (m *Machine) Trigger(event string) (string, error) {
	return m.runtime.Trigger(event)
}

// Reset returns to the initial state, appending it to history.
func (m *Machine) Reset() string {
	return m.runtime.Reset()
}

// States returns every configured state in declaration order.
func (m *Machine) States() []string {
	return m.runtime.States()
}

// StatesOn returns the states that handle event, in declaration order.
func (m *Machine) StatesOn(event string) []string {
	return m.runtime.StatesOn(event)
}

// Undo steps back in history. It reports false when there is nothing to undo.
func (m *Machine) Undo() bool {
	return m.runtime.Undo()
}

// Redo steps forward in history. It reports false when there is nothing to redo.
func (m *Machine) Redo() bool {
	return m.runtime.Redo()
}

// CanUndo reports whether Undo would succeed.
func (m *Machine) CanUndo() bool {
	return m.runtime.CanUndo()
}

// CanRedo reports whether Redo would succeed.
func (m *Machine) CanRedo() bool {
	return m.runtime.CanRedo()
}

// ClearHistory returns to the initial state and forgets every visited state.
func (m *Machine) ClearHistory() {
	m.runtime.ClearHistory()
}

// History returns a copy of the visited states.
func (m *Machine) History() []string {
	return m.runtime.History()
}

// Position returns the index of the active entry in History.
func (m *Machine) Position() int {
	return m.runtime.Position()
}

// Snapshot captures the active state, the history and the cursor.
func (m *Machine) Snapshot() domain.Snapshot {
	return m.runtime.Snapshot()
}

// Config returns the configuration the machine was built from.
func (m *Machine) Config() *domain.Config {
	return m.runtime.Config()
}
