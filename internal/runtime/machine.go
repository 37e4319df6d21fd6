package runtime

import (
	"log/slog"
	"time"

	"github.com/aretw0/rewind/internal/logging"
	"github.com/aretw0/rewind/pkg/domain"
)

// Machine is the core state machine.
// It is not safe for concurrent use; callers sharing a Machine must serialize access.
type Machine struct {
	config   *domain.Config
	current  string
	history  []string
	position int

	name   string
	logger *slog.Logger
	hooks  domain.LifecycleHooks
	now    func() time.Time
}

// MachineOption configures a Machine.
type MachineOption func(*Machine)

// WithLogger sets the structured logger used for transition tracing.
func WithLogger(logger *slog.Logger) MachineOption {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) MachineOption {
	return func(m *Machine) {
		m.hooks = hooks
	}
}

// WithName labels the machine in emitted events.
func WithName(name string) MachineOption {
	return func(m *Machine) {
		m.name = name
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) MachineOption {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMachine creates a machine positioned at the configured initial state.
func NewMachine(config *domain.Config, opts ...MachineOption) (*Machine, error) {
	if config.IsEmpty() {
		return nil, domain.ErrConfigMissing
	}

	m := &Machine{
		config:   config,
		current:  config.Initial,
		history:  []string{config.Initial},
		position: 0,
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Config returns the configuration the machine was built from.
func (m *Machine) Config() *domain.Config {
	return m.config
}

// State returns the active state.
func (m *Machine) State() string {
	return m.current
}

// ChangeState moves to state, discarding any redo-able branch first.
func (m *Machine) ChangeState(state string) (string, error) {
	return m.changeState(domain.OpChange, state, "")
}

// Trigger resolves event against the active state's transitions and moves to its destination.
func (m *Machine) Trigger(event string) (string, error) {
	to, ok := m.config.Destination(m.current, event)
	if !ok {
		return "", m.reject(domain.OpTrigger, "", event, domain.ErrNoTransition)
	}
	return m.changeState(domain.OpTrigger, to, event)
}

func (m *Machine) changeState(op domain.Op, state, event string) (string, error) {
	if !m.config.Has(state) {
		return "", m.reject(op, state, event, domain.ErrUnknownState)
	}

	from := m.current
	m.current = state

	// Drop the forward branch left behind by earlier undos.
	if len(m.history) > 0 && m.position != len(m.history)-1 {
		m.history = m.history[:m.position+1]
	}
	m.history = append(m.history, state)
	m.position = len(m.history) - 1

	m.emit(op, from, event)
	return m.current, nil
}

// Reset returns to the initial state.
// Unlike ChangeState it keeps the redo-able branch: the initial state is appended after it.
func (m *Machine) Reset() string {
	from := m.current
	m.current = m.config.Initial
	m.history = append(m.history, m.current)
	m.position = len(m.history) - 1

	m.emit(domain.OpReset, from, "")
	return m.current
}

// States returns every configured state in declaration order.
func (m *Machine) States() []string {
	return m.config.StateIDs()
}

// StatesOn returns the states that have a transition for event, in declaration order.
// An empty event is the same as States.
func (m *Machine) StatesOn(event string) []string {
	if event == "" {
		return m.States()
	}

	states := make([]string, 0)
	m.config.Each(func(id string, desc domain.StateDescriptor) {
		if _, ok := desc.Transitions[event]; ok {
			states = append(states, id)
		}
	})
	return states
}

// Undo steps back one entry in history. It returns false when there is nothing to undo.
func (m *Machine) Undo() bool {
	if !m.CanUndo() {
		return false
	}

	from := m.current
	m.position--
	m.current = m.history[m.position]

	m.emit(domain.OpUndo, from, "")
	return true
}

// Redo steps forward one entry in history. It returns false when there is nothing to redo.
func (m *Machine) Redo() bool {
	if !m.CanRedo() {
		return false
	}

	from := m.current
	m.position++
	m.current = m.history[m.position]

	m.emit(domain.OpRedo, from, "")
	return true
}

// CanUndo reports whether Undo would succeed.
func (m *Machine) CanUndo() bool {
	return len(m.history) > 1 && m.position > 0
}

// CanRedo reports whether Redo would succeed.
func (m *Machine) CanRedo() bool {
	return len(m.history) > 1 && m.position != len(m.history)-1
}

// ClearHistory returns to the initial state and empties the history.
// The history stays empty until the next ChangeState, Trigger or Reset.
func (m *Machine) ClearHistory() {
	from := m.current
	m.current = m.config.Initial
	m.history = []string{}
	m.position = 0

	m.emit(domain.OpClear, from, "")
}

// History returns a copy of the visited states.
func (m *Machine) History() []string {
	history := make([]string, len(m.history))
	copy(history, m.history)
	return history
}

// Position returns the history cursor.
func (m *Machine) Position() int {
	return m.position
}

// Snapshot captures the current state and history.
func (m *Machine) Snapshot() domain.Snapshot {
	return domain.Snapshot{
		Current:  m.current,
		History:  m.History(),
		Position: m.position,
		CanUndo:  m.CanUndo(),
		CanRedo:  m.CanRedo(),
	}
}

func (m *Machine) emit(op domain.Op, from, event string) {
	m.logger.Debug("state changed",
		"op", op,
		"from", from,
		"to", m.current,
		"event", event,
		"position", m.position,
	)

	if m.hooks.OnTransition == nil {
		return
	}
	m.hooks.OnTransition(&domain.TransitionEvent{
		Timestamp:  m.now(),
		Machine:    m.name,
		Op:         op,
		From:       from,
		To:         m.current,
		Event:      event,
		Position:   m.position,
		HistoryLen: len(m.history),
	})
}

func (m *Machine) reject(op domain.Op, target, event string, cause error) error {
	err := &domain.TransitionError{
		Op:    string(op),
		State: m.current,
		Event: event,
		Err:   cause,
	}
	if target != "" {
		err.State = target
	}

	m.logger.Debug("transition rejected", "op", op, "state", m.current, "target", target, "event", event, "err", cause)

	if m.hooks.OnRejected != nil {
		m.hooks.OnRejected(&domain.RejectedEvent{
			Timestamp: m.now(),
			Machine:   m.name,
			Op:        op,
			State:     m.current,
			Target:    target,
			Event:     event,
			Err:       cause,
		})
	}
	return err
}
