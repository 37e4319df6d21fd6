package domain

import "time"

// Op names a machine operation.
type Op string

const (
	OpChange  Op = "change"
	OpTrigger Op = "trigger"
	OpReset   Op = "reset"
	OpUndo    Op = "undo"
	OpRedo    Op = "redo"
	OpClear   Op = "clear"
)

// TransitionEvent describes a successful mutation of a machine.
type TransitionEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	Machine    string    `json:"machine,omitempty"`
	Op         Op        `json:"op"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Event      string    `json:"event,omitempty"`
	Position   int       `json:"position"`
	HistoryLen int       `json:"history_len"`
}

// RejectedEvent describes an operation that failed without mutating the machine.
type RejectedEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Machine   string    `json:"machine,omitempty"`
	Op        Op        `json:"op"`
	State     string    `json:"state"`
	Target    string    `json:"target,omitempty"`
	Event     string    `json:"event,omitempty"`
	Err       error     `json:"-"`
}

// LifecycleHooks defines callbacks for machine observability.
// Hooks observe; they cannot veto or alter a transition.
type LifecycleHooks struct {
	OnTransition func(*TransitionEvent)
	OnRejected   func(*RejectedEvent)
}

// ChainHooks combines several hook sets, calling them in order.
func ChainHooks(hooks ...LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTransition: func(e *TransitionEvent) {
			for _, h := range hooks {
				if h.OnTransition != nil {
					h.OnTransition(e)
				}
			}
		},
		OnRejected: func(e *RejectedEvent) {
			for _, h := range hooks {
				if h.OnRejected != nil {
					h.OnRejected(e)
				}
			}
		},
	}
}
