package http

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/rewind/pkg/domain"
)

// StreamManager fans machine events out to server-sent event subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // machine ID -> set of channels
}

// NewStreamManager creates an empty StreamManager.
func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
	}
}

// Subscribe registers a channel for machineID. The returned func unsubscribes and closes it.
func (sm *StreamManager) Subscribe(machineID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[machineID]; !ok {
		sm.subscribers[machineID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[machineID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[machineID]; ok {
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, machineID)
			}
		}
	}
}

// Subscribers returns the number of active subscribers for machineID.
func (sm *StreamManager) Subscribers(machineID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[machineID])
}

// Broadcast sends msg to every subscriber of machineID, dropping it for slow clients.
func (sm *StreamManager) Broadcast(machineID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[machineID] {
		select {
		case ch <- msg:
		default:
			slog.Warn("SSE: Client buffer full, dropping message", "machine", machineID)
		}
	}
}

// Hooks returns lifecycle hooks broadcasting each transition, keyed by machine name.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(e *domain.TransitionEvent) {
			data, err := json.Marshal(e)
			if err != nil {
				slog.Error("SSE: failed to encode event", "err", err)
				return
			}
			sm.Broadcast(e.Machine, string(data))
		},
	}
}
