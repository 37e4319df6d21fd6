package tests

import (
	"context"
	"testing"

	"github.com/aretw0/rewind/pkg/domain"
	"github.com/aretw0/rewind/pkg/ports"
)

// ConfigLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.ConfigLoader.
// want is the configuration the loader is expected to produce, including state order.
func ConfigLoaderContractTest(t *testing.T, loader ports.ConfigLoader, want *domain.Config) {
	t.Helper()

	cfg, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	// 1. Initial State
	t.Run("Initial", func(t *testing.T) {
		if cfg.Initial != want.Initial {
			t.Errorf("initial mismatch. got %q, want %q", cfg.Initial, want.Initial)
		}
	})

	// 2. State Order
	t.Run("StateOrder", func(t *testing.T) {
		got, expected := cfg.StateIDs(), want.StateIDs()
		if len(got) != len(expected) {
			t.Fatalf("expected %d states, got %d (%v)", len(expected), len(got), got)
		}
		for i := range expected {
			if got[i] != expected[i] {
				t.Errorf("state %d mismatch. got %q, want %q", i, got[i], expected[i])
			}
		}
	})

	// 3. Transitions
	t.Run("Transitions", func(t *testing.T) {
		want.Each(func(id string, desc domain.StateDescriptor) {
			loaded, ok := cfg.Lookup(id)
			if !ok {
				t.Errorf("state %s missing", id)
				return
			}
			if len(loaded.Transitions) != len(desc.Transitions) {
				t.Errorf("state %s: expected %d transitions, got %d", id, len(desc.Transitions), len(loaded.Transitions))
			}
			for event, to := range desc.Transitions {
				if loaded.Transitions[event] != to {
					t.Errorf("state %s, event %s: got %q, want %q", id, event, loaded.Transitions[event], to)
				}
			}
		})
	})
}
