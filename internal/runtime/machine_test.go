package runtime_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/rewind/internal/runtime"
	"github.com/aretw0/rewind/pkg/domain"
)

func idleRunning() *domain.Config {
	return domain.NewConfig("idle").
		AddState("idle", map[string]string{"start": "running"}).
		AddState("running", map[string]string{"stop": "idle"})
}

// abcd declares A..D fully connected through "next" and direct events.
func abcd() *domain.Config {
	return domain.NewConfig("A").
		AddState("A", map[string]string{"next": "B"}).
		AddState("B", map[string]string{"next": "C"}).
		AddState("C", map[string]string{"next": "D"}).
		AddState("D", nil)
}

func newMachine(t *testing.T, cfg *domain.Config, opts ...runtime.MachineOption) *runtime.Machine {
	t.Helper()
	m, err := runtime.NewMachine(cfg, opts...)
	require.NoError(t, err)
	return m
}

func TestNewMachine(t *testing.T) {
	t.Run("Seeds History With Initial", func(t *testing.T) {
		m := newMachine(t, idleRunning())

		assert.Equal(t, "idle", m.State())
		assert.Equal(t, []string{"idle"}, m.History())
		assert.Equal(t, 0, m.Position())
		assert.False(t, m.CanUndo())
		assert.False(t, m.CanRedo())
	})

	t.Run("Nil Config", func(t *testing.T) {
		m, err := runtime.NewMachine(nil)
		assert.Nil(t, m)
		assert.ErrorIs(t, err, domain.ErrConfigMissing)
	})

	t.Run("Empty Config", func(t *testing.T) {
		_, err := runtime.NewMachine(&domain.Config{})
		assert.ErrorIs(t, err, domain.ErrConfigMissing)
	})

	t.Run("Initial Not Declared Is Accepted", func(t *testing.T) {
		cfg := domain.NewConfig("ghost").AddState("idle", nil)
		m := newMachine(t, cfg)
		assert.Equal(t, "ghost", m.State())

		_, err := m.Trigger("anything")
		assert.ErrorIs(t, err, domain.ErrNoTransition)
	})
}

func TestMachine_ChangeState(t *testing.T) {
	t.Run("Appends To History", func(t *testing.T) {
		m := newMachine(t, abcd())

		got, err := m.ChangeState("C")
		require.NoError(t, err)
		assert.Equal(t, "C", got)
		assert.Equal(t, "C", m.State())
		assert.Equal(t, []string{"A", "C"}, m.History())
		assert.Equal(t, 1, m.Position())
	})

	t.Run("Same State Still Grows History", func(t *testing.T) {
		m := newMachine(t, abcd())

		_, err := m.ChangeState("A")
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "A"}, m.History())
	})

	t.Run("Unknown State Leaves Machine Untouched", func(t *testing.T) {
		m := newMachine(t, abcd())
		_, _ = m.ChangeState("B")
		before := m.Snapshot()

		got, err := m.ChangeState("Z")
		assert.Empty(t, got)
		assert.ErrorIs(t, err, domain.ErrUnknownState)
		assert.NotErrorIs(t, err, domain.ErrNoTransition)

		var te *domain.TransitionError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "change", te.Op)
		assert.Equal(t, "Z", te.State)

		assert.Equal(t, before, m.Snapshot())
	})
}

func TestMachine_Trigger(t *testing.T) {
	t.Run("Follows Transition", func(t *testing.T) {
		m := newMachine(t, idleRunning())

		got, err := m.Trigger("start")
		require.NoError(t, err)
		assert.Equal(t, "running", got)

		got, err = m.Trigger("stop")
		require.NoError(t, err)
		assert.Equal(t, "idle", got)
		assert.Equal(t, []string{"idle", "running", "idle"}, m.History())
		assert.Equal(t, 2, m.Position())
	})

	t.Run("Missing Transition Leaves Machine Untouched", func(t *testing.T) {
		m := newMachine(t, idleRunning())
		before := m.Snapshot()

		_, err := m.Trigger("stop")
		assert.ErrorIs(t, err, domain.ErrNoTransition)
		assert.NotErrorIs(t, err, domain.ErrUnknownState)

		var te *domain.TransitionError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "trigger", te.Op)
		assert.Equal(t, "idle", te.State)
		assert.Equal(t, "stop", te.Event)

		assert.Equal(t, before, m.Snapshot())
	})

	t.Run("Dangling Destination Is Unknown State", func(t *testing.T) {
		cfg := domain.NewConfig("idle").AddState("idle", map[string]string{"jump": "nowhere"})
		m := newMachine(t, cfg)

		_, err := m.Trigger("jump")
		assert.ErrorIs(t, err, domain.ErrUnknownState)
		assert.Equal(t, "idle", m.State())
		assert.Equal(t, []string{"idle"}, m.History())
	})
}

func TestMachine_States(t *testing.T) {
	m := newMachine(t, idleRunning())

	assert.Equal(t, []string{"idle", "running"}, m.States())
	assert.Equal(t, []string{"idle"}, m.StatesOn("start"))
	assert.Equal(t, []string{"running"}, m.StatesOn("stop"))
	assert.Equal(t, []string{"idle", "running"}, m.StatesOn(""))
	assert.Empty(t, m.StatesOn("explode"))
}

func TestMachine_States_DeclarationOrder(t *testing.T) {
	cfg := domain.NewConfig("zeta").
		AddState("zeta", map[string]string{"go": "alpha"}).
		AddState("alpha", map[string]string{"go": "mid"}).
		AddState("mid", nil)
	m := newMachine(t, cfg)

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, m.States())
	assert.Equal(t, []string{"zeta", "alpha"}, m.StatesOn("go"))
}

func TestMachine_UndoRedo(t *testing.T) {
	t.Run("Nothing To Undo Or Redo Initially", func(t *testing.T) {
		m := newMachine(t, abcd())
		assert.False(t, m.Undo())
		assert.False(t, m.Redo())
		assert.Equal(t, "A", m.State())
	})

	t.Run("Round Trip", func(t *testing.T) {
		m := newMachine(t, abcd())
		_, _ = m.Trigger("next")
		_, _ = m.Trigger("next")
		pos := m.Position()
		cur := m.State()

		require.True(t, m.Undo())
		assert.Equal(t, "B", m.State())
		require.True(t, m.Redo())

		assert.Equal(t, cur, m.State())
		assert.Equal(t, pos, m.Position())
	})

	t.Run("Bounds", func(t *testing.T) {
		m := newMachine(t, abcd())
		_, _ = m.Trigger("next")

		assert.True(t, m.Undo())
		assert.False(t, m.Undo())
		assert.Equal(t, 0, m.Position())
		assert.True(t, m.Redo())
		assert.False(t, m.Redo())
		assert.Equal(t, 1, m.Position())
	})
}

func TestMachine_BranchTruncation(t *testing.T) {
	m := newMachine(t, abcd())
	_, _ = m.ChangeState("B")
	_, _ = m.ChangeState("C")
	require.Equal(t, []string{"A", "B", "C"}, m.History())
	require.Equal(t, 2, m.Position())

	require.True(t, m.Undo())
	require.True(t, m.Undo())
	assert.Equal(t, 0, m.Position())
	assert.Equal(t, "A", m.State())

	_, err := m.ChangeState("D")
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "D"}, m.History())
	assert.Equal(t, 1, m.Position())
	assert.False(t, m.Redo())
}

func TestMachine_Reset(t *testing.T) {
	t.Run("Does Not Truncate", func(t *testing.T) {
		m := newMachine(t, abcd())
		_, _ = m.ChangeState("B")
		_, _ = m.ChangeState("C")
		require.True(t, m.Undo())
		require.True(t, m.Undo())

		got := m.Reset()

		assert.Equal(t, "A", got)
		assert.Equal(t, []string{"A", "B", "C", "A"}, m.History())
		assert.Equal(t, 3, m.Position())
		assert.False(t, m.CanRedo())
		assert.True(t, m.Undo())
		assert.Equal(t, "C", m.State())
	})

	t.Run("From Tip Grows By One", func(t *testing.T) {
		m := newMachine(t, abcd())
		_, _ = m.Trigger("next")

		m.Reset()
		assert.Equal(t, []string{"A", "B", "A"}, m.History())
		assert.Equal(t, 2, m.Position())
	})
}

func TestMachine_ClearHistory(t *testing.T) {
	m := newMachine(t, abcd())
	_, _ = m.Trigger("next")
	_, _ = m.Trigger("next")

	m.ClearHistory()

	assert.Equal(t, "A", m.State())
	assert.Empty(t, m.History())
	assert.Equal(t, 0, m.Position())
	assert.False(t, m.Undo())
	assert.False(t, m.Redo())

	t.Run("Next Change Reseeds", func(t *testing.T) {
		_, err := m.Trigger("next")
		require.NoError(t, err)
		assert.Equal(t, []string{"B"}, m.History())
		assert.Equal(t, 0, m.Position())
		assert.False(t, m.Undo())
	})

	t.Run("Reset After Clear Stays In Bounds", func(t *testing.T) {
		m.ClearHistory()
		m.Reset()
		assert.Equal(t, []string{"A"}, m.History())
		assert.Equal(t, 0, m.Position())

		_, _ = m.Trigger("next")
		assert.Equal(t, []string{"A", "B"}, m.History())
		assert.True(t, m.Undo())
		assert.Equal(t, "A", m.State())
	})
}

func TestMachine_HistoryIsCopied(t *testing.T) {
	m := newMachine(t, abcd())
	h := m.History()
	h[0] = "mutated"

	assert.Equal(t, []string{"A"}, m.History())
}

func TestMachine_Determinism(t *testing.T) {
	type step func(m *runtime.Machine)
	steps := []step{
		func(m *runtime.Machine) { _, _ = m.Trigger("next") },
		func(m *runtime.Machine) { _, _ = m.Trigger("next") },
		func(m *runtime.Machine) { m.Undo() },
		func(m *runtime.Machine) { _, _ = m.ChangeState("D") },
		func(m *runtime.Machine) { m.Reset() },
		func(m *runtime.Machine) { m.Undo() },
		func(m *runtime.Machine) { m.Redo() },
		func(m *runtime.Machine) { _, _ = m.Trigger("missing") },
	}

	record := func() []domain.Snapshot {
		m := newMachine(t, abcd())
		var out []domain.Snapshot
		for _, s := range steps {
			s(m)
			out = append(out, m.Snapshot())
		}
		return out
	}

	assert.Equal(t, record(), record())
}

func TestMachine_AppendInvariant(t *testing.T) {
	m := newMachine(t, abcd())
	for i := 0; i < 3; i++ {
		before := len(m.History())
		_, err := m.Trigger("next")
		require.NoError(t, err)
		assert.Len(t, m.History(), before+1)
		assert.Equal(t, len(m.History())-1, m.Position())
		assert.Equal(t, m.History()[m.Position()], m.State())
	}
}

func TestMachine_Hooks(t *testing.T) {
	var transitions []domain.TransitionEvent
	var rejected []domain.RejectedEvent
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	m := newMachine(t, idleRunning(),
		runtime.WithName("door"),
		runtime.WithClock(func() time.Time { return fixed }),
		runtime.WithLifecycleHooks(domain.LifecycleHooks{
			OnTransition: func(e *domain.TransitionEvent) { transitions = append(transitions, *e) },
			OnRejected:   func(e *domain.RejectedEvent) { rejected = append(rejected, *e) },
		}),
	)

	_, _ = m.Trigger("start")
	m.Undo()
	m.Redo()
	m.Reset()
	m.ClearHistory()
	_, _ = m.Trigger("nope")
	_, _ = m.ChangeState("ghost")

	require.Len(t, transitions, 5)
	assert.Equal(t, domain.TransitionEvent{
		Timestamp:  fixed,
		Machine:    "door",
		Op:         domain.OpTrigger,
		From:       "idle",
		To:         "running",
		Event:      "start",
		Position:   1,
		HistoryLen: 2,
	}, transitions[0])
	assert.Equal(t, domain.OpUndo, transitions[1].Op)
	assert.Equal(t, domain.OpRedo, transitions[2].Op)
	assert.Equal(t, domain.OpReset, transitions[3].Op)
	assert.Equal(t, domain.OpClear, transitions[4].Op)
	assert.Equal(t, 0, transitions[4].HistoryLen)

	require.Len(t, rejected, 2)
	assert.Equal(t, domain.OpTrigger, rejected[0].Op)
	assert.Equal(t, "nope", rejected[0].Event)
	assert.True(t, errors.Is(rejected[0].Err, domain.ErrNoTransition))
	assert.Equal(t, "ghost", rejected[1].Target)
	assert.True(t, errors.Is(rejected[1].Err, domain.ErrUnknownState))
}

func TestMachine_FailedUndoDoesNotEmit(t *testing.T) {
	calls := 0
	m := newMachine(t, idleRunning(), runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnTransition: func(*domain.TransitionEvent) { calls++ },
	}))

	assert.False(t, m.Undo())
	assert.False(t, m.Redo())
	assert.Zero(t, calls)
}
