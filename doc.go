/*
Package rewind is a configuration-driven finite-state-machine engine with undo and redo.

Given a declarative description of states and event-triggered transitions, a Machine
tracks the active state, applies validated transitions, and keeps a linear, branchable
history that can be walked backwards and forwards.

# Concept

The engine only consumes a ready domain.Config. Where that configuration comes from
(a YAML/JSON file, a Loam directory, a map, the dsl builder) is the business of the
adapters under pkg/adapters and pkg/dsl. This Hexagonal Architecture allows rewind to
be embedded in UI widgets, protocol handlers or workflow steps alike.

# History

Every successful ChangeState, Trigger or Reset appends to history. Undo and Redo move
a cursor through it. Taking a new transition after an Undo discards the redo-able
branch; Reset does not, it appends the initial state after the branch instead.

# Usage

	cfg := dsl.New().
		Initial("idle").
		State("idle").On("start", "running").
		State("running").On("stop", "idle").
		Build()

	m, err := rewind.New(cfg)
	if err != nil {
		log.Fatal(err)
	}

	if _, err := m.Trigger("start"); err != nil {
		log.Fatal(err)
	}
	m.Undo() // back to "idle"
	m.Redo() // "running" again

A Machine is not safe for concurrent use. Use package session when several
goroutines drive the same machine.
*/
package rewind
