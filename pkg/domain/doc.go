/*
Package domain contains the core domain models of the rewind engine.

It defines the declarative configuration a machine is built from, the errors the
engine reports, and the events emitted to observers. This package is kept pure and
free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - Config: The initial state plus an ordered table of states and their transitions.
  - StateDescriptor: The event -> destination table of a single state.
  - Snapshot: A copy of the current state, the history and the cursor.
  - TransitionEvent / RejectedEvent: What observers receive through LifecycleHooks.
*/
package domain
