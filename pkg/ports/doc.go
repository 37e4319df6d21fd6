/*
Package ports defines the driven ports (interfaces) for the rewind engine.

These interfaces decouple the core logic from external implementations, allowing
machines to be configured from files, Loam directories, in-memory maps or the DSL
builder without the engine knowing where the configuration came from.

# Key Interfaces

  - ConfigLoader: Responsible for materializing a domain.Config.
*/
package ports
