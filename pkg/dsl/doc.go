/*
Package dsl provides a Go DSL (Domain Specific Language) for programmatically constructing rewind configurations.

It allows developers to declare states and transitions using a type-safe, fluent builder
instead of relying on external YAML or JSON files. Declaration order is preserved, so
Machine.States reports states in the order they were written.

Example usage:

	cfg := dsl.New().
		State("idle").Initial().On("start", "running").
		State("running").On("stop", "idle").On("pause", "paused").
		State("paused").On("resume", "running").
		Build()

	m, err := rewind.New(cfg)
*/
package dsl
