package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/rewind/pkg/domain"
)

// Issue is a single finding about a configuration.
type Issue struct {
	State   string
	Event   string
	Message string
}

func (i Issue) String() string {
	switch {
	case i.State != "" && i.Event != "":
		return fmt.Sprintf("state '%s', event '%s': %s", i.State, i.Event, i.Message)
	case i.State != "":
		return fmt.Sprintf("state '%s': %s", i.State, i.Message)
	}
	return i.Message
}

// ValidationError aggregates every error-level issue found in a configuration.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	lines := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		lines[i] = issue.String()
	}
	return fmt.Sprintf("found %d errors:\n- %s", len(e.Issues), strings.Join(lines, "\n- "))
}

// Report is the outcome of Validate.
type Report struct {
	Errors   []Issue
	Warnings []Issue
}

// Err returns a *ValidationError when the report holds errors, nil otherwise.
func (r Report) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return &ValidationError{Issues: r.Errors}
}

// Validate checks a configuration eagerly: the initial state must be declared,
// state ids must be non-empty and every transition must land on a declared state.
// States that cannot be reached from the initial state are reported as warnings.
func Validate(cfg *domain.Config) Report {
	var report Report

	if cfg.IsEmpty() {
		report.Errors = append(report.Errors, Issue{Message: domain.ErrConfigMissing.Error()})
		return report
	}

	if cfg.Initial == "" {
		report.Errors = append(report.Errors, Issue{Message: "initial state is required"})
	} else if !cfg.Has(cfg.Initial) {
		report.Errors = append(report.Errors, Issue{Message: fmt.Sprintf("initial state '%s' is not declared", cfg.Initial)})
	}

	cfg.Each(func(id string, desc domain.StateDescriptor) {
		if strings.TrimSpace(id) == "" {
			report.Errors = append(report.Errors, Issue{Message: "state id must not be empty"})
		}
		for _, event := range sortedEvents(desc) {
			to := desc.Transitions[event]
			if strings.TrimSpace(event) == "" {
				report.Errors = append(report.Errors, Issue{State: id, Message: "event id must not be empty"})
				continue
			}
			if !cfg.Has(to) {
				report.Errors = append(report.Errors, Issue{State: id, Event: event, Message: fmt.Sprintf("destination '%s' is not declared", to)})
			}
		}
	})

	if cfg.Has(cfg.Initial) {
		reached := Reachable(cfg)
		cfg.Each(func(id string, _ domain.StateDescriptor) {
			if !reached[id] {
				report.Warnings = append(report.Warnings, Issue{State: id, Message: fmt.Sprintf("unreachable from initial state '%s'", cfg.Initial)})
			}
		})
	}

	return report
}

// Reachable crawls the transition graph from the initial state.
func Reachable(cfg *domain.Config) map[string]bool {
	visited := make(map[string]bool)
	queue := []string{cfg.Initial}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if visited[current] {
			continue
		}
		desc, ok := cfg.Lookup(current)
		if !ok {
			continue
		}
		visited[current] = true

		for _, event := range sortedEvents(desc) {
			if to := desc.Transitions[event]; !visited[to] {
				queue = append(queue, to)
			}
		}
	}
	return visited
}

func sortedEvents(desc domain.StateDescriptor) []string {
	events := make([]string, 0, len(desc.Transitions))
	for e := range desc.Transitions {
		events = append(events, e)
	}
	sort.Strings(events)
	return events
}
