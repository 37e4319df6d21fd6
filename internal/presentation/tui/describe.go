package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/rewind/pkg/domain"
)

// Describe renders a configuration as a markdown document.
func Describe(name string, cfg *domain.Config) string {
	var sb strings.Builder

	if name == "" {
		name = "machine"
	}
	sb.WriteString(fmt.Sprintf("# %s\n\n", name))
	sb.WriteString(fmt.Sprintf("Starts in **%s** and declares %d states.\n\n", cfg.Initial, cfg.Len()))

	cfg.Each(func(id string, desc domain.StateDescriptor) {
		marker := ""
		if id == cfg.Initial {
			marker = " (initial)"
		}
		sb.WriteString(fmt.Sprintf("## %s%s\n\n", id, marker))

		if desc.Description != "" {
			sb.WriteString(desc.Description)
			sb.WriteString("\n\n")
		}

		if len(desc.Transitions) == 0 {
			sb.WriteString("_No outgoing transitions._\n\n")
			return
		}

		events := make([]string, 0, len(desc.Transitions))
		for e := range desc.Transitions {
			events = append(events, e)
		}
		sort.Strings(events)

		sb.WriteString("| Event | Destination |\n|---|---|\n")
		for _, e := range events {
			to := desc.Transitions[e]
			if !cfg.Has(to) {
				to += " ⚠ undeclared"
			}
			sb.WriteString(fmt.Sprintf("| `%s` | %s |\n", e, to))
		}
		sb.WriteString("\n")
	})

	return sb.String()
}

// DescribeHistory renders a snapshot as a numbered list, marking the cursor.
func DescribeHistory(s domain.Snapshot) string {
	if len(s.History) == 0 {
		return "_History is empty._\n"
	}

	var sb strings.Builder
	for i, id := range s.History {
		if i == s.Position {
			sb.WriteString(fmt.Sprintf("%d. **%s** ←\n", i, id))
			continue
		}
		sb.WriteString(fmt.Sprintf("%d. %s\n", i, id))
	}
	return sb.String()
}
