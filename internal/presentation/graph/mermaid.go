package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/rewind/pkg/domain"
)

// GraphOverlay contains dynamic machine data to visualize on the graph.
type GraphOverlay struct {
	VisitedStates []string
	CurrentState  string
}

// OverlayFrom builds an overlay out of a machine snapshot.
func OverlayFrom(s domain.Snapshot) *GraphOverlay {
	return &GraphOverlay{
		VisitedStates: s.History,
		CurrentState:  s.Current,
	}
}

// GenerateMermaid produces a Mermaid flowchart syntax string from a configuration.
// It applies semantic styling:
// - Initial: ((Circle))
// - Terminal (no transitions): ([Stadium])
// - Default: [Rectangle]
// - Undeclared destination: dashed {{Hexagon}}
// It also applies overlay styles (Visited/Current) if provided.
func GenerateMermaid(cfg *domain.Config, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	dangling := make(map[string]bool)

	cfg.Each(func(id string, desc domain.StateDescriptor) {
		safeID := sanitizeMermaidID(id)

		opener, closer := "[", "]"
		switch {
		case id == cfg.Initial:
			opener, closer = "((", "))"
		case len(desc.Transitions) == 0:
			opener, closer = "([", "])"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(id), closer))

		events := make([]string, 0, len(desc.Transitions))
		for event := range desc.Transitions {
			events = append(events, event)
		}
		sort.Strings(events)

		for _, event := range events {
			to := desc.Transitions[event]
			if !cfg.Has(to) {
				dangling[to] = true
			}
			sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", safeID, escapeLabel(event), sanitizeMermaidID(to)))
		}
	})

	if len(dangling) > 0 {
		sb.WriteString("\n    %% Undeclared destinations\n")
		sb.WriteString("    classDef missing stroke-dasharray:5 5,stroke:#c62828,color:#c62828;\n")
		missing := make([]string, 0, len(dangling))
		for id := range dangling {
			missing = append(missing, id)
		}
		sort.Strings(missing)
		for _, id := range missing {
			safeID := sanitizeMermaidID(id)
			sb.WriteString(fmt.Sprintf("    %s{{\"%s\"}}\n", safeID, escapeLabel(id)))
			sb.WriteString(fmt.Sprintf("    class %s missing;\n", safeID))
		}
	}

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedStates {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" && id != overlay.CurrentState {
				visitedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}

		if overlay.CurrentState != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.CurrentState)))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_")
	return r.Replace(id)
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
