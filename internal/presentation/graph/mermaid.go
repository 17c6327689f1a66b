package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/jarvis/pkg/graph"
)

// GraphOverlay contains run data to highlight on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// GenerateMermaid produces a Mermaid flowchart for g.
// It applies semantic styling:
// - Entry: ((Circle))
// - Suspension point: [/Parallelogram/]
// - Concurrent action: [[Subroutine]]
// - Terminal: ([Stadium])
// - Default: [Rectangle]
// Routed edges are dotted; a suspension point gets a dotted "resume" edge back to the re-entry node.
func GenerateMermaid(g *graph.Graph, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range g.Nodes() {
		name := node.Name()
		opener, closer := "[", "]"
		switch {
		case name == g.Entry():
			opener, closer = "((", "))"
		case node.IsSuspension():
			opener, closer = "[/", "/]"
		case g.IsTerminal(name):
			opener, closer = "([", "])"
		case node.IsConcurrent():
			opener, closer = "[[", "]]"
		}
		label := name
		if node.IsCritical() {
			label += " <br/> critical"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", sanitizeMermaidID(name), opener, label, closer))
	}

	for _, e := range g.Edges() {
		from := sanitizeMermaidID(e.From)
		arrow := "-->"
		if e.IsConditional() {
			arrow = "-.->"
		}
		for _, to := range e.To {
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", from, arrow, sanitizeMermaidID(to)))
		}
	}

	for _, node := range g.Nodes() {
		if node.IsSuspension() && g.Reentry() != "" {
			sb.WriteString(fmt.Sprintf("    %s -. \"resume\" .-> %s\n", sanitizeMermaidID(node.Name()), sanitizeMermaidID(g.Reentry())))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for contrast on light backgrounds regardless of theme.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}

		if overlay.CurrentNode != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode)))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	// "end" is a reserved word in Mermaid flowcharts.
	if s == "end" {
		s = "end_"
	}
	return s
}
