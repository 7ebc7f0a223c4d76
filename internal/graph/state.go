package graph

import "assistant/internal/domain"

// State identifies one node of the query-answering state machine.
type State int

const (
	StateGatekeeper State = iota
	StateBypass
	StateOptimizeQuery
	StateRetrieve
	StateBuildPrompt
	StateGenerate
	StateEnd
)

var stateNames = map[State]string{
	StateGatekeeper:    "gatekeeper",
	StateBypass:        "bypass",
	StateOptimizeQuery: "optimize_query",
	StateRetrieve:      "retrieve",
	StateBuildPrompt:   "build_prompt",
	StateGenerate:      "generate",
	StateEnd:           "end",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// RAGState is the working object threaded through one graph execution. It is
// created fresh per request, owned by a single run, and discarded once the
// response is returned.
type RAGState struct {
	Query          string
	ThreadID       string
	QueryOptimized string
	UseRAG         bool
	Docs           []domain.Document
	Prompt         string
	Answer         string

	// Degraded marks an answer produced by the failure fallback instead of
	// the model. Degraded answers are returned but never cached.
	Degraded bool
}

// DocumentSources returns the distinct source file names of the retrieved
// chunks, in order of first appearance.
func (s *RAGState) DocumentSources() []string {
	seen := make(map[string]bool, len(s.Docs))
	var sources []string
	for _, doc := range s.Docs {
		name := doc.SourceName()
		if seen[name] {
			continue
		}
		seen[name] = true
		sources = append(sources, name)
	}
	return sources
}
