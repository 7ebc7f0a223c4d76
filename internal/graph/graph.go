// Package graph implements the query-to-answer orchestration state machine:
// gatekeeper -> optimize_query -> retrieve -> build_prompt -> generate, with
// a bypass edge for queries answerable without retrieval. Transitions are an
// explicit table evaluated by a single dispatcher loop, and every external
// collaborator is an injected interface.
package graph

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"assistant/internal/cache"
	"assistant/internal/domain"
	"assistant/internal/prompts"
)

// Generator is the hosted language model.
type Generator interface {
	Classify(ctx context.Context, query string) (bool, error)
	Complete(ctx context.Context, prompt string) (string, error)
	Converse(ctx context.Context, threadID, message string) (string, error)
}

// Retriever returns the top-k chunks relevant to a query.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]domain.Document, error)
}

// Cache is the subset of the cache layer the graph nodes read and write.
type Cache interface {
	GetJSON(ctx context.Context, key string, out any) bool
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) bool
}

// Options configures node behavior.
type Options struct {
	TopK            int
	RAGTemplate     string
	RewriteTemplate string
	RetrieveTTL     time.Duration
	OptimizeTTL     time.Duration
	GenerateTTL     time.Duration
}

type nodeFunc func(ctx context.Context, st *RAGState) error

// transition is one row of the transition table. When cond is set it picks
// the next state from the finished node's output; otherwise next is taken
// unconditionally.
type transition struct {
	next State
	cond func(*RAGState) State
}

// Graph is the compiled state machine. Safe for concurrent use; all mutable
// state lives in the per-request RAGState.
type Graph struct {
	llm       Generator
	retriever Retriever
	cache     Cache
	opts      Options
	logger    *zap.Logger

	nodes       map[State]nodeFunc
	transitions map[State]transition
}

// New builds the graph with its transition table.
func New(llm Generator, retriever Retriever, c Cache, opts Options, logger *zap.Logger) *Graph {
	if opts.TopK <= 0 {
		opts.TopK = 2
	}
	g := &Graph{
		llm:       llm,
		retriever: retriever,
		cache:     c,
		opts:      opts,
		logger:    logger,
	}

	g.nodes = map[State]nodeFunc{
		StateGatekeeper:    g.nodeGatekeeper,
		StateBypass:        g.nodeBypass,
		StateOptimizeQuery: g.nodeOptimizeQuery,
		StateRetrieve:      g.nodeRetrieve,
		StateBuildPrompt:   g.nodeBuildPrompt,
		StateGenerate:      g.nodeGenerate,
	}

	g.transitions = map[State]transition{
		StateGatekeeper: {cond: func(st *RAGState) State {
			if st.UseRAG {
				return StateOptimizeQuery
			}
			return StateBypass
		}},
		StateBypass:        {next: StateEnd},
		StateOptimizeQuery: {next: StateRetrieve},
		StateRetrieve:      {next: StateBuildPrompt},
		StateBuildPrompt:   {next: StateGenerate},
		StateGenerate:      {next: StateEnd},
	}

	return g
}

// Run executes the state machine from the entry state until the terminal
// state. On return the state's Answer is always populated unless an error
// is reported.
func (g *Graph) Run(ctx context.Context, st *RAGState) error {
	current := StateGatekeeper
	for current != StateEnd {
		node, ok := g.nodes[current]
		if !ok {
			return fmt.Errorf("no node registered for state %s", current)
		}
		if err := node(ctx, st); err != nil {
			return fmt.Errorf("state %s: %w", current, err)
		}

		tr := g.transitions[current]
		if tr.cond != nil {
			current = tr.cond(st)
		} else {
			current = tr.next
		}
	}
	return nil
}

// nodeGatekeeper classifies the query. Queries answerable from general
// knowledge or conversation history are answered immediately on the thread's
// conversation memory and routed to the bypass edge.
func (g *Graph) nodeGatekeeper(ctx context.Context, st *RAGState) error {
	useRAG, err := g.llm.Classify(ctx, st.Query)
	if err != nil {
		return fmt.Errorf("classification failed: %w", err)
	}
	st.UseRAG = useRAG
	if useRAG {
		return nil
	}

	answer, err := g.llm.Converse(ctx, st.ThreadID, st.Query)
	if err != nil {
		g.logger.Error("direct answer failed", zap.Error(err))
		st.Answer = fmt.Sprintf("Error generating response: %v", err)
		st.Degraded = true
		return nil
	}
	st.Answer = answer
	return nil
}

// nodeBypass is a no-op: the answer was produced during classification.
func (g *Graph) nodeBypass(_ context.Context, _ *RAGState) error {
	return nil
}

// nodeOptimizeQuery rewrites the raw query into a retrieval-optimized form.
// Rewrite failure never blocks the pipeline: the raw query is used as-is.
func (g *Graph) nodeOptimizeQuery(ctx context.Context, st *RAGState) error {
	key := cache.OptimizeQueryKey(st.Query)
	var cached string
	if g.cache.GetJSON(ctx, key, &cached) {
		st.QueryOptimized = cached
		return nil
	}

	optimized, err := g.llm.Complete(ctx, prompts.RenderRewrite(g.opts.RewriteTemplate, st.Query))
	if err != nil {
		g.logger.Error("query rewrite failed, falling back to raw query", zap.Error(err))
		st.QueryOptimized = st.Query
		return nil
	}
	st.QueryOptimized = optimized
	g.cache.SetJSON(ctx, key, optimized, g.opts.OptimizeTTL)
	return nil
}

// nodeRetrieve runs the similarity search with the optimized (or raw)
// query. Index unavailability degrades to an empty result set; it is never
// a hard failure.
func (g *Graph) nodeRetrieve(ctx context.Context, st *RAGState) error {
	query := st.QueryOptimized
	if query == "" {
		query = st.Query
	}

	key := cache.RetrieveKey(query)
	var cached []domain.Document
	if g.cache.GetJSON(ctx, key, &cached) {
		st.Docs = cached
		return nil
	}

	docs, err := g.retriever.Search(ctx, query, g.opts.TopK)
	if err != nil {
		g.logger.Error("retrieval failed, continuing without context", zap.Error(err))
		st.Docs = nil
		return nil
	}
	st.Docs = docs
	g.cache.SetJSON(ctx, key, docs, g.opts.RetrieveTTL)
	return nil
}

// nodeBuildPrompt concatenates retrieved chunks, each annotated with its
// source, and combines them with the original query via the RAG template.
func (g *Graph) nodeBuildPrompt(_ context.Context, st *RAGState) error {
	sources := make([]prompts.SourcedText, 0, len(st.Docs))
	for _, doc := range st.Docs {
		sources = append(sources, prompts.SourcedText{
			Source: doc.Source(),
			Text:   doc.Content,
		})
	}
	st.Prompt = prompts.RenderRAG(g.opts.RAGTemplate, prompts.ContextBlock(sources), st.Query)
	return nil
}

// nodeGenerate invokes the model with the assembled prompt on the thread's
// conversation memory. Failure becomes a diagnosable answer string; the
// conversation always receives a response payload.
func (g *Graph) nodeGenerate(ctx context.Context, st *RAGState) error {
	key := cache.GenerateKey(st.Prompt)
	var cached string
	if g.cache.GetJSON(ctx, key, &cached) {
		st.Answer = cached
		return nil
	}

	answer, err := g.llm.Converse(ctx, st.ThreadID, st.Prompt)
	if err != nil {
		g.logger.Error("generation failed", zap.Error(err))
		st.Answer = fmt.Sprintf("Error generating response: %v", err)
		st.Degraded = true
		return nil
	}
	st.Answer = answer
	g.cache.SetJSON(ctx, key, answer, g.opts.GenerateTTL)
	return nil
}
