// Package llm wraps the hosted Gemini model: stateless completions, a cheap
// retrieval-gate classification call, embeddings, and per-thread
// conversation sessions with in-process history.
package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"assistant/internal/config"
)

const gateSystemInstruction = "You are a classifier. Decide if the user's question requires information from documents.\n" +
	"If the question can be answered without documents, respond ONLY with 'NO_RAG'.\n" +
	"If the question requires information from the documents, respond ONLY with 'USE_RAG'."

const gateDecisionNoRAG = "NO_RAG"

// Client talks to Gemini. Conversation sessions are kept in-process per
// thread id; they are lost on restart.
type Client struct {
	client         *genai.Client
	modelName      string
	embeddingModel string
	temperature    float32
	topK           int32
	topP           float32
	systemPrompt   string
	logger         *zap.Logger

	mu       sync.Mutex
	sessions map[string]*genai.ChatSession
}

// New creates a Gemini client from the LLM and RAG configuration sections.
func New(ctx context.Context, llmCfg config.LLMConfig, embeddingModel, systemPrompt string, logger *zap.Logger) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(llmCfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Client{
		client:         client,
		modelName:      llmCfg.ModelName,
		embeddingModel: embeddingModel,
		temperature:    llmCfg.Temperature,
		topK:           llmCfg.TopK,
		topP:           llmCfg.TopP,
		systemPrompt:   systemPrompt,
		logger:         logger,
		sessions:       make(map[string]*genai.ChatSession),
	}, nil
}

// Close releases the underlying client.
func (c *Client) Close() error {
	return c.client.Close()
}

// Embed returns the embedding vector for a piece of text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	em := c.client.EmbeddingModel(c.embeddingModel)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	return res.Embedding.Values, nil
}

// Classify decides whether a query needs document retrieval.
func (c *Client) Classify(ctx context.Context, query string) (bool, error) {
	model := c.client.GenerativeModel(c.modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(gateSystemInstruction)},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(query))
	if err != nil {
		return false, fmt.Errorf("gate classification failed: %w", err)
	}
	decision := strings.TrimSpace(responseText(resp))
	return decision != gateDecisionNoRAG, nil
}

// Complete runs a single stateless completion.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	model := c.generativeModel()
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}
	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("empty completion response")
	}
	return text, nil
}

// Converse sends a message on the conversation session for the given thread,
// creating the session on first use. History accumulates per thread.
func (c *Client) Converse(ctx context.Context, threadID, message string) (string, error) {
	session := c.session(threadID)
	resp, err := session.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", fmt.Errorf("conversation turn failed: %w", err)
	}
	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("empty conversation response")
	}
	return text, nil
}

func (c *Client) generativeModel() *genai.GenerativeModel {
	model := c.client.GenerativeModel(c.modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(c.systemPrompt)},
	}
	temp := c.temperature
	topP := c.topP
	topK := c.topK
	model.GenerationConfig = genai.GenerationConfig{
		Temperature: &temp,
		TopP:        &topP,
		TopK:        &topK,
	}
	return model
}

func (c *Client) session(threadID string) *genai.ChatSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.sessions[threadID]; ok {
		return s
	}
	s := c.generativeModel().StartChat()
	c.sessions[threadID] = s
	return s
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}
