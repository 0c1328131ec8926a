package openai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/nyaya-labs/sahayak/internal/domain"
)

const (
	// DefaultEmbeddingModel is the model used for generating embeddings
	DefaultEmbeddingModel = openai.SmallEmbedding3
	// DefaultGenerationModel is the chat model used for analysis and synthesis
	DefaultGenerationModel = "openai/gpt-4o-mini"
	// DefaultEmbeddingDimensions is the expected embedding dimension
	DefaultEmbeddingDimensions = 1536

	// retryBackoff is the single backoff applied before the one bounded
	// retry on a transient provider error.
	retryBackoff = 500 * time.Millisecond
)

var (
	// ErrEmptyText is returned when a text to embed is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrNoAPIKey is returned when the provider API key is not set
	ErrNoAPIKey = domain.ErrMissingAPIKey
)

// completionAPI is the slice of the provider API the client depends on
type completionAPI interface {
	CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config holds explicit provider configuration; no process-wide client.
type Config struct {
	APIKey              string
	BaseURL             string
	EmbeddingModel      openai.EmbeddingModel
	GenerationModel     string
	EmbeddingDimensions int
}

// Client wraps an OpenAI-compatible API for embeddings and chat generation.
type Client struct {
	api             completionAPI
	embeddingModel  openai.EmbeddingModel
	generationModel string
	dimensions      int
}

// NewClient creates a client using defaults for everything but the key.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	embeddingModel := cfg.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}
	generationModel := cfg.GenerationModel
	if generationModel == "" {
		generationModel = DefaultGenerationModel
	}
	dimensions := cfg.EmbeddingDimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}

	return &Client{
		api:             openai.NewClientWithConfig(apiCfg),
		embeddingModel:  embeddingModel,
		generationModel: generationModel,
		dimensions:      dimensions,
	}
}

// NewClientFromEnv creates a client using the LLM_API_KEY environment variable
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("LLM_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewClient(apiKey), nil
}

// Dimensions returns the embedding dimension this client is configured for.
func (c *Client) Dimensions() int {
	return c.dimensions
}

// EmbedBatch embeds the given texts in one provider call, preserving input
// order and length. The whole batch succeeds or the whole batch fails;
// there is no per-item partial outcome.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	for _, t := range texts {
		if t == "" {
			return nil, ErrEmptyText
		}
	}

	var resp openai.EmbeddingResponse
	err := c.withRetry(ctx, func() error {
		var callErr error
		resp, callErr = c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: texts,
			Model: c.embeddingModel,
		})
		return callErr
	})
	if err != nil {
		return nil, classifyProviderError("create embeddings", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("provider returned %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	// The API reports an index per item; order by it rather than trusting
	// response order.
	data := make([]openai.Embedding, len(resp.Data))
	copy(data, resp.Data)
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	out := make([][]float32, len(data))
	for i, d := range data {
		if len(d.Embedding) != c.dimensions {
			return nil, domain.NewDomainErrorWithCause(
				domain.ErrCodeConfiguration,
				"embedding dimension does not match index",
				fmt.Errorf("got %d, expected %d", len(d.Embedding), c.dimensions),
			)
		}
		out[i] = d.Embedding
	}

	return out, nil
}

// Embed embeds a single text. Equivalent to a one-element EmbedBatch.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// Complete runs one chat completion with a system and a user prompt.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	var resp openai.ChatCompletionResponse
	err := c.withRetry(ctx, func() error {
		var callErr error
		resp, callErr = c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.generationModel,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userPrompt},
			},
			Temperature: 0.7,
			MaxTokens:   maxTokens,
		})
		return callErr
	})
	if err != nil {
		return "", classifyProviderError("chat completion", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}

	return resp.Choices[0].Message.Content, nil
}

// withRetry applies at most one bounded retry with backoff to a transient
// provider failure. Anything else surfaces immediately.
func (c *Client) withRetry(ctx context.Context, call func() error) error {
	err := call()
	if err == nil || !isTransient(err) {
		return err
	}

	select {
	case <-time.After(retryBackoff):
	case <-ctx.Done():
		return ctx.Err()
	}

	return call()
}

func isTransient(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	return false
}

func classifyProviderError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || isTransient(err) {
		return domain.NewDomainErrorWithCause(domain.ErrCodeTransient, "model provider unavailable", fmt.Errorf("%s: %w", op, err))
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
