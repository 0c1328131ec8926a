package openai

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/nyaya-labs/sahayak/internal/domain"
)

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(openai.EmbeddingResponse), args.Error(1)
}

func (m *MockAPI) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(openai.ChatCompletionResponse), args.Error(1)
}

func newTestClient(api completionAPI, dims int) *Client {
	return &Client{
		api:             api,
		embeddingModel:  DefaultEmbeddingModel,
		generationModel: DefaultGenerationModel,
		dimensions:      dims,
	}
}

func embeddingOf(dim int, fill float32) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = fill
	}
	return v
}

func TestEmbedBatch_PreservesInputOrder(t *testing.T) {
	api := new(MockAPI)
	client := newTestClient(api, 3)

	// Response arrives out of order; the index field is authoritative.
	api.On("CreateEmbeddings", mock.Anything, mock.Anything).Return(openai.EmbeddingResponse{
		Data: []openai.Embedding{
			{Index: 1, Embedding: []float32{0, 1, 0}},
			{Index: 0, Embedding: []float32{1, 0, 0}},
		},
	}, nil)

	vectors, err := client.EmbedBatch(context.Background(), []string{"first", "second"})

	assert.NoError(t, err)
	assert.Len(t, vectors, 2)
	assert.Equal(t, []float32{1, 0, 0}, vectors[0])
	assert.Equal(t, []float32{0, 1, 0}, vectors[1])
	api.AssertNumberOfCalls(t, "CreateEmbeddings", 1)
}

func TestEmbedBatch_EmptyInput(t *testing.T) {
	api := new(MockAPI)
	client := newTestClient(api, 3)

	vectors, err := client.EmbedBatch(context.Background(), nil)

	assert.NoError(t, err)
	assert.Empty(t, vectors)
	api.AssertNotCalled(t, "CreateEmbeddings")
}

func TestEmbedBatch_EmptyText(t *testing.T) {
	api := new(MockAPI)
	client := newTestClient(api, 3)

	_, err := client.EmbedBatch(context.Background(), []string{"ok", ""})

	assert.Equal(t, ErrEmptyText, err)
	api.AssertNotCalled(t, "CreateEmbeddings")
}

func TestEmbedBatch_CountMismatch(t *testing.T) {
	api := new(MockAPI)
	client := newTestClient(api, 3)

	api.On("CreateEmbeddings", mock.Anything, mock.Anything).Return(openai.EmbeddingResponse{
		Data: []openai.Embedding{{Index: 0, Embedding: []float32{1, 0, 0}}},
	}, nil)

	_, err := client.EmbedBatch(context.Background(), []string{"a", "b"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "1 embeddings for 2 inputs")
}

func TestEmbedBatch_WrongDimensions(t *testing.T) {
	api := new(MockAPI)
	client := newTestClient(api, 1536)

	api.On("CreateEmbeddings", mock.Anything, mock.Anything).Return(openai.EmbeddingResponse{
		Data: []openai.Embedding{{Index: 0, Embedding: embeddingOf(8, 0.1)}},
	}, nil)

	_, err := client.EmbedBatch(context.Background(), []string{"text"})

	assert.Error(t, err)
	assert.True(t, domain.IsConfiguration(err))
}

func TestEmbedBatch_RetriesOnceOnRateLimit(t *testing.T) {
	api := new(MockAPI)
	client := newTestClient(api, 3)

	rateLimited := &openai.APIError{HTTPStatusCode: 429, Message: "rate limited"}
	api.On("CreateEmbeddings", mock.Anything, mock.Anything).Return(openai.EmbeddingResponse{}, rateLimited).Once()
	api.On("CreateEmbeddings", mock.Anything, mock.Anything).Return(openai.EmbeddingResponse{
		Data: []openai.Embedding{{Index: 0, Embedding: []float32{1, 0, 0}}},
	}, nil).Once()

	vectors, err := client.EmbedBatch(context.Background(), []string{"text"})

	assert.NoError(t, err)
	assert.Len(t, vectors, 1)
	api.AssertNumberOfCalls(t, "CreateEmbeddings", 2)
}

func TestEmbedBatch_TransientAfterRetryIsSurfaced(t *testing.T) {
	api := new(MockAPI)
	client := newTestClient(api, 3)

	serverErr := &openai.APIError{HTTPStatusCode: 503, Message: "overloaded"}
	api.On("CreateEmbeddings", mock.Anything, mock.Anything).Return(openai.EmbeddingResponse{}, serverErr)

	_, err := client.EmbedBatch(context.Background(), []string{"text"})

	assert.Error(t, err)
	assert.True(t, domain.IsTransient(err))
	// One bounded retry, never more.
	api.AssertNumberOfCalls(t, "CreateEmbeddings", 2)
}

func TestEmbedBatch_NonTransientNotRetried(t *testing.T) {
	api := new(MockAPI)
	client := newTestClient(api, 3)

	badRequest := &openai.APIError{HTTPStatusCode: 400, Message: "bad input"}
	api.On("CreateEmbeddings", mock.Anything, mock.Anything).Return(openai.EmbeddingResponse{}, badRequest)

	_, err := client.EmbedBatch(context.Background(), []string{"text"})

	assert.Error(t, err)
	assert.False(t, domain.IsTransient(err))
	api.AssertNumberOfCalls(t, "CreateEmbeddings", 1)
}

func TestComplete_Success(t *testing.T) {
	api := new(MockAPI)
	client := newTestClient(api, 3)

	api.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return len(req.Messages) == 2 &&
			req.Messages[0].Role == openai.ChatMessageRoleSystem &&
			req.Messages[1].Role == openai.ChatMessageRoleUser
	})).Return(openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: "the answer"}},
		},
	}, nil)

	out, err := client.Complete(context.Background(), "system", "user", 500)

	assert.NoError(t, err)
	assert.Equal(t, "the answer", out)
}

func TestComplete_NoChoices(t *testing.T) {
	api := new(MockAPI)
	client := newTestClient(api, 3)

	api.On("CreateChatCompletion", mock.Anything, mock.Anything).Return(openai.ChatCompletionResponse{}, nil)

	_, err := client.Complete(context.Background(), "system", "user", 500)

	assert.Error(t, err)
}

func TestNewClientFromEnv_MissingKey(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")

	_, err := NewClientFromEnv()

	assert.Error(t, err)
	assert.True(t, domain.IsConfiguration(err))
	assert.True(t, errors.Is(err, ErrNoAPIKey))
}
