package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cloo-solutions/folio/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultEmbeddingModel is the OpenAI model used for generating embeddings
	DefaultEmbeddingModel = openai.LargeEmbedding3
	// DefaultChatModel is the model used to answer visitor questions
	DefaultChatModel = openai.GPT4oMini
	// DefaultMaxTokens caps the length of a chat reply
	DefaultMaxTokens = 2000
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = domain.NewDomainError(domain.ErrCodeValidation, "text cannot be empty")
	// ErrWrongDimensions is returned when embedding has wrong dimensions
	ErrWrongDimensions = domain.NewDomainError(domain.ErrCodeProvider, "embedding has wrong dimensions")
	// ErrNoAPIKey is returned when OpenAI API key is not set
	ErrNoAPIKey = domain.NewConfigError("OPENAI_API_KEY environment variable not set")
	// ErrEmptyReply is returned when the chat API answers without content
	ErrEmptyReply = domain.NewDomainError(domain.ErrCodeProvider, "chat completion returned no content")
)

// EmbeddingAPI defines the interface for embedding generation
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, text string) ([]float32, error)
}

// ChatAPI defines the interface for chat completion
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req ChatRequest) (string, error)
}

// ChatRequest is a single-turn completion: one system prompt and one user message.
type ChatRequest struct {
	SystemPrompt string
	UserMessage  string
}

// Client wraps the OpenAI API client
type Client struct {
	api        EmbeddingAPI
	chat       ChatAPI
	dimensions int
	timeout    time.Duration
}

type OpenAIAdapter struct {
	client      *openai.Client
	model       openai.EmbeddingModel
	chatModel   string
	maxTokens   int
	temperature float32
}

// NewOpenAIAdapter builds the go-openai backed adapter. An empty baseURL keeps
// the public OpenAI endpoint.
func NewOpenAIAdapter(cfg Config) *OpenAIAdapter {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}

	model := cfg.EmbeddingModel
	if model == "" {
		model = DefaultEmbeddingModel
	}
	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = DefaultChatModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	return &OpenAIAdapter{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		chatModel:   chatModel,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
	}
}

// CreateEmbeddings calls the OpenAI API to create embeddings
func (a *OpenAIAdapter) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: a.model,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, errors.New("no embedding data returned")
	}

	return resp.Data[0].Embedding, nil
}

// CreateChatCompletion calls the chat completions API and returns the first choice.
func (a *OpenAIAdapter) CreateChatCompletion(ctx context.Context, req ChatRequest) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.chatModel,
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserMessage},
		},
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}

	return resp.Choices[0].Message.Content, nil
}

type Config struct {
	APIKey              string
	BaseURL             string
	EmbeddingModel      openai.EmbeddingModel
	EmbeddingDimensions int
	ChatModel           string
	MaxTokens           int
	Temperature         float32
	// Timeout bounds every outbound call; zero leaves it to the caller's context.
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewClientWithConfig creates a new OpenAI client with explicit configuration.
// Dimensions are only enforced when EmbeddingDimensions is positive.
func NewClientWithConfig(cfg Config) *Client {
	adapter := NewOpenAIAdapter(cfg)
	return &Client{
		api:        adapter,
		chat:       adapter,
		dimensions: cfg.EmbeddingDimensions,
		timeout:    cfg.Timeout,
	}
}

// NewClientFromConfig validates cfg before building a client. A missing API
// key is reported as a CONFIG_ERROR instead of failing at first use.
func NewClientFromConfig(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoAPIKey
	}
	return NewClientWithConfig(cfg), nil
}


// GenerateEmbedding generates an embedding for the given text
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	embedding, err := c.api.CreateEmbeddings(ctx, text)
	if err != nil {
		return nil, domain.NewProviderError("failed to create embedding", err)
	}

	if c.dimensions > 0 && len(embedding) != c.dimensions {
		return nil, ErrWrongDimensions
	}

	return embedding, nil
}

// CompleteChat answers userMessage under systemPrompt.
func (c *Client) CompleteChat(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	if userMessage == "" {
		return "", ErrEmptyText
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	reply, err := c.chat.CreateChatCompletion(ctx, ChatRequest{
		SystemPrompt: systemPrompt,
		UserMessage:  userMessage,
	})
	if err != nil {
		if domain.HasCode(err, domain.ErrCodeProvider) {
			return "", err
		}
		return "", domain.NewProviderError("failed to create chat completion", err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", ErrEmptyReply
	}
	return reply, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}
