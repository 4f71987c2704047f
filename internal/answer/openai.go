package answer

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIConfig holds OpenAI backend configuration
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // empty = api.openai.com
	Model   string

	// HTTPClient overrides the transport (tests)
	HTTPClient *http.Client
}

// OpenAIBackend answers through the chat completions API
type OpenAIBackend struct {
	client openai.Client
	model  string
}

// NewOpenAIBackend creates a chat completions backend
func NewOpenAIBackend(cfg OpenAIConfig) (*OpenAIBackend, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	opts := []option.RequestOption{option.WithMaxRetries(1)}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &OpenAIBackend{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

// Name returns the backend name
func (b *OpenAIBackend) Name() string {
	return "openai/" + b.model
}

// Complete sends the conversation and returns the first choice
func (b *OpenAIBackend) Complete(ctx context.Context, messages []Message) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(b.model),
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)),
	}
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(m.Content))
		case RoleAssistant:
			params.Messages = append(params.Messages, openai.AssistantMessage(m.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		}
	}

	completion, err := b.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("chat completion returned %d", apiErr.StatusCode)
		}
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", ErrEmptyAnswer
	}
	return completion.Choices[0].Message.Content, nil
}
