package ai

import (
	"context"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	forgeerrors "thoreinstein.com/specforge/pkg/errors"
)

const openaiMaxTokens = 4096

// completionClient is the subset of the go-openai client used here.
// It exists so tests can inject a scripted implementation.
type completionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIProvider implements Provider for OpenAI-compatible chat APIs,
// covering both the public OpenAI endpoint and Azure OpenAI deployments.
type OpenAIProvider struct {
	name   string
	model  string
	apiKey string
	logger *slog.Logger
	client completionClient
}

// NewOpenAIProvider creates a provider for the public OpenAI API.
// A non-empty baseURL overrides the default endpoint for compatible gateways.
func NewOpenAIProvider(apiKey, model, baseURL string, logger *slog.Logger) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{
		name:   ProviderOpenAI,
		model:  model,
		apiKey: apiKey,
		logger: logger,
		client: openai.NewClientWithConfig(cfg),
	}
}

// NewAzureProvider creates a provider for an Azure OpenAI deployment.
func NewAzureProvider(apiKey, deployment, endpoint, apiVersion string, logger *slog.Logger) *OpenAIProvider {
	cfg := openai.DefaultAzureConfig(apiKey, endpoint)
	if apiVersion != "" {
		cfg.APIVersion = apiVersion
	}
	return &OpenAIProvider{
		name:   ProviderAzure,
		model:  deployment,
		apiKey: apiKey,
		logger: logger,
		client: openai.NewClientWithConfig(cfg),
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return p.name
}

// IsAvailable checks if the provider is configured and ready.
func (p *OpenAIProvider) IsAvailable() bool {
	return p.apiKey != "" && p.model != ""
}

// Chat performs a single-turn chat completion.
func (p *OpenAIProvider) Chat(ctx context.Context, messages []Message) (*Response, error) {
	if !p.IsAvailable() {
		return nil, forgeerrors.NewAIError(p.name, "Chat", "provider not configured")
	}

	merged := MergeConsecutive(messages)
	apiMessages := make([]openai.ChatCompletionMessage, 0, len(merged))
	for _, msg := range merged {
		apiMessages = append(apiMessages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	p.logDebug("sending chat request", "model", p.model, "message_count", len(apiMessages))

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     p.model,
		MaxTokens: openaiMaxTokens,
		Messages:  apiMessages,
	})
	if err != nil {
		var apiErr *openai.APIError
		if forgeerrors.As(err, &apiErr) {
			return nil, forgeerrors.NewAIErrorWithStatus(p.name, "Chat",
				apiErr.HTTPStatusCode, apiErr.Message)
		}
		return nil, forgeerrors.NewAIErrorWithCause(p.name, "Chat",
			"chat completion failed", err)
	}

	if len(resp.Choices) == 0 {
		return nil, forgeerrors.NewAIError(p.name, "Chat", "response contained no choices")
	}

	choice := resp.Choices[0]

	p.logDebug("received response",
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	return &Response{
		Content:      choice.Message.Content,
		StopReason:   string(choice.FinishReason),
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

// logDebug logs a debug message if verbose logging is enabled.
func (p *OpenAIProvider) logDebug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}
