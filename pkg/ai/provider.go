// Package ai provides AI provider integration for the specforge project.
//
// This package implements a provider-agnostic interface for chat completions
// against OpenAI, Azure OpenAI, and Ollama. Providers are stateless: every
// call carries the full conversation, and consecutive same-role messages are
// merged before dispatch so the wire payload always alternates roles.
package ai

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"thoreinstein.com/specforge/pkg/config"
	forgeerrors "thoreinstein.com/specforge/pkg/errors"
)

// Message represents a conversation message.
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// Response from AI provider.
type Response struct {
	Content      string
	StopReason   string // "stop", "length", etc.
	InputTokens  int
	OutputTokens int
}

// Provider interface for AI operations.
type Provider interface {
	// IsAvailable checks if provider is available and configured.
	IsAvailable() bool

	// Chat performs a single-turn chat completion.
	Chat(ctx context.Context, messages []Message) (*Response, error)

	// Name returns the provider name.
	Name() string
}

// Provider name constants.
const (
	ProviderOpenAI = "openai"
	ProviderAzure  = "azure-openai"
	ProviderOllama = "ollama"
)

// MergeConsecutive combines adjacent messages that share the same role.
//
// Chat providers expect user/assistant roles to alternate. When higher-level
// code emits multiple messages from the same role back-to-back (for example,
// a transcript followed by a control instruction), their content is merged to
// preserve intent while keeping the required alternation.
func MergeConsecutive(messages []Message) []Message {
	merged := make([]Message, 0, len(messages))
	for _, message := range messages {
		if len(merged) > 0 && merged[len(merged)-1].Role == message.Role {
			previous := &merged[len(merged)-1]
			previous.Content = strings.TrimSpace(previous.Content + "\n\n" + message.Content)
			continue
		}
		merged = append(merged, message)
	}
	return merged
}

// NewProvider creates an AI provider based on config.
// Environment variables take precedence over config file values for API keys.
// When model is empty, provider-specific default models from config are used.
func NewProvider(cfg *config.AIConfig, verbose bool) (Provider, error) {
	if cfg == nil {
		return nil, forgeerrors.NewConfigError("ai", "config is nil")
	}

	var logger *slog.Logger
	if verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		apiKey := resolveAPIKey("OPENAI_API_KEY", cfg.APIKey)
		if apiKey == "" {
			return nil, forgeerrors.NewConfigError("ai.api_key",
				"OpenAI API key not set (set OPENAI_API_KEY or ai.api_key in config)")
		}
		model := cfg.Model
		if model == "" {
			model = cfg.OpenAIModel
		}
		return NewOpenAIProvider(apiKey, model, cfg.Endpoint, logger), nil

	case ProviderAzure:
		apiKey := resolveAPIKey("AZURE_OPENAI_API_KEY", cfg.APIKey)
		if apiKey == "" {
			return nil, forgeerrors.NewConfigError("ai.api_key",
				"Azure OpenAI API key not set (set AZURE_OPENAI_API_KEY or ai.api_key in config)")
		}
		if cfg.Endpoint == "" {
			return nil, forgeerrors.NewConfigError("ai.endpoint",
				"Azure OpenAI endpoint is required for the azure-openai provider")
		}
		model := cfg.Model
		if model == "" {
			model = cfg.AzureModel
		}
		return NewAzureProvider(apiKey, model, cfg.Endpoint, cfg.APIVersion, logger), nil

	case ProviderOllama:
		model := cfg.Model
		if model == "" {
			model = cfg.OllamaModel
		}
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = cfg.OllamaEndpoint
		}
		return NewOllamaProvider(endpoint, model, logger), nil

	default:
		return nil, forgeerrors.NewConfigError("ai.provider",
			"unsupported AI provider: "+cfg.Provider+" (supported: openai, azure-openai, ollama)")
	}
}

// resolveAPIKey returns the API key from the named environment variable if
// set, otherwise falls back to the config value.
func resolveAPIKey(envVar, configKey string) string {
	if envKey := os.Getenv(envVar); envKey != "" {
		return envKey
	}
	return configKey
}
