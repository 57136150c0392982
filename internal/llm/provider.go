package llm

import (
	"context"
	"strings"

	"github.com/haneulsoft/newslens/internal/fault"
)

// CompletionOptions tune a single model call.
type CompletionOptions struct {
	// System sets the system message for chat-shaped backends.
	System string
	// MaxTokens bounds the response length. Zero means backend default.
	MaxTokens int
	// Temperature in [0,2]. Summaries run warmer than classification.
	Temperature float32
	// JSONMode asks the backend for a JSON object response where supported.
	JSONMode bool
}

// Provider is the capability interface every model backend implements.
// The model is treated as an untrusted, unreliable peer: callers validate
// everything it returns before use. A declined/blocked response surfaces
// as a fault.SafetyBlocked error, never as silently empty output.
type Provider interface {
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)
	Name() string
}

// Config selects and parameterizes a provider.
type Config struct {
	Provider string // "openai" or "gemini"
	APIKey   string
	Model    string
	BaseURL  string // OpenAI-compatible base URL, optional
}

// New builds the configured provider. Missing credentials are a
// ConfigError; an unknown provider name as well.
func New(cfg Config) (Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fault.New(fault.ConfigError, "LLM API key is required")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "gemini":
		return NewGemini(cfg.APIKey, cfg.Model), nil
	case "openai":
		return NewOpenAI(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	default:
		return nil, fault.New(fault.ConfigError, "unsupported LLM provider %q", cfg.Provider)
	}
}
