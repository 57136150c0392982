package app

import "time"

// Config holds runtime configuration for the service. Precedence is
// flags > environment > config file; deployment-level values override
// per-request values supplied through the API.
type Config struct {
	// HTTP
	Addr string

	// News search
	NewsAPIKey  string
	NewsBaseURL string

	// LLM
	LLMProvider string
	LLMAPIKey   string
	LLMModel    string
	LLMBaseURL  string

	// Pipeline
	MaxChars    int
	Parallelism int

	// Fetch caching
	FetchTTL time.Duration

	// Behavior
	Verbose bool
}
