package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment
// variables. Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Addr == "" {
		cfg.Addr = os.Getenv("NEWSLENS_ADDR")
	}

	if cfg.NewsAPIKey == "" {
		cfg.NewsAPIKey = os.Getenv("NEWS_API_KEY")
	}
	if cfg.NewsBaseURL == "" {
		cfg.NewsBaseURL = os.Getenv("NEWS_API_BASE")
	}

	if cfg.LLMProvider == "" {
		cfg.LLMProvider = os.Getenv("LLM_PROVIDER")
	}
	if cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = os.Getenv("LLM_API_KEY")
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = os.Getenv("LLM_MODEL")
	}
	if cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = os.Getenv("LLM_API_BASE")
	}

	if cfg.MaxChars == 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("MAX_CONTENT_CHARS"))); err == nil && n > 0 {
			cfg.MaxChars = n
		}
	}
	if cfg.Parallelism == 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("BATCH_PARALLELISM"))); err == nil && n > 0 {
			cfg.Parallelism = n
		}
	}
	if cfg.FetchTTL == 0 {
		if d, err := time.ParseDuration(os.Getenv("FETCH_CACHE_TTL")); err == nil && d > 0 {
			cfg.FetchTTL = d
		}
	}

	if !cfg.Verbose {
		switch strings.ToLower(strings.TrimSpace(os.Getenv("VERBOSE"))) {
		case "1", "true", "yes", "on":
			cfg.Verbose = true
		}
	}
}
