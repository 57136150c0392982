package app

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config for YAML decoding.
type fileConfig struct {
	Addr string `yaml:"addr"`
	News struct {
		APIKey  string `yaml:"api_key"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"news"`
	LLM struct {
		Provider string `yaml:"provider"`
		APIKey   string `yaml:"api_key"`
		Model    string `yaml:"model"`
		BaseURL  string `yaml:"base_url"`
	} `yaml:"llm"`
	MaxChars    int    `yaml:"max_content_chars"`
	Parallelism int    `yaml:"batch_parallelism"`
	FetchTTL    string `yaml:"fetch_cache_ttl"`
	Verbose     bool   `yaml:"verbose"`
}

// ApplyFileToConfig merges a YAML config file into unset fields of cfg.
// Flags and env keep precedence; the file only fills gaps.
func ApplyFileToConfig(cfg *Config, path string) error {
	if cfg == nil || path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if cfg.Addr == "" {
		cfg.Addr = fc.Addr
	}
	if cfg.NewsAPIKey == "" {
		cfg.NewsAPIKey = fc.News.APIKey
	}
	if cfg.NewsBaseURL == "" {
		cfg.NewsBaseURL = fc.News.BaseURL
	}
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = fc.LLM.Provider
	}
	if cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = fc.LLM.APIKey
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = fc.LLM.Model
	}
	if cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = fc.LLM.BaseURL
	}
	if cfg.MaxChars == 0 {
		cfg.MaxChars = fc.MaxChars
	}
	if cfg.Parallelism == 0 {
		cfg.Parallelism = fc.Parallelism
	}
	if cfg.FetchTTL == 0 && fc.FetchTTL != "" {
		if d, err := time.ParseDuration(fc.FetchTTL); err == nil && d > 0 {
			cfg.FetchTTL = d
		}
	}
	if fc.Verbose {
		cfg.Verbose = true
	}
	return nil
}
