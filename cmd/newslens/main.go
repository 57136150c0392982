package main

import (
	"errors"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/haneulsoft/newslens/internal/api"
	"github.com/haneulsoft/newslens/internal/app"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load .env if present; real env vars win.
	_ = godotenv.Load()

	var (
		addr        string
		configFile  string
		newsKey     string
		newsBase    string
		llmProvider string
		llmKey      string
		llmModel    string
		llmBase     string
		maxChars    int
		parallelism int
		fetchTTL    time.Duration
		verbose     bool
	)

	flag.StringVar(&addr, "addr", "", "HTTP listen address (default :8080)")
	flag.StringVar(&configFile, "config", "", "Path to YAML config file")
	flag.StringVar(&newsKey, "news.key", "", "NewsAPI key")
	flag.StringVar(&newsBase, "news.base", "", "NewsAPI base URL override")
	flag.StringVar(&llmProvider, "llm.provider", "", "LLM provider: gemini or openai")
	flag.StringVar(&llmKey, "llm.key", "", "LLM API key")
	flag.StringVar(&llmModel, "llm.model", "", "Model name")
	flag.StringVar(&llmBase, "llm.base", "", "OpenAI-compatible base URL")
	flag.IntVar(&maxChars, "max.contentChars", 0, "Maximum characters of cleaned article text sent to the model (default 4000)")
	flag.IntVar(&parallelism, "batch.parallelism", 0, "Concurrent per-article pipelines in a batch (default 4)")
	flag.DurationVar(&fetchTTL, "fetch.ttl", 0, "TTL for cached search results and scraped pages (default 5m)")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	cfg := app.Config{
		Addr:        addr,
		NewsAPIKey:  newsKey,
		NewsBaseURL: newsBase,
		LLMProvider: llmProvider,
		LLMAPIKey:   llmKey,
		LLMModel:    llmModel,
		LLMBaseURL:  llmBase,
		MaxChars:    maxChars,
		Parallelism: parallelism,
		FetchTTL:    fetchTTL,
		Verbose:     verbose,
	}
	app.ApplyEnvToConfig(&cfg)
	if configFile != "" {
		if err := app.ApplyFileToConfig(&cfg, configFile); err != nil {
			log.Fatal().Err(err).Str("path", configFile).Msg("load config file")
		}
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	services := app.NewServices(cfg)
	server := api.NewServer(services)

	log.Info().Str("addr", cfg.Addr).
		Bool("news_key_configured", cfg.NewsAPIKey != "").
		Bool("llm_key_configured", cfg.LLMAPIKey != "").
		Msg("newslens listening")

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server exited")
	}
}
