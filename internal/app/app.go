package app

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/haneulsoft/newslens/internal/cache"
	"github.com/haneulsoft/newslens/internal/llm"
	"github.com/haneulsoft/newslens/internal/news"
	"github.com/haneulsoft/newslens/internal/pipeline"
	"github.com/haneulsoft/newslens/internal/scrape"
	"github.com/haneulsoft/newslens/internal/sentiment"
	"github.com/haneulsoft/newslens/internal/summary"
)

// Services bundles the long-lived components. The caches live here for
// the whole service lifetime and are shared by every request; there is no
// package-level mutable state anywhere in the pipeline.
type Services struct {
	Config     Config
	News       *news.Client
	Scraper    *scrape.Client
	LLMCache   *cache.Memo
	FetchCache *cache.TTL
}

// NewServices wires the fetchers and caches from cfg. The LLM provider is
// resolved per request (credentials may come from the deployment or the
// request body), so analyzers are built later via NewAnalyzer.
func NewServices(cfg Config) *Services {
	fetchCache := cache.NewTTL(cfg.FetchTTL)

	httpClient := &http.Client{Timeout: 30 * time.Second}

	return &Services{
		Config:     cfg,
		FetchCache: fetchCache,
		LLMCache:   cache.NewMemo(),
		News: &news.Client{
			APIKey:     cfg.NewsAPIKey,
			BaseURL:    cfg.NewsBaseURL,
			HTTPClient: httpClient,
			Timeout:    10 * time.Second,
			// NewsAPI free tier allows bursts but throttles sustained use.
			Limiter: rate.NewLimiter(rate.Every(time.Second), 5),
			Cache:   fetchCache,
		},
		Scraper: &scrape.Client{
			HTTPClient: httpClient,
			Timeout:    15 * time.Second,
			Cache:      fetchCache,
		},
	}
}

// NewAnalyzer builds a pipeline analyzer around the resolved provider
// configuration, sharing the service-lifetime caches.
func (s *Services) NewAnalyzer(providerCfg llm.Config) (*pipeline.Analyzer, error) {
	provider, err := llm.New(providerCfg)
	if err != nil {
		return nil, err
	}
	return &pipeline.Analyzer{
		Scraper:     s.Scraper,
		Summarizer:  &summary.Summarizer{Provider: provider, Cache: s.LLMCache},
		Sentiment:   &sentiment.Analyzer{Provider: provider, Cache: s.LLMCache},
		MaxChars:    s.Config.MaxChars,
		Parallelism: s.Config.Parallelism,
	}, nil
}
