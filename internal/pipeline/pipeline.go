// Package pipeline orchestrates the per-article flow: fetch, extract,
// normalize, summarize, classify. Stages inside one article are strictly
// sequential (each consumes the previous stage's output); across articles
// the pipelines are independent and fan out in parallel.
package pipeline

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/haneulsoft/newslens/internal/fault"
	"github.com/haneulsoft/newslens/internal/news"
	"github.com/haneulsoft/newslens/internal/normalize"
	"github.com/haneulsoft/newslens/internal/scrape"
	"github.com/haneulsoft/newslens/internal/sentiment"
	"github.com/haneulsoft/newslens/internal/summary"
)

// DefaultParallelism bounds concurrent per-article pipelines in a batch.
const DefaultParallelism = 4

// Analyzer owns the pipeline stages. The caches inside the components are
// the only state shared across concurrent article runs.
type Analyzer struct {
	Scraper    *scrape.Client
	Summarizer *summary.Summarizer
	Sentiment  *sentiment.Analyzer
	// MaxChars bounds normalized text. Zero means normalize.DefaultMaxChars.
	MaxChars int
	// Parallelism bounds batch fan-out. Zero means DefaultParallelism.
	Parallelism int
}

// AnalyzeURL runs the whole pipeline for a single article URL.
// A page with insufficient extractable text returns (nil, nil) — the
// caller reports "not found" rather than a fault. A failed fetch is a
// hard stop; summarization and sentiment failures only degrade.
func (a *Analyzer) AnalyzeURL(ctx context.Context, url string, length summary.Length) (*news.Article, error) {
	article, err := a.Scraper.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, nil
	}
	a.Process(ctx, article, length)
	return article, nil
}

// Process fills CleanedContent, Summary and Sentiment in place. One
// stage's failure never aborts the article: summaries degrade to an
// explanatory message, sentiment to the neutral fallback.
func (a *Analyzer) Process(ctx context.Context, article *news.Article, length summary.Length) {
	article.CleanedContent = normalize.CleanArticle(article, a.MaxChars)

	if article.CleanedContent == "" {
		article.Summary = "No content to summarize."
		article.Sentiment = ptr(sentiment.Neutral())
		return
	}

	s, err := a.Summarizer.Summarize(ctx, article.CleanedContent, length)
	if err != nil {
		// Safety blocks and transport failures surface from the
		// summarizer; here the article degrades instead of dying.
		log.Warn().Err(err).Str("kind", fault.KindOf(err).String()).Str("url", article.URL).Msg("summarization failed")
		s = "Summarization failed: " + err.Error()
	}
	article.Summary = s

	article.Sentiment = ptr(a.Sentiment.Analyze(ctx, article.CleanedContent))
}

// ProcessBatch runs Process over every article with bounded parallelism.
// Articles are never shared between goroutines; the caches tolerate
// concurrent use.
func (a *Analyzer) ProcessBatch(ctx context.Context, articles []news.Article, length summary.Length) {
	limit := a.Parallelism
	if limit <= 0 {
		limit = DefaultParallelism
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range articles {
		article := &articles[i]
		g.Go(func() error {
			a.Process(ctx, article, length)
			return nil
		})
	}
	// Workers never return errors; degradation happens per article.
	_ = g.Wait()
}

func ptr(r news.SentimentResult) *news.SentimentResult { return &r }
