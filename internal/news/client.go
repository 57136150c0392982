package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"github.com/haneulsoft/newslens/internal/cache"
	"github.com/haneulsoft/newslens/internal/fault"
)

// DefaultBaseURL is the NewsAPI "everything" endpoint.
const DefaultBaseURL = "https://newsapi.org/v2/everything"

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Query describes one search against the news API. Keyword is required;
// everything else is optional filtering.
type Query struct {
	Keyword  string
	From     time.Time
	To       time.Time
	Language string
	SortBy   string // relevancy, popularity, publishedAt
	PageSize int
	// Sources restricts results to specific publisher identifiers.
	Sources []string
	// Domains / ExcludeDomains are host allow/deny lists. Deny wins upstream.
	Domains        []string
	ExcludeDomains []string
	// TitleOnly restricts keyword matching to article titles.
	TitleOnly bool
}

// Client searches NewsAPI with bounded retry, an outbound rate limiter and
// a short TTL cache so repeated identical queries within a few minutes do
// not spend quota.
type Client struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	Timeout     time.Duration
	Limiter     *rate.Limiter
	Cache       *cache.TTL

	// sleep is a test hook for the backoff between attempts.
	sleep func(time.Duration)
}

// Search returns unprocessed Articles ordered as the upstream returned
// them. Content, summary and sentiment are absent at this stage.
func (c *Client) Search(ctx context.Context, q Query) ([]Article, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, fault.New(fault.ConfigError, "news API key is required")
	}
	if strings.TrimSpace(q.Keyword) == "" {
		return nil, fault.New(fault.ConfigError, "search keyword is required")
	}
	reqURL, err := c.buildURL(q)
	if err != nil {
		return nil, err
	}

	cacheKey := cache.KeyFrom("search", reqURL)
	if c.Cache != nil {
		if raw, ok := c.Cache.Get(cacheKey); ok {
			var cached []Article
			if err := json.Unmarshal(raw, &cached); err == nil {
				log.Debug().Str("keyword", q.Keyword).Msg("search served from cache")
				return cached, nil
			}
		}
	}

	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if c.Limiter != nil {
			if err := c.Limiter.Wait(ctx); err != nil {
				return nil, fault.Wrap(fault.UpstreamUnavailable, err, "rate limiter wait")
			}
		}
		articles, err := c.tryOnce(ctx, reqURL)
		if err == nil {
			if c.Cache != nil {
				if raw, merr := json.Marshal(articles); merr == nil {
					c.Cache.Set(cacheKey, raw)
				}
			}
			return articles, nil
		}
		lastErr = err
		if !fault.IsRetriable(err) || i == attempts-1 {
			return nil, err
		}
		wait := backoff(i)
		log.Warn().Err(err).Dur("backoff", wait).Int("attempt", i+1).Msg("search attempt failed, retrying")
		c.pause(wait)
	}
	return nil, lastErr
}

func (c *Client) buildURL(q Query) (string, error) {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fault.Wrap(fault.ConfigError, err, "bad news API base URL")
	}
	size := q.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	sort := q.SortBy
	if sort == "" {
		sort = "publishedAt"
	}
	v := u.Query()
	v.Set("q", q.Keyword)
	v.Set("pageSize", fmt.Sprintf("%d", size))
	v.Set("sortBy", sort)
	if q.Language != "" {
		tag, err := language.Parse(q.Language)
		if err != nil {
			return "", fault.Wrap(fault.ConfigError, err, "invalid language %q", q.Language)
		}
		b, _ := tag.Base()
		v.Set("language", b.String())
	}
	if !q.From.IsZero() {
		v.Set("from", q.From.Format("2006-01-02"))
	}
	if !q.To.IsZero() {
		v.Set("to", q.To.Format("2006-01-02"))
	}
	if len(q.Sources) > 0 {
		v.Set("sources", strings.Join(q.Sources, ","))
	}
	if len(q.Domains) > 0 {
		v.Set("domains", strings.Join(q.Domains, ","))
	}
	if len(q.ExcludeDomains) > 0 {
		v.Set("excludeDomains", strings.Join(q.ExcludeDomains, ","))
	}
	if q.TitleOnly {
		v.Set("searchIn", "title")
	}
	u.RawQuery = v.Encode()
	return u.String(), nil
}

func (c *Client) tryOnce(ctx context.Context, reqURL string) ([]Article, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fault.Wrap(fault.UpstreamError, err, "new request")
	}
	// The key goes in a header, not the query string, so it never lands in
	// logs or cache keys.
	req.Header.Set("X-Api-Key", c.APIKey)

	hc := c.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	resp, err := hc.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fault.Wrap(fault.UpstreamUnavailable, err, "news API timed out")
		}
		return nil, fault.Wrap(fault.UpstreamUnavailable, err, "news API request")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fault.New(fault.RateLimited, "news API quota exceeded (429)")
	case resp.StatusCode >= 500:
		return nil, fault.New(fault.UpstreamUnavailable, "news API server error: %d", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fault.New(fault.UpstreamError, "news API status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fault.Wrap(fault.UpstreamError, err, "decode news API response")
	}
	out := make([]Article, 0, len(sr.Articles))
	for _, a := range sr.Articles {
		if a.URL == "" {
			continue
		}
		out = append(out, Article{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			SourceName:  a.Source.Name,
			PublishedAt: a.PublishedAt,
			RawContent:  a.Content,
		})
	}
	return out, nil
}

func (c *Client) pause(d time.Duration) {
	if c.sleep != nil {
		c.sleep(d)
		return
	}
	time.Sleep(d)
}

// backoff doubles per attempt: 500ms, 1s, 2s, ...
func backoff(attempt int) time.Duration {
	return 500 * time.Millisecond << attempt
}

type searchResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Source struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Content     string `json:"content"`
	} `json:"articles"`
}
