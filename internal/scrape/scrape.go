package scrape

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/haneulsoft/newslens/internal/cache"
	"github.com/haneulsoft/newslens/internal/extract"
	"github.com/haneulsoft/newslens/internal/fault"
	"github.com/haneulsoft/newslens/internal/news"
)

// BrowserUserAgent identifies the fetcher as a regular browser to reduce
// anti-scraping rejection.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Client fetches a single article page by URL. Network-level failures are
// retried with exponential backoff; HTTP error statuses are not. A page
// that yields insufficient extractable text returns (nil, nil) — "not
// found" is a policy decision, not a fault.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// Timeout bounds each request.
	Timeout time.Duration
	// RedirectMaxHops caps redirect following. Zero means default (5).
	RedirectMaxHops int
	// Cache holds raw page bodies for a short TTL.
	Cache *cache.TTL

	sleep func(time.Duration) // test hook
}

// Fetch GETs the page and extracts article content and metadata.
func (c *Client) Fetch(ctx context.Context, pageURL string) (*news.Article, error) {
	u, err := url.Parse(pageURL)
	if err != nil || !isHTTPScheme(u) {
		return nil, fault.New(fault.ConfigError, "unsupported URL: %q", pageURL)
	}

	body, err := c.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	page, ok := extract.FromHTML(body, pageURL)
	if !ok {
		log.Debug().Str("url", pageURL).Msg("page yielded insufficient extractable text")
		return nil, nil
	}
	return &news.Article{
		Title:       page.Title,
		Description: page.Description,
		URL:         pageURL,
		SourceName:  page.SourceName,
		PublishedAt: page.PublishedAt,
		RawContent:  page.Content,
	}, nil
}

func (c *Client) get(ctx context.Context, pageURL string) ([]byte, error) {
	cacheKey := cache.KeyFrom("page", pageURL)
	if c.Cache != nil {
		if body, ok := c.Cache.Get(cacheKey); ok {
			return body, nil
		}
	}

	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		body, err := c.tryOnce(ctx, pageURL)
		if err == nil {
			if c.Cache != nil {
				c.Cache.Set(cacheKey, body)
			}
			return body, nil
		}
		lastErr = err
		// Only network-level conditions are transient; an HTTP error
		// status will not change on the next attempt.
		if !fault.IsRetriable(err) || i == attempts-1 {
			return nil, err
		}
		wait := 500 * time.Millisecond << i
		log.Warn().Err(err).Dur("backoff", wait).Str("url", pageURL).Msg("fetch attempt failed, retrying")
		c.pause(wait)
	}
	return nil, lastErr
}

func (c *Client) tryOnce(ctx context.Context, pageURL string) ([]byte, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fault.Wrap(fault.UpstreamError, err, "new request")
	}
	ua := c.UserAgent
	if ua == "" {
		ua = BrowserUserAgent
	}
	req.Header.Set("User-Agent", ua)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fault.Wrap(fault.UpstreamUnavailable, err, "fetch timed out: %s", pageURL)
		}
		return nil, fault.Wrap(fault.UpstreamUnavailable, err, "fetch %s", pageURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fault.New(fault.UpstreamError, "fetch %s: status %d", pageURL, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fault.Wrap(fault.UpstreamUnavailable, err, "read body")
	}
	return body, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{Timeout: c.Timeout, CheckRedirect: c.checkRedirectFunc()}
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		if req.URL == nil || !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func (c *Client) pause(d time.Duration) {
	if c.sleep != nil {
		c.sleep(d)
		return
	}
	time.Sleep(d)
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}
