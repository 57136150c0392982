package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/haneulsoft/newslens/internal/app"
	"github.com/haneulsoft/newslens/internal/news"
)

const newsAPIResponse = `{
  "status": "ok",
  "totalResults": 1,
  "articles": [
    {
      "source": {"id": "example", "name": "Example News"},
      "title": "AI breakthrough announced",
      "description": "Researchers announce a new model.",
      "url": "https://example.com/ai",
      "publishedAt": "2024-05-01T09:00:00Z",
      "content": "Full article body here."
    }
  ]
}`

const articlePage = `<!doctype html>
<html>
  <head>
    <title>Quarterly results beat expectations</title>
    <meta property="og:site_name" content="Finance Wire">
  </head>
  <body>
    <article class="article-content">
      The company reported quarterly results well above analyst
      expectations, driven by strong demand across all segments. The
      management raised guidance for the remainder of the year and
      announced an expanded buyback program, sending shares higher in
      after-hours trading.
    </article>
  </body>
</html>`

// fakeModelServer emulates an OpenAI-compatible chat completion endpoint.
// Sentiment prompts are recognized by the Likert instruction; everything
// else is treated as a summarization request.
func fakeModelServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		content := "- strong quarterly results\n- guidance raised\nConclusion: a clearly positive report."
		if bytes.Contains(body, []byte("Likert")) {
			content = `{"score": 5}`
		}
		resp := map[string]any{
			"id":     "cmpl-test",
			"object": "chat.completion",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": content},
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func newTestServer(t *testing.T, cfg app.Config) *Server {
	t.Helper()
	return NewServer(app.NewServices(cfg))
}

func TestHandleSearch_ReturnsUnprocessedArticles(t *testing.T) {
	newsAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(newsAPIResponse))
	}))
	defer newsAPI.Close()

	srv := newTestServer(t, app.Config{NewsAPIKey: "k", NewsBaseURL: newsAPI.URL})
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?q=AI", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var articles []news.Article
	if err := json.Unmarshal(rec.Body.Bytes(), &articles); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	if articles[0].Summary != "" || articles[0].Sentiment != nil {
		t.Fatal("plain search must not process articles")
	}
}

func TestHandleSearch_MissingQuery(t *testing.T) {
	srv := newTestServer(t, app.Config{NewsAPIKey: "k"})
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleSearch_PageSizeValidated(t *testing.T) {
	srv := newTestServer(t, app.Config{NewsAPIKey: "k"})
	for _, v := range []string{"0", "101", "abc"} {
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?q=AI&page_size="+v, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("page_size=%s: expected 400, got %d", v, rec.Code)
		}
	}
}

func TestHandleSearch_MissingKeyIsServerError(t *testing.T) {
	srv := newTestServer(t, app.Config{})
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?q=AI", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 without any API key, got %d", rec.Code)
	}
}

func TestHandleSearch_RequestKeyUsedWhenServerHasNone(t *testing.T) {
	var gotKey string
	newsAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		w.Write([]byte(newsAPIResponse))
	}))
	defer newsAPI.Close()

	srv := newTestServer(t, app.Config{NewsBaseURL: newsAPI.URL})
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?q=AI&news_api_key=from-request", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotKey != "from-request" {
		t.Fatalf("expected request-supplied key forwarded, got %q", gotKey)
	}
}

func TestHandleAnalyze_FullPipeline(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(articlePage))
	}))
	defer page.Close()
	model := fakeModelServer(t)
	defer model.Close()

	srv := newTestServer(t, app.Config{
		LLMProvider: "openai",
		LLMAPIKey:   "test-key",
		LLMBaseURL:  model.URL,
	})

	body, _ := json.Marshal(AnalyzeRequest{NewsURL: page.URL + "/story", SummaryLength: "medium"})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp AnalyzeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.Title != "Quarterly results beat expectations" || resp.SourceName != "Finance Wire" {
		t.Fatalf("bad metadata: %+v", resp)
	}
	if !strings.Contains(resp.Summary, "- strong quarterly results") {
		t.Fatalf("unexpected summary: %q", resp.Summary)
	}
	if resp.SentimentLabel != "very positive" || resp.SentimentScore != 5 {
		t.Fatalf("unexpected sentiment: %+v", resp)
	}
	if resp.SentimentFallback {
		t.Fatal("validated sentiment must not be flagged as fallback")
	}
}

func TestHandleAnalyze_UnextractablePage(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Nothing</title></head><body></body></html>`))
	}))
	defer page.Close()
	model := fakeModelServer(t)
	defer model.Close()

	srv := newTestServer(t, app.Config{LLMProvider: "openai", LLMAPIKey: "k", LLMBaseURL: model.URL})
	body, _ := json.Marshal(AnalyzeRequest{NewsURL: page.URL})
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unextractable page, got %d", rec.Code)
	}
	var e errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil || e.Detail == "" {
		t.Fatalf("expected structured error detail, got %q (%v)", rec.Body.String(), err)
	}
}

func TestHandleAnalyze_ValidatesInput(t *testing.T) {
	srv := newTestServer(t, app.Config{LLMProvider: "openai", LLMAPIKey: "k"})
	cases := []struct {
		name string
		body string
	}{
		{"invalid JSON", "{not json"},
		{"missing URL", `{"summary_length":"short"}`},
		{"bad length", `{"news_url":"https://example.com","summary_length":"gigantic"}`},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(c.body)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", c.name, rec.Code)
		}
	}
}

func TestHandleAnalyze_MissingProviderKey(t *testing.T) {
	srv := newTestServer(t, app.Config{})
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyze",
		strings.NewReader(`{"news_url":"https://example.com/a"}`)))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for unconfigured provider, got %d", rec.Code)
	}
}

func TestResolveProviderConfig_DeploymentOverridesRequest(t *testing.T) {
	srv := newTestServer(t, app.Config{LLMProvider: "gemini", LLMAPIKey: "server-key"})
	cfg := srv.resolveProviderConfig(AnalyzeRequest{
		LLMProvider: "openai",
		LLMAPIKey:   "request-key",
		LLMModel:    "gpt-4o",
	})
	if cfg.Provider != "gemini" || cfg.APIKey != "server-key" {
		t.Fatalf("deployment values must win: %+v", cfg)
	}
	if cfg.Model != "gpt-4o" {
		t.Fatal("unset deployment fields fall back to the request")
	}
}

func TestExport_AfterAnalyze(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(articlePage))
	}))
	defer page.Close()
	model := fakeModelServer(t)
	defer model.Close()

	srv := newTestServer(t, app.Config{LLMProvider: "openai", LLMAPIKey: "k", LLMBaseURL: model.URL})
	router := srv.Router()

	body, _ := json.Marshal(AnalyzeRequest{NewsURL: page.URL})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("analyze failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export/csv", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("csv export failed: %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "attachment") {
		t.Fatalf("expected attachment disposition, got %q", got)
	}
	if !strings.Contains(rec.Body.String(), "Quarterly results beat expectations") {
		t.Fatal("exported CSV missing the analyzed article")
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export/json", nil))
	var exported []news.Article
	if err := json.Unmarshal(rec.Body.Bytes(), &exported); err != nil {
		t.Fatalf("bad JSON export: %v", err)
	}
	if len(exported) != 1 || exported[0].Sentiment == nil {
		t.Fatalf("unexpected export contents: %+v", exported)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export/pdf", nil))
	if rec.Code != http.StatusOK || rec.Body.Len() == 0 {
		t.Fatalf("pdf export failed: %d, %d bytes", rec.Code, rec.Body.Len())
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Fatal("pdf export did not produce a PDF document")
	}
}
