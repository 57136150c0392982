package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/haneulsoft/newslens/internal/export"
	"github.com/haneulsoft/newslens/internal/fault"
	"github.com/haneulsoft/newslens/internal/llm"
	"github.com/haneulsoft/newslens/internal/news"
	"github.com/haneulsoft/newslens/internal/summary"
)

// handleSearch runs a keyword search and returns unprocessed articles.
// With analyze=true each result is additionally summarized and scored and
// recorded for export.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()

	keyword := strings.TrimSpace(qs.Get("q"))
	if keyword == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	q := news.Query{
		Keyword:   keyword,
		Language:  qs.Get("language"),
		SortBy:    qs.Get("sort_by"),
		TitleOnly: qs.Get("title_only") == "true",
	}
	if v := qs.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			writeError(w, http.StatusBadRequest, "page_size must be between 1 and 100")
			return
		}
		q.PageSize = n
	}
	for param, dst := range map[string]*time.Time{"from": &q.From, "to": &q.To} {
		if v := qs.Get(param); v != "" {
			t, err := time.Parse("2006-01-02", v)
			if err != nil {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s date, expected YYYY-MM-DD", param))
				return
			}
			*dst = t
		}
	}
	if v := qs.Get("sources"); v != "" {
		q.Sources = strings.Split(v, ",")
	}
	if v := qs.Get("domains"); v != "" {
		q.Domains = strings.Split(v, ",")
	}
	if v := qs.Get("exclude_domains"); v != "" {
		q.ExcludeDomains = strings.Split(v, ",")
	}

	// Deployment key overrides a request-supplied one.
	client := *s.services.News
	if client.APIKey == "" {
		client.APIKey = qs.Get("news_api_key")
	}
	if client.APIKey == "" {
		writeError(w, http.StatusInternalServerError, "NEWS_API_KEY not configured on the server or provided in the request")
		return
	}

	articles, err := client.Search(r.Context(), q)
	if err != nil {
		writeFault(w, err, "news search failed")
		return
	}

	if qs.Get("analyze") == "true" && len(articles) > 0 {
		analyzer, err := s.services.NewAnalyzer(s.resolveProviderConfig(AnalyzeRequest{
			LLMProvider: qs.Get("llm_provider"),
			LLMAPIKey:   qs.Get("llm_api_key"),
			LLMModel:    qs.Get("llm_model"),
		}))
		if err != nil {
			writeFault(w, err, "LLM provider not configured")
			return
		}
		analyzer.ProcessBatch(r.Context(), articles, summary.Length(qs.Get("summary_length")))
		s.record(articles...)
	}

	writeJSON(w, http.StatusOK, articles)
}

// handleAnalyze fetches one article by URL and runs the full pipeline.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.NewsURL) == "" {
		writeError(w, http.StatusBadRequest, "news_url is required")
		return
	}
	length := summary.Length(req.SummaryLength)
	if req.SummaryLength != "" && !length.Valid() {
		writeError(w, http.StatusBadRequest, "summary_length must be short, medium or long")
		return
	}

	analyzer, err := s.services.NewAnalyzer(s.resolveProviderConfig(req))
	if err != nil {
		writeFault(w, err, "LLM provider not configured")
		return
	}

	article, err := analyzer.AnalyzeURL(r.Context(), req.NewsURL, length)
	if err != nil {
		writeFault(w, err, "could not fetch the article")
		return
	}
	if article == nil {
		// Insufficient extractable text is a policy outcome, reported as a
		// fetch failure, not a server fault.
		writeError(w, http.StatusBadRequest, "could not extract news content from the provided URL; check the URL or try another one")
		return
	}

	s.record(*article)
	writeJSON(w, http.StatusOK, analyzeResponseFrom(article))
}

// resolveProviderConfig applies the fixed precedence: deployment
// configuration overrides request-supplied values.
func (s *Server) resolveProviderConfig(req AnalyzeRequest) llm.Config {
	cfg := s.services.Config
	pick := func(env, reqVal string) string {
		if env != "" {
			return env
		}
		return reqVal
	}
	return llm.Config{
		Provider: pick(cfg.LLMProvider, req.LLMProvider),
		APIKey:   pick(cfg.LLMAPIKey, req.LLMAPIKey),
		Model:    pick(cfg.LLMModel, req.LLMModel),
		BaseURL:  pick(cfg.LLMBaseURL, req.LLMAPIBase),
	}
}

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", exportFilename("json"))
	if err := export.WriteJSON(w, s.snapshot()); err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
	}
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", exportFilename("csv"))
	if err := export.WriteCSV(w, s.snapshot()); err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
	}
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", exportFilename("pdf"))
	if err := export.WritePDF(w, s.snapshot()); err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
	}
}

func exportFilename(ext string) string {
	return fmt.Sprintf(`attachment; filename="news_analysis_%s.%s"`, time.Now().Format("20060102"), ext)
}

// writeFault maps error kinds to HTTP statuses.
func writeFault(w http.ResponseWriter, err error, context string) {
	status := http.StatusInternalServerError
	switch fault.KindOf(err) {
	case fault.ConfigError:
		status = http.StatusInternalServerError
	case fault.RateLimited:
		status = http.StatusTooManyRequests
	case fault.UpstreamUnavailable, fault.UpstreamError:
		status = http.StatusBadGateway
	case fault.ValidationFailed, fault.SafetyBlocked:
		status = http.StatusUnprocessableEntity
	}
	writeError(w, status, fmt.Sprintf("%s: %v", context, err))
}
