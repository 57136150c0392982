package api

import "github.com/haneulsoft/newslens/internal/news"

// AnalyzeRequest is the /analyze body. The LLM fields are optional;
// deployment-level configuration takes precedence over them when both are
// present.
type AnalyzeRequest struct {
	NewsURL       string `json:"news_url"`
	SummaryLength string `json:"summary_length"`
	LLMProvider   string `json:"llm_provider,omitempty"`
	LLMAPIKey     string `json:"llm_api_key,omitempty"`
	LLMModel      string `json:"llm_model,omitempty"`
	LLMAPIBase    string `json:"llm_api_base,omitempty"`
}

// AnalyzeResponse flattens the processed article; the sentiment is
// expanded into scalar fields.
type AnalyzeResponse struct {
	Title             string  `json:"title"`
	Description       string  `json:"description,omitempty"`
	URL               string  `json:"url"`
	SourceName        string  `json:"source_name"`
	PublishedAt       string  `json:"published_at"`
	Summary           string  `json:"summary"`
	SentimentLabel    string  `json:"sentiment_label"`
	SentimentScore    float64 `json:"sentiment_score"`
	SentimentFallback bool    `json:"sentiment_fallback,omitempty"`
}

func analyzeResponseFrom(a *news.Article) AnalyzeResponse {
	resp := AnalyzeResponse{
		Title:       a.Title,
		Description: a.Description,
		URL:         a.URL,
		SourceName:  a.SourceName,
		PublishedAt: a.PublishedAt,
		Summary:     a.Summary,
	}
	if a.Sentiment != nil {
		resp.SentimentLabel = a.Sentiment.Label
		resp.SentimentScore = a.Sentiment.Score
		resp.SentimentFallback = a.Sentiment.Fallback
	}
	return resp
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Detail string `json:"detail"`
}
