package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/haneulsoft/newslens/internal/fault"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel   = "gemini-pro"
)

// Gemini speaks the generativelanguage REST API directly. Safety
// categories are relaxed to BLOCK_NONE; when the service still blocks a
// prompt or candidate the block reason is surfaced as SafetyBlocked.
type Gemini struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewGemini(apiKey, model string) *Gemini {
	if model == "" {
		model = defaultGeminiModel
	}
	return &Gemini{
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultGeminiBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Name identifies the backend and model so cache keys distinguish them.
func (p *Gemini) Name() string { return "gemini/" + p.model }

type geminiRequest struct {
	Contents         []geminiContent       `json:"contents"`
	SafetySettings   []geminiSafetySetting `json:"safetySettings,omitempty"`
	GenerationConfig *geminiGenConfig      `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiSafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type geminiGenConfig struct {
	Temperature      float32 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

var geminiSafetyOff = []geminiSafetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_NONE"},
}

func (p *Gemini) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	// No separate system role on this endpoint; fold it into the prompt.
	if opts.System != "" {
		prompt = opts.System + "\n\n" + prompt
	}
	body := geminiRequest{
		Contents:       []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		SafetySettings: geminiSafetyOff,
		GenerationConfig: &geminiGenConfig{
			Temperature:     opts.Temperature,
			MaxOutputTokens: opts.MaxTokens,
		},
	}
	if opts.JSONMode {
		body.GenerationConfig.ResponseMimeType = "application/json"
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fault.Wrap(fault.UpstreamError, err, "encode request")
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, p.model, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fault.Wrap(fault.UpstreamError, err, "new request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fault.Wrap(fault.UpstreamUnavailable, err, "gemini call timed out")
		}
		return "", fault.Wrap(fault.UpstreamUnavailable, err, "gemini call failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", fault.New(fault.RateLimited, "gemini quota exceeded (429)")
	case resp.StatusCode >= 500:
		return "", fault.New(fault.UpstreamUnavailable, "gemini server error: %d", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fault.New(fault.UpstreamError, "gemini status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var gr geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", fault.Wrap(fault.UpstreamError, err, "decode gemini response")
	}
	if gr.PromptFeedback.BlockReason != "" {
		return "", fault.New(fault.SafetyBlocked, "prompt blocked: %s", gr.PromptFeedback.BlockReason)
	}
	if len(gr.Candidates) == 0 {
		return "", fault.New(fault.SafetyBlocked, "gemini returned no candidates")
	}
	cand := gr.Candidates[0]
	if strings.EqualFold(cand.FinishReason, "SAFETY") {
		return "", fault.New(fault.SafetyBlocked, "response blocked by safety policy")
	}
	var b strings.Builder
	for _, part := range cand.Content.Parts {
		b.WriteString(part.Text)
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", fault.New(fault.SafetyBlocked, "gemini returned empty content")
	}
	return out, nil
}
