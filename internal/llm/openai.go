package llm

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/haneulsoft/newslens/internal/fault"
)

const defaultOpenAIModel = "gpt-3.5-turbo"

// OpenAI talks to any OpenAI-compatible chat completion endpoint,
// including self-hosted servers selected via BaseURL.
type OpenAI struct {
	client *openai.Client
	model  string
}

func NewOpenAI(apiKey, model, baseURL string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if strings.TrimSpace(baseURL) != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model}
}

// Name identifies the backend and model so cache keys distinguish them.
func (p *OpenAI) Name() string { return "openai/" + p.model }

func (p *OpenAI) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if opts.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleSystem, Content: opts.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser, Content: prompt,
	})

	req := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		N:           1,
	}
	if opts.JSONMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fault.Wrap(fault.UpstreamUnavailable, err, "model call timed out")
		}
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			switch {
			case apiErr.HTTPStatusCode == 429:
				return "", fault.Wrap(fault.RateLimited, err, "model quota exceeded")
			case apiErr.HTTPStatusCode >= 500:
				return "", fault.Wrap(fault.UpstreamUnavailable, err, "model server error")
			default:
				return "", fault.Wrap(fault.UpstreamError, err, "model call failed")
			}
		}
		return "", fault.Wrap(fault.UpstreamUnavailable, err, "model call failed")
	}
	if len(resp.Choices) == 0 {
		return "", fault.New(fault.SafetyBlocked, "model returned no choices")
	}
	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonContentFilter {
		return "", fault.New(fault.SafetyBlocked, "response blocked by content filter")
	}
	out := strings.TrimSpace(choice.Message.Content)
	if out == "" {
		return "", fault.New(fault.SafetyBlocked, "model returned empty content")
	}
	return out, nil
}
