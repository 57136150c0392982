package sentiment

import (
	"context"
	"errors"
	"testing"

	"github.com/haneulsoft/newslens/internal/cache"
	"github.com/haneulsoft/newslens/internal/fault"
	"github.com/haneulsoft/newslens/internal/llm"
)

type fakeProvider struct {
	response string
	err      error
	calls    int
}

func (f *fakeProvider) Complete(_ context.Context, _ string, _ llm.CompletionOptions) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeProvider) Name() string { return "fake/test" }

func TestParseScore_Valid(t *testing.T) {
	got, err := ParseScore(`{"score": 4}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Score != 4 || got.Label != "positive" {
		t.Fatalf("expected positive/4, got %+v", got)
	}
	if got.Fallback {
		t.Fatal("genuine result must not be marked fallback")
	}
}

func TestParseScore_ToleratesSurroundingProse(t *testing.T) {
	got, err := ParseScore("Sure! Here is the result: {\"score\": 2} Hope that helps.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Score != 2 || got.Label != "negative" {
		t.Fatalf("expected negative/2, got %+v", got)
	}
}

func TestParseScore_ClampsOutOfRange(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{`{"score": 9}`, 5},
		{`{"score": 0}`, 1},
		{`{"score": -3}`, 1},
		{`{"score": 4.6}`, 5},
		{`{"score": 2.4}`, 2},
	}
	for _, c := range cases {
		got, err := ParseScore(c.raw)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", c.raw, err)
		}
		if got.Score != c.want {
			t.Fatalf("%s: expected %v, got %v", c.raw, c.want, got.Score)
		}
		if got.Score < ScaleMin || got.Score > ScaleMax {
			t.Fatalf("%s: score out of scale: %v", c.raw, got.Score)
		}
	}
}

func TestParseScore_Malformed(t *testing.T) {
	for _, raw := range []string{
		"no json here",
		`{"score": "four"}`,
		`{"label": "positive"}`,
		`{broken`,
		"",
	} {
		if _, err := ParseScore(raw); fault.KindOf(err) != fault.ValidationFailed {
			t.Fatalf("%q: expected ValidationFailed, got %v", raw, err)
		}
	}
}

func TestAnalyze_NeutralFallbackOnProviderError(t *testing.T) {
	p := &fakeProvider{err: errors.New("connection reset")}
	a := &Analyzer{Provider: p, Cache: cache.NewMemo()}
	got := a.Analyze(context.Background(), "some text")
	if got.Label != "neutral" || got.Score != NeutralScore {
		t.Fatalf("expected neutral midpoint, got %+v", got)
	}
	if !got.Fallback {
		t.Fatal("expected fallback marker set")
	}
}

func TestAnalyze_NeutralFallbackOnMalformedOutput(t *testing.T) {
	p := &fakeProvider{response: "i refuse to emit json"}
	a := &Analyzer{Provider: p}
	got := a.Analyze(context.Background(), "some text")
	if got.Label != "neutral" || got.Score != NeutralScore || !got.Fallback {
		t.Fatalf("expected neutral fallback, got %+v", got)
	}
}

func TestAnalyze_FallbackNotCached(t *testing.T) {
	p := &fakeProvider{err: errors.New("transient")}
	a := &Analyzer{Provider: p, Cache: cache.NewMemo()}
	_ = a.Analyze(context.Background(), "text")

	// Upstream recovers; the retry must reach the provider.
	p.err = nil
	p.response = `{"score": 5}`
	got := a.Analyze(context.Background(), "text")
	if got.Score != 5 {
		t.Fatalf("expected recovered result, got %+v", got)
	}
	if p.calls != 2 {
		t.Fatalf("expected 2 provider calls, got %d", p.calls)
	}
}

func TestAnalyze_ValidatedResultCached(t *testing.T) {
	p := &fakeProvider{response: `{"score": 1}`}
	a := &Analyzer{Provider: p, Cache: cache.NewMemo()}
	first := a.Analyze(context.Background(), "text")
	second := a.Analyze(context.Background(), "text")
	if first != second {
		t.Fatalf("expected identical cached result: %+v vs %+v", first, second)
	}
	if p.calls != 1 {
		t.Fatalf("expected the model invoked once, got %d", p.calls)
	}
	if first.Label != "very negative" {
		t.Fatalf("unexpected label %q", first.Label)
	}
}

func TestAnalyze_EmptyTextIsNeutral(t *testing.T) {
	p := &fakeProvider{response: `{"score": 5}`}
	a := &Analyzer{Provider: p}
	got := a.Analyze(context.Background(), "  ")
	if got.Label != "neutral" || !got.Fallback {
		t.Fatalf("expected neutral fallback for empty text, got %+v", got)
	}
	if p.calls != 0 {
		t.Fatal("empty text must not reach the model")
	}
}
