package news

// Article is a single news item moving through the pipeline. Fields beyond
// the header metadata are filled in as stages complete. Identity is URL.
type Article struct {
	Title          string           `json:"title"`
	Description    string           `json:"description,omitempty"`
	URL            string           `json:"url"`
	SourceName     string           `json:"source_name"`
	PublishedAt    string           `json:"published_at"`
	RawContent     string           `json:"raw_content,omitempty"`
	CleanedContent string           `json:"cleaned_content,omitempty"`
	Summary        string           `json:"summary,omitempty"`
	Sentiment      *SentimentResult `json:"sentiment,omitempty"`
}

// SentimentResult is immutable once constructed. Score is on the discrete
// Likert scale 1..5 with 3 as the neutral midpoint. Fallback marks a value
// substituted because the analyzer gave up, as opposed to the model
// genuinely answering neutral.
type SentimentResult struct {
	Label    string  `json:"label"`
	Score    float64 `json:"score"`
	Fallback bool    `json:"fallback,omitempty"`
}
