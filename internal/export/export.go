// Package export re-represents the processed article list. Every format
// is a lossless projection of the in-memory articles: structured JSON
// keeps the nested sentiment, the flat CSV expands it into two scalar
// columns.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/haneulsoft/newslens/internal/news"
)

// csvHeader fixes the tabular column order.
var csvHeader = []string{
	"title", "description", "url", "source_name", "published_at",
	"summary", "sentiment_label", "sentiment_score",
}

// WriteJSON writes the article list as an indented JSON document.
func WriteJSON(w io.Writer, articles []news.Article) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(articles); err != nil {
		return fmt.Errorf("encode articles: %w", err)
	}
	return nil
}

// WriteCSV writes the flat tabular form with the sentiment expanded into
// sentiment_label / sentiment_score columns.
func WriteCSV(w io.Writer, articles []news.Article) error {
	// UTF-8 BOM so spreadsheet tools decode non-ASCII titles correctly.
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, a := range articles {
		label, score := "", ""
		if a.Sentiment != nil {
			label = a.Sentiment.Label
			score = fmt.Sprintf("%.1f", a.Sentiment.Score)
		}
		row := []string{
			a.Title, a.Description, a.URL, a.SourceName, a.PublishedAt,
			a.Summary, label, score,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
