package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/haneulsoft/newslens/internal/news"
)

// WritePDF renders a simple digest: one block per article with title,
// source line, summary and sentiment. Intentionally plain layout.
func WritePDF(w io.Writer, articles []news.Article) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "News analysis digest", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	for _, a := range articles {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.MultiCell(0, 6, a.Title, "", "L", false)

		pdf.SetFont("Helvetica", "I", 9)
		meta := a.SourceName
		if a.PublishedAt != "" {
			meta += " - " + a.PublishedAt
		}
		pdf.MultiCell(0, 5, meta, "", "L", false)
		if a.URL != "" {
			pdf.SetTextColor(0, 0, 200)
			pdf.WriteLinkString(5, a.URL, a.URL)
			pdf.SetTextColor(0, 0, 0)
			pdf.Ln(6)
		}

		pdf.SetFont("Helvetica", "", 11)
		if s := strings.TrimSpace(a.Summary); s != "" {
			for _, line := range strings.Split(s, "\n") {
				if strings.TrimSpace(line) == "" {
					pdf.Ln(3)
					continue
				}
				pdf.MultiCell(0, 5, line, "", "L", false)
			}
		}
		if a.Sentiment != nil {
			pdf.Ln(2)
			pdf.SetFont("Helvetica", "B", 10)
			pdf.MultiCell(0, 5, fmt.Sprintf("Sentiment: %s (%.1f/5)", a.Sentiment.Label, a.Sentiment.Score), "", "L", false)
		}
		pdf.Ln(6)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}
