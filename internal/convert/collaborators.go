package convert

import (
	"context"

	"github.com/JonMunkholm/csvkit/internal/tabular"
)

// BestEffortWarning accompanies every result derived from extracted
// document text.
const BestEffortWarning = "PDF conversion is best-effort. Please verify the results."

// Sheet is the first worksheet of a decoded workbook.
type Sheet struct {
	Name string
	// CSV is the sheet serialized as comma-delimited text.
	CSV string
}

// Document is the plain text extracted from a paged document.
type Document struct {
	Pages int
	Text  string
}

// SpreadsheetDecoder decodes a binary workbook.
type SpreadsheetDecoder interface {
	FirstSheet(ctx context.Context, data []byte) (Sheet, error)
}

// TextExtractor pulls plain text out of a binary document. The text is
// lossy: layout and table structure are not preserved.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte) (Document, error)
}

// SpreadsheetToTabular decodes the first sheet and reports its shape.
// Failures read "Excel conversion error: <reason>".
func SpreadsheetToTabular(ctx context.Context, dec SpreadsheetDecoder, data []byte) tabular.Result {
	sheet, err := dec.FirstSheet(ctx, data)
	if err != nil {
		return tabular.Failure("Excel conversion", err)
	}

	stats := parsedStats(sheet.CSV)
	stats.Sheet = sheet.Name
	return tabular.Result{Success: true, Data: sheet.CSV, Stats: stats}
}

// DocumentToTabular extracts text and runs it through the free-text path.
// Successful results always carry BestEffortWarning. Failures read
// "PDF conversion error: <reason>".
func DocumentToTabular(ctx context.Context, ext TextExtractor, data []byte) tabular.Result {
	doc, err := ext.ExtractText(ctx, data)
	if err != nil {
		return tabular.Failure("PDF conversion", err)
	}

	out := FreeTextContent(doc.Text, 0)
	stats := parsedStats(out)
	stats.Pages = doc.Pages
	return tabular.Result{
		Success: true,
		Data:    out,
		Warning: BestEffortWarning,
		Stats:   stats,
	}
}

// parsedStats re-parses delimited output: rows excludes the header, columns
// is the width of the first row.
func parsedStats(out string) tabular.Stats {
	data := tabular.Parse(out, 0)
	stats := tabular.Stats{Rows: len(data) - 1}
	if len(data) > 0 {
		stats.Columns = len(data[0])
	}
	return stats
}
