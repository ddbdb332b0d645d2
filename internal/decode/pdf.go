package decode

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/JonMunkholm/csvkit/internal/convert"
)

// PDF extracts the plain text of every page.
type PDF struct{}

var _ convert.TextExtractor = PDF{}

// ExtractText returns the page count and the text of all pages, each page
// terminated by a newline. Malformed documents are reported as errors.
func (PDF) ExtractText(ctx context.Context, data []byte) (doc convert.Document, err error) {
	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			doc, err = convert.Document{}, fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return convert.Document{}, fmt.Errorf("open document: %w", err)
	}

	pages := r.NumPage()
	var b strings.Builder
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return convert.Document{}, err
		}

		page := r.Page(i)
		if page.V.IsNull() {
			b.WriteByte('\n')
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return convert.Document{}, fmt.Errorf("page %d: %w", i, err)
		}
		b.WriteString(text)
		b.WriteByte('\n')
	}

	return convert.Document{Pages: pages, Text: b.String()}, nil
}
