// Package templates renders the HTML fragments returned to HTMX requests.
package templates

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/csvkit/internal/core"
	"github.com/JonMunkholm/csvkit/internal/tabular"
)

// ErrorAlert renders a dismissible error box with an optional suggested action.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		ew.printf(`<div class="alert alert-error" role="alert" data-code="%s">`, templ.EscapeString(code))
		ew.printf(`<p class="alert-message">%s</p>`, templ.EscapeString(message))
		if action != "" {
			ew.printf(`<p class="alert-action">%s</p>`, templ.EscapeString(action))
		}
		ew.printf(`<span class="alert-code">%s</span></div>`, templ.EscapeString(code))
		return ew.err
	})
}

// WarningBanner renders a conversion warning. Empty warnings render nothing.
func WarningBanner(warning string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if warning == "" {
			return nil
		}
		_, err := fmt.Fprintf(w, `<div class="alert alert-warning" role="status">%s</div>`, templ.EscapeString(warning))
		return err
	})
}

// TableParams describes one rendered table. The first row is the header;
// an empty header cell is shown as "Column N".
type TableParams struct {
	Title     string
	Rows      tabular.Data
	Stats     tabular.Stats
	Truncated bool
	Warning   string

	// DownloadURL links the full output when set.
	DownloadURL string
}

// DataTable renders rows as an HTML table with a stats line above it.
func DataTable(p TableParams) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := WarningBanner(p.Warning).Render(ctx, w); err != nil {
			return err
		}

		ew := &errWriter{w: w}
		ew.printf(`<section class="result">`)
		if p.Title != "" {
			ew.printf(`<h2>%s</h2>`, templ.EscapeString(p.Title))
		}
		ew.printf(`<p class="stats">%s</p>`, templ.EscapeString(statsLine(p)))
		if p.DownloadURL != "" {
			ew.printf(`<a class="btn" href="%s" download>Download CSV</a>`, templ.EscapeString(p.DownloadURL))
		}

		ew.printf(`<div class="table-wrap"><table>`)
		for i, row := range p.Rows {
			cell := "td"
			if i == 0 {
				ew.printf(`<thead>`)
				cell = "th"
			} else if i == 1 {
				ew.printf(`<tbody>`)
			}
			ew.printf(`<tr>`)
			for j, field := range row {
				if i == 0 && field == "" {
					field = fmt.Sprintf("Column %d", j+1)
				}
				ew.printf(`<%s>%s</%s>`, cell, templ.EscapeString(field), cell)
			}
			ew.printf(`</tr>`)
			if i == 0 {
				ew.printf(`</thead>`)
			}
		}
		if len(p.Rows) > 1 {
			ew.printf(`</tbody>`)
		}
		ew.printf(`</table></div></section>`)
		return ew.err
	})
}

func statsLine(p TableParams) string {
	s := strconv.Itoa(p.Stats.Rows) + " rows, " + strconv.Itoa(p.Stats.Columns) + " columns"
	if p.Stats.Sheet != "" {
		s += ", sheet " + p.Stats.Sheet
	}
	if p.Stats.Pages > 0 {
		s += ", " + strconv.Itoa(p.Stats.Pages) + " pages"
	}
	if p.Stats.OriginalSize > 0 {
		s += ", " + core.FormatFileSize(int64(p.Stats.OriginalSize))
		if p.Stats.CleanedSize > 0 {
			s += " to " + core.FormatFileSize(int64(p.Stats.CleanedSize))
		}
	}
	if p.Truncated {
		s += " (showing first " + strconv.Itoa(max(len(p.Rows)-1, 0)) + ")"
	}
	return s
}

// errWriter keeps the first write error so markup can be emitted without
// checking every call.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
