package templates

import (
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/csvkit/internal/tabular"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var b strings.Builder
	require.NoError(t, c.Render(context.Background(), &b))
	return b.String()
}

func TestErrorAlert(t *testing.T) {
	out := render(t, ErrorAlert("Bad <file>", "Try again", "FILE001"))

	assert.Contains(t, out, `data-code="FILE001"`)
	assert.Contains(t, out, "Bad &lt;file&gt;")
	assert.Contains(t, out, `<p class="alert-action">Try again</p>`)
}

func TestErrorAlert_NoAction(t *testing.T) {
	out := render(t, ErrorAlert("Oops", "", "ERR000"))

	assert.NotContains(t, out, "alert-action")
}

func TestWarningBanner(t *testing.T) {
	assert.Empty(t, render(t, WarningBanner("")))
	assert.Contains(t, render(t, WarningBanner("best effort")), "best effort")
}

func TestDataTable(t *testing.T) {
	out := render(t, DataTable(TableParams{
		Title:     "report.csv",
		Rows:      tabular.Data{{"name", "note"}, {"ann", "<b>"}},
		Stats:     tabular.Stats{Rows: 9, Columns: 2, Sheet: "Sales"},
		Truncated: true,
		Warning:   "columns may be misaligned",
	}))

	assert.True(t, strings.HasPrefix(out, `<div class="alert alert-warning"`), out)
	assert.Contains(t, out, "<h2>report.csv</h2>")
	assert.Contains(t, out, "9 rows, 2 columns, sheet Sales (showing first 1)")
	assert.Contains(t, out, "<thead><tr><th>name</th><th>note</th></tr></thead>")
	assert.Contains(t, out, "<tbody><tr><td>ann</td><td>&lt;b&gt;</td></tr></tbody>")
	assert.NotContains(t, out, "Download CSV")
}

func TestDataTable_Sizes(t *testing.T) {
	out := render(t, DataTable(TableParams{
		Rows:        tabular.Data{{"a"}},
		Stats:       tabular.Stats{Rows: 1, Columns: 1, OriginalSize: 2048, CleanedSize: 1536},
		DownloadURL: "/api/last/download",
	}))

	assert.Contains(t, out, "1 rows, 1 columns, 2 KB to 1.5 KB")
	assert.Contains(t, out, `href="/api/last/download"`)
	assert.NotContains(t, out, "<tbody>")
}

func TestDataTable_EmptyHeaderCell(t *testing.T) {
	out := render(t, DataTable(TableParams{
		Rows:  tabular.Data{{"name", "", "age"}, {"ann", "", ""}},
		Stats: tabular.Stats{Rows: 1, Columns: 3},
	}))

	assert.Contains(t, out, "<thead><tr><th>name</th><th>Column 2</th><th>age</th></tr></thead>")
	assert.Contains(t, out, "<tbody><tr><td>ann</td><td></td><td></td></tr></tbody>")
}
