package convert

import (
	"regexp"
	"strings"

	"github.com/JonMunkholm/csvkit/internal/tabular"
)

// textCandidates is the free-text detection order. Tab is checked first
// because extracted and pasted tables are usually tab-separated.
var textCandidates = []tabular.Delimiter{tabular.Tab, tabular.Comma, tabular.Semicolon, tabular.Pipe}

// minTextDelimiters is how often a delimiter must appear on the first line
// before free text counts as already delimited.
const minTextDelimiters = 2

// whitespaceRun matches two or more whitespace characters, including the
// Unicode spaces and separators that text extraction tends to produce.
var whitespaceRun = regexp.MustCompile(`[\t\n\v\f\r \x{00a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}\x{feff}]{2,}`)

// DetectTextDelimiter looks for a delimiter that appears at least twice on
// the first line of text. It reports false for text with no such delimiter.
func DetectTextDelimiter(text string) (tabular.Delimiter, bool) {
	return tabular.DetectMin(text, minTextDelimiters, textCandidates...)
}

// FreeTextToTabular converts loosely structured text to delimited text.
//
// Blank lines are dropped and the rest trimmed. When delim is set, or a
// delimiter is detected, the lines are already delimited and are joined
// unchanged. Otherwise every run of two or more whitespace characters
// separates columns and the fields are written comma-separated with
// minimal quoting. The column split is a heuristic: single-space separated
// columns are not recognized.
func FreeTextToTabular(text string, delim tabular.Delimiter) tabular.Result {
	out := FreeTextContent(text, delim)
	return tabular.Result{Success: true, Data: out, Stats: parsedStats(out)}
}

// FreeTextContent is FreeTextToTabular without the stats.
func FreeTextContent(text string, delim tabular.Delimiter) string {
	if !delim.Valid() {
		if d, ok := DetectTextDelimiter(text); ok {
			delim = d
		}
	}

	lines := nonBlankLines(text)
	if delim.Valid() {
		return strings.Join(lines, "\n")
	}

	out := make([]string, len(lines))
	for i, line := range lines {
		fields := whitespaceRun.Split(line, -1)
		for j, f := range fields {
			fields[j] = tabular.QuoteField(strings.TrimSpace(f), tabular.Comma)
		}
		out[i] = strings.Join(fields, ",")
	}
	return strings.Join(out, "\n")
}

func nonBlankLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
