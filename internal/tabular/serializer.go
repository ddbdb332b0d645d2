package tabular

import "strings"

// Serialize joins fields with delim and rows with '\n', quoting only the
// fields that need it. No trailing newline is written. A zero delimiter
// serializes with Comma.
func Serialize(data Data, delim Delimiter) string {
	if delim == 0 {
		delim = Comma
	}

	var b strings.Builder
	sep := string(rune(delim))
	for i, row := range data {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, field := range row {
			if j > 0 {
				b.WriteString(sep)
			}
			b.WriteString(QuoteField(field, delim))
		}
	}
	return b.String()
}

// QuoteField wraps field in double quotes, doubling inner quotes, when it
// contains the delimiter, a quote or a newline. Other fields pass through.
func QuoteField(field string, delim Delimiter) string {
	if !NeedsQuoting(field, delim) {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

// NeedsQuoting reports whether QuoteField would quote field.
func NeedsQuoting(field string, delim Delimiter) bool {
	return strings.ContainsRune(field, rune(delim)) ||
		strings.ContainsAny(field, "\"\n")
}
