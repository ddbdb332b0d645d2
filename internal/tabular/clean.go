package tabular

import (
	"fmt"
	"strings"
)

// Stats describes the shape of a conversion result.
type Stats struct {
	Rows         int    `json:"rows"`
	Columns      int    `json:"columns"`
	OriginalSize int    `json:"originalSize,omitempty"`
	CleanedSize  int    `json:"cleanedSize,omitempty"`
	Sheet        string `json:"sheet,omitempty"`
	Pages        int    `json:"pages,omitempty"`
}

// Result is the uniform outcome of cleaning and of every format adapter.
// Callers check Success; Data is only meaningful when it is true.
type Result struct {
	Success bool   `json:"success"`
	Data    string `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Warning string `json:"warning,omitempty"`
	Stats   Stats  `json:"stats"`
}

// Failure builds a failed Result whose message names the stage.
func Failure(stage string, err error) Result {
	return Result{Error: fmt.Sprintf("%s error: %v", stage, err)}
}

// CleanOptions toggles the optional cleaning stages.
type CleanOptions struct {
	RemoveEmptyRows    bool
	RemoveEmptyColumns bool
	TrimWhitespace     bool

	// InputDelimiter of zero means detect.
	InputDelimiter Delimiter
	// OutputDelimiter of zero means Comma.
	OutputDelimiter Delimiter
}

// DefaultCleanOptions enables every stage and writes comma-separated output.
func DefaultCleanOptions() CleanOptions {
	return CleanOptions{
		RemoveEmptyRows:    true,
		RemoveEmptyColumns: true,
		TrimWhitespace:     true,
		OutputDelimiter:    Comma,
	}
}

// Clean parses content and runs the pipeline in its fixed order:
// trim, drop empty rows, normalize row lengths, drop empty columns,
// serialize. Disabled stages are skipped, never reordered. Normalization
// always runs because column emptiness needs rectangular rows.
func Clean(content string, opts CleanOptions) Result {
	out := opts.OutputDelimiter
	if out == 0 {
		out = Comma
	}
	if !out.Valid() {
		return Failure("CSV cleaning", fmt.Errorf("unsupported output delimiter %s", out.Name()))
	}
	if opts.InputDelimiter != 0 && !opts.InputDelimiter.Valid() {
		return Failure("CSV cleaning", fmt.Errorf("unsupported input delimiter %s", opts.InputDelimiter.Name()))
	}

	data := Parse(content, opts.InputDelimiter)

	if opts.TrimWhitespace {
		data = TrimWhitespace(data)
	}
	if opts.RemoveEmptyRows {
		data = RemoveEmptyRows(data)
	}
	data = NormalizeRowLengths(data)
	if opts.RemoveEmptyColumns {
		data = RemoveEmptyColumns(data)
	}

	cleaned := Serialize(data, out)

	return Result{
		Success: true,
		Data:    cleaned,
		Stats: Stats{
			Rows:         len(data),
			Columns:      width(data),
			OriginalSize: len(content),
			CleanedSize:  len(cleaned),
		},
	}
}

// View parses content for display without modifying it.
func View(content string, delim Delimiter) (Data, Stats) {
	data := Parse(content, delim)
	return data, Stats{Rows: len(data), Columns: width(data)}
}

// TrimWhitespace trims every field.
func TrimWhitespace(data Data) Data {
	out := make(Data, len(data))
	for i, row := range data {
		trimmed := make(Row, len(row))
		for j, cell := range row {
			trimmed[j] = strings.TrimSpace(cell)
		}
		out[i] = trimmed
	}
	return out
}

// IsRowEmpty reports whether every field is empty or whitespace.
func IsRowEmpty(row Row) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// IsColumnEmpty reports whether every row is empty or whitespace at col.
// Rows shorter than col+1 count as empty there.
func IsColumnEmpty(data Data, col int) bool {
	for _, row := range data {
		if col < len(row) && strings.TrimSpace(row[col]) != "" {
			return false
		}
	}
	return true
}

// RemoveEmptyRows drops rows for which IsRowEmpty holds.
func RemoveEmptyRows(data Data) Data {
	out := make(Data, 0, len(data))
	for _, row := range data {
		if !IsRowEmpty(row) {
			out = append(out, row)
		}
	}
	return out
}

// NormalizeRowLengths pads short rows with empty fields up to the widest row.
func NormalizeRowLengths(data Data) Data {
	maxCols := maxWidth(data)
	out := make(Data, len(data))
	for i, row := range data {
		if len(row) == maxCols {
			out[i] = row
			continue
		}
		padded := make(Row, maxCols)
		copy(padded, row)
		out[i] = padded
	}
	return out
}

// RemoveEmptyColumns keeps only the columns holding at least one non-blank
// field. Missing fields in short rows read as empty.
func RemoveEmptyColumns(data Data) Data {
	if len(data) == 0 {
		return data
	}

	var keep []int
	for col := 0; col < maxWidth(data); col++ {
		if !IsColumnEmpty(data, col) {
			keep = append(keep, col)
		}
	}

	out := make(Data, len(data))
	for i, row := range data {
		kept := make(Row, len(keep))
		for j, col := range keep {
			if col < len(row) {
				kept[j] = row[col]
			}
		}
		out[i] = kept
	}
	return out
}

// width is the length of the first row, the column count callers report.
func width(data Data) int {
	if len(data) == 0 {
		return 0
	}
	return len(data[0])
}

func maxWidth(data Data) int {
	n := 0
	for _, row := range data {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}
