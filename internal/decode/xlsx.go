// Package decode provides the binary decoders behind the spreadsheet and
// document collaborators in package convert.
package decode

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/csvkit/internal/convert"
	"github.com/JonMunkholm/csvkit/internal/tabular"
)

// ErrNoSheets is returned for a workbook without worksheets.
var ErrNoSheets = errors.New("workbook has no sheets")

// XLSX decodes Office Open XML workbooks.
type XLSX struct{}

var _ convert.SpreadsheetDecoder = XLSX{}

// FirstSheet returns the first worksheet as comma-delimited text. Rows are
// padded to the widest row so every line has the same field count.
func (XLSX) FirstSheet(ctx context.Context, data []byte) (convert.Sheet, error) {
	if err := ctx.Err(); err != nil {
		return convert.Sheet{}, err
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return convert.Sheet{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return convert.Sheet{}, ErrNoSheets
	}
	name := sheets[0]

	rows, err := f.GetRows(name)
	if err != nil {
		return convert.Sheet{}, fmt.Errorf("read sheet %q: %w", name, err)
	}

	return convert.Sheet{
		Name: name,
		CSV:  tabular.Serialize(tabular.NormalizeRowLengths(rows), tabular.Comma),
	}, nil
}
