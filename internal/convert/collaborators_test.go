package convert

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubSpreadsheet struct {
	sheet Sheet
	err   error
}

func (s stubSpreadsheet) FirstSheet(context.Context, []byte) (Sheet, error) {
	return s.sheet, s.err
}

type stubExtractor struct {
	doc Document
	err error
}

func (s stubExtractor) ExtractText(context.Context, []byte) (Document, error) {
	return s.doc, s.err
}

func TestSpreadsheetToTabular(t *testing.T) {
	dec := stubSpreadsheet{sheet: Sheet{Name: "Sales", CSV: "region,total\nnorth,10\nsouth,12"}}

	res := SpreadsheetToTabular(context.Background(), dec, nil)
	assert.True(t, res.Success)
	assert.Equal(t, "region,total\nnorth,10\nsouth,12", res.Data)
	assert.Equal(t, 2, res.Stats.Rows)
	assert.Equal(t, 2, res.Stats.Columns)
	assert.Equal(t, "Sales", res.Stats.Sheet)
	assert.Empty(t, res.Warning)
}

func TestSpreadsheetToTabular_Error(t *testing.T) {
	dec := stubSpreadsheet{err: errors.New("zip: not a valid zip file")}

	res := SpreadsheetToTabular(context.Background(), dec, []byte("junk"))
	assert.False(t, res.Success)
	assert.Equal(t, "Excel conversion error: zip: not a valid zip file", res.Error)
	assert.Empty(t, res.Data)
}

func TestDocumentToTabular(t *testing.T) {
	ext := stubExtractor{doc: Document{Pages: 2, Text: "Item  Qty\nApple  3\n\nPear  5\n"}}

	res := DocumentToTabular(context.Background(), ext, nil)
	assert.True(t, res.Success)
	assert.Equal(t, "Item,Qty\nApple,3\nPear,5", res.Data)
	assert.Equal(t, BestEffortWarning, res.Warning)
	assert.Equal(t, 2, res.Stats.Pages)
	assert.Equal(t, 2, res.Stats.Rows)
	assert.Equal(t, 2, res.Stats.Columns)
}

func TestDocumentToTabular_Error(t *testing.T) {
	ext := stubExtractor{err: errors.New("malformed PDF")}

	res := DocumentToTabular(context.Background(), ext, nil)
	assert.False(t, res.Success)
	assert.Equal(t, "PDF conversion error: malformed PDF", res.Error)
	assert.Empty(t, res.Warning)
}
