package core

import (
	"context"
	"errors"

	"github.com/JonMunkholm/csvkit/internal/convert"
	"github.com/JonMunkholm/csvkit/internal/tabular"
)

// Format keys of the built-in converters.
const (
	FormatJSON  = "json"
	FormatXML   = "xml"
	FormatText  = "text"
	FormatExcel = "excel"
	FormatPDF   = "pdf"

	// FormatAuto selects the format from the file extension.
	FormatAuto = "auto"
)

// ErrDecoderUnavailable is reported when a binary format has no decoder.
var ErrDecoderUnavailable = errors.New("decoder unavailable")

// BuiltinFormats returns the standard format definitions. A nil decoder
// leaves its format registered but every conversion fails with
// ErrDecoderUnavailable.
func BuiltinFormats(sheets convert.SpreadsheetDecoder, docs convert.TextExtractor) []FormatDefinition {
	return []FormatDefinition{
		{
			Key:        FormatJSON,
			Label:      "JSON",
			Extensions: []string{".json"},
			Convert: func(_ context.Context, in Input) tabular.Result {
				return convert.JSONToTabular(in.Text)
			},
		},
		{
			Key:        FormatXML,
			Label:      "XML",
			Extensions: []string{".xml"},
			Convert: func(_ context.Context, in Input) tabular.Result {
				return convert.XMLToTabular(in.Text)
			},
		},
		{
			Key:        FormatText,
			Label:      "Text",
			Extensions: []string{".txt", ".log", ".tsv"},
			Convert: func(_ context.Context, in Input) tabular.Result {
				return convert.FreeTextToTabular(in.Text, in.Delimiter)
			},
		},
		{
			Key:        FormatExcel,
			Label:      "Excel",
			Extensions: []string{".xls", ".xlsx"},
			Binary:     true,
			Convert: func(ctx context.Context, in Input) tabular.Result {
				if sheets == nil {
					return tabular.Failure("Excel conversion", ErrDecoderUnavailable)
				}
				return convert.SpreadsheetToTabular(ctx, sheets, in.Data)
			},
		},
		{
			Key:        FormatPDF,
			Label:      "PDF",
			Extensions: []string{".pdf"},
			Binary:     true,
			Convert: func(ctx context.Context, in Input) tabular.Result {
				if docs == nil {
					return tabular.Failure("PDF conversion", ErrDecoderUnavailable)
				}
				return convert.DocumentToTabular(ctx, docs, in.Data)
			},
		},
	}
}
