package core

import (
	"context"
	"strings"
	"testing"

	"github.com/JonMunkholm/csvkit/internal/tabular"
)

func echoFormat(key string, exts ...string) FormatDefinition {
	return FormatDefinition{
		Key:        key,
		Label:      strings.ToUpper(key),
		Extensions: exts,
		Convert: func(_ context.Context, in Input) tabular.Result {
			return tabular.Result{Success: true, Data: in.Text}
		},
	}
}

func TestFormatRegistry_GetAndForFile(t *testing.T) {
	r := NewFormatRegistry(BuiltinFormats(nil, nil)...)

	if got := r.Count(); got != 5 {
		t.Fatalf("Count() = %d, want 5", got)
	}

	tests := []struct {
		file string
		want string
		ok   bool
	}{
		{"data.json", FormatJSON, true},
		{"DATA.JSON", FormatJSON, true},
		{"feed.xml", FormatXML, true},
		{"notes.txt", FormatText, true},
		{"server.log", FormatText, true},
		{"export.tsv", FormatText, true},
		{"book.xlsx", FormatExcel, true},
		{"legacy.xls", FormatExcel, true},
		{"scan.pdf", FormatPDF, true},
		{"archive.tar.json", FormatJSON, true},
		{`C:\Users\me\report.pdf`, FormatPDF, true},
		{"README", "", false},
		{"image.png", "", false},
		{"trailingdot.", "", false},
	}

	for _, tt := range tests {
		def, ok := r.ForFile(tt.file)
		if ok != tt.ok || def.Key != tt.want {
			t.Errorf("ForFile(%q) = %q, %v; want %q, %v", tt.file, def.Key, ok, tt.want, tt.ok)
		}
	}

	if def, ok := r.Get("JSON"); !ok || def.Key != FormatJSON {
		t.Errorf("Get(JSON) = %q, %v", def.Key, ok)
	}
	if _, ok := r.Get("yaml"); ok {
		t.Error("Get(yaml) should not be found")
	}
}

func TestFormatRegistry_AllSorted(t *testing.T) {
	r := NewFormatRegistry(echoFormat("zeta", "z"), echoFormat("alpha", ".a"), echoFormat("mid", ".m"))

	var keys []string
	for _, def := range r.All() {
		keys = append(keys, def.Key)
	}
	if strings.Join(keys, ",") != "alpha,mid,zeta" {
		t.Errorf("All() keys = %v", keys)
	}

	def, ok := r.ForFile("x.z")
	if !ok || def.Key != "zeta" {
		t.Errorf("extension without dot not normalized: %q %v", def.Key, ok)
	}
	if def.Extensions[0] != ".z" {
		t.Errorf("Extensions = %v, want [.z]", def.Extensions)
	}
}

func TestFormatRegistry_Panics(t *testing.T) {
	tests := []struct {
		name string
		defs []FormatDefinition
	}{
		{"duplicate key", []FormatDefinition{echoFormat("csv", ".csv"), echoFormat("CSV", ".txt")}},
		{"duplicate extension", []FormatDefinition{echoFormat("a", ".dat"), echoFormat("b", ".DAT")}},
		{"missing converter", []FormatDefinition{{Key: "nil"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			NewFormatRegistry(tt.defs...)
		})
	}
}

func TestBuiltinFormats_Convert(t *testing.T) {
	r := NewFormatRegistry(BuiltinFormats(nil, nil)...)
	ctx := context.Background()

	tests := []struct {
		format   string
		in       Input
		wantData string
		wantErr  string
	}{
		{FormatJSON, Input{Text: `[{"a":1}]`}, "a\n1", ""},
		{FormatXML, Input{Text: `<r><i><v>1</v></i></r>`}, "v\n1", ""},
		{FormatText, Input{Text: "a  b\n1  2"}, "a,b\n1,2", ""},
		{FormatText, Input{Text: "a;b\n1;2", Delimiter: tabular.Semicolon}, "a;b\n1;2", ""},
		{FormatExcel, Input{Data: []byte("x")}, "", "Excel conversion error: decoder unavailable"},
		{FormatPDF, Input{Data: []byte("x")}, "", "PDF conversion error: decoder unavailable"},
	}

	for _, tt := range tests {
		def, ok := r.Get(tt.format)
		if !ok {
			t.Fatalf("format %s not registered", tt.format)
		}
		res := def.Convert(ctx, tt.in)
		if tt.wantErr != "" {
			if res.Success || res.Error != tt.wantErr {
				t.Errorf("%s: Result = %+v, want error %q", tt.format, res, tt.wantErr)
			}
			continue
		}
		if !res.Success || res.Data != tt.wantData {
			t.Errorf("%s: Result = %+v, want data %q", tt.format, res, tt.wantData)
		}
	}
}
