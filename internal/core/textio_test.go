package core

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"testing/iotest"
)

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		charset string
		want    string
	}{
		{"plain utf-8", []byte("a,b\n1,2"), "", "a,b\n1,2"},
		{"utf-8 bom removed", []byte("\xEF\xBB\xBFa,b"), "utf-8", "a,b"},
		{"multibyte kept", []byte("navn,by\nÅse,Tromsø"), "utf-8", "navn,by\nÅse,Tromsø"},
		{"invalid byte replaced", []byte("a\xFFb"), "", "a?b"},
		{"invalid run replaced once", []byte("a\xFF\xFEb"), "", "a?b"},
		{"truncated sequence", []byte("caf\xC3"), "", "caf?"},
		{"latin1", []byte("caf\xE9"), "latin1", "café"},
		{"iso-8859-1 label", []byte("\xC5se"), "iso-8859-1", "Åse"},
		{"windows-1252 euro", []byte("\x80 5"), "windows-1252", "€ 5"},
		{"utf-16le with bom", []byte("\xFF\xFEa\x00,\x00b\x00"), "", "a,b"},
		{"utf-16be with bom", []byte("\xFE\xFF\x00a\x00,\x00b"), "latin1", "a,b"},
		{"utf-16le without bom", []byte("h\x00i\x00"), "utf-16le", "hi"},
		{"label case and spaces", []byte("x"), "  UTF-8 ", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeText(tt.input, tt.charset)
			if err != nil {
				t.Fatalf("DecodeText() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DecodeText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeText_UnknownCharset(t *testing.T) {
	_, err := DecodeText([]byte("x"), "klingon")
	if !errors.Is(err, ErrUnsupportedEncoding) {
		t.Errorf("error = %v, want ErrUnsupportedEncoding", err)
	}
}

func TestReadUpload(t *testing.T) {
	t.Run("within limit", func(t *testing.T) {
		got, err := ReadUpload(strings.NewReader("abc"), 3)
		if err != nil {
			t.Fatalf("ReadUpload() error = %v", err)
		}
		if string(got) != "abc" {
			t.Errorf("ReadUpload() = %q", got)
		}
	})

	t.Run("over limit", func(t *testing.T) {
		_, err := ReadUpload(strings.NewReader("abcd"), 3)
		if !errors.Is(err, ErrFileTooLarge) {
			t.Errorf("error = %v, want ErrFileTooLarge", err)
		}
	})

	t.Run("no limit", func(t *testing.T) {
		big := bytes.Repeat([]byte("x"), 1<<16)
		got, err := ReadUpload(bytes.NewReader(big), 0)
		if err != nil || len(got) != len(big) {
			t.Errorf("ReadUpload() = %d bytes, %v", len(got), err)
		}
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ReadUpload(strings.NewReader(""), 10)
		if !errors.Is(err, ErrEmptyInput) {
			t.Errorf("error = %v, want ErrEmptyInput", err)
		}
	})

	t.Run("read error passed through", func(t *testing.T) {
		boom := errors.New("disk on fire")
		_, err := ReadUpload(iotest.ErrReader(boom), 10)
		if !errors.Is(err, boom) {
			t.Errorf("error = %v, want wrapped read error", err)
		}
	})
}
