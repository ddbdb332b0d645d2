package core

// textio.go is the file-reading step: uploads are read with a size cap and
// decoded to UTF-8 text before they reach the parsers.
//
// Decoding order:
//  1. A byte order mark, when present, selects UTF-8 or UTF-16 and is removed
//  2. Otherwise the requested charset decodes the bytes (default UTF-8)
//  3. Invalid UTF-8 left after decoding is replaced with '?'

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// ErrFileTooLarge is returned when an upload exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrEmptyInput is returned for uploads with no bytes.
	ErrEmptyInput = errors.New("empty file")

	// ErrUnsupportedEncoding is returned for unknown charset names.
	ErrUnsupportedEncoding = errors.New("unsupported encoding")
)

// ReadUpload reads all of r, failing with ErrFileTooLarge once more than
// maxBytes arrive. A maxBytes of zero or less disables the check.
func ReadUpload(r io.Reader, maxBytes int64) ([]byte, error) {
	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: exceeds %s", ErrFileTooLarge, FormatFileSize(maxBytes))
	}
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}
	return data, nil
}

// LookupEncoding resolves a WHATWG charset label such as "utf-8",
// "latin1", "windows-1252" or "utf-16le". An empty label means UTF-8.
func LookupEncoding(charset string) (encoding.Encoding, error) {
	label := strings.TrimSpace(charset)
	if label == "" {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("%w %q", ErrUnsupportedEncoding, charset)
	}
	return enc, nil
}

// DecodeText converts data in the given charset to UTF-8 text.
func DecodeText(data []byte, charset string) (string, error) {
	enc, err := LookupEncoding(charset)
	if err != nil {
		return "", err
	}

	// The UTF-8 decoder would substitute U+FFFD; pass bytes through and
	// sanitize below instead.
	var dec transform.Transformer = enc.NewDecoder()
	if enc == unicode.UTF8 {
		dec = encoding.Nop.NewDecoder()
	}

	out, _, err := transform.Bytes(unicode.BOMOverride(dec), data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", charset, err)
	}
	return sanitizeUTF8(out), nil
}

// sanitizeUTF8 replaces each run of invalid bytes with '?'.
func sanitizeUTF8(b []byte) string {
	if isASCII(b) {
		return string(b)
	}
	return string(bytes.ToValidUTF8(b, []byte("?")))
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return false
		}
	}
	return true
}
