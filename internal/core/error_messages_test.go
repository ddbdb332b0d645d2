package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/JonMunkholm/csvkit/internal/convert"
	"github.com/JonMunkholm/csvkit/internal/tabular"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "file too large",
			err:         fmt.Errorf("%w: exceeds 50 MB", ErrFileTooLarge),
			wantCode:    "FILE001",
			wantMessage: "The file exceeds the upload size limit",
		},
		{
			name:        "unsupported encoding",
			err:         fmt.Errorf("%w %q", ErrUnsupportedEncoding, "klingon"),
			wantCode:    "FILE002",
			wantMessage: "The character encoding is not supported",
		},
		{
			name:        "empty upload",
			err:         ErrEmptyInput,
			wantCode:    "FILE003",
			wantMessage: "The uploaded file is empty",
		},
		{
			name:        "unknown format",
			err:         fmt.Errorf("%w %q", ErrUnknownFormat, "yaml"),
			wantCode:    "FMT001",
			wantMessage: "The requested input format is not supported",
		},
		{
			name:        "limiter saturated",
			err:         fmt.Errorf("convert: %w", ErrTooManyConversions),
			wantCode:    "CNV004",
			wantMessage: "Too many conversions in progress",
		},
		{
			name:        "deadline",
			err:         fmt.Errorf("clean: %w", context.DeadlineExceeded),
			wantCode:    "CNV005",
			wantMessage: "The conversion took too long",
		},
		{
			name:        "cancelled",
			err:         context.Canceled,
			wantCode:    "CNV006",
			wantMessage: "The request was cancelled",
		},
		{
			name:        "no last result",
			err:         errors.New("no result available"),
			wantCode:    "CNV007",
			wantMessage: "Nothing has been cleaned or converted yet",
		},
		{
			name:        "rate limit",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("FILE TOO LARGE"),
			wantCode:    "FILE001",
			wantMessage: "The file exceeds the upload size limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestMapMessage_FailedResults(t *testing.T) {
	badClean := tabular.DefaultCleanOptions()
	badClean.OutputDelimiter = ':'

	tests := []struct {
		name     string
		res      tabular.Result
		wantCode string
	}{
		{"empty json", convert.JSONToTabular("[]"), "JSON001"},
		{"invalid json", convert.JSONToTabular("{"), "JSON002"},
		{"no xml data", convert.XMLToTabular("<root/>"), "XML001"},
		{"invalid xml", convert.XMLToTabular("<root>"), "XML002"},
		{"bad output delimiter", tabular.Clean("a,b", badClean), "FMT003"},
		{"decoder unavailable", tabular.Failure("Excel conversion", ErrDecoderUnavailable), "FMT002"},
		{"excel", tabular.Failure("Excel conversion", errors.New("zip: not a valid zip file")), "CNV001"},
		{"pdf", tabular.Failure("PDF conversion", errors.New("malformed PDF")), "CNV002"},
		{"cleaning", tabular.Failure("CSV cleaning", errors.New("boom")), "CNV003"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.res.Success {
				t.Fatalf("expected a failed result, got %+v", tt.res)
			}
			if got := MapMessage(tt.res.Error); got.Code != tt.wantCode {
				t.Errorf("MapMessage(%q) code = %q, want %q", tt.res.Error, got.Code, tt.wantCode)
			}
		})
	}

	if got := MapMessage(""); got != (UserMessage{}) {
		t.Errorf("MapMessage(\"\") = %+v, want zero value", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known error is user facing", ErrTooManyConversions, true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorPatterns_Lowercase(t *testing.T) {
	seen := make(map[string]bool)
	for _, ep := range errorPatterns {
		if ep.pattern != strings.ToLower(ep.pattern) {
			t.Errorf("pattern %q must be lowercase", ep.pattern)
		}
		if seen[ep.pattern] {
			t.Errorf("duplicate pattern %q", ep.pattern)
		}
		seen[ep.pattern] = true
	}
}

