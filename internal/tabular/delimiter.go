// Package tabular implements the delimited-text engine: delimiter
// detection, the quote-aware parser, the minimal-quoting serializer and the
// cleaning pipeline.
//
// All functions are pure. They never fail on malformed input; higher layers
// report problems through [Result].
package tabular

import (
	"fmt"
	"strings"
)

// Delimiter separates fields within a line.
// The zero value means "not chosen": parsing detects one, serializing uses Comma.
type Delimiter rune

const (
	Comma     Delimiter = ','
	Semicolon Delimiter = ';'
	Tab       Delimiter = '\t'
	Pipe      Delimiter = '|'
)

// DefaultCandidates is the detection priority order. Earlier entries win ties.
var DefaultCandidates = []Delimiter{Comma, Semicolon, Tab, Pipe}

// Valid reports whether d is one of the supported delimiters.
func (d Delimiter) Valid() bool {
	switch d {
	case Comma, Semicolon, Tab, Pipe:
		return true
	}
	return false
}

// Name returns the lowercase name used in APIs and logs.
func (d Delimiter) Name() string {
	switch d {
	case Comma:
		return "comma"
	case Semicolon:
		return "semicolon"
	case Tab:
		return "tab"
	case Pipe:
		return "pipe"
	case 0:
		return "auto"
	default:
		return fmt.Sprintf("%q", rune(d))
	}
}

// String returns the delimiter character itself.
func (d Delimiter) String() string {
	if d == 0 {
		return ""
	}
	return string(rune(d))
}

// ParseDelimiter accepts either the delimiter character or its name.
// An empty string and "auto" return the zero Delimiter.
func ParseDelimiter(s string) (Delimiter, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return 0, nil
	case ",", "comma":
		return Comma, nil
	case ";", "semicolon":
		return Semicolon, nil
	case "\t", `\t`, "tab":
		return Tab, nil
	case "|", "pipe":
		return Pipe, nil
	}
	return 0, fmt.Errorf("invalid delimiter %q", s)
}

// Detect picks the candidate with the most occurrences in the first line of
// sample. Only a strictly greater count replaces the current best, so ties
// go to the earlier candidate. Comma is returned when nothing matches.
func Detect(sample string, candidates ...Delimiter) Delimiter {
	d, ok := DetectMin(sample, 1, candidates...)
	if !ok {
		return Comma
	}
	return d
}

// DetectMin is Detect with a minimum occurrence count. It returns false when
// no candidate reaches min, leaving the fallback to the caller.
func DetectMin(sample string, min int, candidates ...Delimiter) (Delimiter, bool) {
	if len(candidates) == 0 {
		candidates = DefaultCandidates
	}
	if min < 1 {
		min = 1
	}

	line := FirstLine(sample)

	var best Delimiter
	maxCount := 0
	for _, c := range candidates {
		count := strings.Count(line, string(rune(c)))
		if count > maxCount && count >= min {
			maxCount = count
			best = c
		}
	}

	return best, maxCount > 0
}

// FirstLine returns sample up to the first newline, or all of it.
func FirstLine(sample string) string {
	if i := strings.IndexByte(sample, '\n'); i >= 0 {
		return sample[:i]
	}
	return sample
}
