package convert

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/JonMunkholm/csvkit/internal/tabular"
)

var (
	// ErrEmptyJSON is returned when the input holds no records.
	ErrEmptyJSON = errors.New("Empty JSON data")
	// ErrInvalidJSON is returned for input that is not a single JSON value.
	ErrInvalidJSON = errors.New("invalid JSON syntax")
)

// DecodeJSON parses text into a Value. Object members follow JavaScript
// property order: array-index keys ("0", "7", "42") first in ascending
// numeric order, then the other keys in document order. Duplicate keys keep
// their first position and take the last value.
func DecodeJSON(text string) (Value, error) {
	if strings.TrimSpace(text) == "" {
		return Value{}, fmt.Errorf("%w: unexpected end of JSON input", ErrInvalidJSON)
	}
	if !json.Valid([]byte(text)) {
		return Value{}, ErrInvalidJSON
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, fmt.Errorf("%w: unexpected data after top-level value", ErrInvalidJSON)
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '[':
			return decodeArray(dec)
		case '{':
			return decodeObject(dec)
		}
		return Value{}, fmt.Errorf("unexpected delimiter %q", t)
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return Number(t.String()), nil
	case float64:
		return Float(t), nil
	case string:
		return String(t), nil
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}

func decodeArray(dec *json.Decoder) (Value, error) {
	arr := Array()
	for dec.More() {
		item, err := decodeValue(dec)
		if err != nil {
			return Value{}, err
		}
		arr.Append(item)
	}
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return arr, nil
}

func decodeObject(dec *json.Decoder) (Value, error) {
	obj := Object()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return Value{}, fmt.Errorf("object key must be a string, got %v", tok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return Value{}, err
		}
		obj.Set(key, val)
	}
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	slices.SortStableFunc(obj.members, compareIndexKeys)
	return obj, nil
}

func compareIndexKeys(a, b Member) int {
	ai, aok := arrayIndex(a.Key)
	bi, bok := arrayIndex(b.Key)
	switch {
	case aok && bok:
		return cmp.Compare(ai, bi)
	case aok:
		return -1
	case bok:
		return 1
	}
	return 0
}

// arrayIndex parses key as a canonical array index: decimal digits without
// a leading zero, below 2^32-1.
func arrayIndex(key string) (int64, bool) {
	if key == "" || len(key) > 10 || (len(key) > 1 && key[0] == '0') {
		return 0, false
	}
	for i := 0; i < len(key); i++ {
		if key[i] < '0' || key[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(key, 10, 64)
	if err != nil || n >= math.MaxUint32 {
		return 0, false
	}
	return n, true
}

// JSONToTabular converts a JSON document to comma-delimited text.
// Failures read "JSON parsing error: <reason>".
func JSONToTabular(text string) tabular.Result {
	v, err := DecodeJSON(text)
	if err != nil {
		return tabular.Failure("JSON parsing", err)
	}
	return JSONValueToTabular(v)
}

// JSONValueToTabular converts an already decoded value. An array yields one
// record per element; any other value is a single record.
func JSONValueToTabular(v Value) tabular.Result {
	records, err := jsonRecords(v)
	if err != nil {
		return tabular.Failure("JSON parsing", err)
	}
	return recordsResult(records)
}

func jsonRecords(v Value) ([]Record, error) {
	items := []Value{v}
	if v.Kind() == KindArray {
		items = v.Items()
	}
	if len(items) == 0 {
		return nil, ErrEmptyJSON
	}

	records := make([]Record, len(items))
	for i, item := range items {
		records[i] = Flatten(item, "")
	}
	return records, nil
}
