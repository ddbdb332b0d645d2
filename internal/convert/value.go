// Package convert turns structured input (JSON, XML, free text and the
// output of spreadsheet and document decoders) into delimited text.
//
// Structured input is first decoded into [Value], an ordered tagged union,
// then flattened into [Record]s whose union of keys becomes the header row.
// Adapters never return errors to the caller; they report failures through
// [tabular.Result].
package convert

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Kind discriminates the variants of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a JSON-like value. The zero Value is null.
type Value struct {
	kind Kind

	boolVal bool
	// strVal holds the string for KindString and the literal for KindNumber.
	strVal string

	items   []Value
	members []Member
}

// Member is one key/value pair of an object. Objects keep insertion order.
type Member struct {
	Key   string
	Value Value
}

// ============================================================
// Constructors
// ============================================================

// Null returns the null value.
func Null() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, boolVal: b} }

// Number returns a number from its JSON literal, e.g. "1.50" or "-2e3".
func Number(literal string) Value { return Value{kind: KindNumber, strVal: literal} }

// Int returns a number value.
func Int(n int64) Value { return Number(strconv.FormatInt(n, 10)) }

// Float returns a number value.
func Float(f float64) Value { return Number(strconv.FormatFloat(f, 'g', -1, 64)) }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, strVal: s} }

// Array returns an array of items.
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, items: items}
}

// Object returns an object with members in the given order. A repeated key
// keeps its first position and takes the last value.
func Object(members ...Member) Value {
	v := Value{kind: KindObject, members: make([]Member, 0, len(members))}
	for _, m := range members {
		v.Set(m.Key, m.Value)
	}
	return v
}

// Field is shorthand for building a Member.
func Field(key string, v Value) Member { return Member{Key: key, Value: v} }

// ============================================================
// Accessors
// ============================================================

// Kind returns the variant.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Items returns the elements of an array, nil for other kinds.
func (v Value) Items() []Value { return v.items }

// Members returns the members of an object in order, nil for other kinds.
func (v Value) Members() []Member { return v.members }

// Len is the number of items or members.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.items)
	case KindObject:
		return len(v.members)
	}
	return 0
}

// Get looks up an object member.
func (v Value) Get(key string) (Value, bool) {
	for _, m := range v.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Set stores key in an object, replacing the value in place when the key
// already exists. Set on a non-object turns it into an empty object first.
func (v *Value) Set(key string, val Value) {
	if v.kind != KindObject {
		*v = Value{kind: KindObject}
	}
	for i := range v.members {
		if v.members[i].Key == key {
			v.members[i].Value = val
			return
		}
	}
	v.members = append(v.members, Member{Key: key, Value: val})
}

// Append adds an item to an array. Append on a non-array turns it into a
// one-element array holding the previous value first, unless that value is
// null.
func (v *Value) Append(item Value) {
	switch v.kind {
	case KindArray:
	case KindNull:
		*v = Array()
	default:
		*v = Array(*v)
	}
	v.items = append(v.items, item)
}

// Text renders v the way a scalar lands in a cell: null is empty, numbers
// use the shortest round-trip form, arrays and objects are compact JSON.
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		if v.boolVal {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(v.strVal)
	case KindString:
		return v.strVal
	default:
		return v.JSON()
	}
}

// JSON returns the compact JSON encoding of v: no whitespace, no HTML
// escaping, numbers in their shortest form.
func (v Value) JSON() string {
	return string(v.appendJSON(nil))
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return v.appendJSON(nil), nil
}

func (v Value) appendJSON(buf []byte) []byte {
	switch v.kind {
	case KindNull:
		return append(buf, "null"...)
	case KindBool, KindNumber:
		return append(buf, v.Text()...)
	case KindString:
		return appendQuoted(buf, v.strVal)
	case KindArray:
		buf = append(buf, '[')
		for i, item := range v.items {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = item.appendJSON(buf)
		}
		return append(buf, ']')
	case KindObject:
		buf = append(buf, '{')
		for i, m := range v.members {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = appendQuoted(buf, m.Key)
			buf = append(buf, ':')
			buf = m.Value.appendJSON(buf)
		}
		return append(buf, '}')
	}
	return buf
}

const hexDigits = "0123456789abcdef"

// appendQuoted escapes only what JSON requires: quote, backslash and
// control characters. Invalid UTF-8 becomes U+FFFD.
func appendQuoted(buf []byte, s string) []byte {
	buf = append(buf, '"')
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			switch c {
			case '"', '\\':
				buf = append(buf, '\\', c)
			case '\b':
				buf = append(buf, '\\', 'b')
			case '\f':
				buf = append(buf, '\\', 'f')
			case '\n':
				buf = append(buf, '\\', 'n')
			case '\r':
				buf = append(buf, '\\', 'r')
			case '\t':
				buf = append(buf, '\\', 't')
			default:
				if c < 0x20 {
					buf = append(buf, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xf])
				} else {
					buf = append(buf, c)
				}
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			buf = append(buf, "\uFFFD"...)
		} else {
			buf = append(buf, s[i:i+size]...)
		}
		i += size
	}
	return append(buf, '"')
}

// formatNumber renders a JSON number literal as the shortest decimal that
// round-trips, switching to exponent form at 1e21 and below 1e-6.
func formatNumber(literal string) string {
	f, err := strconv.ParseFloat(literal, 64)
	if err != nil && !math.IsInf(f, 0) {
		return literal
	}
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	sign := ""
	if f < 0 {
		sign = "-"
		f = -f
	}

	// Shortest digits as d.ddde±x; n is the decimal point position.
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	mantissa, expPart, _ := strings.Cut(sci, "e")
	digits := strings.Replace(mantissa, ".", "", 1)
	exp, _ := strconv.Atoi(expPart)
	n := exp + 1
	k := len(digits)

	var b strings.Builder
	b.WriteString(sign)
	switch {
	case k <= n && n <= 21:
		b.WriteString(digits)
		b.WriteString(strings.Repeat("0", n-k))
	case 0 < n && n <= 21:
		b.WriteString(digits[:n])
		b.WriteByte('.')
		b.WriteString(digits[n:])
	case -6 < n && n <= 0:
		b.WriteString("0.")
		b.WriteString(strings.Repeat("0", -n))
		b.WriteString(digits)
	default:
		b.WriteByte(digits[0])
		if k > 1 {
			b.WriteByte('.')
			b.WriteString(digits[1:])
		}
		b.WriteByte('e')
		if n-1 >= 0 {
			b.WriteByte('+')
		} else {
			b.WriteByte('-')
		}
		e := n - 1
		if e < 0 {
			e = -e
		}
		b.WriteString(strconv.Itoa(e))
	}
	return b.String()
}
