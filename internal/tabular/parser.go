package tabular

import "strings"

// Row is an ordered sequence of raw field values.
type Row = []string

// Data is an ordered sequence of rows. Rows may differ in length until
// normalized; the first row is conventionally the header.
type Data = [][]string

// parseState is the state of the quote automaton.
type parseState uint8

const (
	stateUnquoted parseState = iota
	stateQuoted
)

func (s parseState) String() string {
	if s == stateQuoted {
		return "quoted"
	}
	return "unquoted"
}

// parser holds the automaton state plus the field and row accumulators.
type parser struct {
	delim byte
	state parseState
	field strings.Builder
	row   Row
	rows  Data
}

// Parse converts delimited text into rows. A zero or unsupported delimiter
// is detected from the first line.
//
// Input is scanned one physical line (split on '\n') at a time. A quoted
// field still open at the end of a line absorbs the next line with a '\n'
// at the join, so embedded newlines never start a row. Parse never fails:
// an unterminated quote swallows the rest of the input as one field.
func Parse(content string, delim Delimiter) Data {
	if !delim.Valid() {
		delim = Detect(content)
	}

	p := &parser{delim: byte(delim)}
	for _, line := range strings.Split(content, "\n") {
		for i := 0; i < len(line); {
			i += p.step(line, i)
		}
		p.endLine()
	}
	p.finish()

	return p.rows
}

// step applies one transition for line[i] and returns the number of bytes
// consumed (2 for an escaped quote, otherwise 1).
//
// Delimiters and quotes are ASCII, so scanning bytes keeps multi-byte UTF-8
// sequences intact.
func (p *parser) step(line string, i int) int {
	c := line[i]

	switch p.state {
	case stateUnquoted:
		switch c {
		case '"':
			p.state = stateQuoted
		case p.delim:
			p.endField()
		default:
			p.field.WriteByte(c)
		}

	case stateQuoted:
		if c != '"' {
			p.field.WriteByte(c)
			break
		}
		if i+1 < len(line) && line[i+1] == '"' {
			p.field.WriteByte('"')
			return 2
		}
		p.state = stateUnquoted
	}

	return 1
}

func (p *parser) endField() {
	p.row = append(p.row, p.field.String())
	p.field.Reset()
}

// endLine closes the row unless a quoted field continues on the next line.
func (p *parser) endLine() {
	if p.state == stateQuoted {
		p.field.WriteByte('\n')
		return
	}
	p.endField()
	p.rows = append(p.rows, p.row)
	p.row = nil
}

// finish flushes a field left open by an unterminated quote.
func (p *parser) finish() {
	if p.state != stateQuoted {
		return
	}
	pending := strings.TrimSuffix(p.field.String(), "\n")
	p.field.Reset()
	p.field.WriteString(pending)
	p.endField()
	p.rows = append(p.rows, p.row)
	p.row = nil
	p.state = stateUnquoted
}
