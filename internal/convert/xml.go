package convert

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/csvkit/internal/tabular"
)

var (
	// ErrInvalidXML is returned for a document that is not well-formed.
	ErrInvalidXML = errors.New("Invalid XML format")
	// ErrNoXMLData is returned when the root element has no child elements.
	ErrNoXMLData = errors.New("No data found in XML")
)

// element is a parsed XML element. Names keep their prefix as written.
type element struct {
	name     string
	attrs    []xml.Attr
	children []*element
	text     strings.Builder
}

func (e *element) isLeaf() bool { return len(e.children) == 0 }

// XMLToTabular treats the root element's child elements as records and
// converts them to comma-delimited text. Failures read
// "XML parsing error: <reason>".
func XMLToTabular(text string) tabular.Result {
	records, err := xmlRecords(text)
	if err != nil {
		return tabular.Failure("XML parsing", err)
	}
	return recordsResult(records)
}

func xmlRecords(text string) ([]Record, error) {
	root, err := parseXML(text)
	if err != nil {
		return nil, err
	}
	if len(root.children) == 0 {
		return nil, ErrNoXMLData
	}

	records := make([]Record, len(root.children))
	for i, child := range root.children {
		records[i] = Flatten(recordValue(child), "")
	}
	return records, nil
}

// parseXML builds the element tree and enforces well-formedness: matching
// tags, a single root element, and no character data outside it.
func parseXML(text string) (*element, error) {
	dec := xml.NewDecoder(strings.NewReader(text))
	// The text is already decoded; a declared encoding is informational.
	dec.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) { return r, nil }

	var (
		root  *element
		stack []*element
	)

	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidXML, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &element{name: qualifiedName(t.Name), attrs: t.Attr}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("%w: multiple root elements", ErrInvalidXML)
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, el)
			}
			stack = append(stack, el)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: unexpected </%s>", ErrInvalidXML, qualifiedName(t.Name))
			}
			top := stack[len(stack)-1]
			if name := qualifiedName(t.Name); name != top.name {
				return nil, fmt.Errorf("%w: <%s> closed by </%s>", ErrInvalidXML, top.name, name)
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) == 0 {
				if strings.TrimSpace(string(t)) != "" {
					return nil, fmt.Errorf("%w: text outside root element", ErrInvalidXML)
				}
				continue
			}
			stack[len(stack)-1].text.Write(t)
		}
	}

	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrInvalidXML)
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("%w: unclosed <%s>", ErrInvalidXML, stack[len(stack)-1].name)
	}
	return root, nil
}

func qualifiedName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// recordValue converts one record element. A record with no child elements
// still yields an object: its attributes plus its text under its own tag.
func recordValue(el *element) Value {
	if el.isLeaf() {
		obj := attrObject(el)
		obj.Set(el.name, String(strings.TrimSpace(el.text.String())))
		return obj
	}
	return elementValue(el)
}

// elementValue maps an element to a Value. Leaves become their trimmed text
// and drop their attributes. Otherwise attributes are stored as "@name",
// then each child under its tag; a tag seen again turns that member into an
// array of every occurrence.
func elementValue(el *element) Value {
	if el.isLeaf() {
		return String(strings.TrimSpace(el.text.String()))
	}

	obj := attrObject(el)
	seen := make(map[string]bool, len(el.children))
	for _, child := range el.children {
		val := elementValue(child)
		if !seen[child.name] {
			seen[child.name] = true
			obj.Set(child.name, val)
			continue
		}

		existing, _ := obj.Get(child.name)
		if existing.Kind() != KindArray {
			existing = Array(existing)
		}
		existing.Append(val)
		obj.Set(child.name, existing)
	}
	return obj
}

func attrObject(el *element) Value {
	obj := Object()
	for _, a := range el.attrs {
		obj.Set("@"+qualifiedName(a.Name), String(a.Value))
	}
	return obj
}
