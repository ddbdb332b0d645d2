package convert

import "github.com/JonMunkholm/csvkit/internal/tabular"

// Record is a flattened object: dotted-path keys in first-insertion order,
// each holding a scalar Value.
type Record struct {
	keys   []string
	values map[string]Value
}

// NewRecord returns an empty record.
func NewRecord() Record {
	return Record{values: make(map[string]Value)}
}

// Set stores a value. An existing key keeps its position.
func (r *Record) Set(key string, v Value) {
	if r.values == nil {
		r.values = make(map[string]Value)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// Get returns the value stored under key.
func (r Record) Get(key string) (Value, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Text returns the cell text for key, empty when absent.
func (r Record) Text(key string) string {
	return r.values[key].Text()
}

// Keys returns the keys in insertion order.
func (r Record) Keys() []string { return r.keys }

// Len is the number of keys.
func (r Record) Len() int { return len(r.keys) }

// Flatten collapses nested objects into dotted-path keys under prefix.
//
// Null becomes an empty string and arrays are stored whole as their compact
// JSON text; only objects are descended into. A value that is not an object
// has no members and flattens to an empty record.
func Flatten(v Value, prefix string) Record {
	rec := NewRecord()
	flattenInto(&rec, v, prefix)
	return rec
}

func flattenInto(rec *Record, v Value, prefix string) {
	for _, m := range v.Members() {
		key := m.Key
		if prefix != "" {
			key = prefix + "." + m.Key
		}

		switch m.Value.Kind() {
		case KindNull:
			rec.Set(key, String(""))
		case KindArray:
			rec.Set(key, String(m.Value.JSON()))
		case KindObject:
			flattenInto(rec, m.Value, key)
		default:
			rec.Set(key, m.Value)
		}
	}
}

// Headers is the union of record keys in order of first appearance.
func Headers(records []Record) []string {
	seen := make(map[string]struct{})
	var headers []string
	for _, rec := range records {
		for _, k := range rec.keys {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			headers = append(headers, k)
		}
	}
	return headers
}

// BuildRows returns the header row followed by one row per record. Keys a
// record lacks become empty fields.
func BuildRows(records []Record, headers []string) tabular.Data {
	header := make(tabular.Row, len(headers))
	copy(header, headers)

	data := make(tabular.Data, 0, len(records)+1)
	data = append(data, header)
	for _, rec := range records {
		row := make(tabular.Row, len(headers))
		for i, h := range headers {
			row[i] = rec.Text(h)
		}
		data = append(data, row)
	}
	return data
}

// recordsResult serializes records with comma. Rows counts records, not the
// header.
func recordsResult(records []Record) tabular.Result {
	headers := Headers(records)
	out := tabular.Serialize(BuildRows(records, headers), tabular.Comma)
	return tabular.Result{
		Success: true,
		Data:    out,
		Stats: tabular.Stats{
			Rows:    len(records),
			Columns: len(headers),
		},
	}
}
