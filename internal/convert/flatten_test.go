package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatten(t *testing.T) {
	v, err := DecodeJSON(`{"a":{"b":1},"c":[1,2]}`)
	require.NoError(t, err)

	rec := Flatten(v, "")
	assert.Equal(t, []string{"a.b", "c"}, rec.Keys())
	assert.Equal(t, "1", rec.Text("a.b"))
	assert.Equal(t, "[1,2]", rec.Text("c"))
}

func TestFlatten_Cases(t *testing.T) {
	tests := []struct {
		name   string
		input  Value
		prefix string
		want   map[string]string
		keys   []string
	}{
		{
			name:  "null becomes empty string",
			input: Object(Field("n", Null())),
			want:  map[string]string{"n": ""},
			keys:  []string{"n"},
		},
		{
			name:   "prefix applied",
			input:  Object(Field("x", Int(1))),
			prefix: "root",
			want:   map[string]string{"root.x": "1"},
			keys:   []string{"root.x"},
		},
		{
			name: "deep nesting",
			input: Object(Field("a", Object(Field("b", Object(Field("c", String("deep")))))),
				Field("d", Bool(false))),
			want: map[string]string{"a.b.c": "deep", "d": "false"},
			keys: []string{"a.b.c", "d"},
		},
		{
			name:  "empty nested object contributes nothing",
			input: Object(Field("e", Object()), Field("f", String("x"))),
			want:  map[string]string{"f": "x"},
			keys:  []string{"f"},
		},
		{
			name:  "array of objects kept whole",
			input: Object(Field("items", Array(Object(Field("k", Int(1)))))),
			want:  map[string]string{"items": `[{"k":1}]`},
			keys:  []string{"items"},
		},
		{
			name:  "scalar top-level",
			input: String("just text"),
			want:  map[string]string{},
			keys:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Flatten(tt.input, tt.prefix)
			assert.Equal(t, tt.keys, rec.Keys())
			assert.Equal(t, len(tt.want), rec.Len())
			for k, want := range tt.want {
				assert.Equal(t, want, rec.Text(k), "key %s", k)
			}
		})
	}
}

func TestFlatten_ScalarsStayTyped(t *testing.T) {
	rec := Flatten(Object(Field("n", Number("2.50")), Field("b", Bool(true))), "")

	n, ok := rec.Get("n")
	require.True(t, ok)
	assert.Equal(t, KindNumber, n.Kind())

	b, ok := rec.Get("b")
	require.True(t, ok)
	assert.Equal(t, KindBool, b.Kind())
}

func TestHeaders(t *testing.T) {
	r1 := NewRecord()
	r1.Set("b", String("1"))
	r1.Set("a", String("2"))
	r2 := NewRecord()
	r2.Set("c", String("3"))
	r2.Set("a", String("4"))

	assert.Equal(t, []string{"b", "a", "c"}, Headers([]Record{r1, r2}))
	assert.Empty(t, Headers(nil))
}

func TestBuildRows(t *testing.T) {
	r1 := NewRecord()
	r1.Set("x", Int(1))
	var r2 Record
	r2.Set("y", Int(2))

	headers := Headers([]Record{r1, r2})
	rows := BuildRows([]Record{r1, r2}, headers)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"x", "y"}, rows[0])
	assert.Equal(t, []string{"1", ""}, rows[1])
	assert.Equal(t, []string{"", "2"}, rows[2])
}

func TestRecordSet_KeepsPosition(t *testing.T) {
	rec := NewRecord()
	rec.Set("a", Int(1))
	rec.Set("b", Int(2))
	rec.Set("a", Int(3))

	assert.Equal(t, []string{"a", "b"}, rec.Keys())
	assert.Equal(t, "3", rec.Text("a"))
}
