package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	v, err := DecodeJSON(`{"b":1,"a":{"y":true,"x":null},"c":[1,"two"],"d":1.50}`)
	require.NoError(t, err)
	require.Equal(t, KindObject, v.Kind())

	var keys []string
	for _, m := range v.Members() {
		keys = append(keys, m.Key)
	}
	assert.Equal(t, []string{"b", "a", "c", "d"}, keys)

	a, _ := v.Get("a")
	assert.Equal(t, "y", a.Members()[0].Key)

	d, _ := v.Get("d")
	assert.Equal(t, KindNumber, d.Kind())
	assert.Equal(t, "1.5", d.Text())

	c, _ := v.Get("c")
	assert.Equal(t, `[1,"two"]`, c.JSON())
}

func TestDecodeJSON_DuplicateKeys(t *testing.T) {
	v, err := DecodeJSON(`{"a":1,"b":2,"a":3}`)
	require.NoError(t, err)

	assert.Equal(t, 2, v.Len())
	assert.Equal(t, "a", v.Members()[0].Key)
	a, _ := v.Get("a")
	assert.Equal(t, "3", a.Text())
}

func TestDecodeJSON_KeyOrder(t *testing.T) {
	v, err := DecodeJSON(`{"z":0,"10":1,"01":2,"2":3,"-1":4,"4294967295":5,"0":6,"a":7}`)
	require.NoError(t, err)

	var keys []string
	for _, m := range v.Members() {
		keys = append(keys, m.Key)
	}
	assert.Equal(t, []string{"0", "2", "10", "z", "01", "-1", "4294967295", "a"}, keys)
}

func TestDecodeJSON_Errors(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		`{"a":`,
		`{"a" 1}`,
		`[1,2`,
		`{} {}`,
		`nope`,
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := DecodeJSON(in)
			assert.ErrorIs(t, err, ErrInvalidJSON)
		})
	}
}

func TestJSONToTabular(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantData string
		wantRows int
		wantCols int
	}{
		{
			name:     "header union in first-appearance order",
			input:    `[{"x":1},{"y":2}]`,
			wantData: "x,y\n1,\n,2",
			wantRows: 2,
			wantCols: 2,
		},
		{
			name:     "lone object is one record",
			input:    `{"a":"x","b":false}`,
			wantData: "a,b\nx,false",
			wantRows: 1,
			wantCols: 2,
		},
		{
			name:     "document key order kept",
			input:    `{"b":1,"a":2}`,
			wantData: "b,a\n1,2",
			wantRows: 1,
			wantCols: 2,
		},
		{
			name:     "array-index keys first",
			input:    `{"b":1,"2":2,"1":3}`,
			wantData: "1,2,b\n3,2,1",
			wantRows: 1,
			wantCols: 3,
		},
		{
			name:     "nested objects and arrays",
			input:    `[{"user":{"name":"Ann","tags":["a","b"]},"n":null}]`,
			wantData: "user.name,user.tags,n\nAnn,\"[\"\"a\"\",\"\"b\"\"]\",",
			wantRows: 1,
			wantCols: 3,
		},
		{
			name:     "numbers in shortest form",
			input:    `[{"v":1.50},{"v":1e21},{"v":-0.0000001}]`,
			wantData: "v\n1.5\n1e+21\n-1e-7",
			wantRows: 3,
			wantCols: 1,
		},
		{
			name:     "fields needing quotes",
			input:    `[{"s":"a,b","q":"say \"hi\"","m":"two\nlines"}]`,
			wantData: "s,q,m\n\"a,b\",\"say \"\"hi\"\"\",\"two\nlines\"",
			wantRows: 1,
			wantCols: 3,
		},
		{
			name:     "non-object elements become empty records",
			input:    `[1,2]`,
			wantData: "\n\n",
			wantRows: 2,
			wantCols: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := JSONToTabular(tt.input)
			require.True(t, res.Success, res.Error)
			assert.Equal(t, tt.wantData, res.Data)
			assert.Equal(t, tt.wantRows, res.Stats.Rows)
			assert.Equal(t, tt.wantCols, res.Stats.Columns)
		})
	}
}

func TestJSONToTabular_Failures(t *testing.T) {
	res := JSONToTabular(`[]`)
	assert.False(t, res.Success)
	assert.Equal(t, "JSON parsing error: Empty JSON data", res.Error)
	assert.Empty(t, res.Data)

	res = JSONToTabular(`[{"a":1}`)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "JSON parsing error:")
	assert.Empty(t, res.Data)
}

func TestJSONValueToTabular(t *testing.T) {
	v := Array(
		Object(Field("id", Int(1)), Field("meta", Object(Field("ok", Bool(true))))),
		Object(Field("id", Int(2))),
	)

	res := JSONValueToTabular(v)
	require.True(t, res.Success)
	assert.Equal(t, "id,meta.ok\n1,true\n2,", res.Data)

	_, err := jsonRecords(Array())
	assert.ErrorIs(t, err, ErrEmptyJSON)
}
