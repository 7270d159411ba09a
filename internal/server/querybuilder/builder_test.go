package querybuilder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var productFilters = []string{"category", "latitude", "longitude"}

func TestBuild_NoAllowedKeys(t *testing.T) {
	tests := []struct {
		name    string
		filters map[string]any
	}{
		{name: "nil map", filters: nil},
		{name: "empty map", filters: map[string]any{}},
		{name: "only unknown keys", filters: map[string]any{"price": 10, "1=1; DROP TABLE products; --": "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Build(tt.filters, productFilters)
			assert.True(t, c.Empty())
			assert.Equal(t, "", c.SQL)
			assert.Empty(t, c.Args)
		})
	}
}

func TestBuild_ExactMatch(t *testing.T) {
	c := Build(map[string]any{"category": "digital"}, productFilters)

	assert.Equal(t, "WHERE category = $1", c.SQL)
	assert.Equal(t, []any{"digital"}, c.Args)
}

func TestBuild_RangeBindsMinThenMax(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{name: "Range struct", value: Range{Min: 37.1, Max: 37.9}},
		{name: "Range pointer", value: &Range{Min: 37.1, Max: 37.9}},
		{name: "decoded JSON object", value: map[string]any{"min": 37.1, "max": 37.9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Build(map[string]any{"latitude": tt.value}, productFilters)

			assert.Equal(t, "WHERE latitude BETWEEN $1 AND $2", c.SQL)
			assert.Equal(t, []any{37.1, 37.9}, c.Args)
		})
	}
}

func TestBuild_AllowListOrderAndNumbering(t *testing.T) {
	filters := map[string]any{
		"longitude": Range{Min: 126.8, Max: 127.2},
		"category":  "furniture",
		"latitude":  Range{Min: 37.4, Max: 37.7},
		"title":     "ignored",
	}

	c := Build(filters, productFilters)

	assert.Equal(t,
		"WHERE category = $1 AND latitude BETWEEN $2 AND $3 AND longitude BETWEEN $4 AND $5",
		c.SQL)
	assert.Equal(t, []any{"furniture", 37.4, 37.7, 126.8, 127.2}, c.Args)
	assert.Equal(t, 6, c.NextPlaceholder(1))
}

func TestBuild_ValuesNeverInterpolated(t *testing.T) {
	evil := "x' OR '1'='1"
	c := Build(map[string]any{"category": evil}, productFilters)

	assert.NotContains(t, c.SQL, evil)
	assert.NotContains(t, c.SQL, "'")
	assert.Equal(t, []any{evil}, c.Args)
}

func TestBuild_EmptyValuesSkipped(t *testing.T) {
	var nilRange *Range
	filters := map[string]any{
		"category":  "",
		"latitude":  Range{Min: 1.0},
		"longitude": nilRange,
	}

	c := Build(filters, productFilters)
	assert.True(t, c.Empty())
}

func TestBuild_ZeroIsAValue(t *testing.T) {
	c := Build(map[string]any{"latitude": 0.0}, productFilters)

	assert.Equal(t, "WHERE latitude = $1", c.SQL)
	assert.Equal(t, []any{0.0}, c.Args)
}

func TestBuild_IncompleteRangeMapSkipped(t *testing.T) {
	c := Build(map[string]any{"latitude": map[string]any{"min": 1.0}}, productFilters)
	assert.True(t, c.Empty())
}

func TestBuild_TypedRangeMaps(t *testing.T) {
	type bound string

	tests := []struct {
		name  string
		value any
		args  []any
	}{
		{name: "float64", value: map[string]float64{"min": 1, "max": 2}, args: []any{1.0, 2.0}},
		{name: "int", value: map[string]int{"min": 1, "max": 2}, args: []any{1, 2}},
		{name: "any", value: map[string]any{"min": 1.5, "max": 2.5}, args: []any{1.5, 2.5}},
		{name: "string", value: map[string]string{"min": "10", "max": "20"}, args: []any{"10", "20"}},
		{name: "named key", value: map[bound]float64{"min": 3, "max": 4}, args: []any{3.0, 4.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Build(map[string]any{"latitude": tt.value}, []string{"latitude"})
			assert.Equal(t, "WHERE latitude BETWEEN $1 AND $2", c.SQL)
			assert.Equal(t, tt.args, c.Args)
		})
	}
}

func TestBuild_IncompleteTypedRangeMapsSkipped(t *testing.T) {
	for _, v := range []any{
		map[string]float64{"min": 1},
		map[string]int{"max": 2},
		map[string]string{"min": "", "max": "5"},
		map[string]*float64{"min": nil, "max": nil},
		map[int]float64{0: 1, 1: 2},
	} {
		c := Build(map[string]any{"latitude": v}, []string{"latitude"})
		assert.True(t, c.Empty(), "%T %v", v, v)
		assert.Empty(t, c.Args)
	}
}

func TestBuild_SlicesAreNotBound(t *testing.T) {
	c := Build(map[string]any{
		"category":  []string{"a"},
		"latitude":  []float64{1, 2},
		"longitude": 7.0,
	}, productFilters)

	assert.Equal(t, "WHERE longitude = $1", c.SQL)
	assert.Equal(t, []any{7.0}, c.Args)
}

func TestBuildFrom_ContinuesNumbering(t *testing.T) {
	c := BuildFrom(map[string]any{"category": "books"}, productFilters, 3)

	assert.Equal(t, "WHERE category = $3", c.SQL)
	assert.Equal(t, 4, c.NextPlaceholder(3))
}
