// Package querybuilder turns loosely typed filter maps into a parameterized
// WHERE clause. Column names only ever come from the caller's allow-list and
// values are only ever bound as positional arguments.
package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
)

// Range is a closed interval filter rendered as BETWEEN.
type Range struct {
	Min any
	Max any
}

// Clause is a rendered WHERE clause and its bound values, in placeholder order.
type Clause struct {
	SQL  string
	Args []any
}

// Empty reports whether no predicate applied.
func (c Clause) Empty() bool {
	return c.SQL == ""
}

// NextPlaceholder is the index of the first placeholder after the clause,
// given the index the clause started at.
func (c Clause) NextPlaceholder(start int) int {
	return start + len(c.Args)
}

// Build renders filters restricted to allowed. Placeholders are numbered from
// 1; use BuildFrom to continue an existing numbering.
func Build(filters map[string]any, allowed []string) Clause {
	return BuildFrom(filters, allowed, 1)
}

// BuildFrom is Build with the first placeholder numbered start.
//
// Keys not in allowed are ignored. A Range value, or any string-keyed map
// holding both "min" and "max", becomes "<key> BETWEEN $i AND $i+1"; any
// other non-empty scalar becomes "<key> = $i". Slices are skipped.
// Predicates are joined with AND in allowed order.
func BuildFrom(filters map[string]any, allowed []string, start int) Clause {
	var (
		preds []string
		args  []any
	)
	n := start

	for _, key := range allowed {
		value, ok := filters[key]
		if !ok || isEmpty(value) {
			continue
		}

		if r, ok := asRange(value); ok {
			preds = append(preds, fmt.Sprintf("%s BETWEEN $%d AND $%d", key, n, n+1))
			args = append(args, r.Min, r.Max)
			n += 2
			continue
		}

		preds = append(preds, fmt.Sprintf("%s = $%d", key, n))
		args = append(args, value)
		n++
	}

	if len(preds) == 0 {
		return Clause{}
	}
	return Clause{SQL: "WHERE " + strings.Join(preds, " AND "), Args: args}
}

func asRange(v any) (Range, bool) {
	switch r := v.(type) {
	case Range:
		return r, r.Min != nil && r.Max != nil
	case *Range:
		if r == nil {
			return Range{}, false
		}
		return *r, r.Min != nil && r.Max != nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return Range{}, false
	}
	lo, okLo := rangeBound(rv, "min")
	hi, okHi := rangeBound(rv, "max")
	if !okLo || !okHi {
		return Range{}, false
	}
	return Range{Min: lo, Max: hi}, true
}

// rangeBound reads m[name] from a map with string-kinded keys. Missing, nil
// and "" bounds are absent.
func rangeBound(m reflect.Value, name string) (any, bool) {
	e := m.MapIndex(reflect.ValueOf(name).Convert(m.Type().Key()))
	if !e.IsValid() {
		return nil, false
	}
	if (e.Kind() == reflect.Interface || e.Kind() == reflect.Pointer) && e.IsNil() {
		return nil, false
	}
	b := e.Interface()
	if s, ok := b.(string); ok && s == "" {
		return nil, false
	}
	return b, true
}

// isEmpty treats nil, "", slices, maps that are not complete ranges and
// half-open ranges as absent. Slices are never bound: a list value has no
// exact-match meaning for a single column. Numeric zero is a real value.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case string:
		return t == ""
	case Range:
		return t.Min == nil || t.Max == nil
	case *Range:
		return t == nil || t.Min == nil || t.Max == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return true
	case reflect.Map:
		_, ok := asRange(v)
		return !ok
	case reflect.Pointer:
		return rv.IsNil()
	}
	return false
}
