package httpapi

import (
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/gophmarket/internal/server/querybuilder"
)

const defaultPageSize = 20

// productFilters reads category and the coordinate filters. A coordinate is
// either an exact value (?latitude=1.5) or a closed range
// (?latitudeMin=1&latitudeMax=2).
func productFilters(q url.Values) (map[string]any, error) {
	filters := map[string]any{}
	if c := q.Get("category"); c != "" {
		filters["category"] = c
	}
	for _, key := range []string{"latitude", "longitude"} {
		v, err := coordinate(q, key)
		if err != nil {
			return nil, err
		}
		if v != nil {
			filters[key] = v
		}
	}
	return filters, nil
}

func coordinate(q url.Values, key string) (any, error) {
	if raw := q.Get(key); raw != "" {
		return parseFloat(key, raw)
	}

	lo, hi := q.Get(key+"Min"), q.Get(key+"Max")
	if lo == "" && hi == "" {
		return nil, nil
	}
	if lo == "" || hi == "" {
		return nil, badRequest(key + "Min and " + key + "Max must be given together")
	}
	from, err := parseFloat(key+"Min", lo)
	if err != nil {
		return nil, err
	}
	to, err := parseFloat(key+"Max", hi)
	if err != nil {
		return nil, err
	}
	return querybuilder.Range{Min: from, Max: to}, nil
}

func parseFloat(name, raw string) (float64, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, badRequest(name + " must be a number")
	}
	return f, nil
}

func pageParams(q url.Values) (page, pageSize int, err error) {
	page, pageSize = 1, defaultPageSize
	if raw := q.Get("page"); raw != "" {
		if page, err = strconv.Atoi(raw); err != nil {
			return 0, 0, badRequest("page must be an integer")
		}
	}
	if raw := q.Get("pageSize"); raw != "" {
		if pageSize, err = strconv.Atoi(raw); err != nil {
			return 0, 0, badRequest("pageSize must be an integer")
		}
	}
	return page, pageSize, nil
}
