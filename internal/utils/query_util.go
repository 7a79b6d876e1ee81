package utils

import "net/url"

// QueryValues returns the values under key with empty entries dropped.
// A key holding only empty values is reported as absent. Whitespace is a value.
func QueryValues(q url.Values, key string) ([]string, bool) {
	raw, ok := q[key]
	if !ok {
		return nil, false
	}
	values := make([]string, 0, len(raw))
	for _, v := range raw {
		if v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return nil, false
	}
	return values, true
}

// QueryFirst returns the first non-empty value under key.
func QueryFirst(q url.Values, key string) (string, bool) {
	values, ok := QueryValues(q, key)
	if !ok {
		return "", false
	}
	return values[0], true
}

// ParseQueryString parses a raw query string, falling back to the pairs that
// could be decoded when part of it is malformed.
func ParseQueryString(raw string) url.Values {
	q, err := url.ParseQuery(raw)
	if err != nil && q == nil {
		return url.Values{}
	}
	return q
}
