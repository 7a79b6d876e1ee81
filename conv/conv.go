// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package conv holds the conversion functions that turn a raw query string
// value into a typed value.
//
// A conversion either returns a value and a nil error, or a placeholder value
// and a non-nil error. The placeholder is never meaningful and must be ignored
// once the error is checked.
package conv

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Func converts one raw query value.
type Func func(raw string) (any, error)

// Epoch is the placeholder returned by failed time conversions.
var Epoch = time.Unix(0, 0).UTC()

// String passes the raw value through. It never fails.
func String(raw string) (any, error) {
	return raw, nil
}

// Int parses a base 10 integer into an int64.
func Int(raw string) (any, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return int64(0), fmt.Errorf("invalid integer: '%s'", raw)
	}
	return v, nil
}

// Float parses a float64.
func Float(raw string) (any, error) {
	v, err := parseFloat(raw)
	if err != nil {
		return float64(0), fmt.Errorf("invalid float: '%s'", raw)
	}
	return v, nil
}

// Bool maps "true" and "1" (any case) to true and everything else to false.
// It never fails.
func Bool(raw string) (any, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1":
		return true, nil
	}
	return false, nil
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// DatetimeISO parses an ISO 8601 date or date-time. Values without an offset
// are taken as UTC.
func DatetimeISO(raw string) (any, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return Epoch, fmt.Errorf("invalid isoformat string: '%s'", raw)
}

// maxTimestamp bounds, exclusively, the seconds a BSON datetime
// (int64 milliseconds) can hold.
const maxTimestamp = float64(math.MaxInt64 / 1000)

// DatetimeUTCTimestamp reads seconds since the Unix epoch, fractions allowed,
// and returns the UTC time.
func DatetimeUTCTimestamp(raw string) (any, error) {
	v, err := parseFloat(raw)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Epoch, fmt.Errorf("invalid timestamp: '%s'", raw)
	}
	if math.Abs(v) >= maxTimestamp {
		return Epoch, fmt.Errorf("timestamp out of range: '%s'", raw)
	}
	sec, frac := math.Modf(v)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC(), nil
}

// Optional returns nil with no error when raw equals sentinel, and delegates
// to fn otherwise.
func Optional(fn Func, sentinel string) Func {
	return func(raw string) (any, error) {
		if raw == sentinel {
			return nil, nil
		}
		return fn(raw)
	}
}

func parseFloat(raw string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(raw), 64)
}
