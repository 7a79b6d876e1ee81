// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package pagination reads the skip and limit window from a query.
package pagination

import (
	"fmt"
	"net/url"

	"github.com/monomonedula/monquery/conv"
	"github.com/monomonedula/monquery/internal/utils"
)

const (
	DefaultSkipKey  = "skip"
	DefaultLimitKey = "limit"
)

// IntError is returned when a skip or limit value is not an integer.
type IntError struct {
	Key string
}

func (e *IntError) Error() string {
	return fmt.Sprintf("value of '%s' must be integer", e.Key)
}

// Window bounds a result set. A nil field is unset.
type Window struct {
	Skip  *int64 `json:"skip,omitempty"`
	Limit *int64 `json:"limit,omitempty"`
}

// Pagination produces a Window from a query.
type Pagination interface {
	FromQuery(q url.Values) (Window, error)
}

// Setting adjusts a Basic pagination.
type Setting func(*Basic)

// WithDefaultLimit sets the limit used when the query has none.
func WithDefaultLimit(limit int64) Setting {
	return func(b *Basic) { b.defaultLimit = &limit }
}

// WithSkipKey changes the query key holding the skip count.
func WithSkipKey(key string) Setting {
	return func(b *Basic) { b.skipKey = key }
}

// WithLimitKey changes the query key holding the limit.
func WithLimitKey(key string) Setting {
	return func(b *Basic) { b.limitKey = key }
}

// Basic reads skip and limit from two query keys. No bounds are enforced.
type Basic struct {
	defaultLimit *int64
	skipKey      string
	limitKey     string
}

// NewBasic builds a Basic pagination. Without WithDefaultLimit the limit is
// left unset when the query has none.
func NewBasic(settings ...Setting) *Basic {
	b := &Basic{skipKey: DefaultSkipKey, limitKey: DefaultLimitKey}
	for _, set := range settings {
		set(b)
	}
	return b
}

func (b *Basic) FromQuery(q url.Values) (Window, error) {
	var w Window
	if b == nil {
		return w, nil
	}

	skip, err := intParam(q, b.skipKey)
	if err != nil {
		return Window{}, err
	}
	w.Skip = skip

	limit, err := intParam(q, b.limitKey)
	if err != nil {
		return Window{}, err
	}
	w.Limit = limit

	if w.Limit == nil && b.defaultLimit != nil {
		l := *b.defaultLimit
		w.Limit = &l
	}
	return w, nil
}

// Keys returns the skip and limit query keys.
func (b *Basic) Keys() (skip, limit string) {
	return b.skipKey, b.limitKey
}

// Dummy never pages.
type Dummy struct{}

func (Dummy) FromQuery(url.Values) (Window, error) {
	return Window{}, nil
}

func intParam(q url.Values, key string) (*int64, error) {
	raw, ok := utils.QueryFirst(q, key)
	if !ok {
		return nil, nil
	}
	v, err := conv.Int(raw)
	if err != nil {
		return nil, &IntError{Key: key}
	}
	n := v.(int64)
	return &n, nil
}
