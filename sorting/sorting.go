// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package sorting resolves the sort order requested in a query against a
// declared set of options.
package sorting

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/monomonedula/monquery/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	Ascending  = 1
	Descending = -1

	// DefaultKey is the query key read when none is configured.
	DefaultKey = "sort"
)

// KeyError is returned for a sort value that matches no declared option.
type KeyError struct {
	Key string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("unexpected sorting key: '%s'", e.Key)
}

// Option is one selectable sort order. Field defaults to Key and a zero
// Direction means ascending.
type Option struct {
	Key       string
	Field     string
	Direction int
}

// TargetField is the stored field to sort on: Field when set, Key otherwise.
func (o Option) TargetField() string {
	if o.Field != "" {
		return o.Field
	}
	return o.Key
}

// Dir returns the direction with the zero value read as Ascending.
func (o Option) Dir() int {
	if o.Direction == 0 {
		return Ascending
	}
	return o.Direction
}

// Document renders the option as a sort document for the driver.
func (o Option) Document() bson.D {
	return bson.D{{Key: o.TargetField(), Value: o.Dir()}}
}

// Fields declares an ascending option keyed by the field name and a
// descending one keyed by "-" plus the field name, for each field.
func Fields(fields ...string) []Option {
	options := make([]Option, 0, 2*len(fields))
	for _, f := range fields {
		options = append(options,
			Option{Key: f, Field: f, Direction: Ascending},
			Option{Key: "-" + f, Field: f, Direction: Descending},
		)
	}
	return options
}

// Setting adjusts a Sorting.
type Setting func(*Sorting)

// WithKey changes the query key holding the sort value.
func WithKey(key string) Setting {
	return func(s *Sorting) { s.key = key }
}

// WithDefault sets the option used when the query carries no sort value.
func WithDefault(o Option) Setting {
	return func(s *Sorting) {
		d := o
		s.def = &d
	}
}

// Sorting is the declared set of sort options. It is safe for concurrent use.
type Sorting struct {
	key     string
	def     *Option
	options map[string]Option
	order   []string
}

// New builds a Sorting. A later option with an already declared key replaces
// the earlier one.
func New(options []Option, settings ...Setting) *Sorting {
	s := &Sorting{
		key:     DefaultKey,
		options: make(map[string]Option, len(options)),
	}
	for _, o := range options {
		if _, ok := s.options[o.Key]; !ok {
			s.order = append(s.order, o.Key)
		}
		s.options[o.Key] = o
	}
	for _, set := range settings {
		set(s)
	}
	return s
}

// Key is the query key the Sorting reads.
func (s *Sorting) Key() string { return s.key }

// Default returns a copy of the default option, or nil.
func (s *Sorting) Default() *Option {
	if s.def == nil {
		return nil
	}
	d := *s.def
	return &d
}

// Keys lists the declared option keys in declaration order.
func (s *Sorting) Keys() []string {
	return append([]string(nil), s.order...)
}

// FromQuery returns the option selected by q. When the sort key is absent the
// default is returned, which may be nil meaning no sort.
func (s *Sorting) FromQuery(q url.Values) (*Option, error) {
	if s == nil {
		return nil, nil
	}
	raw, ok := utils.QueryFirst(q, s.key)
	if !ok {
		return s.Default(), nil
	}
	o, ok := s.options[raw]
	if !ok {
		return nil, &KeyError{Key: raw}
	}
	return &o, nil
}

func (s *Sorting) String() string {
	return fmt.Sprintf("sorting(%s: %s)", s.key, strings.Join(s.order, ", "))
}
