// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package filter declares the query params a service accepts and turns a
// request query into a MongoDB filter document.
package filter

import (
	"fmt"
	"net/url"

	"github.com/monomonedula/monquery/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
)

// DuplicateError is returned by NewStrict when two params share a name.
type DuplicateError struct {
	Name string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate filter param: '%s'", e.Name)
}

// Filter is an ordered set of params keyed by public name. It is safe for
// concurrent use.
type Filter struct {
	params []Param
	index  map[string]int
}

// New builds a Filter. A param whose name was already registered replaces the
// earlier one in its original position.
func New(params ...Param) *Filter {
	f := &Filter{
		params: make([]Param, 0, len(params)),
		index:  make(map[string]int, len(params)),
	}
	for _, p := range params {
		if i, ok := f.index[p.Name()]; ok {
			f.params[i] = p
			continue
		}
		f.index[p.Name()] = len(f.params)
		f.params = append(f.params, p)
	}
	return f
}

// NewStrict is New but fails on duplicate names.
func NewStrict(params ...Param) (*Filter, error) {
	seen := make(map[string]struct{}, len(params))
	for _, p := range params {
		if _, ok := seen[p.Name()]; ok {
			return nil, &DuplicateError{Name: p.Name()}
		}
		seen[p.Name()] = struct{}{}
	}
	return New(params...), nil
}

// Params returns the declared params in declaration order.
func (f *Filter) Params() []Param {
	if f == nil {
		return nil
	}
	return append([]Param(nil), f.params...)
}

// Lookup finds a param by name.
func (f *Filter) Lookup(name string) (Param, bool) {
	if f == nil {
		return Param{}, false
	}
	i, ok := f.index[name]
	if !ok {
		return Param{}, false
	}
	return f.params[i], true
}

// FromQuery evaluates every declared param present in q and returns the
// conjunction of their fragments as {"$and": [...]}. Keys that are not
// declared are ignored. When no param is present the result is an empty
// document. The first param failure is returned as is and no filter is
// produced.
func (f *Filter) FromQuery(q url.Values) (bson.M, error) {
	if f == nil {
		return bson.M{}, nil
	}

	var fragments bson.A
	for _, p := range f.params {
		values, ok := utils.QueryValues(q, p.Name())
		if !ok {
			continue
		}
		fragment, err := p.FilterFrom(values)
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, fragment)
	}

	if len(fragments) == 0 {
		return bson.M{}, nil
	}
	return bson.M{"$and": fragments}, nil
}
