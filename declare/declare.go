// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package declare builds a monquery.Schema from a YAML document, so the
// params of a listing can be kept next to the deployment instead of in code.
//
//	params:
//	  - name: title
//	    kind: eq
//	    type: string
//	  - name: time[max]
//	    kind: max
//	    type: datetime_iso
//	    field: created_at
//	    inclusive: true
//	basic:
//	  - field: priority
//	    type: int
//	    range: true
//	sorting:
//	  key: sort
//	  fields: [title]
//	  options:
//	    - {key: creation-time, field: created_at, direction: 1}
//	  default: -title
//	pagination:
//	  default_limit: 40
package declare

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/monomonedula/monquery"
	"github.com/monomonedula/monquery/conv"
	"github.com/monomonedula/monquery/filter"
	"github.com/monomonedula/monquery/pagination"
	"github.com/monomonedula/monquery/sorting"
	"go.mongodb.org/mongo-driver/bson"
	"gopkg.in/yaml.v3"
)

// File is the YAML layout of a schema.
type File struct {
	Strict     bool         `yaml:"strict"`
	Params     []ParamSpec  `yaml:"params"`
	Basic      []BasicSpec  `yaml:"basic"`
	Naming     *NamingSpec  `yaml:"naming"`
	Sorting    *SortingSpec `yaml:"sorting"`
	Pagination *PagingSpec  `yaml:"pagination"`
}

// ParamSpec declares one filter param.
type ParamSpec struct {
	Name      string         `yaml:"name"`
	Kind      string         `yaml:"kind"`
	Type      string         `yaml:"type"`
	Field     string         `yaml:"field"`
	Op        string         `yaml:"op"`
	Scalar    bool           `yaml:"scalar"`
	Inclusive bool           `yaml:"inclusive"`
	Null      *string        `yaml:"null"`
	Cases     []CaseSpec     `yaml:"cases"`
	Default   map[string]any `yaml:"default"`
}

// CaseSpec is one entry of a mapping param. Value is converted with the
// param type before matching.
type CaseSpec struct {
	Value  string         `yaml:"value"`
	Filter map[string]any `yaml:"filter"`
}

// BasicSpec declares the usual param family for one field.
type BasicSpec struct {
	Field    string `yaml:"field"`
	Type     string `yaml:"type"`
	Equality *bool  `yaml:"equality"`
	Range    bool   `yaml:"range"`
}

// NamingSpec overrides the affixes used by basic params. Conditions left
// out keep the default affix.
type NamingSpec struct {
	Eq        *AffixSpec `yaml:"eq"`
	Ne        *AffixSpec `yaml:"ne"`
	Min       *AffixSpec `yaml:"min"`
	Max       *AffixSpec `yaml:"max"`
	MinStrict *AffixSpec `yaml:"min_strict"`
	MaxStrict *AffixSpec `yaml:"max_strict"`
}

type AffixSpec struct {
	Prefix string `yaml:"prefix"`
	Suffix string `yaml:"suffix"`
}

// SortingSpec declares the sort options.
type SortingSpec struct {
	Key     string       `yaml:"key"`
	Fields  []string     `yaml:"fields"`
	Options []OptionSpec `yaml:"options"`
	Default string       `yaml:"default"`
}

type OptionSpec struct {
	Key       string `yaml:"key"`
	Field     string `yaml:"field"`
	Direction int    `yaml:"direction"`
}

// PagingSpec declares pagination. Disabled turns paging off entirely.
type PagingSpec struct {
	Disabled     bool   `yaml:"disabled"`
	DefaultLimit *int64 `yaml:"default_limit"`
	SkipKey      string `yaml:"skip_key"`
	LimitKey     string `yaml:"limit_key"`
}

var conversions = map[string]conv.Func{
	"string":       conv.String,
	"int":          conv.Int,
	"float":        conv.Float,
	"bool":         conv.Bool,
	"datetime_iso": conv.DatetimeISO,
	"timestamp":    conv.DatetimeUTCTimestamp,
}

// LoadFile reads and builds the schema in path.
func LoadFile(path string) (monquery.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return monquery.Schema{}, fmt.Errorf("failed to read schema file %q: %w", path, err)
	}
	schema, err := Parse(data)
	if err != nil {
		return monquery.Schema{}, fmt.Errorf("schema file %q: %w", path, err)
	}
	return schema, nil
}

// Parse builds a schema from YAML.
func Parse(data []byte) (monquery.Schema, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return monquery.Schema{}, fmt.Errorf("failed to parse schema: %w", err)
	}
	return f.Build()
}

// Build turns the declaration into a schema.
func (f File) Build() (monquery.Schema, error) {
	var params []filter.Param
	for i, ps := range f.Params {
		p, err := ps.build()
		if err != nil {
			return monquery.Schema{}, fmt.Errorf("params[%d]: %w", i, err)
		}
		params = append(params, p)
	}

	naming := filter.DefaultNaming
	if f.Naming != nil {
		naming = f.Naming.build()
	}
	for i, bs := range f.Basic {
		fn, err := conversion(bs.Type, nil)
		if err != nil {
			return monquery.Schema{}, fmt.Errorf("basic[%d]: %w", i, err)
		}
		if bs.Field == "" {
			return monquery.Schema{}, fmt.Errorf("basic[%d]: field is required", i)
		}
		equality := bs.Equality == nil || *bs.Equality
		params = append(params, filter.ParamsBasic(bs.Field, fn,
			filter.WithEquality(equality),
			filter.WithRange(bs.Range),
			filter.WithNaming(naming),
		)...)
	}

	var schema monquery.Schema
	if f.Strict {
		fltr, err := filter.NewStrict(params...)
		if err != nil {
			return monquery.Schema{}, err
		}
		schema.Filter = fltr
	} else {
		schema.Filter = filter.New(params...)
	}

	if f.Sorting != nil {
		srt, err := f.Sorting.build()
		if err != nil {
			return monquery.Schema{}, fmt.Errorf("sorting: %w", err)
		}
		schema.Sorting = srt
	}

	if f.Pagination != nil && !f.Pagination.Disabled {
		schema.Pagination = f.Pagination.build()
	} else if f.Pagination != nil {
		schema.Pagination = pagination.Dummy{}
	}

	return schema, nil
}

func conversion(name string, null *string) (conv.Func, error) {
	if name == "" {
		name = "string"
	}
	fn, ok := conversions[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown type %q", name)
	}
	if null != nil {
		fn = conv.Optional(fn, *null)
	}
	return fn, nil
}

func (ps ParamSpec) build() (filter.Param, error) {
	if ps.Name == "" {
		return filter.Param{}, errors.New("name is required")
	}
	fn, err := conversion(ps.Type, ps.Null)
	if err != nil {
		return filter.Param{}, fmt.Errorf("param %q: %w", ps.Name, err)
	}
	field := ps.Field
	if field == "" {
		field = ps.Name
	}

	switch strings.ToLower(ps.Kind) {
	case "", "eq", "ne":
		opts := []filter.EqOption{filter.Target(field)}
		if ps.Scalar {
			opts = append(opts, filter.Scalar())
		}
		if strings.ToLower(ps.Kind) == "ne" {
			return filter.Ne(ps.Name, fn, opts...), nil
		}
		return filter.Eq(ps.Name, fn, opts...), nil
	case "min":
		return filter.Min(ps.Name, fn, field, ps.Inclusive), nil
	case "max":
		return filter.Max(ps.Name, fn, field, ps.Inclusive), nil
	case "single", "multi", "array":
		if !validOperator(ps.Op) {
			return filter.Param{}, fmt.Errorf("param %q: unsupported operator %q", ps.Name, ps.Op)
		}
		switch strings.ToLower(ps.Kind) {
		case "single":
			return filter.Single(ps.Name, fn, field, ps.Op), nil
		case "multi":
			return filter.Multi(ps.Name, fn, field, ps.Op), nil
		}
		return filter.Array(ps.Name, fn, field, ps.Op), nil
	case "of":
		cases := make([]filter.Case, 0, len(ps.Cases))
		for _, cs := range ps.Cases {
			if len(cs.Filter) == 0 {
				return filter.Param{}, fmt.Errorf("param %q: case %q: filter is required", ps.Name, cs.Value)
			}
			v, err := fn(cs.Value)
			if err != nil {
				return filter.Param{}, fmt.Errorf("param %q: case %q: %w", ps.Name, cs.Value, err)
			}
			cases = append(cases, filter.Case{Value: v, Fragment: bson.M(cs.Filter)})
		}
		var def bson.M
		if ps.Default != nil {
			def = bson.M(ps.Default)
		}
		return filter.Of(ps.Name, fn, cases, def), nil
	}
	return filter.Param{}, fmt.Errorf("param %q: unknown kind %q", ps.Name, ps.Kind)
}

func validOperator(op string) bool {
	switch op {
	case filter.OpEq, filter.OpNe, filter.OpIn, filter.OpNin,
		filter.OpLt, filter.OpLte, filter.OpGt, filter.OpGte:
		return true
	}
	return false
}

func (ns NamingSpec) build() filter.Naming {
	n := filter.DefaultNaming
	override := func(dst *filter.Affix, a *AffixSpec) {
		if a != nil {
			*dst = filter.Affix{Prefix: a.Prefix, Suffix: a.Suffix}
		}
	}
	override(&n.Eq, ns.Eq)
	override(&n.Ne, ns.Ne)
	override(&n.Min, ns.Min)
	override(&n.Max, ns.Max)
	override(&n.MinStrict, ns.MinStrict)
	override(&n.MaxStrict, ns.MaxStrict)
	return n
}

func (ss SortingSpec) build() (*sorting.Sorting, error) {
	options := sorting.Fields(ss.Fields...)
	for _, o := range ss.Options {
		if o.Key == "" {
			return nil, errors.New("option key is required")
		}
		options = append(options, sorting.Option{Key: o.Key, Field: o.Field, Direction: o.Direction})
	}

	var settings []sorting.Setting
	if ss.Key != "" {
		settings = append(settings, sorting.WithKey(ss.Key))
	}
	if ss.Default != "" {
		var found bool
		for _, o := range options {
			if o.Key == ss.Default {
				settings = append(settings, sorting.WithDefault(o))
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("default %q is not a declared option", ss.Default)
		}
	}
	return sorting.New(options, settings...), nil
}

func (ps PagingSpec) build() *pagination.Basic {
	var settings []pagination.Setting
	if ps.DefaultLimit != nil {
		settings = append(settings, pagination.WithDefaultLimit(*ps.DefaultLimit))
	}
	if ps.SkipKey != "" {
		settings = append(settings, pagination.WithSkipKey(ps.SkipKey))
	}
	if ps.LimitKey != "" {
		settings = append(settings, pagination.WithLimitKey(ps.LimitKey))
	}
	return pagination.NewBasic(settings...)
}
