// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package filter

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/monomonedula/monquery/conv"
	"github.com/tidwall/gjson"
	"go.mongodb.org/mongo-driver/bson"
)

// Comparison operators produced by params.
const (
	OpEq  = "$eq"
	OpNe  = "$ne"
	OpIn  = "$in"
	OpNin = "$nin"
	OpLt  = "$lt"
	OpLte = "$lte"
	OpGt  = "$gt"
	OpGte = "$gte"
)

// Kind identifies how a Param turns raw values into a condition.
type Kind int

const (
	// KindSingle converts the first raw value only.
	KindSingle Kind = iota
	// KindMulti converts every raw value into an operator list.
	KindMulti
	// KindRange is a single value lower or upper bound.
	KindRange
	// KindArray expects one raw value holding a JSON array.
	KindArray
	// KindMapping selects a pre-built condition by converted value.
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindMulti:
		return "multi"
	case KindRange:
		return "range"
	case KindArray:
		return "array"
	case KindMapping:
		return "mapping"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

var (
	ErrNoValues        = errors.New("no values given")
	ErrMalformedArray  = errors.New("malformed JSON array")
	ErrNotArray        = errors.New("value is not a JSON array")
	ErrArrayValueCount = errors.New("expected exactly one JSON array value")
	ErrUnexpectedValue = errors.New("unexpected value")
)

// ParamError reports a rejected query param by its public name.
type ParamError struct {
	Name string
	Err  error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("Error while parsing '%s' param. %s", e.Name, e.Err)
}

func (e *ParamError) Unwrap() error {
	return e.Err
}

// Case is one entry of a mapping param: when the converted value equals
// Value, the param yields Fragment.
type Case struct {
	Value    any
	Fragment bson.M
}

// Param is a declared query parameter. The zero value is not usable; build
// params with the constructors in this package. A Param is never modified
// after construction.
type Param struct {
	kind  Kind
	name  string
	field string
	conv  conv.Func
	op    string
	cases []Case
	def   bson.M
}

// Single declares a param converting its first value into {field: {op: v}}.
func Single(name string, fn conv.Func, field, op string) Param {
	return Param{kind: KindSingle, name: name, field: field, conv: fn, op: op}
}

// Multi declares a param converting all of its values into {field: {op: [v...]}}.
func Multi(name string, fn conv.Func, field, op string) Param {
	return Param{kind: KindMulti, name: name, field: field, conv: fn, op: op}
}

// EqOption adjusts Eq and Ne params.
type EqOption func(*eqSettings)

type eqSettings struct {
	scalar bool
	field  string
}

// Scalar makes an Eq or Ne param take a single value ($eq / $ne) instead of a
// list ($in / $nin).
func Scalar() EqOption {
	return func(s *eqSettings) { s.scalar = true }
}

// Target sets the stored field. It defaults to the param name.
func Target(field string) EqOption {
	return func(s *eqSettings) { s.field = field }
}

// Eq declares an equality param. By default it accepts any number of values
// and produces $in.
func Eq(name string, fn conv.Func, opts ...EqOption) Param {
	return equality(name, fn, OpIn, OpEq, opts)
}

// Ne declares a not-equal param. By default it accepts any number of values
// and produces $nin.
func Ne(name string, fn conv.Func, opts ...EqOption) Param {
	return equality(name, fn, OpNin, OpNe, opts)
}

func equality(name string, fn conv.Func, multiOp, singleOp string, opts []EqOption) Param {
	s := eqSettings{field: name}
	for _, opt := range opts {
		opt(&s)
	}
	if s.scalar {
		return Single(name, fn, s.field, singleOp)
	}
	return Multi(name, fn, s.field, multiOp)
}

// Max declares an upper bound on field: $lte when inclusive, $lt otherwise.
func Max(name string, fn conv.Func, field string, inclusive bool) Param {
	op := OpLt
	if inclusive {
		op = OpLte
	}
	return Param{kind: KindRange, name: name, field: field, conv: fn, op: op}
}

// Min declares a lower bound on field: $gte when inclusive, $gt otherwise.
func Min(name string, fn conv.Func, field string, inclusive bool) Param {
	op := OpGt
	if inclusive {
		op = OpGte
	}
	return Param{kind: KindRange, name: name, field: field, conv: fn, op: op}
}

// Array declares a param whose single value is a JSON array, e.g.
// metric=[1,5,6]. Every element is converted with fn; string elements are
// passed unquoted.
func Array(name string, fn conv.Func, field, op string) Param {
	return Param{kind: KindArray, name: name, field: field, conv: fn, op: op}
}

// Of declares a mapping param. The first value is converted and matched
// against cases in order. When nothing matches, def is returned if it is
// not nil, otherwise the param fails with ErrUnexpectedValue.
func Of(name string, fn conv.Func, cases []Case, def bson.M) Param {
	return Param{
		kind:  KindMapping,
		name:  name,
		conv:  fn,
		cases: cloneCases(cases),
		def:   cloneDoc(def),
	}
}

// Name is the public query key of the param.
func (p Param) Name() string { return p.name }

// Kind reports the variant of the param.
func (p Param) Kind() Kind { return p.kind }

// Field is the stored field the param targets. Mapping params have none.
func (p Param) Field() string { return p.field }

// Operator is the comparison operator the param emits.
func (p Param) Operator() string { return p.op }

// FilterFrom converts the raw values given for the param into one condition
// fragment.
func (p Param) FilterFrom(values []string) (bson.M, error) {
	if len(values) == 0 {
		return nil, p.fail(ErrNoValues)
	}

	switch p.kind {
	case KindSingle, KindRange:
		v, err := p.conv(values[0])
		if err != nil {
			return nil, p.fail(err)
		}
		return bson.M{p.field: bson.M{p.op: v}}, nil

	case KindMulti:
		converted, err := p.convertAll(values)
		if err != nil {
			return nil, err
		}
		return bson.M{p.field: bson.M{p.op: converted}}, nil

	case KindArray:
		if len(values) != 1 {
			return nil, p.fail(fmt.Errorf("%w, got %d", ErrArrayValueCount, len(values)))
		}
		elements, err := p.arrayElements(values[0])
		if err != nil {
			return nil, err
		}
		converted, err := p.convertAll(elements)
		if err != nil {
			return nil, err
		}
		return bson.M{p.field: bson.M{p.op: converted}}, nil

	case KindMapping:
		v, err := p.conv(values[0])
		if err != nil {
			return nil, p.fail(err)
		}
		for _, c := range p.cases {
			if sameValue(c.Value, v) {
				return cloneDoc(c.Fragment), nil
			}
		}
		if p.def != nil {
			return cloneDoc(p.def), nil
		}
		return nil, p.fail(fmt.Errorf("%w: '%s'", ErrUnexpectedValue, values[0]))
	}

	return nil, p.fail(fmt.Errorf("unsupported param kind %s", p.kind))
}

func (p Param) convertAll(values []string) (bson.A, error) {
	converted := make(bson.A, 0, len(values))
	for _, raw := range values {
		v, err := p.conv(raw)
		if err != nil {
			return nil, p.fail(err)
		}
		converted = append(converted, v)
	}
	return converted, nil
}

func (p Param) arrayElements(raw string) ([]string, error) {
	if !gjson.Valid(raw) {
		return nil, p.fail(fmt.Errorf("%w: '%s'", ErrMalformedArray, raw))
	}
	parsed := gjson.Parse(raw)
	if !parsed.IsArray() {
		return nil, p.fail(fmt.Errorf("%w: '%s'", ErrNotArray, raw))
	}
	items := parsed.Array()
	elements := make([]string, 0, len(items))
	for _, item := range items {
		if item.Type == gjson.String {
			elements = append(elements, item.Str)
			continue
		}
		elements = append(elements, item.Raw)
	}
	return elements, nil
}

func (p Param) fail(err error) error {
	return &ParamError{Name: p.name, Err: err}
}

func sameValue(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return reflect.DeepEqual(a, b)
}

func cloneCases(cases []Case) []Case {
	out := make([]Case, len(cases))
	for i, c := range cases {
		out[i] = Case{Value: c.Value, Fragment: cloneDoc(c.Fragment)}
	}
	return out
}

// cloneDoc copies a fragment down through nested documents and arrays, so
// callers may edit what a param returns.
func cloneDoc(m bson.M) bson.M {
	if m == nil {
		return nil
	}
	return cloneValue(m).(bson.M)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(bson.M, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case bson.D:
		out := make(bson.D, len(t))
		for i, e := range t {
			out[i] = bson.E{Key: e.Key, Value: cloneValue(e.Value)}
		}
		return out
	case bson.A:
		out := make(bson.A, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	}
	return v
}
