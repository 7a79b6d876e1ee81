package filter

import "github.com/monomonedula/monquery/conv"

// Condition is the kind of comparison a generated param name stands for.
type Condition int

const (
	CondEq Condition = iota
	CondNe
	CondMin
	CondMax
	CondMinStrict
	CondMaxStrict
)

// Affix is wrapped around a field name to form a param name.
type Affix struct {
	Prefix string
	Suffix string
}

// Naming maps each condition to the affix used for its param names.
type Naming struct {
	Eq        Affix
	Ne        Affix
	Min       Affix
	Max       Affix
	MinStrict Affix
	MaxStrict Affix
}

// DefaultNaming yields foo, $ne-foo, $gte-foo, $lte-foo, $gt-foo and $lt-foo.
var DefaultNaming = Naming{
	Ne:        Affix{Prefix: "$ne-"},
	Min:       Affix{Prefix: "$gte-"},
	Max:       Affix{Prefix: "$lte-"},
	MinStrict: Affix{Prefix: "$gt-"},
	MaxStrict: Affix{Prefix: "$lt-"},
}

// NameFor returns the public param name for field and cond.
func (n Naming) NameFor(field string, cond Condition) string {
	var a Affix
	switch cond {
	case CondEq:
		a = n.Eq
	case CondNe:
		a = n.Ne
	case CondMin:
		a = n.Min
	case CondMax:
		a = n.Max
	case CondMinStrict:
		a = n.MinStrict
	case CondMaxStrict:
		a = n.MaxStrict
	}
	return a.Prefix + field + a.Suffix
}

// BasicOption adjusts ParamsBasic.
type BasicOption func(*basicSettings)

type basicSettings struct {
	equality bool
	ranges   bool
	naming   Naming
}

// WithEquality toggles the equality and not-equal params. On by default.
func WithEquality(on bool) BasicOption {
	return func(s *basicSettings) { s.equality = on }
}

// WithRange toggles the four range bound params. Off by default.
func WithRange(on bool) BasicOption {
	return func(s *basicSettings) { s.ranges = on }
}

// WithNaming replaces DefaultNaming.
func WithNaming(n Naming) BasicOption {
	return func(s *basicSettings) { s.naming = n }
}

// ParamsBasic declares the usual family of params for one field.
func ParamsBasic(field string, fn conv.Func, opts ...BasicOption) []Param {
	s := basicSettings{equality: true, naming: DefaultNaming}
	for _, opt := range opts {
		opt(&s)
	}

	var params []Param
	if s.equality {
		params = append(params,
			Eq(s.naming.NameFor(field, CondEq), fn, Target(field)),
			Ne(s.naming.NameFor(field, CondNe), fn, Target(field)),
		)
	}
	if s.ranges {
		params = append(params,
			Min(s.naming.NameFor(field, CondMin), fn, field, true),
			Max(s.naming.NameFor(field, CondMax), fn, field, true),
			Min(s.naming.NameFor(field, CondMinStrict), fn, field, false),
			Max(s.naming.NameFor(field, CondMaxStrict), fn, field, false),
		)
	}
	return params
}
