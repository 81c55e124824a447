package orm

import (
	"maps"
	"slices"
	"strings"
)

// PayloadKind identifies the form of a Payload.
type PayloadKind int

const (
	// PayloadValues is a column → value mapping.
	PayloadValues PayloadKind = iota
	// PayloadExpr is a SET template with ? placeholders plus its arguments.
	PayloadExpr
	// PayloadRaw is a pre-formatted SET fragment.
	PayloadRaw
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadValues:
		return "values"
	case PayloadExpr:
		return "expr"
	case PayloadRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// Payload is the SET part of an UPDATE statement.
// Payloads are immutable; build them with Values, Expr or Raw.
type Payload struct {
	kind     PayloadKind
	values   map[string]any
	template string
	args     []any
}

// Values returns a Payload assigning each column in m.
// Columns are rendered in sorted order.
//
//	orm.Values(map[string]any{"name": "alice", "age": 30})
func Values(m map[string]any) Payload {
	return Payload{kind: PayloadValues, values: maps.Clone(m)}
}

// Expr returns a Payload from a SET template and its positional arguments.
//
//	orm.Expr("name = ?, visits = visits + ?", "alice", 1)
func Expr(template string, args ...any) Payload {
	return Payload{kind: PayloadExpr, template: template, args: slices.Clone(args)}
}

// Raw returns a Payload from a SET fragment used verbatim.
//
//	orm.Raw("name = 'alice'")
func Raw(fragment string) Payload {
	return Payload{kind: PayloadRaw, template: fragment}
}

func (p Payload) Kind() PayloadKind { return p.kind }

// Values returns a copy of the column mapping. Nil unless Kind is PayloadValues.
func (p Payload) Values() map[string]any { return maps.Clone(p.values) }

// Template returns the SET template of a PayloadExpr.
func (p Payload) Template() string {
	if p.kind != PayloadExpr {
		return ""
	}
	return p.template
}

// Args returns a copy of the arguments of a PayloadExpr.
func (p Payload) Args() []any { return slices.Clone(p.args) }

// Fragment returns the SET fragment of a PayloadRaw.
func (p Payload) Fragment() string {
	if p.kind != PayloadRaw {
		return ""
	}
	return p.template
}

// IsZero reports whether the payload assigns nothing.
func (p Payload) IsZero() bool {
	if p.kind == PayloadValues {
		return len(p.values) == 0
	}
	return p.template == ""
}

// set renders the SET clause body and its arguments.
func (p Payload) set(qi func(string) string) (string, []any) {
	if p.kind != PayloadValues {
		return p.template, slices.Clone(p.args)
	}
	cols := slices.Sorted(maps.Keys(p.values))
	sets := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		sets[i] = qi(col) + " = ?"
		args[i] = p.values[col]
	}
	return strings.Join(sets, ", "), args
}
