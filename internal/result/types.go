package result

import (
	"strconv"
	"strings"
)

// Kind identifies the canonical scalar type stored in a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Value is a canonical scalar cell without using empty interfaces.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Str   string
	Bool  bool
}

// Row is a positional tuple of values in RETURN-clause order.
type Row []Value

// Result is the comparable form of a query result.
//
// Rows of an unordered result are sorted by the total order implemented in
// compareRows, so two results that only differ in engine row order are
// structurally equal. Duplicate rows are kept.
type Result struct {
	Rows    []Row
	Ordered bool
}

// Raw is an engine result before normalization.
type Raw struct {
	Columns []string
	Rows    [][]any
	Ordered bool
}

// Mode tunes result comparison.
type Mode struct {
	IgnoreDuplicates  bool `json:"ignore_duplicates" yaml:"ignore_duplicates"`
	IgnoreColumnOrder bool `json:"ignore_column_order" yaml:"ignore_column_order"`
}

// Null returns the null value.
func Null() Value { return Value{Kind: KindNull} }

// Int returns an integer value.
func Int(v int64) Value { return Value{Kind: KindInt, Int: v} }

// Float returns a float value as stored, without canonicalization.
func Float(v float64) Value { return Value{Kind: KindFloat, Float: v} }

// String returns a string value.
func String(v string) Value { return Value{Kind: KindString, Str: v} }

// Bool returns a boolean value.
func Bool(v bool) Value { return Value{Kind: KindBool, Bool: v} }

// Interface converts the value back to a plain Go scalar.
func (v Value) Interface() any {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindString:
		return v.Str
	default:
		return nil
	}
}

// Literal renders the value for reports and logs.
func (v Value) Literal() string {
	switch v.Kind {
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	case KindString:
		return strconv.Quote(v.Str)
	default:
		return "null"
	}
}

// Empty reports whether the result has no rows.
func (r Result) Empty() bool {
	return len(r.Rows) == 0
}

// Len returns the number of rows.
func (r Result) Len() int {
	return len(r.Rows)
}

// Raw converts a normalized result back into raw rows.
func (r Result) Raw() Raw {
	rows := make([][]any, 0, len(r.Rows))
	for _, row := range r.Rows {
		cells := make([]any, 0, len(row))
		for _, value := range row {
			cells = append(cells, value.Interface())
		}
		rows = append(rows, cells)
	}
	return Raw{Rows: rows, Ordered: r.Ordered}
}

// String renders rows as tuples, e.g. {(5), ("a", 3)}.
func (r Result) String() string {
	var builder strings.Builder
	builder.WriteString("{")
	for i, row := range r.Rows {
		if i > 0 {
			builder.WriteString(", ")
		}
		builder.WriteString("(")
		for j, value := range row {
			if j > 0 {
				builder.WriteString(", ")
			}
			builder.WriteString(value.Literal())
		}
		builder.WriteString(")")
	}
	builder.WriteString("}")
	return builder.String()
}
