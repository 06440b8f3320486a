package result

import (
	"sort"
	"strconv"
	"strings"
)

// Equal reports whether candidate matches gold under the comparison mode.
//
// Row order is significant only when gold is ordered; otherwise both sides
// are compared as multisets.
func Equal(gold, candidate Result, mode Mode) bool {
	left := prepare(gold.Rows, gold.Ordered, mode)
	right := prepare(candidate.Rows, gold.Ordered, mode)
	if len(left) != len(right) {
		return false
	}
	for i := range left {
		if compareRows(left[i], right[i]) != 0 {
			return false
		}
	}
	return true
}

// prepare copies rows and applies the comparison mode.
func prepare(rows []Row, ordered bool, mode Mode) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		copied := append(Row(nil), row...)
		if mode.IgnoreColumnOrder {
			sort.SliceStable(copied, func(i, j int) bool {
				return compareValues(copied[i], copied[j]) < 0
			})
		}
		out = append(out, copied)
	}
	if !ordered {
		sortRows(out)
	}
	if mode.IgnoreDuplicates {
		out = dedupe(out)
	}
	return out
}

// dedupe keeps the first occurrence of each row.
func dedupe(rows []Row) []Row {
	seen := make(map[string]struct{}, len(rows))
	out := rows[:0]
	for _, row := range rows {
		key := rowKey(row)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, row)
	}
	return out
}

func rowKey(row Row) string {
	parts := make([]string, 0, len(row))
	for _, value := range row {
		parts = append(parts, value.Kind.String()+":"+value.Literal())
	}
	return strings.Join(parts, "\x1f")
}

// compareRows orders rows lexicographically by cell, shorter rows first.
func compareRows(a, b Row) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if cmp := compareValues(a[i], b[i]); cmp != 0 {
			return cmp
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// compareValues is a total order: null < bool < numeric < string.
func compareValues(a, b Value) int {
	if ra, rb := rank(a.Kind), rank(b.Kind); ra != rb {
		return ra - rb
	}
	switch a.Kind {
	case KindNull:
		return 0
	case KindBool:
		switch {
		case a.Bool == b.Bool:
			return 0
		case !a.Bool:
			return -1
		default:
			return 1
		}
	case KindInt, KindFloat:
		return compareNumeric(a, b)
	default:
		return strings.Compare(a.Str, b.Str)
	}
}

func rank(kind Kind) int {
	switch kind {
	case KindNull:
		return 0
	case KindBool:
		return 1
	case KindInt, KindFloat:
		return 2
	default:
		return 3
	}
}

func compareNumeric(a, b Value) int {
	if a.Kind == KindInt && b.Kind == KindInt {
		switch {
		case a.Int < b.Int:
			return -1
		case a.Int > b.Int:
			return 1
		default:
			return 0
		}
	}
	fa, fb := asFloat(a), asFloat(b)
	switch {
	case fa < fb:
		return -1
	case fa > fb:
		return 1
	case a.Kind == b.Kind:
		return 0
	case a.Kind == KindInt:
		return -1
	default:
		return 1
	}
}

func asFloat(v Value) float64 {
	if v.Kind == KindInt {
		return float64(v.Int)
	}
	return v.Float
}

// Key returns a stable textual key for a whole result, used for fingerprints.
func (r Result) Key() string {
	var builder strings.Builder
	builder.WriteString(strconv.FormatBool(r.Ordered))
	for _, row := range r.Rows {
		builder.WriteString("\x1e")
		builder.WriteString(rowKey(row))
	}
	return builder.String()
}
