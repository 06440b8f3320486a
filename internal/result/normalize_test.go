package result

import (
	"reflect"
	"testing"
	"time"
)

// TestNormalizeIdempotent verifies normalizing a normalized result is a no-op.
func TestNormalizeIdempotent(t *testing.T) {
	inputs := []Raw{
		{Rows: [][]any{{int32(3), "b"}, {int64(1), "a"}, {int64(1), "a"}}},
		{Rows: [][]any{{1.25}, {float32(0.1)}, {nil}, {true}}, Ordered: true},
		{Rows: [][]any{{map[string]any{"z": 1, "a": []any{1, "x"}}}}},
		{Rows: [][]any{{time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))}}},
		{},
	}
	for i, raw := range inputs {
		once := Normalize(raw)
		twice := Normalize(once.Raw())
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("input %d: normalize not idempotent:\n once=%+v\ntwice=%+v", i, once, twice)
		}
	}
}

// TestNormalizeOrderIndependent verifies unordered results ignore row order.
func TestNormalizeOrderIndependent(t *testing.T) {
	a := Normalize(Raw{Rows: [][]any{{"alice", 3}, {"bob", 1}, {"carol", 2}}})
	b := Normalize(Raw{Rows: [][]any{{"carol", 2}, {"alice", 3}, {"bob", 1}}})
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected equal results, got %v and %v", a, b)
	}
}

// TestNormalizeKeepsOrderWhenRequested verifies ordered results are not sorted.
func TestNormalizeKeepsOrderWhenRequested(t *testing.T) {
	got := Normalize(Raw{Rows: [][]any{{3}, {1}, {2}}, Ordered: true})
	if got.String() != "{(3), (1), (2)}" {
		t.Fatalf("unexpected ordered rows: %s", got)
	}
}

// TestNormalizeCollapsesNumericWidths verifies engine numeric subtypes compare equal.
func TestNormalizeCollapsesNumericWidths(t *testing.T) {
	cases := []struct {
		name string
		cell any
		want Value
	}{
		{name: "int8", cell: int8(5), want: Int(5)},
		{name: "uint32", cell: uint32(5), want: Int(5)},
		{name: "integral float", cell: 5.0, want: Int(5)},
		{name: "float32 noise", cell: float32(0.1), want: Float(0.1)},
		{name: "fixed precision", cell: 1.23456789, want: Float(1.234568)},
		{name: "negative zero", cell: -0.0, want: Int(0)},
		{name: "nan", cell: nanValue(), want: String("NaN")},
		{name: "named string", cell: label("Person"), want: String("Person")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := normalizeCell(tc.cell)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

// TestNormalizeUnicodeNFC verifies composed and decomposed strings match.
func TestNormalizeUnicodeNFC(t *testing.T) {
	composed := Normalize(Raw{Rows: [][]any{{"Zoë"}}})
	decomposed := Normalize(Raw{Rows: [][]any{{"Zoe\u0308"}}})
	if !Equal(composed, decomposed, Mode{}) {
		t.Fatalf("expected NFC-equal strings, got %v and %v", composed, decomposed)
	}
}

// TestNormalizeCompositeCanonical verifies map key order does not matter.
func TestNormalizeCompositeCanonical(t *testing.T) {
	a := normalizeCell(map[string]any{"b": 2, "a": 1})
	b := normalizeCell(map[string]any{"a": 1.0, "b": int64(2)})
	if a != b {
		t.Fatalf("expected canonical maps to match, got %q and %q", a.Str, b.Str)
	}
	if a.Str != `{"a":1,"b":2}` {
		t.Fatalf("unexpected canonical json %q", a.Str)
	}
}

type label string

func nanValue() float64 {
	zero := 0.0
	return zero / zero
}
