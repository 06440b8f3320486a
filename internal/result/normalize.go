package result

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"time"

	"golang.org/x/text/unicode/norm"
)

// floatScale fixes float precision to six decimal places.
const floatScale = 1e6

// maxExactInt is the largest integer a float64 represents exactly.
const maxExactInt = 1 << 53

// Normalize canonicalizes raw engine rows into a comparable Result.
func Normalize(raw Raw) Result {
	rows := make([]Row, 0, len(raw.Rows))
	for _, cells := range raw.Rows {
		row := make(Row, 0, len(cells))
		for _, cell := range cells {
			row = append(row, normalizeCell(cell))
		}
		rows = append(rows, row)
	}
	if !raw.Ordered {
		sortRows(rows)
	}
	return Result{Rows: rows, Ordered: raw.Ordered}
}

// NormalizeRows is a shorthand for unordered rows without column metadata.
func NormalizeRows(rows ...[]any) Result {
	return Normalize(Raw{Rows: rows})
}

func normalizeCell(cell any) Value {
	switch v := cell.(type) {
	case nil:
		return Null()
	case Value:
		return normalizeValue(v)
	case bool:
		return Bool(v)
	case int:
		return Int(int64(v))
	case int8:
		return Int(int64(v))
	case int16:
		return Int(int64(v))
	case int32:
		return Int(int64(v))
	case int64:
		return Int(v)
	case uint:
		return normalizeUnsigned(uint64(v))
	case uint8:
		return Int(int64(v))
	case uint16:
		return Int(int64(v))
	case uint32:
		return Int(int64(v))
	case uint64:
		return normalizeUnsigned(v)
	case float32:
		return normalizeFloat(float64(v))
	case float64:
		return normalizeFloat(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return Int(n)
		}
		if f, err := v.Float64(); err == nil {
			return normalizeFloat(f)
		}
		return String(norm.NFC.String(v.String()))
	case string:
		return String(norm.NFC.String(v))
	case []byte:
		return String(norm.NFC.String(string(v)))
	case time.Time:
		return String(v.UTC().Format(time.RFC3339Nano))
	case fmt.Stringer:
		return String(norm.NFC.String(v.String()))
	default:
		return normalizeReflect(reflect.ValueOf(v))
	}
}

// normalizeReflect handles named scalar types and falls back to composites.
func normalizeReflect(v reflect.Value) Value {
	switch v.Kind() {
	case reflect.Bool:
		return Bool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return normalizeUnsigned(v.Uint())
	case reflect.Float32, reflect.Float64:
		return normalizeFloat(v.Float())
	case reflect.String:
		return String(norm.NFC.String(v.String()))
	default:
		return String(canonicalComposite(v.Interface()))
	}
}

func normalizeValue(v Value) Value {
	switch v.Kind {
	case KindFloat:
		return normalizeFloat(v.Float)
	case KindString:
		return String(norm.NFC.String(v.Str))
	case KindInt:
		return Int(v.Int)
	case KindBool:
		return Bool(v.Bool)
	default:
		return Null()
	}
}

func normalizeUnsigned(v uint64) Value {
	if v <= math.MaxInt64 {
		return Int(int64(v))
	}
	return normalizeFloat(float64(v))
}

// normalizeFloat rounds to fixed precision and collapses integral values to Int.
func normalizeFloat(f float64) Value {
	switch {
	case math.IsNaN(f):
		return String("NaN")
	case math.IsInf(f, 1):
		return String("+Inf")
	case math.IsInf(f, -1):
		return String("-Inf")
	}
	if math.Abs(f) < maxExactInt {
		f = math.Round(f*floatScale) / floatScale
	}
	if f == math.Trunc(f) && math.Abs(f) <= maxExactInt {
		return Int(int64(f))
	}
	return Float(f)
}

// canonicalComposite renders lists, maps and structs as JSON with sorted keys.
func canonicalComposite(v any) string {
	data, err := json.Marshal(canonicalTree(reflect.ValueOf(v)))
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func canonicalTree(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return canonicalTree(v.Elem())
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return []any{}
		}
		out := make([]any, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			out = append(out, canonicalTree(v.Index(i)))
		}
		return out
	case reflect.Map:
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = canonicalTree(iter.Value())
		}
		return out
	case reflect.Struct:
		if !v.CanInterface() {
			return fmt.Sprintf("%v", v)
		}
		if _, ok := v.Interface().(time.Time); !ok {
			return v.Interface()
		}
	case reflect.Complex64, reflect.Complex128, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return fmt.Sprintf("%v", v)
	}
	if !v.CanInterface() {
		return fmt.Sprintf("%v", v)
	}
	switch v.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return normalizeReflect(v).Interface()
	}
	return normalizeCell(v.Interface()).Interface()
}

func sortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		return compareRows(rows[i], rows[j]) < 0
	})
}
