package result

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type resultJSON struct {
	Rows    [][]any `json:"rows"`
	Ordered bool    `json:"ordered,omitempty"`
}

// MarshalJSON encodes the result as {"rows": [[...]], "ordered": bool} with
// plain JSON scalars in each cell.
func (r Result) MarshalJSON() ([]byte, error) {
	raw := r.Raw()
	if raw.Rows == nil {
		raw.Rows = [][]any{}
	}
	return json.Marshal(resultJSON{Rows: raw.Rows, Ordered: r.Ordered})
}

// UnmarshalJSON decodes the MarshalJSON form. Rows are kept as written; a
// number without a fraction or exponent decodes as an Int.
func (r *Result) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var decoded resultJSON
	if err := decoder.Decode(&decoded); err != nil {
		return err
	}
	var rows []Row
	for i, cells := range decoded.Rows {
		row := make(Row, 0, len(cells))
		for j, cell := range cells {
			value, err := valueFromJSON(cell)
			if err != nil {
				return fmt.Errorf("row %d column %d: %w", i, j, err)
			}
			row = append(row, value)
		}
		rows = append(rows, row)
	}
	*r = Result{Rows: rows, Ordered: decoded.Ordered}
	return nil
}

func valueFromJSON(cell any) (Value, error) {
	switch v := cell.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(v), nil
	case string:
		return String(v), nil
	case json.Number:
		if n, err := strconv.ParseInt(v.String(), 10, 64); err == nil {
			return Int(n), nil
		}
		f, err := v.Float64()
		if err != nil {
			return Value{}, err
		}
		return Float(f), nil
	default:
		return Value{}, fmt.Errorf("unsupported cell %T", cell)
	}
}
