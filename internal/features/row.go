package features

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/i474232898/aqi-nextday/internal/common"
)

// Row is a single dated feature vector.
type Row struct {
	Date    time.Time
	Columns []string
	Values  map[string]float64
}

// Vector returns values in the requested order, failing on unknown names.
func (r Row) Vector(cols []string) ([]float64, error) {
	out := make([]float64, len(cols))
	for i, c := range cols {
		v, ok := r.Values[c]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
		out[i] = v
	}
	return out, nil
}

// Select returns a row restricted to cols, in that order.
func (r Row) Select(cols []string) (Row, error) {
	vals, err := r.Vector(cols)
	if err != nil {
		return Row{}, err
	}
	out := Row{Date: r.Date, Columns: append([]string(nil), cols...), Values: make(map[string]float64, len(cols))}
	for i, c := range cols {
		out.Values[c] = vals[i]
	}
	return out, nil
}

type rowJSON struct {
	Date     string             `json:"date"`
	Columns  []string           `json:"columns"`
	Features map[string]float64 `json:"features"`
}

// MarshalJSON renders the row with its day and column order.
func (r Row) MarshalJSON() ([]byte, error) {
	return json.Marshal(rowJSON{
		Date:     r.Date.Format(common.DateLayout),
		Columns:  r.Columns,
		Features: r.Values,
	})
}
