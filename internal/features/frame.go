// Package features defines the date-indexed feature tables exchanged between
// the builders and the assembler.
package features

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/i474232898/aqi-nextday/internal/common"
)

var (
	// ErrEmptyFrame is returned when a frame that must hold a row has none.
	ErrEmptyFrame = errors.New("feature frame is empty")
	// ErrMissingValues is returned when a final row carries NaN values.
	ErrMissingValues = errors.New("missing values in feature row")
	// ErrMissingColumn is returned when a projection names an unknown column.
	ErrMissingColumn = errors.New("feature column not found")
	// ErrColumnClash is returned when joined frames share a column name.
	ErrColumnClash = errors.New("duplicate feature column in join")
)

// Frame is a column-oriented table keyed by calendar day.
// Column order is insertion order.
type Frame struct {
	dates   []time.Time
	columns []string
	data    map[string][]float64
}

// NewFrame creates an empty frame over the given days.
func NewFrame(dates []time.Time) *Frame {
	ds := make([]time.Time, len(dates))
	for i, d := range dates {
		ds[i] = common.DateOnly(d)
	}
	return &Frame{dates: ds, data: make(map[string][]float64)}
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.dates) }

// Dates returns the row keys.
func (f *Frame) Dates() []time.Time { return f.dates }

// Columns returns column names in insertion order.
func (f *Frame) Columns() []string { return f.columns }

// Set stores a column, replacing any existing column of the same name.
// Columns shorter than the frame are padded with NaN.
func (f *Frame) Set(name string, col []float64) {
	full := make([]float64, len(f.dates))
	for i := range full {
		if i < len(col) {
			full[i] = col[i]
		} else {
			full[i] = math.NaN()
		}
	}
	if _, ok := f.data[name]; !ok {
		f.columns = append(f.columns, name)
	}
	f.data[name] = full
}

// Col returns a column by name.
func (f *Frame) Col(name string) ([]float64, bool) {
	c, ok := f.data[name]
	return c, ok
}

// Filter keeps only rows whose date equals day.
func (f *Frame) Filter(day time.Time) *Frame {
	day = common.DateOnly(day)
	var idx []int
	for i, d := range f.dates {
		if d.Equal(day) {
			idx = append(idx, i)
		}
	}
	return f.take(idx)
}

// Project returns a frame with exactly the named columns, in that order.
func (f *Frame) Project(cols []string) (*Frame, error) {
	out := NewFrame(f.dates)
	for _, c := range cols {
		col, ok := f.data[c]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
		out.Set(c, col)
	}
	return out, nil
}

// Row materializes row i.
func (f *Frame) Row(i int) Row {
	r := Row{
		Date:    f.dates[i],
		Columns: append([]string(nil), f.columns...),
		Values:  make(map[string]float64, len(f.columns)),
	}
	for _, c := range f.columns {
		r.Values[c] = f.data[c][i]
	}
	return r
}

func (f *Frame) take(idx []int) *Frame {
	dates := make([]time.Time, len(idx))
	for j, i := range idx {
		dates[j] = f.dates[i]
	}
	out := NewFrame(dates)
	for _, c := range f.columns {
		col := make([]float64, len(idx))
		for j, i := range idx {
			col[j] = f.data[c][i]
		}
		out.Set(c, col)
	}
	return out
}

// Join inner-joins frames on date. Rows appear in the order of the first frame.
func Join(frames ...*Frame) (*Frame, error) {
	if len(frames) == 0 {
		return NewFrame(nil), nil
	}
	acc := frames[0]
	for _, next := range frames[1:] {
		joined, err := join2(acc, next)
		if err != nil {
			return nil, err
		}
		acc = joined
	}
	return acc, nil
}

func join2(left, right *Frame) (*Frame, error) {
	for _, c := range right.columns {
		if _, ok := left.data[c]; ok {
			return nil, fmt.Errorf("%w: %s", ErrColumnClash, c)
		}
	}

	type pair struct{ l, r int }
	var pairs []pair
	for i, ld := range left.dates {
		for j, rd := range right.dates {
			if ld.Equal(rd) {
				pairs = append(pairs, pair{i, j})
			}
		}
	}

	dates := make([]time.Time, len(pairs))
	for k, p := range pairs {
		dates[k] = left.dates[p.l]
	}
	out := NewFrame(dates)
	for _, c := range left.columns {
		col := make([]float64, len(pairs))
		for k, p := range pairs {
			col[k] = left.data[c][p.l]
		}
		out.Set(c, col)
	}
	for _, c := range right.columns {
		col := make([]float64, len(pairs))
		for k, p := range pairs {
			col[k] = right.data[c][p.r]
		}
		out.Set(c, col)
	}
	return out, nil
}

// Validate checks the final assembled frame: it must hold at least one row and
// no NaN anywhere. The first row is returned.
func Validate(f *Frame) (Row, error) {
	if f == nil || f.Len() == 0 || len(f.columns) == 0 {
		return Row{}, ErrEmptyFrame
	}
	var missing []string
	for _, c := range f.columns {
		for _, v := range f.data[c] {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				missing = append(missing, c)
				break
			}
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return Row{}, fmt.Errorf("%w: %v", ErrMissingValues, missing)
	}
	return f.Row(0), nil
}
