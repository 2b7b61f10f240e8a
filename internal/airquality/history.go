package airquality

import (
	"math"
	"time"

	"github.com/i474232898/aqi-nextday/internal/series"
)

type monthDay struct {
	month time.Month
	day   int
}

type yearValue struct {
	year  int
	value float64
}

// dayIndex groups values by calendar month/day for same-day-of-year lookups.
type dayIndex map[monthDay][]yearValue

func newDayIndex(records []Record) dayIndex {
	idx := make(dayIndex)
	for _, r := range records {
		k := monthDay{r.Date.Month(), r.Date.Day()}
		idx[k] = append(idx[k], yearValue{r.Date.Year(), r.Value})
	}
	return idx
}

// averages returns, for each date, the mean of values recorded on the
// calendar day (date + offset) in years strictly before the date's own year.
// NaN readings are skipped; no matching reading yields NaN.
func (idx dayIndex) averages(dates []time.Time, offset int) []float64 {
	out := series.NaNs(len(dates))
	for i, d := range dates {
		ref := d.AddDate(0, 0, offset)
		var vals []float64
		for _, yv := range idx.lookup(ref.Month(), ref.Day()) {
			if yv.year < d.Year() && !math.IsNaN(yv.value) {
				vals = append(vals, yv.value)
			}
		}
		if len(vals) > 0 {
			out[i] = series.Mean(vals)
		}
	}
	return out
}

// lookup returns candidates for a month/day. February 29 also matches
// February 28 of non-leap years so a leap day is not left without history.
func (idx dayIndex) lookup(m time.Month, d int) []yearValue {
	if m != time.February || d != 29 {
		return idx[monthDay{m, d}]
	}
	out := append([]yearValue(nil), idx[monthDay{time.February, 29}]...)
	for _, yv := range idx[monthDay{time.February, 28}] {
		if !isLeap(yv.year) {
			out = append(out, yv)
		}
	}
	return out
}

func isLeap(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}
