// Package calendar derives date, seasonality and holiday features.
package calendar

import (
	"math"
	"time"

	"github.com/i474232898/aqi-nextday/internal/common"
	"github.com/i474232898/aqi-nextday/internal/features"
)

// Columns lists every column Derive produces, in order.
var Columns = []string{
	"year", "month", "dayofweek", "dayofyear", "weekofyear", "is_weekend",
	"month_sin", "month_cos", "doy_sin", "doy_cos",
	"is_holiday", "is_pre_holiday", "is_post_holiday",
}

// Builder produces the calendar feature row. It performs no I/O.
type Builder struct {
	holidays  *Holidays
	published []string
}

func NewBuilder(holidays *Holidays, published []string) *Builder {
	return &Builder{holidays: holidays, published: published}
}

// Build returns a single-row frame for target projected to the published columns.
func (b *Builder) Build(target time.Time) (*features.Frame, error) {
	frame, err := b.Derive(target)
	if err != nil {
		return nil, err
	}
	return frame.Project(b.published)
}

// Derive computes all calendar columns for one day. The holiday indicators
// look one day either side, so all three days must be in the calendar's years.
func (b *Builder) Derive(target time.Time) (*features.Frame, error) {
	d := common.DateOnly(target)
	frame := features.NewFrame([]time.Time{d})

	// Monday = 0 .. Sunday = 6
	dow := (int(d.Weekday()) + 6) % 7
	_, week := d.ISOWeek()
	month := float64(d.Month())
	doy := float64(d.YearDay())

	set := func(name string, v float64) { frame.Set(name, []float64{v}) }
	set("year", float64(d.Year()))
	set("month", month)
	set("dayofweek", float64(dow))
	set("dayofyear", doy)
	set("weekofyear", float64(week))
	set("is_weekend", boolFloat(dow >= 5))

	set("month_sin", math.Sin(2*math.Pi*month/12))
	set("month_cos", math.Cos(2*math.Pi*month/12))
	// 365 regardless of leap years
	set("doy_sin", math.Sin(2*math.Pi*doy/365))
	set("doy_cos", math.Cos(2*math.Pi*doy/365))

	for _, h := range []struct {
		name   string
		offset int
	}{
		{"is_holiday", 0},
		{"is_pre_holiday", 1},
		{"is_post_holiday", -1},
	} {
		ok, err := b.holidays.Contains(d.AddDate(0, 0, h.offset))
		if err != nil {
			return nil, err
		}
		set(h.name, boolFloat(ok))
	}

	return frame, nil
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
