package airquality

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/i474232898/aqi-nextday/internal/common"
	"github.com/i474232898/aqi-nextday/internal/features"
	"github.com/i474232898/aqi-nextday/internal/series"
)

// ValueColumn is the name of the raw concentration column in derived frames.
const ValueColumn = "aqipm25"

// TargetSentinel fills the target day's own value. Every feature of the target
// row looks strictly backwards, so it is never read.
const TargetSentinel = -1.0

var (
	lagOffsets     = []int{1, 2, 3, 5, 7, 14, 21, 30}
	rollWindows    = []int{3, 7, 14, 30}
	extremesWindow = 7
)

// Builder produces the AQI feature row for a target date.
type Builder struct {
	source    Source
	published []string
}

// NewBuilder creates a Builder returning the published columns in order.
func NewBuilder(source Source, published []string) *Builder {
	return &Builder{source: source, published: published}
}

// Build fetches the full history, splices in the prior-day observation and
// the target placeholder, and returns the target day's projected row.
func (b *Builder) Build(ctx context.Context, target time.Time, priorAQI float64) (*features.Frame, error) {
	target = common.DateOnly(target)

	history, err := b.source.FetchHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching aqi history from %s: %w", b.source.Name(), err)
	}
	log.Printf("DEBUG: airquality: %d history rows from %s", len(history), b.source.Name())

	frame := Derive(Splice(history, target, priorAQI))
	return frame.Filter(target).Project(b.published)
}

// Splice sorts the history by date, appends (target-1, priorAQI) and
// (target, TargetSentinel), and removes duplicate dates keeping the first
// occurrence. Real records therefore always win over the synthetic ones.
// The result is ordered by date.
func Splice(history []Record, target time.Time, priorAQI float64) []Record {
	target = common.DateOnly(target)

	all := make([]Record, 0, len(history)+2)
	for _, r := range history {
		all = append(all, Record{Date: common.DateOnly(r.Date), Value: r.Value})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Date.Before(all[j].Date) })

	all = append(all,
		Record{Date: target.AddDate(0, 0, -1), Value: priorAQI},
		Record{Date: target, Value: TargetSentinel},
	)

	seen := make(map[time.Time]bool, len(all))
	out := all[:0]
	for _, r := range all {
		if seen[r.Date] {
			continue
		}
		seen[r.Date] = true
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Derive computes lag, rolling and historical same-day columns for every
// record. Lags and windows are positional over consecutive records.
func Derive(records []Record) *features.Frame {
	dates := make([]time.Time, len(records))
	values := make([]float64, len(records))
	for i, r := range records {
		dates[i] = r.Date
		values[i] = r.Value
	}

	frame := features.NewFrame(dates)
	frame.Set(ValueColumn, values)

	for _, lag := range lagOffsets {
		frame.Set(fmt.Sprintf("aqi_lag_%d", lag), series.Shift(values, lag))
	}
	for _, w := range rollWindows {
		frame.Set(fmt.Sprintf("aqi_roll_mean_%d", w), series.Lagged(values, w, series.Mean))
		frame.Set(fmt.Sprintf("aqi_roll_std_%d", w), series.Lagged(values, w, series.Std))
	}
	frame.Set(fmt.Sprintf("aqi_roll_min_%d", extremesWindow), series.Lagged(values, extremesWindow, series.Min))
	frame.Set(fmt.Sprintf("aqi_roll_max_%d", extremesWindow), series.Lagged(values, extremesWindow, series.Max))

	idx := newDayIndex(records)
	frame.Set("aqi_hist_prev_day_avg", idx.averages(dates, -1))
	frame.Set("aqi_hist_same_day_avg", idx.averages(dates, 0))
	frame.Set("aqi_hist_next_day_avg", idx.averages(dates, 1))

	return frame
}
