package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/i474232898/aqi-nextday/internal/common"
	"github.com/i474232898/aqi-nextday/internal/features"
	"github.com/i474232898/aqi-nextday/internal/series"
)

// WindowDays is how many days before the target date are fetched.
const WindowDays = 14

// Raw columns handled outside the numeric whitelist.
const (
	colDatetime   = "datetime"
	colPrecipType = "preciptype"
	colIcon       = "icon"
)

var (
	lagOffsets  = []int{1, 3, 7}
	rollWindows = []int{3, 7, 14}
	rainWindows = []int{3, 7}
)

// ErrMissingField is returned when a whitelisted field is absent from every fetched day.
var ErrMissingField = errors.New("weather field missing from response")

// Builder produces the weather feature row for a target date.
type Builder struct {
	provider  Provider
	loc       Location
	rawCols   []string
	published []string
}

// NewBuilder creates a Builder. rawCols is the whitelist of upstream fields
// kept (including datetime, preciptype and icon); published is the ordered
// list of derived columns returned.
func NewBuilder(provider Provider, loc Location, rawCols, published []string) *Builder {
	return &Builder{
		provider:  provider,
		loc:       loc,
		rawCols:   rawCols,
		published: published,
	}
}

// Build fetches the trailing window and returns a frame holding the target
// day's row, or no row when the target is not in the fetched window.
func (b *Builder) Build(ctx context.Context, target time.Time) (*features.Frame, error) {
	target = common.DateOnly(target)
	start := target.AddDate(0, 0, -WindowDays)

	records, err := b.provider.FetchDaily(ctx, b.loc, start, target)
	if err != nil {
		return nil, fmt.Errorf("fetching weather from %s: %w", b.provider.Name(), err)
	}
	log.Printf("DEBUG: weather: %d days fetched for %s from %s", len(records), b.loc.Key(), b.provider.Name())

	frame, err := b.Derive(records)
	if err != nil {
		return nil, err
	}
	return frame.Filter(target).Project(b.published)
}

// Derive encodes the records and adds lag, rolling, rain-count and composite
// columns for every day. Records are sorted by date first.
func (b *Builder) Derive(records []DailyRecord) (*features.Frame, error) {
	sorted := append([]DailyRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	dates := make([]time.Time, len(sorted))
	for i, r := range sorted {
		dates[i] = r.Date
	}
	frame := features.NewFrame(dates)

	if err := b.encode(frame, sorted); err != nil {
		return nil, err
	}

	base := append([]string(nil), frame.Columns()...)
	for _, col := range base {
		xs, _ := frame.Col(col)
		for _, lag := range lagOffsets {
			frame.Set(fmt.Sprintf("%s_lag_%d", col, lag), series.Shift(xs, lag))
		}
	}
	for _, col := range base {
		xs, _ := frame.Col(col)
		for _, w := range rollWindows {
			frame.Set(fmt.Sprintf("%s_roll_mean_%d", col, w), series.Lagged(xs, w, series.Mean))
		}
	}

	precip, _ := frame.Col(colPrecipType)
	for _, w := range rainWindows {
		frame.Set(fmt.Sprintf("rain_days_last_%d", w), series.Lagged(precip, w, series.Sum))
	}

	wind, okW := frame.Col("windspeed_lag_1")
	vis, okV := frame.Col("visibility_lag_1")
	pres, okP := frame.Col("pressure_lag_1")
	if !okW || !okV || !okP {
		return nil, fmt.Errorf("%w: windspeed, visibility and pressure are required", ErrMissingField)
	}
	frame.Set("wind_dispersion_index", series.Mul(wind, vis))
	frame.Set("stagnation_index", series.Stagnation(pres, wind))

	return frame, nil
}

// encode writes the whitelisted numeric fields, the rain indicator and the
// icon indicators into frame.
func (b *Builder) encode(frame *features.Frame, records []DailyRecord) error {
	n := len(records)
	wantPrecip, wantIcon := false, false

	for _, col := range b.rawCols {
		switch col {
		case colDatetime:
			continue
		case colIcon:
			wantIcon = true
			continue
		case colPrecipType:
			wantPrecip = true
			xs := make([]float64, n)
			for i, r := range records {
				v, err := EncodePrecip(r.PrecipType)
				if err != nil {
					return fmt.Errorf("%s: %w", r.Date.Format(common.DateLayout), err)
				}
				xs[i] = v
			}
			frame.Set(colPrecipType, xs)
			continue
		}

		xs := make([]float64, n)
		seen := false
		for i, r := range records {
			v, ok := r.Numeric[col]
			if !ok {
				xs[i] = math.NaN()
				continue
			}
			seen = true
			xs[i] = v
		}
		if !seen && n > 0 {
			return fmt.Errorf("%w: %s", ErrMissingField, col)
		}
		frame.Set(col, xs)
	}

	if !wantPrecip {
		return fmt.Errorf("%w: %s", ErrMissingField, colPrecipType)
	}
	if wantIcon {
		cols := make([][]float64, len(IconColumns))
		for k := range cols {
			cols[k] = make([]float64, n)
		}
		for i, r := range records {
			ind, err := EncodeIcon(r.Icon)
			if err != nil {
				return fmt.Errorf("%s: %w", r.Date.Format(common.DateLayout), err)
			}
			for k := range cols {
				cols[k][i] = ind[k]
			}
		}
		for k, name := range IconColumns {
			frame.Set(name, cols[k])
		}
	}
	return nil
}
