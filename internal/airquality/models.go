// Package airquality builds PM2.5 history features for one monitoring station.
package airquality

import (
	"context"
	"time"
)

// Record is one day of PM2.5 concentration. Value is NaN when the export has
// no reading for the day.
type Record struct {
	Date  time.Time
	Value float64
}

// Source returns the complete daily history of the station.
type Source interface {
	Name() string
	FetchHistory(ctx context.Context) ([]Record, error)
}

// LatestDate returns the most recent day present in the source.
func LatestDate(ctx context.Context, src Source) (time.Time, error) {
	recs, err := src.FetchHistory(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if len(recs) == 0 {
		return time.Time{}, ErrEmptyHistory
	}
	latest := recs[0].Date
	for _, r := range recs[1:] {
		if r.Date.After(latest) {
			latest = r.Date
		}
	}
	return latest, nil
}
