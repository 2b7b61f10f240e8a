package weather

import (
	"context"
	"time"
)

// Provider abstracts a daily weather timeline source.
type Provider interface {
	Name() string
	// FetchDaily returns one record per day from start to end inclusive.
	FetchDaily(ctx context.Context, loc Location, start, end time.Time) ([]DailyRecord, error)
}
