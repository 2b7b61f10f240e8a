// Package quota tracks the shared daily prediction counter.
package quota

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/i474232898/aqi-nextday/internal/common"
	"github.com/i474232898/aqi-nextday/internal/store"
)

// DefaultMax is the number of predictions allowed per calendar day.
const DefaultMax = 25

// Document is the stored counter.
type Document struct {
	QueryCount int    `json:"query_count" bson:"query_count"`
	LastReset  string `json:"last_reset" bson:"last_reset"`
}

// Usage is the counter as seen at the start of a request.
type Usage struct {
	Count     int       `json:"count"`
	Max       int       `json:"max"`
	LastReset time.Time `json:"lastReset"`
}

// Exhausted reports whether no predictions remain today.
func (u Usage) Exhausted() bool { return u.Count >= u.Max }

// Remaining returns the number of predictions left today.
func (u Usage) Remaining() int {
	if u.Count >= u.Max {
		return 0
	}
	return u.Max - u.Count
}

// Tracker reads and persists the counter. Every update replaces the whole
// document, so concurrent requests can lose increments.
type Tracker struct {
	store store.DocumentStore
	max   int
	loc   *time.Location
	now   func() time.Time
}

// NewTracker creates a Tracker. max <= 0 selects DefaultMax; days roll over
// at midnight in loc.
func NewTracker(s store.DocumentStore, max int, loc *time.Location) *Tracker {
	if max <= 0 {
		max = DefaultMax
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Tracker{store: s, max: max, loc: loc, now: time.Now}
}

// Max returns the daily limit.
func (t *Tracker) Max() int { return t.max }

func (t *Tracker) today() time.Time {
	return common.Today(t.loc, t.now())
}

// Current returns today's usage. The first read on a new day (or of a
// document without a valid last_reset) writes a zeroed counter back. An
// unreadable document is treated as a fresh counter for today.
func (t *Tracker) Current(ctx context.Context) Usage {
	today := t.today()
	usage := Usage{Max: t.max, LastReset: today}

	var doc Document
	if err := t.store.Latest(ctx, &doc); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("ERROR: quota: reading counter: %v", err)
			return usage
		}
		doc = Document{}
	}

	last, err := common.ParseDate(doc.LastReset)
	if err != nil || !last.Equal(today) {
		log.Printf("INFO: quota: new day %s (last reset %q), resetting counter", today.Format(common.DateLayout), doc.LastReset)
		t.write(ctx, 0, today)
		return usage
	}

	usage.Count = doc.QueryCount
	return usage
}

// Increment persists prev.Count+1 for today. Failures are logged and
// returned, never propagated.
func (t *Tracker) Increment(ctx context.Context, prev Usage) common.Result {
	return t.write(ctx, prev.Count+1, t.today())
}

// Reset zeroes the counter for today.
func (t *Tracker) Reset(ctx context.Context) common.Result {
	return t.write(ctx, 0, t.today())
}

func (t *Tracker) write(ctx context.Context, count int, day time.Time) common.Result {
	doc := Document{QueryCount: count, LastReset: day.Format(common.DateLayout)}
	if err := t.store.Replace(ctx, doc); err != nil {
		log.Printf("ERROR: quota: saving counter: %v", err)
		return common.Result{Err: err}
	}
	return common.Result{}
}
