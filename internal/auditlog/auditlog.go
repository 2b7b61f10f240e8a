// Package auditlog appends prediction records to a shared log document.
package auditlog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/aqi-nextday/internal/common"
	"github.com/i474232898/aqi-nextday/internal/store"
)

const (
	RoutePrediction      = "prediction"
	RoutePredictionError = "prediction_error"
	RouteUnknown         = "unknown"

	MaxQueryLen    = 2000
	MaxResponseLen = 4000

	// TimestampLayout renders times as "2025-03-10 02:15:09 PM IST".
	TimestampLayout = "2006-01-02 03:04:05 PM"
)

// Entry is one log record.
type Entry struct {
	ID        string   `json:"id,omitempty" bson:"id,omitempty"`
	Timestamp string   `json:"timestamp" bson:"timestamp"`
	Route     string   `json:"route" bson:"route"`
	Query     string   `json:"query" bson:"query"`
	Response  string   `json:"response" bson:"response"`
	IP        string   `json:"ip,omitempty" bson:"ip,omitempty"`
	Score     *float64 `json:"score,omitempty" bson:"score,omitempty"`
}

// Document is the stored collection of entries.
type Document struct {
	Logs []Entry `json:"logs" bson:"logs"`
}

// Record is the caller's view of an entry before normalization.
type Record struct {
	Route     string
	Query     string
	Response  string
	IP        string
	Score     *float64
	Timestamp string
}

// Logger appends entries by reading the whole document and writing it back.
// Concurrent appends can drop entries.
type Logger struct {
	store store.DocumentStore
	loc   *time.Location
	zone  string
	now   func() time.Time
}

// NewLogger creates a Logger that stamps entries in loc, suffixed with zone
// (for example "IST").
func NewLogger(s store.DocumentStore, loc *time.Location, zone string) *Logger {
	if loc == nil {
		loc = time.UTC
	}
	if zone == "" {
		zone = loc.String()
	}
	return &Logger{store: s, loc: loc, zone: zone, now: time.Now}
}

// Entry normalizes r: default route, truncation, rounding and timestamp.
func (l *Logger) Entry(r Record) Entry {
	e := Entry{
		ID:        uuid.NewString(),
		Timestamp: r.Timestamp,
		Route:     r.Route,
		Query:     common.Truncate(r.Query, MaxQueryLen),
		Response:  common.Truncate(r.Response, MaxResponseLen),
		IP:        r.IP,
	}
	if e.Timestamp == "" {
		e.Timestamp = fmt.Sprintf("%s %s", l.now().In(l.loc).Format(TimestampLayout), l.zone)
	}
	if e.Route == "" {
		e.Route = RouteUnknown
	}
	if r.Score != nil {
		v := math.Round(*r.Score*1000) / 1000
		e.Score = &v
	}
	return e
}

// Append adds one entry. It never returns an error; failures are logged and
// reported in the Result.
func (l *Logger) Append(ctx context.Context, r Record) common.Result {
	var doc Document
	if err := l.store.Latest(ctx, &doc); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			// Writing back an empty document here would erase the history.
			log.Printf("ERROR: auditlog: reading log document: %v", err)
			return common.Result{Err: err}
		}
		doc = Document{}
	}

	doc.Logs = append(doc.Logs, l.Entry(r))
	if err := l.store.Replace(ctx, doc); err != nil {
		log.Printf("ERROR: auditlog: saving log document: %v", err)
		return common.Result{Err: err}
	}
	return common.Result{}
}

// Recent returns up to n of the newest entries, newest last.
func (l *Logger) Recent(ctx context.Context, n int) ([]Entry, error) {
	var doc Document
	if err := l.store.Latest(ctx, &doc); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if n > 0 && len(doc.Logs) > n {
		return doc.Logs[len(doc.Logs)-n:], nil
	}
	return doc.Logs, nil
}
