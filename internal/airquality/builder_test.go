package airquality

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

type fakeSource struct {
	records []Record
	err     error
	calls   int
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) FetchHistory(context.Context) ([]Record, error) {
	f.calls++
	return f.records, f.err
}

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

// dailyHistory returns one record per day in [from, to], valued by day of month.
func dailyHistory(from, to string) []Record {
	var out []Record
	for d := day(from); !d.After(day(to)); d = d.AddDate(0, 0, 1) {
		out = append(out, Record{Date: d, Value: float64(d.Day())})
	}
	return out
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestSpliceKeepsRealRecordOverSynthetic(t *testing.T) {
	history := []Record{
		{Date: day("2025-03-09"), Value: 30},
		{Date: day("2025-03-10"), Value: 50},
	}
	got := Splice(history, day("2025-03-11"), 80)

	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	if got[1].Value != 50 {
		t.Errorf("synthetic prior-day value overrode the real one: %v", got[1].Value)
	}
	if got[2].Value != TargetSentinel {
		t.Errorf("expected sentinel on target day, got %v", got[2].Value)
	}
}

func TestSpliceInsertsPriorDay(t *testing.T) {
	got := Splice(dailyHistory("2025-03-01", "2025-03-09"), day("2025-03-11"), 80)
	last := got[len(got)-2]
	if !last.Date.Equal(day("2025-03-10")) || last.Value != 80 {
		t.Fatalf("expected prior day 2025-03-10=80, got %v=%v", last.Date, last.Value)
	}
}

func TestSpliceDuplicateHistoryKeepsFirst(t *testing.T) {
	history := []Record{
		{Date: day("2025-03-09"), Value: 1},
		{Date: day("2025-03-09"), Value: 2},
	}
	got := Splice(history, day("2025-03-11"), 80)
	if got[0].Value != 1 {
		t.Fatalf("expected first inserted duplicate to win, got %v", got[0].Value)
	}
}

func TestBuildTargetRow(t *testing.T) {
	published := []string{
		"aqi_lag_1", "aqi_lag_2", "aqi_lag_3", "aqi_lag_30",
		"aqi_roll_mean_3", "aqi_roll_std_30", "aqi_roll_min_7", "aqi_roll_max_7",
		"aqi_hist_prev_day_avg", "aqi_hist_same_day_avg", "aqi_hist_next_day_avg",
	}
	src := &fakeSource{records: dailyHistory("2023-01-01", "2025-03-09")}
	b := NewBuilder(src, published)

	frame, err := b.Build(context.Background(), day("2025-03-11"), 42)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if frame.Len() != 1 {
		t.Fatalf("expected one row, got %d", frame.Len())
	}
	row := frame.Row(0)
	want := map[string]float64{
		"aqi_lag_1":             42,
		"aqi_lag_2":             9,
		"aqi_lag_3":             8,
		"aqi_roll_mean_3":       59.0 / 3.0,
		"aqi_roll_min_7":        4,
		"aqi_roll_max_7":        42,
		"aqi_hist_prev_day_avg": 10,
		"aqi_hist_same_day_avg": 11,
		"aqi_hist_next_day_avg": 12,
	}
	for k, v := range want {
		if !approx(row.Values[k], v) {
			t.Errorf("%s = %v, want %v", k, row.Values[k], v)
		}
	}
	for _, c := range row.Columns {
		if math.IsNaN(row.Values[c]) {
			t.Errorf("unexpected NaN in %s", c)
		}
	}
}

func TestBuildWithoutPriorYearsLeavesHistNaN(t *testing.T) {
	src := &fakeSource{records: dailyHistory("2025-01-01", "2025-03-09")}
	b := NewBuilder(src, []string{"aqi_hist_same_day_avg"})
	frame, err := b.Build(context.Background(), day("2025-03-11"), 42)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if v, _ := frame.Col("aqi_hist_same_day_avg"); !math.IsNaN(v[0]) {
		t.Fatalf("expected NaN without prior-year data, got %v", v[0])
	}
}

func TestBuildPropagatesSourceError(t *testing.T) {
	boom := errors.New("sheet unavailable")
	b := NewBuilder(&fakeSource{err: boom}, nil)
	if _, err := b.Build(context.Background(), day("2025-03-11"), 42); !errors.Is(err, boom) {
		t.Fatalf("expected source error, got %v", err)
	}
}

func TestDeriveDoesNotLookForward(t *testing.T) {
	recs := dailyHistory("2024-01-01", "2025-03-10")
	before := Derive(recs)

	perturbed := append([]Record(nil), recs...)
	for i := range perturbed {
		if !perturbed[i].Date.Before(day("2025-03-01")) {
			perturbed[i].Value = 999
		}
	}
	after := Derive(perturbed)

	i := len(recs) - 11 // 2025-02-28
	r0, r1 := before.Row(i), after.Row(i)
	if !r0.Date.Equal(day("2025-02-28")) {
		t.Fatalf("unexpected row date %v", r0.Date)
	}
	for _, c := range r0.Columns {
		a, b := r0.Values[c], r1.Values[c]
		if math.IsNaN(a) && math.IsNaN(b) {
			continue
		}
		if a != b {
			t.Errorf("column %s changed: %v -> %v", c, a, b)
		}
	}
}

func TestLeapDayFallsBackToFebruary28(t *testing.T) {
	recs := []Record{
		{Date: day("2022-02-28"), Value: 10},
		{Date: day("2023-02-28"), Value: 20},
		{Date: day("2024-02-28"), Value: 99}, // leap year: only Feb 29 counts
		{Date: day("2024-02-29"), Value: 30},
		{Date: day("2028-02-29"), Value: -1},
	}
	frame := Derive(recs)
	col, _ := frame.Col("aqi_hist_same_day_avg")
	if got := col[4]; !approx(got, 20) {
		t.Fatalf("expected mean of 10, 20, 30 = 20, got %v", got)
	}
}

func TestLatestDate(t *testing.T) {
	src := &fakeSource{records: []Record{
		{Date: day("2025-03-01"), Value: 1},
		{Date: day("2025-03-09"), Value: 2},
		{Date: day("2025-03-05"), Value: 3},
	}}
	got, err := LatestDate(context.Background(), src)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if !got.Equal(day("2025-03-09")) {
		t.Fatalf("expected 2025-03-09, got %v", got)
	}
	if _, err := LatestDate(context.Background(), &fakeSource{}); !errors.Is(err, ErrEmptyHistory) {
		t.Fatalf("expected ErrEmptyHistory, got %v", err)
	}
}

func TestParseCSV(t *testing.T) {
	in := strings.NewReader("date, AQIPM25\n2025/3/1, 55\n2025-03-02,\n03/03/2025, 61.5\n")
	recs, err := ParseCSV(in, "aqipm25")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	if !recs[0].Date.Equal(day("2025-03-01")) || recs[0].Value != 55 {
		t.Errorf("unexpected first record %+v", recs[0])
	}
	if !math.IsNaN(recs[1].Value) {
		t.Errorf("expected NaN for blank value, got %v", recs[1].Value)
	}
	if !recs[2].Date.Equal(day("2025-03-03")) {
		t.Errorf("unexpected third date %v", recs[2].Date)
	}
}

func TestParseCSVMissingColumn(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("date,pm10\n2025-03-01,1\n"), "aqipm25")
	if !errors.Is(err, ErrBadHeader) {
		t.Fatalf("expected ErrBadHeader, got %v", err)
	}
}
