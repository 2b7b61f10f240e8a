package providers

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/i474232898/aqi-nextday/internal/weather"
)

const sampleTimeline = `{
  "latitude": 12.9135218,
  "days": [
    {"datetime": "2025-01-02", "windspeed": 11.2, "visibility": 4.1, "pressure": 1012.5,
     "preciptype": ["rain", "snow"], "icon": "rain", "source": "obs", "dew": null},
    {"datetime": "2025-01-01", "windspeed": 9.4, "visibility": 5.0, "pressure": 1013.1,
     "preciptype": null, "icon": "clear-day", "source": "obs", "dew": 14.2}
  ]
}`

func TestVisualCrossingFetchDaily(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleTimeline))
	}))
	defer srv.Close()

	p := NewVisualCrossingProvider(srv.Client(), "secret", srv.URL)
	start, _ := time.Parse("2006-01-02", "2025-01-01")
	end, _ := time.Parse("2006-01-02", "2025-01-02")

	recs, err := p.FetchDaily(context.Background(), weather.Location{Lat: 12.9135218, Lon: 77.5950804}, start, end)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !strings.HasSuffix(gotPath, "/2025-01-01/2025-01-02") {
		t.Errorf("unexpected path %q", gotPath)
	}
	if !strings.Contains(gotQuery, "key=secret") || !strings.Contains(gotQuery, "remove%3Auvindex") {
		t.Errorf("unexpected query %q", gotQuery)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}

	first := recs[0]
	if first.PrecipType != "rain" {
		t.Errorf("expected first listed precip type, got %q", first.PrecipType)
	}
	if first.Icon != weather.IconRain {
		t.Errorf("unexpected icon %q", first.Icon)
	}
	if first.Numeric["windspeed"] != 11.2 {
		t.Errorf("unexpected windspeed %v", first.Numeric["windspeed"])
	}
	if !math.IsNaN(first.Numeric["dew"]) {
		t.Errorf("expected null dew to be NaN, got %v", first.Numeric["dew"])
	}
	if _, ok := first.Numeric["source"]; ok {
		t.Error("non-numeric field should not be kept")
	}
	if recs[1].PrecipType != "" {
		t.Errorf("expected empty precip type for null, got %q", recs[1].PrecipType)
	}
}

func TestParseDayIcon(t *testing.T) {
	parse := func(icon string) (weather.DailyRecord, error) {
		var day map[string]json.RawMessage
		if err := json.Unmarshal([]byte(`{"datetime": "2025-03-10", "icon": `+icon+`}`), &day); err != nil {
			t.Fatalf("fixture: %v", err)
		}
		return parseDay(day)
	}

	rec, err := parse(`null`)
	if err != nil || rec.Icon != weather.IconNone {
		t.Fatalf("null icon: got %q err=%v", rec.Icon, err)
	}
	rec, err = parse(`"fog"`)
	if err != nil || rec.Icon != weather.IconFog {
		t.Fatalf("fog icon: got %q err=%v", rec.Icon, err)
	}
	for _, bad := range []string{`{"code": "smoke"}`, `7`, `["rain"]`} {
		if _, err := parse(bad); err == nil {
			t.Errorf("icon %s: expected decode error", bad)
		}
	}
}

func TestVisualCrossingRequiresKey(t *testing.T) {
	p := NewVisualCrossingProvider(http.DefaultClient, "", "")
	if _, err := p.FetchDaily(context.Background(), weather.Location{}, time.Now(), time.Now()); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestVisualCrossingUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewVisualCrossingProvider(srv.Client(), "wrong", srv.URL)
	if _, err := p.FetchDaily(context.Background(), weather.Location{}, time.Now(), time.Now()); err == nil {
		t.Fatal("expected error for 401 response")
	}
}
