package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/i474232898/aqi-nextday/internal/common"
	"github.com/i474232898/aqi-nextday/internal/upstream"
	"github.com/i474232898/aqi-nextday/internal/weather"
)

// DefaultVisualCrossingURL is the timeline endpoint root.
const DefaultVisualCrossingURL = "https://weather.visualcrossing.com/VisualCrossingWebServices/rest/services/timeline"

// excludedElements are derived or duplicate fields dropped at the source.
var excludedElements = []string{
	"conditions", "datetimeEpoch", "feelslike", "feelslikemax", "feelslikemin",
	"humidity", "name", "precipprob", "severerisk", "snow", "snowdepth",
	"stations", "sunrise", "sunset", "temp", "tempmax", "tempmin", "uvindex",
}

// VisualCrossingProvider implements weather.Provider for the Visual Crossing timeline API.
type VisualCrossingProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *upstream.Client
}

func NewVisualCrossingProvider(client *http.Client, apiKey, baseURL string) *VisualCrossingProvider {
	if baseURL == "" {
		baseURL = DefaultVisualCrossingURL
	}
	return &VisualCrossingProvider{
		name:    "visualcrossing",
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  upstream.New("visualcrossing", client, upstream.NoRetry),
	}
}

func (p *VisualCrossingProvider) Name() string {
	return p.name
}

func (p *VisualCrossingProvider) FetchDaily(ctx context.Context, loc weather.Location, start, end time.Time) ([]weather.DailyRecord, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("visualcrossing api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		elements := make([]string, len(excludedElements))
		for i, e := range excludedElements {
			elements[i] = "remove:" + e
		}
		values := url.Values{}
		values.Set("unitGroup", "metric")
		values.Set("elements", strings.Join(elements, ","))
		values.Set("include", "days")
		values.Set("key", p.apiKey)
		values.Set("contentType", "json")

		u := fmt.Sprintf("%s/%s/%s/%s?%s",
			p.baseURL,
			url.PathEscape(fmt.Sprintf("%.7f, %.7f", loc.Lat, loc.Lon)),
			start.Format(common.DateLayout),
			end.Format(common.DateLayout),
			values.Encode(),
		)
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := p.client.Do(ctx, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Days []map[string]json.RawMessage `json:"days"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding visualcrossing response: %w", err)
	}
	if payload.Days == nil {
		return nil, fmt.Errorf("visualcrossing response has no days")
	}

	out := make([]weather.DailyRecord, 0, len(payload.Days))
	for _, day := range payload.Days {
		rec, err := parseDay(day)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// parseDay converts one "days" element. Numbers go to Numeric, null numbers
// become NaN, and preciptype may be null, a string, or a list of strings.
func parseDay(day map[string]json.RawMessage) (weather.DailyRecord, error) {
	rec := weather.DailyRecord{Numeric: make(map[string]float64)}

	var ds string
	if err := json.Unmarshal(day["datetime"], &ds); err != nil {
		return rec, fmt.Errorf("visualcrossing day without datetime: %w", err)
	}
	date, err := common.ParseDate(ds)
	if err != nil {
		return rec, fmt.Errorf("visualcrossing datetime %q: %w", ds, err)
	}
	rec.Date = date

	for key, raw := range day {
		switch key {
		case "datetime":
			continue
		case "preciptype":
			rec.PrecipType = firstString(raw)
			continue
		case "icon":
			// null leaves the icon empty; anything but a string is malformed
			var icon *string
			if err := json.Unmarshal(raw, &icon); err != nil {
				return rec, fmt.Errorf("visualcrossing icon on %s: %w", ds, err)
			}
			if icon != nil {
				rec.Icon = weather.Icon(*icon)
			}
			continue
		}

		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			rec.Numeric[key] = math.NaN()
			continue
		}
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			// non-numeric fields (source, description, ...) are not features
			continue
		}
		rec.Numeric[key] = v
	}
	return rec, nil
}

func firstString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0]
	}
	return ""
}
