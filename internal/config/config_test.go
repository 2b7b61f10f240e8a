package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/aqi-nextday/internal/airquality"
	"github.com/i474232898/aqi-nextday/internal/calendar"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "TIMEZONE", "TIMEZONE_LABEL", "MAX_QUERIES",
		"VISUALCROSSING_API_KEY", "VISUALCROSSING_BASE_URL",
		"STATION_NAME", "STATION_LAT", "STATION_LON", "STATION_ADDRESS", "STATION_CITY", "STATION_COUNTRY", "GEOCODER_API_KEY",
		"AQI_HISTORY_URL", "SHEET_ID", "AQI_VALUE_COLUMN",
		"STORE_BACKEND", "JSONBIN_API_KEY", "JSONBIN_BASE_URL", "JSONBIN_BIN_ID", "LOG_BIN_ID", "MONGO_URI", "MONGO_DB",
		"STORE_TIMEOUT", "FETCH_TIMEOUT", "MODEL_PATH", "MODEL_URL", "HOLIDAYS_PATH", "ARTIFACTS_PATH",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_BACKEND", "memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.MaxQueries != 25 {
		t.Errorf("unexpected port/max: %s/%d", cfg.Port, cfg.MaxQueries)
	}
	if cfg.Location.String() != "Asia/Kolkata" || cfg.ZoneLabel != "IST" {
		t.Errorf("unexpected zone %s/%s", cfg.Location, cfg.ZoneLabel)
	}
	if cfg.Station.Lat != DefaultStationLat || cfg.Station.Lon != DefaultStationLon {
		t.Errorf("unexpected station %+v", cfg.Station)
	}
	if cfg.StoreTimeout != 10*time.Second || cfg.FetchTimeout != 0 {
		t.Errorf("unexpected timeouts %v/%v", cfg.StoreTimeout, cfg.FetchTimeout)
	}
	if cfg.AQIValueColumn != airquality.ValueColumn {
		t.Errorf("unexpected value column %q", cfg.AQIValueColumn)
	}
	if cfg.Artifacts == nil || len(cfg.Artifacts.SelectedFeatures) == 0 {
		t.Fatal("expected default artifacts")
	}
}

func TestLoadSheetURLFromID(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("SHEET_ID", "abc123")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AQIHistoryURL != airquality.SheetURL("abc123") {
		t.Fatalf("unexpected history url %q", cfg.AQIHistoryURL)
	}
}

func TestLoadValidatesBackend(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"jsonbin without keys", map[string]string{"STORE_BACKEND": "jsonbin"}},
		{"mongo without uri", map[string]string{"STORE_BACKEND": "mongo", "MONGO_URI": "localhost:27017"}},
		{"unknown backend", map[string]string{"STORE_BACKEND": "redis"}},
		{"bad timezone", map[string]string{"STORE_BACKEND": "memory", "TIMEZONE": "Mars/Olympus"}},
		{"bad timeout", map[string]string{"STORE_BACKEND": "memory", "STORE_TIMEOUT": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadMongoBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_BACKEND", "MONGO")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.StoreBackend != BackendMongo || cfg.MongoDB != "aqi_nextday" {
		t.Fatalf("unexpected store config %s/%s", cfg.StoreBackend, cfg.MongoDB)
	}
}

func TestStationExplicitCoordinates(t *testing.T) {
	clearEnv(t)
	t.Setenv("STATION_LAT", "28.61")
	t.Setenv("STATION_CITY", "ignored")

	loc, err := loadStation()
	if err != nil {
		t.Fatal(err)
	}
	if loc.Lat != 28.61 || loc.Lon != DefaultStationLon {
		t.Fatalf("unexpected location %+v", loc)
	}
}

func TestStationGeocoded(t *testing.T) {
	clearEnv(t)
	t.Setenv("STATION_CITY", "Bengaluru")
	t.Setenv("STATION_COUNTRY", "India")
	t.Setenv("GEOCODER_API_KEY", "key")

	orig := geocode
	defer func() { geocode = orig }()

	var got geocoder.Address
	geocode = func(apiKey string, addr geocoder.Address) (geocoder.Location, error) {
		got = addr
		return geocoder.Location{Latitude: 12.97, Longitude: 77.59}, nil
	}

	loc, err := loadStation()
	if err != nil {
		t.Fatal(err)
	}
	if got.City != "Bengaluru" || got.Country != "India" {
		t.Fatalf("unexpected geocoder input %+v", got)
	}
	if loc.Lat != 12.97 || loc.Lon != 77.59 {
		t.Fatalf("unexpected location %+v", loc)
	}

	geocode = func(string, geocoder.Address) (geocoder.Location, error) {
		return geocoder.Location{}, errors.New("quota exceeded")
	}
	if _, err := loadStation(); err == nil {
		t.Fatal("expected geocoding error")
	}
}

func TestStationAddressNeedsKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("STATION_ADDRESS", "BTM Layout")
	if _, err := loadStation(); err == nil {
		t.Fatal("expected missing key error")
	}
}

func TestDefaultArtifactsMatchCalendar(t *testing.T) {
	a, err := DefaultArtifacts()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(a.DateCols, ",") != strings.Join(calendar.Columns, ",") {
		t.Fatalf("date_cols %v do not match calendar columns %v", a.DateCols, calendar.Columns)
	}
}

func TestParseArtifactsRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty list", "raw_weather_cols: [datetime]\n"},
		{"unknown selected", `
raw_weather_cols: [datetime, preciptype, windspeed, visibility, pressure]
weather_cols: [windspeed_lag_1]
aqi_cols: [aqi_lag_1]
date_cols: [month]
selected_features: [aqi_lag_99]
`},
		{"missing raw field", `
raw_weather_cols: [datetime, preciptype, windspeed]
weather_cols: [windspeed_lag_1]
aqi_cols: [aqi_lag_1]
date_cols: [month]
selected_features: [aqi_lag_1]
`},
		{"duplicate column", `
raw_weather_cols: [datetime, preciptype, windspeed, visibility, pressure]
weather_cols: [month]
aqi_cols: [aqi_lag_1]
date_cols: [month]
selected_features: [aqi_lag_1]
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseArtifacts([]byte(tt.yaml)); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadArtifactsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifacts.yaml")
	body := `
raw_weather_cols: [datetime, preciptype, windspeed, visibility, pressure]
weather_cols: [windspeed_lag_1, stagnation_index]
aqi_cols: [aqi_lag_1]
date_cols: [month]
selected_features: [aqi_lag_1, stagnation_index]
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	a, err := LoadArtifacts(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := a.Published(); len(got) != 4 || got[0] != "windspeed_lag_1" || got[3] != "month" {
		t.Fatalf("unexpected published columns %v", got)
	}

	if _, err := LoadArtifacts(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for explicit missing path")
	}
}
