package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"github.com/i474232898/aqi-nextday/internal/airquality"
	"github.com/i474232898/aqi-nextday/internal/common"
	"github.com/i474232898/aqi-nextday/internal/quota"
	"github.com/i474232898/aqi-nextday/internal/store"
	"github.com/i474232898/aqi-nextday/internal/weather"
)

// Store backends for the usage counter and the prediction log.
const (
	BackendJSONBin = "jsonbin"
	BackendMongo   = "mongo"
	BackendMemory  = "memory"
)

type AppConfig struct {
	Port string

	// Location is the zone whose midnight resets the daily quota.
	Location *time.Location
	// ZoneLabel is appended to log timestamps.
	ZoneLabel  string
	MaxQueries int

	VisualCrossingAPIKey  string
	VisualCrossingBaseURL string
	Station               weather.Location

	AQIHistoryURL  string
	AQIValueColumn string

	StoreBackend   string
	JSONBinAPIKey  string
	JSONBinBaseURL string
	QuotaBinID     string
	LogBinID       string
	MongoURI       string
	MongoDB        string

	// StoreTimeout bounds each counter/log store call.
	StoreTimeout time.Duration
	// FetchTimeout bounds the weather and history fetches; 0 means none.
	FetchTimeout time.Duration

	ModelPath    string
	ModelURL     string
	HolidaysPath string

	Artifacts *Artifacts
}

// Load reads configuration from the environment (and a .env file when
// present) plus the artifact manifest.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")

	tz := getenvDefault("TIMEZONE", "Asia/Kolkata")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Location = loc
	cfg.ZoneLabel = getenvDefault("TIMEZONE_LABEL", zoneLabel(tz))
	cfg.MaxQueries = getenvInt("MAX_QUERIES", quota.DefaultMax)

	cfg.VisualCrossingAPIKey = os.Getenv("VISUALCROSSING_API_KEY")
	cfg.VisualCrossingBaseURL = os.Getenv("VISUALCROSSING_BASE_URL")
	station, err := loadStation()
	if err != nil {
		return nil, err
	}
	cfg.Station = station

	cfg.AQIHistoryURL = os.Getenv("AQI_HISTORY_URL")
	if cfg.AQIHistoryURL == "" {
		if id := os.Getenv("SHEET_ID"); id != "" {
			cfg.AQIHistoryURL = airquality.SheetURL(id)
		}
	}
	cfg.AQIValueColumn = getenvDefault("AQI_VALUE_COLUMN", airquality.ValueColumn)

	cfg.StoreBackend = strings.ToLower(getenvDefault("STORE_BACKEND", BackendJSONBin))
	cfg.JSONBinAPIKey = os.Getenv("JSONBIN_API_KEY")
	cfg.JSONBinBaseURL = getenvDefault("JSONBIN_BASE_URL", store.DefaultJSONBinURL)
	cfg.QuotaBinID = os.Getenv("JSONBIN_BIN_ID")
	cfg.LogBinID = os.Getenv("LOG_BIN_ID")
	cfg.MongoURI = os.Getenv("MONGO_URI")
	cfg.MongoDB = getenvDefault("MONGO_DB", "aqi_nextday")

	if cfg.StoreTimeout, err = getenvDuration("STORE_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = getenvDuration("FETCH_TIMEOUT", 0); err != nil {
		return nil, err
	}

	cfg.ModelPath = getenvDefault("MODEL_PATH", "artifacts/model.json")
	cfg.ModelURL = os.Getenv("MODEL_URL")
	cfg.HolidaysPath = os.Getenv("HOLIDAYS_PATH")

	artifacts, err := LoadArtifacts(os.Getenv("ARTIFACTS_PATH"))
	if err != nil {
		return nil, err
	}
	cfg.Artifacts = artifacts

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	switch c.StoreBackend {
	case BackendJSONBin:
		if c.JSONBinAPIKey == "" || c.QuotaBinID == "" || c.LogBinID == "" {
			return fmt.Errorf("jsonbin backend needs JSONBIN_API_KEY, JSONBIN_BIN_ID and LOG_BIN_ID")
		}
	case BackendMongo:
		if !common.HasAny(c.MongoURI, "mongodb://", "mongodb+srv://") {
			return fmt.Errorf("mongo backend needs a mongodb:// or mongodb+srv:// MONGO_URI")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q (valid: jsonbin, mongo, memory)", c.StoreBackend)
	}
	if c.MaxQueries <= 0 {
		return fmt.Errorf("MAX_QUERIES must be positive")
	}
	return nil
}

func zoneLabel(tz string) string {
	if tz == "Asia/Kolkata" {
		return "IST"
	}
	return tz
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
