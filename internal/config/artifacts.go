package config

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

//go:embed default_artifacts.yaml
var defaultArtifactsFS embed.FS

// Artifacts are the column lists the model was trained with. They are loaded
// once at startup and shared read-only.
type Artifacts struct {
	RawWeatherCols   []string `yaml:"raw_weather_cols"`
	WeatherCols      []string `yaml:"weather_cols"`
	AQICols          []string `yaml:"aqi_cols"`
	DateCols         []string `yaml:"date_cols"`
	SelectedFeatures []string `yaml:"selected_features"`
}

// Published returns every column the assembler produces, in join order.
func (a *Artifacts) Published() []string {
	out := make([]string, 0, len(a.WeatherCols)+len(a.AQICols)+len(a.DateCols))
	out = append(out, a.WeatherCols...)
	out = append(out, a.AQICols...)
	return append(out, a.DateCols...)
}

// DefaultArtifactsPath is the per-user override location.
func DefaultArtifactsPath() string {
	return filepath.Join(xdg.ConfigHome, "aqi-nextday", "artifacts.yaml")
}

// DefaultArtifacts returns the embedded manifest.
func DefaultArtifacts() (*Artifacts, error) {
	data, err := defaultArtifactsFS.ReadFile("default_artifacts.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded artifacts: %w", err)
	}
	return ParseArtifacts(data)
}

// LoadArtifacts reads the manifest at path. An empty path tries
// DefaultArtifactsPath and falls back to the embedded manifest when that
// file does not exist.
func LoadArtifacts(path string) (*Artifacts, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultArtifactsPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return DefaultArtifacts()
		}
		return nil, fmt.Errorf("reading artifacts: %w", err)
	}
	a, err := ParseArtifacts(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// ParseArtifacts decodes and validates a manifest.
func ParseArtifacts(data []byte) (*Artifacts, error) {
	var a Artifacts
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parsing artifacts: %w", err)
	}
	if err := validateArtifacts(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

func validateArtifacts(a *Artifacts) error {
	lists := []struct {
		name string
		cols []string
	}{
		{"raw_weather_cols", a.RawWeatherCols},
		{"weather_cols", a.WeatherCols},
		{"aqi_cols", a.AQICols},
		{"date_cols", a.DateCols},
		{"selected_features", a.SelectedFeatures},
	}
	for _, l := range lists {
		if len(l.cols) == 0 {
			return fmt.Errorf("artifacts: %s is empty", l.name)
		}
	}

	raw := make(map[string]bool, len(a.RawWeatherCols))
	for _, c := range a.RawWeatherCols {
		raw[c] = true
	}
	for _, c := range []string{"datetime", "preciptype", "windspeed", "visibility", "pressure"} {
		if !raw[c] {
			return fmt.Errorf("artifacts: raw_weather_cols must include %q", c)
		}
	}

	published := make(map[string]bool)
	for _, c := range a.Published() {
		if published[c] {
			return fmt.Errorf("artifacts: column %q published twice", c)
		}
		published[c] = true
	}
	for _, c := range a.SelectedFeatures {
		if !published[c] {
			return fmt.Errorf("artifacts: selected feature %q is not produced by any builder", c)
		}
	}
	return nil
}
