// Package pipeline assembles the model input row from the weather, air-quality
// and calendar builders.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/i474232898/aqi-nextday/internal/common"
	"github.com/i474232898/aqi-nextday/internal/features"
)

// ErrFeatureGeneration is the only error Assemble returns. The underlying
// cause is carried in the message for logging but cannot be unwrapped.
var ErrFeatureGeneration = errors.New("failed to generate model input features; check weather API, AQI data, or input values")

// WeatherBuilder yields the weather row for a target day.
type WeatherBuilder interface {
	Build(ctx context.Context, target time.Time) (*features.Frame, error)
}

// AirQualityBuilder yields the AQI row for a target day given the prior-day reading.
type AirQualityBuilder interface {
	Build(ctx context.Context, target time.Time, priorAQI float64) (*features.Frame, error)
}

// CalendarBuilder yields the calendar row for a target day.
type CalendarBuilder interface {
	Build(target time.Time) (*features.Frame, error)
}

// Assembler joins the three builders' rows on date and validates the result.
type Assembler struct {
	weather    WeatherBuilder
	airQuality AirQualityBuilder
	calendar   CalendarBuilder
}

func NewAssembler(w WeatherBuilder, aq AirQualityBuilder, cal CalendarBuilder) *Assembler {
	return &Assembler{weather: w, airQuality: aq, calendar: cal}
}

// Assemble returns the complete feature row for target, or an error matching
// ErrFeatureGeneration.
func (a *Assembler) Assemble(ctx context.Context, target time.Time, priorAQI float64) (features.Row, error) {
	row, err := a.assemble(ctx, common.DateOnly(target), priorAQI)
	if err != nil {
		return features.Row{}, fmt.Errorf("%w: %v", ErrFeatureGeneration, err)
	}
	return row, nil
}

func (a *Assembler) assemble(ctx context.Context, target time.Time, priorAQI float64) (features.Row, error) {
	wf, err := a.weather.Build(ctx, target)
	if err != nil {
		return features.Row{}, err
	}
	af, err := a.airQuality.Build(ctx, target, priorAQI)
	if err != nil {
		return features.Row{}, err
	}
	cf, err := a.calendar.Build(target)
	if err != nil {
		return features.Row{}, err
	}

	joined, err := features.Join(wf, af, cf)
	if err != nil {
		return features.Row{}, err
	}
	return features.Validate(joined)
}
