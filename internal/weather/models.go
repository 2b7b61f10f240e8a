package weather

import (
	"fmt"
	"time"
)

// Icon is the sky/condition code of one day, in the upstream API's vocabulary.
type Icon string

const (
	IconNone                Icon = ""
	IconClearDay            Icon = "clear-day"
	IconClearNight          Icon = "clear-night"
	IconPartlyCloudyDay     Icon = "partly-cloudy-day"
	IconPartlyCloudyNight   Icon = "partly-cloudy-night"
	IconCloudy              Icon = "cloudy"
	IconRain                Icon = "rain"
	IconShowersDay          Icon = "showers-day"
	IconShowersNight        Icon = "showers-night"
	IconThunderRain         Icon = "thunder-rain"
	IconThunderShowersDay   Icon = "thunder-showers-day"
	IconThunderShowersNight Icon = "thunder-showers-night"
	IconSnow                Icon = "snow"
	IconSnowShowersDay      Icon = "snow-showers-day"
	IconSnowShowersNight    Icon = "snow-showers-night"
	IconFog                 Icon = "fog"
	IconWind                Icon = "wind"
)

// Location is the fixed coordinate the station's weather is requested for.
type Location struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Label string  `json:"label,omitempty"`
}

// Key returns a canonical string key for this location.
func (l Location) Key() string {
	return fmt.Sprintf("%.7f,%.7f", l.Lat, l.Lon)
}

// DailyRecord is one day of observations or forecast.
// Numeric values absent upstream are stored as NaN.
type DailyRecord struct {
	Date       time.Time
	Numeric    map[string]float64
	PrecipType string // first reported precipitation type, "" when none
	Icon       Icon
}
