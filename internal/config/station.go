package config

import (
	"fmt"
	"log"
	"os"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/aqi-nextday/internal/weather"
)

// Monitoring station used when nothing else is configured.
const (
	DefaultStationLat = 12.9135218
	DefaultStationLon = 77.5950804
)

// geocode is replaced in tests.
var geocode = func(apiKey string, addr geocoder.Address) (geocoder.Location, error) {
	geocoder.ApiKey = apiKey
	return geocoder.Geocoding(addr)
}

// loadStation resolves the station coordinates. Explicit STATION_LAT and
// STATION_LON win; otherwise a configured address is geocoded; otherwise
// the default station is used.
func loadStation() (weather.Location, error) {
	label := getenvDefault("STATION_NAME", "BTM Layout, Bengaluru")

	if os.Getenv("STATION_LAT") != "" || os.Getenv("STATION_LON") != "" {
		lat, err := getenvFloat("STATION_LAT", DefaultStationLat)
		if err != nil {
			return weather.Location{}, err
		}
		lon, err := getenvFloat("STATION_LON", DefaultStationLon)
		if err != nil {
			return weather.Location{}, err
		}
		return weather.Location{Lat: lat, Lon: lon, Label: label}, nil
	}

	addr := geocoder.Address{
		Street:  os.Getenv("STATION_ADDRESS"),
		City:    os.Getenv("STATION_CITY"),
		Country: os.Getenv("STATION_COUNTRY"),
	}
	apiKey := os.Getenv("GEOCODER_API_KEY")
	if addr.Street == "" && addr.City == "" {
		return weather.Location{Lat: DefaultStationLat, Lon: DefaultStationLon, Label: label}, nil
	}
	if apiKey == "" {
		return weather.Location{}, fmt.Errorf("GEOCODER_API_KEY is required to geocode the station address")
	}

	loc, err := geocode(apiKey, addr)
	if err != nil {
		return weather.Location{}, fmt.Errorf("geocoding station: %w", err)
	}
	log.Printf("INFO: station %q geocoded to %f,%f", label, loc.Latitude, loc.Longitude)
	return weather.Location{Lat: loc.Latitude, Lon: loc.Longitude, Label: label}, nil
}
