package weather

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownPrecipType is returned for a precipitation type outside the
	// known upstream vocabulary.
	ErrUnknownPrecipType = errors.New("unknown precipitation type")
	// ErrUnknownIcon is returned for an icon outside the known upstream vocabulary.
	ErrUnknownIcon = errors.New("unknown weather icon")
)

// noPrecip is what a missing precipitation type is read as.
const noPrecip = "no"

// precipByInitial classifies a precipitation type by its first character.
// Only rain counts; snow, sleet, freezing rain, ice and hail all fall into the
// no-rain class together with "no".
var precipByInitial = map[byte]float64{
	'r': 1,
	'n': 0,
	's': 0,
	'f': 0,
	'i': 0,
	'h': 0,
}

// EncodePrecip maps a raw precipitation type to the rain indicator.
func EncodePrecip(raw string) (float64, error) {
	p := strings.ToLower(strings.TrimSpace(raw))
	if p == "" {
		p = noPrecip
	}
	v, ok := precipByInitial[p[0]]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownPrecipType, raw)
	}
	return v, nil
}

// IconColumns are the one-hot indicator columns, in output order.
var IconColumns = []string{"icon_clear-day", "icon_partly-cloudy-day", "icon_rain"}

var iconIndicator = map[Icon]int{
	IconClearDay:        0,
	IconPartlyCloudyDay: 1,
	IconRain:            2,
}

var knownIcons = map[Icon]bool{
	IconNone: true, IconClearDay: true, IconClearNight: true,
	IconPartlyCloudyDay: true, IconPartlyCloudyNight: true, IconCloudy: true,
	IconRain: true, IconShowersDay: true, IconShowersNight: true,
	IconThunderRain: true, IconThunderShowersDay: true, IconThunderShowersNight: true,
	IconSnow: true, IconSnowShowersDay: true, IconSnowShowersNight: true,
	IconFog: true, IconWind: true,
}

// EncodeIcon returns the one-hot indicators for IconColumns. Known icons
// outside the three tracked ones encode as all zeros.
func EncodeIcon(icon Icon) ([3]float64, error) {
	var out [3]float64
	if !knownIcons[icon] {
		return out, fmt.Errorf("%w: %q", ErrUnknownIcon, string(icon))
	}
	if i, ok := iconIndicator[icon]; ok {
		out[i] = 1
	}
	return out, nil
}
