package calendar

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/i474232898/aqi-nextday/internal/common"
)

//go:embed holidays_in.yaml
var defaultHolidaysYAML []byte

// ErrYearNotCovered is returned for a day outside the calendar's year range.
var ErrYearNotCovered = errors.New("holiday calendar does not cover year")

type holidayFile struct {
	Country string `yaml:"country"`
	Years   []int  `yaml:"years"`
	Fixed   []struct {
		Month int    `yaml:"month"`
		Day   int    `yaml:"day"`
		Name  string `yaml:"name"`
	} `yaml:"fixed"`
	Easter []struct {
		Offset int    `yaml:"offset"`
		Name   string `yaml:"name"`
	} `yaml:"easter"`
	Dated []struct {
		Date string `yaml:"date"`
		Name string `yaml:"name"`
	} `yaml:"dated"`
}

// Holidays is a national holiday calendar for one country.
// Fixed and Easter-relative holidays repeat every year; dated ones apply once,
// so a calendar with dated entries only answers for the years it lists.
type Holidays struct {
	Country   string
	fixed     map[[2]int]string
	easter    map[int]string
	dated     map[time.Time]string
	firstYear int
	lastYear  int
}

// DefaultHolidays returns the embedded calendar.
func DefaultHolidays() (*Holidays, error) {
	return ParseHolidays(defaultHolidaysYAML)
}

// LoadHolidays reads a calendar file; an empty path yields the embedded one.
func LoadHolidays(path string) (*Holidays, error) {
	if path == "" {
		return DefaultHolidays()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading holidays: %w", err)
	}
	return ParseHolidays(data)
}

// ParseHolidays decodes a calendar from YAML.
func ParseHolidays(data []byte) (*Holidays, error) {
	var f holidayFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing holidays: %w", err)
	}

	h := &Holidays{
		Country: f.Country,
		fixed:   make(map[[2]int]string),
		easter:  make(map[int]string),
		dated:   make(map[time.Time]string),
	}
	for _, fx := range f.Fixed {
		if fx.Month < 1 || fx.Month > 12 || fx.Day < 1 || fx.Day > 31 {
			return nil, fmt.Errorf("holiday %q: invalid month/day %d/%d", fx.Name, fx.Month, fx.Day)
		}
		h.fixed[[2]int{fx.Month, fx.Day}] = fx.Name
	}
	for _, e := range f.Easter {
		h.easter[e.Offset] = e.Name
	}
	for _, d := range f.Dated {
		t, err := common.ParseDate(d.Date)
		if err != nil {
			return nil, fmt.Errorf("holiday %q: %w", d.Name, err)
		}
		h.dated[t] = d.Name
		if h.firstYear == 0 || t.Year() < h.firstYear {
			h.firstYear = t.Year()
		}
		if t.Year() > h.lastYear {
			h.lastYear = t.Year()
		}
	}

	switch {
	case len(f.Years) == 0:
	case len(f.Years) != 2 || f.Years[0] > f.Years[1]:
		return nil, fmt.Errorf("holiday years must be [first, last], got %v", f.Years)
	case len(h.dated) > 0 && (h.firstYear < f.Years[0] || h.lastYear > f.Years[1]):
		return nil, fmt.Errorf("dated holidays span %d-%d, outside years %v", h.firstYear, h.lastYear, f.Years)
	default:
		h.firstYear, h.lastYear = f.Years[0], f.Years[1]
	}
	return h, nil
}

// Years returns the covered year range. Both are zero when the calendar
// has no dated holidays and therefore covers every year.
func (h *Holidays) Years() (first, last int) {
	return h.firstYear, h.lastYear
}

// Covers reports whether t falls in a year the calendar is complete for.
func (h *Holidays) Covers(t time.Time) bool {
	if h.firstYear == 0 && h.lastYear == 0 {
		return true
	}
	y := t.Year()
	return y >= h.firstYear && y <= h.lastYear
}

// Lookup returns the holiday name for a day, if any. It returns
// ErrYearNotCovered rather than a silent miss outside the covered years.
func (h *Holidays) Lookup(t time.Time) (string, bool, error) {
	d := common.DateOnly(t)
	if !h.Covers(d) {
		return "", false, fmt.Errorf("%w: %d", ErrYearNotCovered, d.Year())
	}
	if name, ok := h.dated[d]; ok {
		return name, true, nil
	}
	if name, ok := h.fixed[[2]int{int(d.Month()), d.Day()}]; ok {
		return name, true, nil
	}
	if len(h.easter) > 0 {
		offset := int(d.Sub(easterSunday(d.Year())).Hours() / 24)
		if name, ok := h.easter[offset]; ok {
			return name, true, nil
		}
	}
	return "", false, nil
}

// Contains reports whether t is a holiday.
func (h *Holidays) Contains(t time.Time) (bool, error) {
	_, ok, err := h.Lookup(t)
	return ok, err
}

// easterSunday computes Western Easter with the anonymous Gregorian algorithm.
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
