package airquality

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/aqi-nextday/internal/common"
	"github.com/i474232898/aqi-nextday/internal/upstream"
)

var (
	// ErrEmptyHistory is returned when the export holds no rows.
	ErrEmptyHistory = errors.New("aqi history is empty")
	// ErrBadHeader is returned when the export lacks the date or value column.
	ErrBadHeader = errors.New("aqi history header missing column")
)

// dateLayouts are the day formats accepted in the export.
var dateLayouts = []string{
	common.DateLayout,
	"2006/1/2",
	"2006/01/02",
	"1/2/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// SheetURL returns the CSV export URL of a spreadsheet.
func SheetURL(sheetID string) string {
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/export?format=csv", sheetID)
}

// SheetSource reads the history from a CSV export with a date column and a
// value column.
type SheetSource struct {
	url         string
	valueColumn string
	client      *upstream.Client
}

func NewSheetSource(client *http.Client, url, valueColumn string) *SheetSource {
	if valueColumn == "" {
		valueColumn = "aqipm25"
	}
	return &SheetSource{
		url:         url,
		valueColumn: valueColumn,
		client:      upstream.New("aqi-history", client, upstream.NoRetry),
	}
}

func (s *SheetSource) Name() string { return "sheet" }

// FetchHistory downloads and parses the full export on every call.
func (s *SheetSource) FetchHistory(ctx context.Context) ([]Record, error) {
	if s.url == "" {
		return nil, fmt.Errorf("aqi history url is not configured")
	}
	resp, err := s.client.Do(ctx, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, s.url, nil)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return ParseCSV(resp.Body, s.valueColumn)
}

// ParseCSV reads date/value rows. Header names are matched case-insensitively
// after trimming; blank or non-numeric values become NaN.
func ParseCSV(r io.Reader, valueColumn string) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyHistory
	}
	if err != nil {
		return nil, fmt.Errorf("reading aqi header: %w", err)
	}

	dateIdx, valIdx := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "date":
			dateIdx = i
		case strings.ToLower(valueColumn):
			valIdx = i
		}
	}
	if dateIdx < 0 {
		return nil, fmt.Errorf("%w: date", ErrBadHeader)
	}
	if valIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrBadHeader, valueColumn)
	}

	var out []Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading aqi row %d: %w", line, err)
		}
		if dateIdx >= len(row) || strings.TrimSpace(row[dateIdx]) == "" {
			continue
		}
		d, err := parseDay(row[dateIdx])
		if err != nil {
			return nil, fmt.Errorf("aqi row %d: %w", line, err)
		}
		v := math.NaN()
		if valIdx < len(row) {
			if f, err := strconv.ParseFloat(strings.TrimSpace(row[valIdx]), 64); err == nil {
				v = f
			}
		}
		out = append(out, Record{Date: d, Value: v})
	}
	if len(out) == 0 {
		return nil, ErrEmptyHistory
	}
	return out, nil
}

func parseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return common.DateOnly(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
