package main

import (
	"strings"
	"testing"
	"time"

	"github.com/i474232898/aqi-nextday/internal/auditlog"
	"github.com/i474232898/aqi-nextday/internal/features"
	"github.com/i474232898/aqi-nextday/internal/prediction"
	"github.com/i474232898/aqi-nextday/internal/quota"
)

func TestRenderOutcome(t *testing.T) {
	target := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	v := 87.26
	got := renderOutcome(target, prediction.Outcome{Value: &v, Usage: quota.Usage{Count: 3, Max: 25}})
	for _, want := range []string{"11 Mar 2025", "87.3", "3 of 25"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in output:\n%s", want, got)
		}
	}

	got = renderOutcome(target, prediction.Outcome{Message: prediction.FailureMessage})
	if !strings.Contains(got, prediction.FailureMessage) {
		t.Errorf("expected failure message, got %q", got)
	}
}

func TestRenderRow(t *testing.T) {
	row := features.Row{
		Date:    time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC),
		Columns: []string{"aqi_lag_1", "month"},
		Values:  map[string]float64{"aqi_lag_1": 77, "month": 3},
	}
	got := renderRow(row)
	for _, want := range []string{"2025-03-11", "aqi_lag_1", "77.0000", "month"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in output:\n%s", want, got)
		}
	}
}

func TestRenderUsageAndLogs(t *testing.T) {
	got := renderUsage(quota.Usage{Count: 25, Max: 25, LastReset: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)})
	if !strings.Contains(got, "used 25 of 25") || !strings.Contains(got, "2025-03-10") {
		t.Errorf("unexpected usage output:\n%s", got)
	}

	if got := renderLogs(nil); !strings.Contains(got, "no log entries") {
		t.Errorf("unexpected empty logs output %q", got)
	}
	got = renderLogs([]auditlog.Entry{{Timestamp: "2025-03-10 02:15:09 PM IST", Route: auditlog.RoutePrediction, Query: "q", Response: "predicted_aqi=80"}})
	if !strings.Contains(got, auditlog.RoutePrediction) || !strings.Contains(got, "predicted_aqi=80") {
		t.Errorf("unexpected logs output:\n%s", got)
	}
}
