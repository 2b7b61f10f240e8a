package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/i474232898/aqi-nextday/internal/auditlog"
	"github.com/i474232898/aqi-nextday/internal/common"
	"github.com/i474232898/aqi-nextday/internal/features"
	"github.com/i474232898/aqi-nextday/internal/prediction"
	"github.com/i474232898/aqi-nextday/internal/quota"
)

var (
	colorAccent = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	colorWarn   = lipgloss.AdaptiveColor{Light: "#C0392B", Dark: "#F25D94"}
	colorDim    = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"}

	titleStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	valueStyle = lipgloss.NewStyle().Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(colorWarn)
	dimStyle   = lipgloss.NewStyle().Foreground(colorDim)
	cardStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorAccent).Padding(0, 2)
)

func renderOutcome(target time.Time, out prediction.Outcome) string {
	if out.Value == nil {
		return warnStyle.Render(out.Message)
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("PM2.5 AQI for "+target.Format("02 Jan 2006")),
		valueStyle.Render(strconv.FormatFloat(*out.Value, 'f', 1, 64)),
		dimStyle.Render(fmt.Sprintf("%d of %d predictions used today", out.Usage.Count, out.Usage.Max)),
	)
	return cardStyle.Render(body)
}

func renderRow(row features.Row) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers("feature", "value")
	for _, c := range row.Columns {
		t.Row(c, strconv.FormatFloat(row.Values[c], 'f', 4, 64))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Features for "+row.Date.Format(common.DateLayout)),
		t.Render(),
	)
}

func renderUsage(u quota.Usage) string {
	remaining := valueStyle.Render(strconv.Itoa(u.Remaining()))
	if u.Exhausted() {
		remaining = warnStyle.Render("0")
	}
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Daily usage"),
		fmt.Sprintf("used %d of %d, %s left", u.Count, u.Max, remaining),
		dimStyle.Render("since "+u.LastReset.Format(common.DateLayout)),
	))
}

func renderLogs(entries []auditlog.Entry) string {
	if len(entries) == 0 {
		return dimStyle.Render("no log entries")
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers("time", "route", "query", "response")
	for _, e := range entries {
		t.Row(e.Timestamp, e.Route, e.Query, common.Truncate(e.Response, 60))
	}
	return t.Render()
}
