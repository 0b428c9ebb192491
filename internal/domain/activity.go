package domain

import (
	"time"

	"github.com/montanaflynn/stats"
)

// DateLayout is the calendar-date format used for every date key.
const DateLayout = "2006-01-02"

// Window is a contiguous run of calendar days ending today in the reporting timezone.
type Window struct {
	Days int
	// Start is midnight of the first day, End is midnight of the day after the last one.
	Start time.Time
	End   time.Time
}

// NewWindow builds the window of days ending on the calendar day of now in loc.
func NewWindow(now time.Time, loc *time.Location, days int) Window {
	if days < 0 {
		days = 0
	}
	local := now.In(loc)
	tomorrow := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
	start := time.Date(local.Year(), local.Month(), local.Day()-(days-1), 0, 0, 0, 0, loc)
	if days == 0 {
		start = tomorrow
	}
	return Window{Days: days, Start: start, End: tomorrow}
}

// Dates returns every date key in the window, oldest first.
func (w Window) Dates() []string {
	dates := make([]string, 0, w.Days)
	for i := 0; i < w.Days; i++ {
		d := time.Date(w.Start.Year(), w.Start.Month(), w.Start.Day()+i, 0, 0, 0, 0, w.Start.Location())
		dates = append(dates, d.Format(DateLayout))
	}
	return dates
}

// DateKey converts an instant to its calendar date in the window's timezone.
func (w Window) DateKey(t time.Time) string {
	return t.In(w.Start.Location()).Format(DateLayout)
}

// DayCount is one row of the daily activity table.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// DailyActivity is the daily activity table for one window.
type DailyActivity struct {
	Window   Window
	Days     []DayCount
	Source   string
	// Degraded lists the call sites that fell back on partial data while the table was built.
	Degraded []string
}

// Fill clips counts to the window and returns one row per day, missing days as zero.
func (w Window) Fill(counts map[string]int) []DayCount {
	dates := w.Dates()
	rows := make([]DayCount, 0, len(dates))
	for _, date := range dates {
		rows = append(rows, DayCount{Date: date, Count: counts[date]})
	}
	return rows
}

// ActivitySummary holds the headline numbers of a daily activity table.
type ActivitySummary struct {
	WindowDays       int     `json:"window_days"`
	CodedDays        int     `json:"coded_days"`
	CodedDaysPercent float64 `json:"coded_days_percent"`
	Total            int     `json:"total_contributions"`
}

// Summarize computes coded days, their percentage of the window (one decimal), and the total.
func Summarize(rows []DayCount, windowDays int) ActivitySummary {
	summary := ActivitySummary{WindowDays: windowDays}
	values := make(stats.Float64Data, 0, len(rows))
	for _, row := range rows {
		if row.Count > 0 {
			summary.CodedDays++
		}
		values = append(values, float64(row.Count))
	}
	if total, err := stats.Sum(values); err == nil {
		summary.Total = int(total)
	}
	if windowDays > 0 {
		percent, err := stats.Round(100*float64(summary.CodedDays)/float64(windowDays), 1)
		if err == nil {
			summary.CodedDaysPercent = percent
		}
	}
	return summary
}
