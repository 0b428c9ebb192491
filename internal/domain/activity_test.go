package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWindow(t *testing.T) {
	loc := time.FixedZone("SGT", 8*3600)
	// 2024-03-10 17:30 UTC is already 2024-03-11 in Singapore.
	now := time.Date(2024, 3, 10, 17, 30, 0, 0, time.UTC)

	for _, days := range []int{1, 7, 90, 180, 365} {
		w := NewWindow(now, loc, days)
		dates := w.Dates()
		require.Len(t, dates, days)
		assert.Equal(t, "2024-03-11", dates[len(dates)-1])
		for i := 1; i < len(dates); i++ {
			prev, _ := time.ParseInLocation(DateLayout, dates[i-1], loc)
			cur, _ := time.ParseInLocation(DateLayout, dates[i], loc)
			assert.Equal(t, prev.AddDate(0, 0, 1), cur)
		}
	}

	w := NewWindow(now, loc, 7)
	assert.Equal(t, "2024-03-05", w.Dates()[0])
	assert.Equal(t, time.Date(2024, 3, 12, 0, 0, 0, 0, loc), w.End)

	empty := NewWindow(now, loc, 0)
	assert.Empty(t, empty.Dates())
}

func TestWindow_Fill(t *testing.T) {
	now := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	w := NewWindow(now, time.UTC, 3)

	rows := w.Fill(map[string]int{
		"2024-01-02": 9, // before the window
		"2024-01-03": 1,
		"2024-01-05": 4,
		"2024-01-06": 7, // after the window
	})

	assert.Equal(t, []DayCount{
		{Date: "2024-01-03", Count: 1},
		{Date: "2024-01-04", Count: 0},
		{Date: "2024-01-05", Count: 4},
	}, rows)
}

func TestWindow_DateKey(t *testing.T) {
	loc := time.FixedZone("SGT", 8*3600)
	w := NewWindow(time.Date(2024, 1, 5, 0, 0, 0, 0, loc), loc, 1)
	assert.Equal(t, "2024-01-06", w.DateKey(time.Date(2024, 1, 5, 16, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-01-05", w.DateKey(time.Date(2024, 1, 5, 15, 59, 0, 0, time.UTC)))
}

func TestSummarize(t *testing.T) {
	testCases := []struct {
		name       string
		rows       []DayCount
		windowDays int
		expected   ActivitySummary
	}{
		{
			name:       "one third coded",
			rows:       []DayCount{{"a", 3}, {"b", 0}, {"c", 0}},
			windowDays: 3,
			expected:   ActivitySummary{WindowDays: 3, CodedDays: 1, CodedDaysPercent: 33.3, Total: 3},
		},
		{
			name:       "two thirds rounds up",
			rows:       []DayCount{{"a", 1}, {"b", 2}, {"c", 0}},
			windowDays: 3,
			expected:   ActivitySummary{WindowDays: 3, CodedDays: 2, CodedDaysPercent: 66.7, Total: 3},
		},
		{
			name:       "zero-length window",
			rows:       nil,
			windowDays: 0,
			expected:   ActivitySummary{},
		},
		{
			name:       "no activity",
			rows:       []DayCount{{"a", 0}, {"b", 0}},
			windowDays: 2,
			expected:   ActivitySummary{WindowDays: 2},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Summarize(tc.rows, tc.windowDays))
		})
	}
}
