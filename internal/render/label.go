package render

import (
	"strings"
	"time"
)

const labelLayout = "2006-01-02 15:04"

// zoneLabels name zones whose tzdata abbreviation is only a numeric offset.
var zoneLabels = map[string]string{
	"Asia/Singapore":    "SGT",
	"Asia/Kuala_Lumpur": "MYT",
	"Asia/Dubai":        "GST",
}

// UpdatedLabel formats an RFC 3339 generation time in loc. Unparseable values are shown
// as written; an empty value falls back to now.
func UpdatedLabel(generatedAt string, loc *time.Location, now time.Time) string {
	if generatedAt == "" {
		return formatLabel(now.In(loc), loc)
	}
	t, err := time.Parse(time.RFC3339, generatedAt)
	if err != nil {
		return strings.Replace(generatedAt, "T", " ", 1)
	}
	return formatLabel(t.In(loc), loc)
}

func formatLabel(t time.Time, loc *time.Location) string {
	return t.Format(labelLayout) + " " + zoneLabel(t, loc)
}

// zoneLabel prefers the zone abbreviation, then a known name, then "UTC+hh:mm".
func zoneLabel(t time.Time, loc *time.Location) string {
	name, _ := t.Zone()
	if name != "" && !strings.HasPrefix(name, "+") && !strings.HasPrefix(name, "-") {
		return name
	}
	if label, ok := zoneLabels[loc.String()]; ok {
		return label
	}
	return "UTC" + t.Format("-07:00")
}
