package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AngelCh415/recho/internal/models"
)

const (
	DefaultRange = "30d"
	dateLayout   = "2006-01-02"
	maxRangeDays = 366
)

var ErrUnknownRange = errors.New("unknown date range")

var rollingDays = map[string]int{"3d": 3, "7d": 7, "30d": 30, "90d": 90}

var rangeLabels = map[string]string{
	"3d":            "Last 3 days",
	"7d":            "Last 7 days",
	"30d":           "Last 30 days",
	"90d":           "Last 90 days",
	"current_month": "Current Month",
	"last_month":    "Last Month",
	"custom":        "Custom",
}

// ResolveRange turns a preset (and, for "custom", explicit YYYY-MM-DD bounds)
// into calendar days relative to now. Rolling presets end today inclusive.
func ResolveRange(preset, from, to string, now time.Time) (models.DateRange, error) {
	preset = norm(preset)
	if preset == "" {
		preset = DefaultRange
	}
	today := truncDay(now)

	if n, ok := rollingDays[preset]; ok {
		return models.DateRange{Preset: preset, From: today.AddDate(0, 0, -(n - 1)), To: today}, nil
	}
	switch preset {
	case "current_month":
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		return models.DateRange{Preset: preset, From: first, To: today}, nil
	case "last_month":
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		return models.DateRange{Preset: preset, From: first.AddDate(0, -1, 0), To: first.AddDate(0, 0, -1)}, nil
	case "custom":
		f, err := time.Parse(dateLayout, strings.TrimSpace(from))
		if err != nil {
			return models.DateRange{}, fmt.Errorf("%w: custom from %q", ErrUnknownRange, from)
		}
		t, err := time.Parse(dateLayout, strings.TrimSpace(to))
		if err != nil {
			return models.DateRange{}, fmt.Errorf("%w: custom to %q", ErrUnknownRange, to)
		}
		r := models.DateRange{Preset: preset, From: f, To: t}
		if t.Before(f) {
			return models.DateRange{}, fmt.Errorf("%w: from after to", ErrUnknownRange)
		}
		if r.Days() > maxRangeDays {
			return models.DateRange{}, fmt.Errorf("%w: more than %d days", ErrUnknownRange, maxRangeDays)
		}
		return r, nil
	}
	return models.DateRange{}, fmt.Errorf("%w: %q", ErrUnknownRange, preset)
}

// Label is the human name of a range, used in exported report names.
func Label(r models.DateRange) string {
	if r.Preset == "custom" {
		return r.From.Format(dateLayout) + "_to_" + r.To.Format(dateLayout)
	}
	if l, ok := rangeLabels[r.Preset]; ok {
		return l
	}
	return r.Preset
}

func truncDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
