// Package views implements the read-only projections over the order
// store: history pagination, CSV export, stats, and leaderboards.
package views

import (
	"fmt"
	"time"
)

// MaxTimestamp caps open-ended intervals.
const MaxTimestamp = 2_147_483_647

// FormatTime renders an epoch-second timestamp as ISO-8601 UTC with
// second precision.
func FormatTime(sec int64) string {
	return time.Unix(sec, 0).UTC().Format(time.RFC3339)
}

// PeriodBounds resolves a period token into a half-open [since, until)
// epoch-second interval in UTC. Unknown tokens fall back to the current
// month.
func PeriodBounds(token string, now time.Time) (int64, int64) {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch token {
	case "today":
		return today.Unix(), today.AddDate(0, 0, 1).Unix()
	case "week":
		// ISO week: Monday is the first day.
		offset := (int(now.Weekday()) + 6) % 7
		start := today.AddDate(0, 0, -offset)
		return start.Unix(), start.AddDate(0, 0, 7).Unix()
	case "all":
		return 0, MaxTimestamp
	default: // "month" and anything unrecognized
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start.Unix(), start.AddDate(0, 1, 0).Unix()
	}
}

// RangeBounds resolves an explicit YYYY-MM-DD date pair into a
// half-open interval covering both days inclusively.
func RangeBounds(from, to string) (int64, int64, error) {
	start, err := time.ParseInLocation("2006-01-02", from, time.UTC)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid start date %q: %w", from, err)
	}
	end, err := time.ParseInLocation("2006-01-02", to, time.UTC)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid end date %q: %w", to, err)
	}
	return start.Unix(), end.AddDate(0, 0, 1).Unix(), nil
}

// StartOfToday returns local midnight for the stats "today" bucket.
func StartOfToday(now time.Time) int64 {
	local := now.Local()
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location()).Unix()
}

// TopBounds resolves a leaderboard window token. Unknown tokens fall
// back to the last 30 days.
func TopBounds(period string, now time.Time) (int64, int64) {
	local := now.Local()
	switch period {
	case "week":
		startToday := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
		return startToday.AddDate(0, 0, -6).Unix(), startToday.AddDate(0, 0, 1).Unix()
	case "all":
		return 0, MaxTimestamp
	default: // "month", "30d" and anything unrecognized
		return local.AddDate(0, 0, -30).Unix(), local.Add(time.Second).Unix()
	}
}

// PeriodLabel renders a leaderboard window token for display.
func PeriodLabel(period string) string {
	switch period {
	case "week":
		return "this week"
	case "month":
		return "this month"
	case "all":
		return "all time"
	default:
		return "last 30 days"
	}
}
