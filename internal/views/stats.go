package views

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/brewbeat/baristabot/internal/catalog"
	"github.com/brewbeat/baristabot/internal/models"
	"github.com/brewbeat/baristabot/internal/store"
)

// TopLimit caps the leaderboard length.
const TopLimit = 5

// StatsView renders drink-count aggregates.
type StatsView struct {
	st  store.Store
	now func() time.Time
}

// NewStatsView creates a StatsView.
func NewStatsView(st store.Store) *StatsView {
	return &StatsView{st: st, now: time.Now}
}

// Stats renders the today (local midnight to midnight) and all-time
// drink breakdowns for a user.
func (v *StatsView) Stats(ctx context.Context, userID int64) (string, error) {
	startToday := StartOfToday(v.now())
	today, err := v.st.DrinkCountsBetween(ctx, userID, startToday, startToday+24*60*60)
	if err != nil {
		return "", fmt.Errorf("failed to query today's stats: %w", err)
	}
	allTime, err := v.st.DrinkCountsBetween(ctx, userID, 0, MaxTimestamp)
	if err != nil {
		return "", fmt.Errorf("failed to query all-time stats: %w", err)
	}

	total := 0
	for _, dc := range allTime {
		total += dc.Count
	}

	return fmt.Sprintf(
		"*Drink stats*\n\nToday:\n%s\n\nAll time:\n%s\n\nTotal orders: *%d*",
		RenderBreakdown(today), RenderBreakdown(allTime), total,
	), nil
}

// Top renders the top drinks leaderboard for a window token
// (week/month/30d/all), truncated to TopLimit rows.
func (v *StatsView) Top(ctx context.Context, userID int64, period string) (string, error) {
	since, until := TopBounds(period, v.now())
	rows, err := v.st.DrinkCountsBetween(ctx, userID, since, until)
	if err != nil {
		return "", fmt.Errorf("failed to query top drinks: %w", err)
	}
	if len(rows) > TopLimit {
		rows = rows[:TopLimit]
	}
	return RenderTop(rows, fmt.Sprintf("🏆 Top drinks, %s:", PeriodLabel(period))), nil
}

// RenderBreakdown renders a ranked breakdown with percentage shares and
// proportional bars.
func RenderBreakdown(rows []models.DrinkCount) string {
	if len(rows) == 0 {
		return "no data"
	}
	total := 0
	for _, dc := range rows {
		total += dc.Count
	}
	var lines []string
	for _, dc := range rows {
		pct := dc.Count * 100 / total
		bar := strings.Repeat("▇", maxInt(1, pct/10))
		lines = append(lines, fmt.Sprintf("• %s — *%d* (%d%%) %s", catalog.DrinkLabel(dc.Drink), dc.Count, pct, bar))
	}
	return strings.Join(lines, "\n")
}

// RenderTop renders a leaderboard as a fixed-width bar chart.
func RenderTop(rows []models.DrinkCount, title string) string {
	if len(rows) == 0 {
		return title + "\nno data"
	}
	const width = 12
	total := 0
	for _, dc := range rows {
		total += dc.Count
	}
	if total == 0 {
		total = 1
	}
	lines := []string{title}
	for _, dc := range rows {
		barLen := int(math.Round(float64(dc.Count) / float64(total) * width))
		if barLen < 1 {
			barLen = 1
		}
		lines = append(lines, fmt.Sprintf("%-12s | %s %d", dc.Drink, strings.Repeat("▇", barLen), dc.Count))
	}
	return strings.Join(lines, "\n")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
