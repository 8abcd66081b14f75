package views

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/brewbeat/baristabot/internal/models"
	"github.com/brewbeat/baristabot/internal/store"
)

func TestRenderBreakdown(t *testing.T) {
	rows := []models.DrinkCount{
		{Drink: "latte", Count: 9},
		{Drink: "mocha", Count: 1},
	}
	out := RenderBreakdown(rows)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "Latte") || !strings.Contains(lines[0], "*9*") || !strings.Contains(lines[0], "(90%)") {
		t.Errorf("line 1 = %q", lines[0])
	}
	// 90% draws nine bar segments, 10% keeps the one-segment floor.
	if strings.Count(lines[0], "▇") != 9 {
		t.Errorf("bar length = %d in %q", strings.Count(lines[0], "▇"), lines[0])
	}
	if strings.Count(lines[1], "▇") != 1 {
		t.Errorf("minority bar = %q", lines[1])
	}

	if got := RenderBreakdown(nil); got != "no data" {
		t.Errorf("RenderBreakdown(nil) = %q", got)
	}
}

func TestRenderTop(t *testing.T) {
	rows := []models.DrinkCount{
		{Drink: "latte", Count: 9},
		{Drink: "mocha", Count: 3},
	}
	out := RenderTop(rows, "🏆 Top drinks, this week:")
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	if lines[0] != "🏆 Top drinks, this week:" {
		t.Errorf("title = %q", lines[0])
	}
	// 9 of 12 total scaled to width 12 means 9 segments.
	if strings.Count(lines[1], "▇") != 9 {
		t.Errorf("leader bar = %q", lines[1])
	}
	if !strings.HasSuffix(lines[1], " 9") {
		t.Errorf("leader count = %q", lines[1])
	}

	if got := RenderTop(nil, "title"); got != "title\nno data" {
		t.Errorf("RenderTop(nil) = %q", got)
	}
}

func TestStatsCombinesTodayAndAllTime(t *testing.T) {
	st := store.NewInMemoryStore()
	v := NewStatsView(st)
	now := time.Date(2026, 8, 19, 12, 0, 0, 0, time.Local)
	v.now = func() time.Time { return now }

	ctx := context.Background()
	st.CreateOrder(ctx, models.Order{UserID: 7, Drink: "latte", Size: "medium", Milk: "yes", CreatedAt: now.Unix()})
	st.CreateOrder(ctx, models.Order{UserID: 7, Drink: "mocha", Size: "small", Milk: "no", CreatedAt: now.AddDate(0, 0, -40).Unix()})

	out, err := v.Stats(ctx, 7)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if !strings.Contains(out, "Total orders: *2*") {
		t.Errorf("total missing:\n%s", out)
	}
	// Today's bucket sees only today's latte; all time sees both.
	todaySection := out[strings.Index(out, "Today:"):strings.Index(out, "All time:")]
	if !strings.Contains(todaySection, "Latte") || strings.Contains(todaySection, "Mocha") {
		t.Errorf("today section wrong:\n%s", todaySection)
	}
	if !strings.Contains(out, "Mocha") {
		t.Errorf("all-time section missing mocha:\n%s", out)
	}
}

func TestTopTruncatesToLimit(t *testing.T) {
	st := store.NewInMemoryStore()
	v := NewStatsView(st)
	now := time.Date(2026, 8, 19, 12, 0, 0, 0, time.Local)
	v.now = func() time.Time { return now }

	ctx := context.Background()
	drinks := []string{"latte", "mocha", "americano", "cappuccino", "flat white", "ristretto", "cortado"}
	for i, drink := range drinks {
		for j := 0; j <= i; j++ {
			st.CreateOrder(ctx, models.Order{UserID: 7, Drink: drink, Size: "medium", Milk: "no", CreatedAt: now.Unix()})
		}
	}

	out, err := v.Top(ctx, 7, "week")
	if err != nil {
		t.Fatalf("Top failed: %v", err)
	}
	lines := strings.Split(out, "\n")
	if len(lines) != TopLimit+1 {
		t.Fatalf("got %d lines, want title plus %d rows:\n%s", len(lines), TopLimit, out)
	}
	// The two least-ordered drinks fall off the board.
	if strings.Contains(out, "latte") || strings.Contains(out, "mocha") {
		t.Errorf("truncation kept the tail:\n%s", out)
	}
	if !strings.Contains(lines[0], "this week") {
		t.Errorf("title = %q", lines[0])
	}
}
