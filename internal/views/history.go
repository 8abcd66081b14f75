package views

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/brewbeat/baristabot/internal/catalog"
	"github.com/brewbeat/baristabot/internal/keyboards"
	"github.com/brewbeat/baristabot/internal/messaging"
	"github.com/brewbeat/baristabot/internal/models"
	"github.com/brewbeat/baristabot/internal/store"
)

// PageSize is the fixed history page length.
const PageSize = 5

// HistoryView renders a user's order history in pages with per-item
// repeat/delete actions.
type HistoryView struct {
	st  store.Store
	msg messaging.Service
}

// NewHistoryView creates a HistoryView.
func NewHistoryView(st store.Store, msg messaging.Service) *HistoryView {
	return &HistoryView{st: st, msg: msg}
}

// SendPage delivers one page of history. The first page is preceded by
// a total-count header; a "show more" control follows when rows remain
// beyond this page.
func (v *HistoryView) SendPage(ctx context.Context, userID, chatID int64, drink string, offset int) error {
	total, err := v.st.CountOrders(ctx, userID, drink)
	if err != nil {
		return fmt.Errorf("failed to count history: %w", err)
	}
	if total == 0 {
		text := "Your order history is empty 🗃"
		if drink != "" && drink != "all" {
			text = fmt.Sprintf("No orders for %s.", catalog.DrinkLabel(drink))
		}
		_, err := v.msg.SendMessage(ctx, chatID, text, nil)
		return err
	}

	rows, err := v.st.OrdersPage(ctx, userID, drink, offset, PageSize)
	if err != nil {
		return fmt.Errorf("failed to load history page: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}
	shown := len(rows)

	if offset == 0 {
		if _, err := v.msg.SendMessage(ctx, chatID, fmt.Sprintf("History: %d total (showing %d)", total, shown), nil); err != nil {
			return err
		}
	}
	slog.Debug("History page", "user_id", userID, "drink", drink, "total", total, "offset", offset, "shown", shown)

	for _, o := range rows {
		text := fmt.Sprintf(
			"☕ Drink: *%s*\n📏 Size: *%s*\n🥛 Milk: *%s*\n🕒 %s\nID: %d",
			catalog.DrinkLabel(o.Drink), catalog.SizeLabel(o.Size), catalog.MilkLabel(o.Milk),
			FormatTime(o.CreatedAt), o.ID,
		)
		if _, err := v.msg.SendMessage(ctx, chatID, text, models.InlineMarkup(keyboards.HistoryActions(o.ID))); err != nil {
			return err
		}
	}

	remain := total - (offset + shown)
	if remain > 0 {
		_, err := v.msg.SendMessage(ctx, chatID, fmt.Sprintf("Show %d more", remain),
			models.InlineMarkup(keyboards.HistoryMore(drink, offset+shown, remain)))
		return err
	}
	return nil
}
