// Package keyboards builds the reply and inline keyboards the bot
// attaches to its messages, along with the callback data they carry.
//
// Callback data formats are colon-separated: "delete:42",
// "history_more:latte:5", "exp:d:month:all", "top:p:week".
package keyboards

import (
	"fmt"

	"github.com/brewbeat/baristabot/internal/catalog"
	"github.com/brewbeat/baristabot/internal/models"
)

// Reply-keyboard button labels. The router matches inbound text against
// these, so they live here rather than in presentation strings.
const (
	BtnOrder      = "🧾 Order"
	BtnHistory    = "📜 History"
	BtnStats      = "📊 Stats"
	BtnTop        = "🏆 Top"
	BtnAbout      = "ℹ️ About"
	BtnExport     = "📤 Export"
	BtnCancel     = "Cancel order 🚫"
	BtnBack       = "↩ Back"
	BtnResume     = "Resume order"
	BtnOrderAgain = "➕ Order again"
	BtnHome       = "🏠 Main menu"
)

// Main is the persistent main-menu keyboard.
func Main() *models.ReplyKeyboard {
	return &models.ReplyKeyboard{
		Rows: [][]models.ReplyButton{
			{{Text: BtnOrder}, {Text: BtnHistory}},
			{{Text: BtnStats}, {Text: BtnTop}},
			{{Text: BtnAbout}, {Text: BtnExport}},
		},
	}
}

// Drink offers the drink catalog plus cancel.
func Drink() *models.ReplyKeyboard {
	return &models.ReplyKeyboard{
		Rows: [][]models.ReplyButton{
			{{Text: "Latte"}, {Text: "Cappuccino"}},
			{{Text: "Americano"}, {Text: "Flat White"}},
			{{Text: "Mocha"}},
			{{Text: BtnCancel}},
		},
		OneTime: true,
	}
}

// Size offers the size catalog plus back/cancel.
func Size() *models.ReplyKeyboard {
	return &models.ReplyKeyboard{
		Rows: [][]models.ReplyButton{
			{{Text: "Small"}, {Text: "Medium"}, {Text: "Large"}},
			{{Text: BtnBack}, {Text: BtnCancel}},
		},
		OneTime: true,
	}
}

// Milk offers yes/no plus back/cancel.
func Milk() *models.ReplyKeyboard {
	return &models.ReplyKeyboard{
		Rows: [][]models.ReplyButton{
			{{Text: "Yes"}, {Text: "No"}, {Text: BtnBack}},
			{{Text: BtnCancel}},
		},
		OneTime: true,
	}
}

// ResumeOrCancel is shown when a new order is started over an
// unfinished one.
func ResumeOrCancel() *models.ReplyKeyboard {
	return &models.ReplyKeyboard{
		Rows:    [][]models.ReplyButton{{{Text: BtnResume}, {Text: BtnCancel}}},
		OneTime: true,
	}
}

// AfterOrder is shown under the completed-order summary.
func AfterOrder() *models.ReplyKeyboard {
	return &models.ReplyKeyboard{
		Rows:    [][]models.ReplyButton{{{Text: BtnOrderAgain}, {Text: BtnHome}}},
		OneTime: true,
	}
}

// HistoryActions carries the repeat/delete pair for one history item.
func HistoryActions(orderID int64) *models.InlineKeyboard {
	return &models.InlineKeyboard{
		Rows: [][]models.InlineButton{{
			{Text: "🔁 Repeat", Data: fmt.Sprintf("repeat:%d", orderID)},
			{Text: "🗑 Delete", Data: fmt.Sprintf("delete:%d", orderID)},
		}},
	}
}

// HistoryFilter offers the drink filter for the history listing.
func HistoryFilter() *models.InlineKeyboard {
	row := []models.InlineButton{{Text: "All", Data: "history_filter:all"}}
	kb := &models.InlineKeyboard{Rows: [][]models.InlineButton{row}}
	var current []models.InlineButton
	for _, code := range catalog.DrinkCodes() {
		current = append(current, models.InlineButton{
			Text: catalog.DrinkLabel(code),
			Data: "history_filter:" + code,
		})
		if len(current) == 2 {
			kb.Rows = append(kb.Rows, current)
			current = nil
		}
	}
	if len(current) > 0 {
		kb.Rows = append(kb.Rows, current)
	}
	return kb
}

// HistoryMore carries the filter and next offset for the next page.
func HistoryMore(drink string, offset, remain int) *models.InlineKeyboard {
	return &models.InlineKeyboard{
		Rows: [][]models.InlineButton{{{
			Text: fmt.Sprintf("Show %d more", remain),
			Data: fmt.Sprintf("history_more:%s:%d", drink, offset),
		}}},
	}
}

// ConfirmDelete replaces the item actions with a confirm/cancel pair.
func ConfirmDelete(orderID int64) *models.InlineKeyboard {
	return &models.InlineKeyboard{
		Rows: [][]models.InlineButton{{
			{Text: "✅ Yes, delete", Data: fmt.Sprintf("delete_confirm:%d", orderID)},
			{Text: "✋ Keep it", Data: fmt.Sprintf("delete_cancel:%d", orderID)},
		}},
	}
}

// UndoDelete shows the undo control with the live countdown value.
func UndoDelete(orderID int64, secondsLeft int) *models.InlineKeyboard {
	return &models.InlineKeyboard{
		Rows: [][]models.InlineButton{{{
			Text: fmt.Sprintf("↩ Undo (%ds)", secondsLeft),
			Data: fmt.Sprintf("undo_delete:%d", orderID),
		}}},
	}
}

// RepeatConfirm asks to confirm duplicating a prior order.
func RepeatConfirm(orderID int64) *models.InlineKeyboard {
	return &models.InlineKeyboard{
		Rows: [][]models.InlineButton{{
			{Text: "✅ Repeat", Data: fmt.Sprintf("repeat_confirm:%d", orderID)},
			{Text: "✋ Cancel", Data: "repeat_cancel"},
		}},
	}
}

// ExportPeriods offers the export period tokens.
func ExportPeriods() *models.InlineKeyboard {
	return &models.InlineKeyboard{
		Rows: [][]models.InlineButton{
			{
				{Text: "Today", Data: "exp:p:today"},
				{Text: "Week", Data: "exp:p:week"},
			},
			{
				{Text: "Month", Data: "exp:p:month"},
				{Text: "All time", Data: "exp:p:all"},
			},
		},
	}
}

// ExportDrinks offers the drink filter for an already-chosen period.
func ExportDrinks(period string) *models.InlineKeyboard {
	row := []models.InlineButton{{Text: "All", Data: fmt.Sprintf("exp:d:%s:all", period)}}
	kb := &models.InlineKeyboard{Rows: [][]models.InlineButton{row}}
	var current []models.InlineButton
	for _, code := range catalog.DrinkCodes() {
		current = append(current, models.InlineButton{
			Text: catalog.DrinkLabel(code),
			Data: fmt.Sprintf("exp:d:%s:%s", period, code),
		})
		if len(current) == 2 {
			kb.Rows = append(kb.Rows, current)
			current = nil
		}
	}
	if len(current) > 0 {
		kb.Rows = append(kb.Rows, current)
	}
	return kb
}

// TopPeriods offers the leaderboard windows, marking the active one.
func TopPeriods(active string) *models.InlineKeyboard {
	periods := []struct{ code, label string }{
		{"week", "Week"},
		{"month", "Month"},
		{"30d", "30 days"},
		{"all", "All time"},
	}
	var row []models.InlineButton
	for _, p := range periods {
		label := p.label
		if p.code == active {
			label = "• " + label
		}
		row = append(row, models.InlineButton{Text: label, Data: "top:p:" + p.code})
	}
	return &models.InlineKeyboard{Rows: [][]models.InlineButton{row}}
}
