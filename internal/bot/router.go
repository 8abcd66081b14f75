package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/brewbeat/baristabot/internal/catalog"
	"github.com/brewbeat/baristabot/internal/keyboards"
	"github.com/brewbeat/baristabot/internal/models"
	"github.com/brewbeat/baristabot/internal/views"
)

// handleMessage routes one inbound text message. Control buttons and
// commands win over dialogue input, so "Cancel order" works mid-flow.
func (b *Bot) handleMessage(ctx context.Context, upd models.Update) error {
	text := strings.TrimSpace(upd.Text)
	cmd := strings.ToLower(text)

	switch {
	case text == keyboards.BtnCancel || cmd == "/cancel":
		res, err := b.flow.Cancel(ctx, upd.UserID)
		if err != nil {
			return err
		}
		return b.sendReplies(ctx, upd.ChatID, res.Replies)

	case cmd == "/start" || text == keyboards.BtnHome:
		return b.sendHome(ctx, upd.ChatID)

	case cmd == "/help" || text == keyboards.BtnAbout:
		return b.sendAbout(ctx, upd.ChatID)

	case cmd == "/order" || text == keyboards.BtnOrder || text == keyboards.BtnOrderAgain:
		res, err := b.flow.Start(ctx, upd.UserID)
		if err != nil {
			return err
		}
		return b.sendReplies(ctx, upd.ChatID, res.Replies)

	case text == keyboards.BtnResume:
		res, err := b.flow.Resume(ctx, upd.UserID)
		if err != nil {
			return err
		}
		return b.sendReplies(ctx, upd.ChatID, res.Replies)

	case cmd == "/history" || text == keyboards.BtnHistory:
		_, err := b.msg.SendMessage(ctx, upd.ChatID, "Which drink do you want to see?", models.InlineMarkup(keyboards.HistoryFilter()))
		return err

	case cmd == "/stats" || text == keyboards.BtnStats:
		out, err := b.stats.Stats(ctx, upd.UserID)
		if err != nil {
			return err
		}
		_, err = b.msg.SendMessage(ctx, upd.ChatID, out, nil)
		return err

	case cmd == "/top" || strings.HasPrefix(cmd, "/top ") || text == keyboards.BtnTop:
		return b.handleTopCommand(ctx, upd, cmd)

	case cmd == "/export" || strings.HasPrefix(cmd, "/export ") || text == keyboards.BtnExport:
		return b.handleExportCommand(ctx, upd, text)

	case cmd == "/health":
		return b.handleHealth(ctx, upd)

	case cmd == "/version":
		_, err := b.msg.SendMessage(ctx, upd.ChatID, fmt.Sprintf("baristabot %s", b.version), nil)
		return err

	case cmd == "/whoami":
		_, err := b.msg.SendMessage(ctx, upd.ChatID, fmt.Sprintf("Your id: `%d`", upd.UserID), nil)
		return err
	}

	// Not a command; feed it to the dialogue if one is active.
	res, err := b.flow.HandleInput(ctx, upd.UserID, upd.ChatID, text, upd.Locale)
	if err != nil {
		return err
	}
	if res == nil {
		slog.Debug("Ignoring text outside a dialogue", "user_id", upd.UserID, "text", text)
		return nil
	}
	return b.sendReplies(ctx, upd.ChatID, res.Replies)
}

func (b *Bot) sendHome(ctx context.Context, chatID int64) error {
	var menu strings.Builder
	for _, label := range catalog.DrinkLabels() {
		fmt.Fprintf(&menu, "• %s\n", label)
	}
	text := fmt.Sprintf(
		"Hi! I'm your coffee barista bot ☕️\n\n*Drink menu:*\n%s\nReady to order? Hit «%s».",
		menu.String(), keyboards.BtnOrder,
	)
	_, err := b.msg.SendMessage(ctx, chatID, text, models.ReplyMarkup(keyboards.Main()))
	return err
}

func (b *Bot) sendAbout(ctx context.Context, chatID int64) error {
	text := "I take coffee orders and keep your history 📒\n\n" +
		"• /order - start a new order\n" +
		"• /history - browse and manage past orders\n" +
		"• /stats - your consumption stats\n" +
		"• /top [week|month|30d|all] - your favourite drinks\n" +
		"• /export [period|YYYY-MM-DD YYYY-MM-DD] [drink] - CSV export\n" +
		"• /cancel - drop an unfinished order"
	_, err := b.msg.SendMessage(ctx, chatID, text, models.ReplyMarkup(keyboards.Main()))
	return err
}

func (b *Bot) handleTopCommand(ctx context.Context, upd models.Update, cmd string) error {
	period := "30d"
	if parts := strings.Fields(cmd); len(parts) > 1 {
		switch parts[1] {
		case "week", "month", "30d", "all":
			period = parts[1]
		default:
			_, err := b.msg.SendMessage(ctx, upd.ChatID, "Format: /top [week|month|30d|all]", nil)
			return err
		}
	}
	out, err := b.stats.Top(ctx, upd.UserID, period)
	if err != nil {
		return err
	}
	_, err = b.msg.SendMessage(ctx, upd.ChatID, out, models.InlineMarkup(keyboards.TopPeriods(period)))
	return err
}

// handleExportCommand parses "/export", "/export week latte" and
// "/export 2025-01-01 2025-01-31 [drink]". The bare Export button opens
// the period picker instead.
func (b *Bot) handleExportCommand(ctx context.Context, upd models.Update, text string) error {
	if text == keyboards.BtnExport {
		_, err := b.msg.SendMessage(ctx, upd.ChatID, "Pick an export period:", models.InlineMarkup(keyboards.ExportPeriods()))
		return err
	}

	parts := strings.Fields(strings.ToLower(text))
	req := views.ExportRequest{Period: "month"}
	switch len(parts) {
	case 1:
	case 2:
		req.Period = parts[1]
	case 3, 4:
		if strings.Contains(parts[1], "-") && strings.Contains(parts[2], "-") {
			req.From, req.To = parts[1], parts[2]
			if len(parts) == 4 {
				req.Drink = drinkToken(parts[3])
			}
		} else {
			req.Period = parts[1]
			req.Drink = drinkToken(parts[2])
			if len(parts) == 4 {
				_, err := b.msg.SendMessage(ctx, upd.ChatID, exportUsage, nil)
				return err
			}
		}
	default:
		_, err := b.msg.SendMessage(ctx, upd.ChatID, exportUsage, nil)
		return err
	}
	return b.export.Export(ctx, upd.UserID, upd.ChatID, req)
}

const exportUsage = "Format: /export [today|week|month|all] [drink]\nor: /export YYYY-MM-DD YYYY-MM-DD [drink]"

// drinkToken maps a user-supplied drink word to a catalog code, or ""
// (no filter) when it is not on the menu.
func drinkToken(s string) string {
	if code, ok := catalog.NormalizeDrink(s); ok {
		return code
	}
	return ""
}
