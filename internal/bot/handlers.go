package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/brewbeat/baristabot/internal/catalog"
	"github.com/brewbeat/baristabot/internal/keyboards"
	"github.com/brewbeat/baristabot/internal/messaging"
	"github.com/brewbeat/baristabot/internal/models"
	"github.com/brewbeat/baristabot/internal/undo"
	"github.com/brewbeat/baristabot/internal/views"
)

// handleCallback routes one inline-button press by its callback data.
// Each branch answers the callback exactly once.
func (b *Bot) handleCallback(ctx context.Context, upd models.Update) error {
	verb, rest, _ := strings.Cut(upd.CallbackData, ":")
	slog.Debug("Callback received", "user_id", upd.UserID, "data", upd.CallbackData)

	switch verb {
	case "history_filter":
		if err := b.msg.AnswerCallback(ctx, upd.CallbackID, "", false); err != nil {
			slog.Warn("Callback ack failed", "error", err)
		}
		return b.history.SendPage(ctx, upd.UserID, upd.ChatID, rest, 0)

	case "history_more":
		drink, offStr, _ := strings.Cut(rest, ":")
		offset, err := strconv.Atoi(offStr)
		if err != nil {
			return b.msg.AnswerCallback(ctx, upd.CallbackID, "That button has gone stale 😕", true)
		}
		if err := b.msg.AnswerCallback(ctx, upd.CallbackID, "", false); err != nil {
			slog.Warn("Callback ack failed", "error", err)
		}
		// Drop the pressed button so the page is not requested twice.
		if err := b.msg.EditMessageMarkup(ctx, upd.ChatID, upd.MessageID, nil); err != nil && !messaging.IsNotModified(err) {
			slog.Warn("Failed to clear more-button", "error", err)
		}
		return b.history.SendPage(ctx, upd.UserID, upd.ChatID, drink, offset)

	case "delete":
		orderID, err := parseOrderID(rest)
		if err != nil {
			return b.msg.AnswerCallback(ctx, upd.CallbackID, "That button has gone stale 😕", true)
		}
		if err := b.msg.AnswerCallback(ctx, upd.CallbackID, "", false); err != nil {
			slog.Warn("Callback ack failed", "error", err)
		}
		return benignEdit(b.msg.EditMessageMarkup(ctx, upd.ChatID, upd.MessageID, keyboards.ConfirmDelete(orderID)))

	case "delete_confirm":
		return b.handleDeleteConfirm(ctx, upd, rest)

	case "delete_cancel":
		orderID, err := parseOrderID(rest)
		if err != nil {
			return b.msg.AnswerCallback(ctx, upd.CallbackID, "That button has gone stale 😕", true)
		}
		if err := b.msg.AnswerCallback(ctx, upd.CallbackID, "Okay, keeping it ✋", false); err != nil {
			slog.Warn("Callback ack failed", "error", err)
		}
		return benignEdit(b.msg.EditMessageMarkup(ctx, upd.ChatID, upd.MessageID, keyboards.HistoryActions(orderID)))

	case "undo_delete":
		return b.handleUndoDelete(ctx, upd, rest)

	case "repeat":
		return b.handleRepeat(ctx, upd, rest)

	case "repeat_confirm":
		return b.handleRepeatConfirm(ctx, upd, rest)

	case "repeat_cancel":
		if err := b.msg.AnswerCallback(ctx, upd.CallbackID, "Okay, not repeating ✋", false); err != nil {
			slog.Warn("Callback ack failed", "error", err)
		}
		if err := b.msg.EditMessageMarkup(ctx, upd.ChatID, upd.MessageID, nil); err != nil && !messaging.IsNotModified(err) {
			slog.Warn("Failed to clear repeat keyboard", "error", err)
		}
		return nil

	case "exp":
		return b.handleExportCallback(ctx, upd, rest)

	case "top":
		return b.handleTopCallback(ctx, upd, rest)
	}

	slog.Warn("Unknown callback data", "user_id", upd.UserID, "data", upd.CallbackData)
	return b.msg.AnswerCallback(ctx, upd.CallbackID, "", false)
}

func (b *Bot) handleDeleteConfirm(ctx context.Context, upd models.Update, rest string) error {
	orderID, err := parseOrderID(rest)
	if err != nil {
		return b.msg.AnswerCallback(ctx, upd.CallbackID, "That button has gone stale 😕", true)
	}

	ok, err := b.st.SoftDeleteOrder(ctx, upd.UserID, orderID)
	if err != nil {
		return fmt.Errorf("failed to delete order %d: %w", orderID, err)
	}
	if !ok {
		// Already deleted or never existed; nothing to announce.
		if err := b.msg.AnswerCallback(ctx, upd.CallbackID, "Couldn't find that order 😕", true); err != nil {
			slog.Warn("Callback ack failed", "error", err)
		}
		if err := b.msg.EditMessageMarkup(ctx, upd.ChatID, upd.MessageID, nil); err != nil && !messaging.IsNotModified(err) {
			slog.Warn("Failed to clear keyboard", "error", err)
		}
		return nil
	}

	if err := b.msg.AnswerCallback(ctx, upd.CallbackID, "", false); err != nil {
		slog.Warn("Callback ack failed", "error", err)
	}
	left := b.undo.Begin(ctx, upd.UserID, orderID, upd.ChatID, upd.MessageID)
	text := fmt.Sprintf("🗑 Order #%d deleted.\nYou can bring it back within %d seconds.", orderID, undo.UndoDeadlineSec)
	if err := b.msg.EditMessageText(ctx, upd.ChatID, upd.MessageID, text, keyboards.UndoDelete(orderID, left)); err != nil && !messaging.IsNotModified(err) {
		slog.Warn("Failed to show undo control", "error", err, "order_id", orderID)
	}
	return nil
}

func (b *Bot) handleUndoDelete(ctx context.Context, upd models.Update, rest string) error {
	orderID, err := parseOrderID(rest)
	if err != nil {
		return b.msg.AnswerCallback(ctx, upd.CallbackID, "That button has gone stale 😕", true)
	}

	switch err := b.undo.Undo(ctx, upd.UserID, orderID); {
	case errors.Is(err, models.ErrTooLate):
		return b.msg.AnswerCallback(ctx, upd.CallbackID, "Oops, time's up 😔", true)
	case errors.Is(err, models.ErrUndoLost):
		return b.msg.AnswerCallback(ctx, upd.CallbackID, "Couldn't bring that order back 🤷", true)
	case err != nil:
		return fmt.Errorf("failed to undo delete of order %d: %w", orderID, err)
	default:
		return b.msg.AnswerCallback(ctx, upd.CallbackID, "Order restored ✅", false)
	}
}

func (b *Bot) handleRepeat(ctx context.Context, upd models.Update, rest string) error {
	orderID, err := parseOrderID(rest)
	if err != nil {
		return b.msg.AnswerCallback(ctx, upd.CallbackID, "That button has gone stale 😕", true)
	}

	busy, err := b.flow.InProgress(ctx, upd.UserID)
	if err != nil {
		return err
	}
	if busy {
		if err := b.msg.AnswerCallback(ctx, upd.CallbackID, "", false); err != nil {
			slog.Warn("Callback ack failed", "error", err)
		}
		_, err := b.msg.SendMessage(ctx, upd.ChatID,
			"⚠️ Finish or cancel your current order first.",
			models.ReplyMarkup(keyboards.ResumeOrCancel()))
		return err
	}

	order, err := b.st.GetOrder(ctx, upd.UserID, orderID)
	if err != nil {
		return fmt.Errorf("failed to load order %d: %w", orderID, err)
	}
	if order == nil || order.Deleted() {
		return b.msg.AnswerCallback(ctx, upd.CallbackID, "Couldn't find that order 😔", true)
	}

	if err := b.msg.AnswerCallback(ctx, upd.CallbackID, "", false); err != nil {
		slog.Warn("Callback ack failed", "error", err)
	}
	preview := fmt.Sprintf(
		"Repeat this order?\n\n☕ %s · %s · %s",
		catalog.DrinkLabel(order.Drink), catalog.SizeLabel(order.Size), catalog.MilkLabel(order.Milk),
	)
	_, err = b.msg.SendMessage(ctx, upd.ChatID, preview, models.InlineMarkup(keyboards.RepeatConfirm(orderID)))
	return err
}

func (b *Bot) handleRepeatConfirm(ctx context.Context, upd models.Update, rest string) error {
	orderID, err := parseOrderID(rest)
	if err != nil {
		return b.msg.AnswerCallback(ctx, upd.CallbackID, "That button has gone stale 😕", true)
	}

	order, err := b.st.GetOrder(ctx, upd.UserID, orderID)
	if err != nil {
		return fmt.Errorf("failed to load order %d: %w", orderID, err)
	}
	if order == nil || order.Deleted() {
		return b.msg.AnswerCallback(ctx, upd.CallbackID, "Couldn't find that order 😔", true)
	}

	if err := b.msg.AnswerCallback(ctx, upd.CallbackID, "", false); err != nil {
		slog.Warn("Callback ack failed", "error", err)
	}
	if err := b.msg.EditMessageMarkup(ctx, upd.ChatID, upd.MessageID, nil); err != nil && !messaging.IsNotModified(err) {
		slog.Warn("Failed to clear repeat keyboard", "error", err)
	}

	createdAt := time.Now().Unix()
	newID, err := b.st.CreateOrder(ctx, models.Order{
		UserID:    upd.UserID,
		ChatID:    upd.ChatID,
		Drink:     order.Drink,
		Size:      order.Size,
		Milk:      order.Milk,
		CreatedAt: createdAt,
		Locale:    upd.Locale,
	})
	if err != nil {
		return fmt.Errorf("failed to repeat order %d: %w", orderID, err)
	}
	number, err := b.st.OrderNumber(ctx, upd.UserID, createdAt)
	if err != nil {
		slog.Warn("Order number lookup failed", "error", err, "order_id", newID)
		number = 0
	}
	slog.Info("Order repeated", "user_id", upd.UserID, "source_order_id", orderID, "order_id", newID)

	text := fmt.Sprintf(
		"🧾 *Ordered again!*\n\n☕ %s · %s · %s\n\nThis is your order #%d 🙌",
		catalog.DrinkLabel(order.Drink), catalog.SizeLabel(order.Size), catalog.MilkLabel(order.Milk), number,
	)
	_, err = b.msg.SendMessage(ctx, upd.ChatID, text, models.ReplyMarkup(keyboards.Main()))
	return err
}

// handleExportCallback serves "p:<period>" (period chosen, offer drinks)
// and "d:<period>:<drink>" (run the export).
func (b *Bot) handleExportCallback(ctx context.Context, upd models.Update, rest string) error {
	step, args, _ := strings.Cut(rest, ":")
	switch step {
	case "p":
		if err := b.msg.AnswerCallback(ctx, upd.CallbackID, "", false); err != nil {
			slog.Warn("Callback ack failed", "error", err)
		}
		err := b.msg.EditMessageText(ctx, upd.ChatID, upd.MessageID, "And which drink?", keyboards.ExportDrinks(args))
		if messaging.IsNotModified(err) {
			return nil
		}
		if err != nil {
			// The picker may be too old to edit; send a fresh one.
			_, err = b.msg.SendMessage(ctx, upd.ChatID, "And which drink?", models.InlineMarkup(keyboards.ExportDrinks(args)))
		}
		return err

	case "d":
		period, drink, _ := strings.Cut(args, ":")
		k := exportKey{userID: upd.UserID, messageID: upd.MessageID}
		if !b.tryLockExport(k) {
			return b.msg.AnswerCallback(ctx, upd.CallbackID, "Already working on it ⏳", false)
		}
		defer b.unlockExport(k)

		if err := b.msg.AnswerCallback(ctx, upd.CallbackID, "", false); err != nil {
			slog.Warn("Callback ack failed", "error", err)
		}
		req := views.ExportRequest{Period: period}
		if drink != "all" {
			req.Drink = drink
		}
		if err := b.export.Export(ctx, upd.UserID, upd.ChatID, req); err != nil {
			return err
		}
		if err := b.msg.EditMessageText(ctx, upd.ChatID, upd.MessageID, "Export done ✅", nil); err != nil && !messaging.IsNotModified(err) {
			slog.Warn("Failed to finalize export picker", "error", err)
		}
		return nil
	}

	slog.Warn("Unknown export callback", "data", upd.CallbackData)
	return b.msg.AnswerCallback(ctx, upd.CallbackID, "", false)
}

func (b *Bot) handleTopCallback(ctx context.Context, upd models.Update, rest string) error {
	step, period, _ := strings.Cut(rest, ":")
	if step != "p" {
		slog.Warn("Unknown top callback", "data", upd.CallbackData)
		return b.msg.AnswerCallback(ctx, upd.CallbackID, "", false)
	}
	if err := b.msg.AnswerCallback(ctx, upd.CallbackID, "", false); err != nil {
		slog.Warn("Callback ack failed", "error", err)
	}

	out, err := b.stats.Top(ctx, upd.UserID, period)
	if err != nil {
		return err
	}
	err = b.msg.EditMessageText(ctx, upd.ChatID, upd.MessageID, out, keyboards.TopPeriods(period))
	if messaging.IsNotModified(err) {
		return nil
	}
	if err != nil {
		_, err = b.msg.SendMessage(ctx, upd.ChatID, out, models.InlineMarkup(keyboards.TopPeriods(period)))
	}
	return err
}

// handleHealth reports liveness and a few counters. When an admin list
// is configured, only listed users may call it.
func (b *Bot) handleHealth(ctx context.Context, upd models.Update) error {
	if len(b.admins) > 0 {
		if _, ok := b.admins[upd.UserID]; !ok {
			_, err := b.msg.SendMessage(ctx, upd.ChatID, "Command not available.", nil)
			return err
		}
	}

	dbStatus := "ok"
	if err := b.st.Ping(ctx); err != nil {
		slog.Error("Health check ping failed", "error", err)
		dbStatus = "fail"
	}
	total, err := b.st.CountAllOrders(ctx)
	if err != nil {
		slog.Error("Health check count failed", "error", err)
		total = -1
	}
	mine, err := b.st.CountOrders(ctx, upd.UserID, "")
	if err != nil {
		slog.Error("Health check user count failed", "error", err)
		mine = -1
	}

	text := fmt.Sprintf(
		"🩺 *Health*\n\nVersion: %s\nUptime: %s\nDatabase: %s\nOrders total: %d\nYour orders: %d\nPending undos: %d",
		b.version, fmtUptime(time.Since(b.startedAt)), dbStatus, total, mine, b.undo.PendingCount(),
	)
	_, err = b.msg.SendMessage(ctx, upd.ChatID, text, nil)
	return err
}

// fmtUptime renders a duration as "2d 3h 4m 5s", omitting leading zero
// units.
func fmtUptime(d time.Duration) string {
	sec := int64(d.Seconds())
	if sec < 0 {
		sec = 0
	}
	days := sec / 86400
	hours := sec % 86400 / 3600
	mins := sec % 3600 / 60
	secs := sec % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || len(parts) > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if mins > 0 || len(parts) > 0 {
		parts = append(parts, fmt.Sprintf("%dm", mins))
	}
	parts = append(parts, fmt.Sprintf("%ds", secs))
	return strings.Join(parts, " ")
}

// benignEdit drops the not-modified error from an edit result.
func benignEdit(err error) error {
	if messaging.IsNotModified(err) {
		return nil
	}
	return err
}

func parseOrderID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("bad order id %q", s)
	}
	return id, nil
}
