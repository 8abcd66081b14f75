// Package telegram wraps the Telegram Bot API client for baristabot.
//
// It provides methods for sending and editing messages and exposes the
// long-polling update stream.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/brewbeat/baristabot/internal/models"
)

// DefaultUpdateTimeout is the long-poll timeout in seconds.
const DefaultUpdateTimeout = 30

// Opts holds configuration options for the Telegram client.
type Opts struct {
	Token       string // bot token from @BotFather
	DropPending bool   // discard updates accumulated while offline
}

// Option defines a configuration option for the Telegram client.
type Option func(*Opts)

// WithToken sets the bot token.
func WithToken(token string) Option {
	return func(o *Opts) {
		o.Token = token
	}
}

// WithDropPendingUpdates discards updates accumulated while the bot was offline.
func WithDropPendingUpdates() Option {
	return func(o *Opts) {
		o.DropPending = true
	}
}

// Client wraps the Bot API client for modular use.
type Client struct {
	bot         *tgbotapi.BotAPI
	dropPending bool
}

// NewClient creates a new Telegram client, applying any provided options.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Token == "" {
		slog.Error("Telegram bot token not set")
		return nil, fmt.Errorf("bot token not set")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		slog.Error("Failed to create Telegram bot client", "error", err)
		return nil, fmt.Errorf("failed to create telegram client: %w", err)
	}
	slog.Info("Telegram client authorized", "username", bot.Self.UserName)

	return &Client{bot: bot, dropPending: cfg.DropPending}, nil
}

// SendMessage sends a text message with optional markup and returns the
// delivered message id.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, markup *models.Markup) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	if markup != nil {
		switch {
		case markup.Inline != nil:
			msg.ReplyMarkup = toInlineMarkup(markup.Inline)
		case markup.Reply != nil:
			msg.ReplyMarkup = toReplyMarkup(markup.Reply)
		}
	}
	sent, err := c.bot.Send(msg)
	if err != nil {
		slog.Error("Telegram SendMessage failed", "error", err, "chat_id", chatID)
		return 0, wrapAPIError(err)
	}
	return sent.MessageID, nil
}

// SendDocument sends a file attachment with a caption.
func (c *Client) SendDocument(ctx context.Context, chatID int64, filename string, data []byte, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: filename, Bytes: data})
	doc.Caption = caption
	if _, err := c.bot.Send(doc); err != nil {
		slog.Error("Telegram SendDocument failed", "error", err, "chat_id", chatID, "filename", filename)
		return wrapAPIError(err)
	}
	return nil
}

// EditMessageText replaces the text and inline keyboard of a message.
func (c *Client) EditMessageText(ctx context.Context, chatID int64, messageID int, text string, kb *models.InlineKeyboard) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	edit.DisableWebPagePreview = true
	if kb != nil {
		markup := toInlineMarkup(kb)
		edit.ReplyMarkup = &markup
	}
	if _, err := c.bot.Send(edit); err != nil {
		return wrapAPIError(err)
	}
	return nil
}

// EditMessageMarkup replaces the inline keyboard of a message; a nil
// keyboard strips it.
func (c *Client) EditMessageMarkup(ctx context.Context, chatID int64, messageID int, kb *models.InlineKeyboard) error {
	edit := tgbotapi.EditMessageReplyMarkupConfig{
		BaseEdit: tgbotapi.BaseEdit{ChatID: chatID, MessageID: messageID},
	}
	if kb != nil {
		markup := toInlineMarkup(kb)
		edit.ReplyMarkup = &markup
	}
	if _, err := c.bot.Request(edit); err != nil {
		return wrapAPIError(err)
	}
	return nil
}

// AnswerCallback acknowledges a callback query.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	cb := tgbotapi.NewCallback(callbackID, text)
	cb.ShowAlert = alert
	if _, err := c.bot.Request(cb); err != nil {
		return wrapAPIError(err)
	}
	return nil
}

// Updates starts long polling and returns the raw update channel.
func (c *Client) Updates() tgbotapi.UpdatesChannel {
	if c.dropPending {
		resp, err := c.bot.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true})
		if err != nil {
			slog.Warn("Telegram drop pending updates failed", "error", err)
		} else {
			slog.Debug("Telegram dropped pending updates", "ok", resp.Ok)
		}
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = DefaultUpdateTimeout
	return c.bot.GetUpdatesChan(u)
}

// StopPolling stops the long-poll loop.
func (c *Client) StopPolling() {
	c.bot.StopReceivingUpdates()
}

// wrapAPIError maps the benign "message is not modified" API error to
// models.ErrNotModified so callers can suppress it.
func wrapAPIError(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(strings.ToLower(err.Error()), "message is not modified") {
		return models.ErrNotModified
	}
	return err
}

func toInlineMarkup(kb *models.InlineKeyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb.Rows))
	for _, row := range kb.Rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		rows = append(rows, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func toReplyMarkup(kb *models.ReplyKeyboard) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(kb.Rows))
	for _, row := range kb.Rows {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(b.Text))
		}
		rows = append(rows, buttons)
	}
	markup := tgbotapi.NewReplyKeyboard(rows...)
	markup.ResizeKeyboard = true
	markup.OneTimeKeyboard = kb.OneTime
	return markup
}
