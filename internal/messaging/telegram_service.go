package messaging

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/brewbeat/baristabot/internal/models"
	"github.com/brewbeat/baristabot/internal/telegram"
)

// TelegramService implements Service using the Bot API based telegram client.
type TelegramService struct {
	client  *telegram.Client
	updates chan models.Update
	done    chan struct{}
}

// NewTelegramService creates a new TelegramService wrapping the given client.
func NewTelegramService(client *telegram.Client) *TelegramService {
	return &TelegramService{
		client:  client,
		updates: make(chan models.Update, DefaultChannelBufferSize),
		done:    make(chan struct{}),
	}
}

// Start begins pumping long-poll updates into the updates channel.
func (s *TelegramService) Start(ctx context.Context) error {
	slog.Debug("TelegramService Start invoked")
	raw := s.client.Updates()
	go s.pumpUpdates(ctx, raw)
	return nil
}

// Stop stops background processing.
func (s *TelegramService) Stop() error {
	slog.Info("TelegramService Stop invoked")
	s.client.StopPolling()
	close(s.done)
	return nil
}

// SendMessage delivers a message through the Telegram client.
func (s *TelegramService) SendMessage(ctx context.Context, chatID int64, text string, markup *models.Markup) (int, error) {
	return s.client.SendMessage(ctx, chatID, text, markup)
}

// SendDocument delivers a file attachment through the Telegram client.
func (s *TelegramService) SendDocument(ctx context.Context, chatID int64, filename string, data []byte, caption string) error {
	return s.client.SendDocument(ctx, chatID, filename, data, caption)
}

// EditMessageText replaces a message's text and keyboard.
func (s *TelegramService) EditMessageText(ctx context.Context, chatID int64, messageID int, text string, kb *models.InlineKeyboard) error {
	return s.client.EditMessageText(ctx, chatID, messageID, text, kb)
}

// EditMessageMarkup replaces a message's inline keyboard.
func (s *TelegramService) EditMessageMarkup(ctx context.Context, chatID int64, messageID int, kb *models.InlineKeyboard) error {
	return s.client.EditMessageMarkup(ctx, chatID, messageID, kb)
}

// AnswerCallback acknowledges a button press.
func (s *TelegramService) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	return s.client.AnswerCallback(ctx, callbackID, text, alert)
}

// Updates returns the channel of normalized inbound updates.
func (s *TelegramService) Updates() <-chan models.Update {
	return s.updates
}

// pumpUpdates converts raw Bot API updates into models.Update events.
func (s *TelegramService) pumpUpdates(ctx context.Context, raw tgbotapi.UpdatesChannel) {
	defer close(s.updates)
	for {
		select {
		case <-ctx.Done():
			slog.Debug("TelegramService update pump stopping: context done")
			return
		case <-s.done:
			slog.Debug("TelegramService update pump stopping: service stopped")
			return
		case upd, ok := <-raw:
			if !ok {
				slog.Debug("TelegramService raw update channel closed")
				return
			}
			converted, ok := convertUpdate(upd)
			if !ok {
				continue
			}
			select {
			case s.updates <- converted:
			case <-ctx.Done():
				return
			case <-s.done:
				return
			}
		}
	}
}

// convertUpdate normalizes a raw update; unsupported update kinds are dropped.
func convertUpdate(upd tgbotapi.Update) (models.Update, bool) {
	switch {
	case upd.CallbackQuery != nil:
		cq := upd.CallbackQuery
		out := models.Update{
			ID:           uuid.NewString(),
			UserID:       cq.From.ID,
			CallbackID:   cq.ID,
			CallbackData: cq.Data,
			Locale:       cq.From.LanguageCode,
		}
		if cq.Message != nil {
			out.ChatID = cq.Message.Chat.ID
			out.MessageID = cq.Message.MessageID
		}
		return out, true
	case upd.Message != nil && upd.Message.From != nil:
		msg := upd.Message
		return models.Update{
			ID:     uuid.NewString(),
			UserID: msg.From.ID,
			ChatID: msg.Chat.ID,
			Text:   msg.Text,
			Locale: msg.From.LanguageCode,
		}, true
	default:
		return models.Update{}, false
	}
}
