// Package messaging provides a pluggable chat delivery abstraction.
//
// The core talks to Service only; the Telegram-backed implementation
// and the test recorder both satisfy it.
package messaging

import (
	"context"
	"errors"

	"github.com/brewbeat/baristabot/internal/models"
)

// Constants for messaging service configuration
const (
	// DefaultChannelBufferSize defines the default buffer size for the updates channel
	DefaultChannelBufferSize = 100
)

// Service defines a pluggable message delivery abstraction. It supports
// sending and editing messages and provides a channel of inbound
// updates (messages and button presses).
type Service interface {
	// SendMessage delivers a message to a chat, optionally with a
	// keyboard, and returns the delivered message's id.
	SendMessage(ctx context.Context, chatID int64, text string, markup *models.Markup) (int, error)

	// SendDocument delivers a file attachment with a caption.
	SendDocument(ctx context.Context, chatID int64, filename string, data []byte, caption string) error

	// EditMessageText replaces the text (and inline keyboard) of an
	// existing message. Editing to identical content fails with
	// models.ErrNotModified, which callers treat as benign.
	EditMessageText(ctx context.Context, chatID int64, messageID int, text string, kb *models.InlineKeyboard) error

	// EditMessageMarkup replaces the inline keyboard of an existing
	// message. A nil keyboard strips it. Same ErrNotModified contract.
	EditMessageMarkup(ctx context.Context, chatID int64, messageID int, kb *models.InlineKeyboard) error

	// AnswerCallback acknowledges a button press, optionally with a
	// notification (alert pops a dialog).
	AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error

	// Start begins background processing (e.g., polling for updates).
	Start(ctx context.Context) error

	// Stop stops background processing and cleans up resources.
	Stop() error

	// Updates returns the channel of inbound updates.
	Updates() <-chan models.Update
}

// IsNotModified reports whether an edit failed only because the content
// would not change.
func IsNotModified(err error) bool {
	return errors.Is(err, models.ErrNotModified)
}
