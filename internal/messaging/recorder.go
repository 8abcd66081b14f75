package messaging

import (
	"context"
	"sync"

	"github.com/brewbeat/baristabot/internal/models"
)

// SentMessage records one SendMessage call made against a Recorder.
type SentMessage struct {
	ChatID    int64
	MessageID int
	Text      string
	Markup    *models.Markup
}

// RecordedEdit records one EditMessageText/EditMessageMarkup call.
type RecordedEdit struct {
	ChatID    int64
	MessageID int
	Text      string
	HasText   bool // false for markup-only edits
	Keyboard  *models.InlineKeyboard
}

// SentDocument records one SendDocument call.
type SentDocument struct {
	ChatID   int64
	Filename string
	Data     []byte
	Caption  string
}

// RecordedCallback records one AnswerCallback call.
type RecordedCallback struct {
	CallbackID string
	Text       string
	Alert      bool
}

// Recorder is an in-memory Service used in tests. It records every
// outgoing call and lets tests inject inbound updates and edit errors.
type Recorder struct {
	mu        sync.Mutex
	nextMsgID int
	messages  []SentMessage
	edits     []RecordedEdit
	documents []SentDocument
	callbacks []RecordedCallback
	updates   chan models.Update

	// EditErr, when set, is returned by every edit call.
	EditErr error
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		nextMsgID: 1,
		updates:   make(chan models.Update, DefaultChannelBufferSize),
	}
}

func (r *Recorder) SendMessage(ctx context.Context, chatID int64, text string, markup *models.Markup) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextMsgID
	r.nextMsgID++
	r.messages = append(r.messages, SentMessage{ChatID: chatID, MessageID: id, Text: text, Markup: markup})
	return id, nil
}

func (r *Recorder) SendDocument(ctx context.Context, chatID int64, filename string, data []byte, caption string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.documents = append(r.documents, SentDocument{ChatID: chatID, Filename: filename, Data: data, Caption: caption})
	return nil
}

func (r *Recorder) EditMessageText(ctx context.Context, chatID int64, messageID int, text string, kb *models.InlineKeyboard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.EditErr != nil {
		return r.EditErr
	}
	r.edits = append(r.edits, RecordedEdit{ChatID: chatID, MessageID: messageID, Text: text, HasText: true, Keyboard: kb})
	return nil
}

func (r *Recorder) EditMessageMarkup(ctx context.Context, chatID int64, messageID int, kb *models.InlineKeyboard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.EditErr != nil {
		return r.EditErr
	}
	r.edits = append(r.edits, RecordedEdit{ChatID: chatID, MessageID: messageID, Keyboard: kb})
	return nil
}

func (r *Recorder) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks = append(r.callbacks, RecordedCallback{CallbackID: callbackID, Text: text, Alert: alert})
	return nil
}

func (r *Recorder) Start(ctx context.Context) error { return nil }

func (r *Recorder) Stop() error {
	close(r.updates)
	return nil
}

func (r *Recorder) Updates() <-chan models.Update {
	return r.updates
}

// Inject queues an inbound update for consumers of Updates.
func (r *Recorder) Inject(upd models.Update) {
	r.updates <- upd
}

// Messages returns a copy of the recorded SendMessage calls.
func (r *Recorder) Messages() []SentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SentMessage(nil), r.messages...)
}

// Edits returns a copy of the recorded edit calls.
func (r *Recorder) Edits() []RecordedEdit {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RecordedEdit(nil), r.edits...)
}

// Documents returns a copy of the recorded SendDocument calls.
func (r *Recorder) Documents() []SentDocument {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SentDocument(nil), r.documents...)
}

// Callbacks returns a copy of the recorded AnswerCallback calls.
func (r *Recorder) Callbacks() []RecordedCallback {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RecordedCallback(nil), r.callbacks...)
}
