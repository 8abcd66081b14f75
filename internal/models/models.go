// Package models defines the core data structures for baristabot.
//
// It includes the order record, inbound update events, and reply markup
// types shared across modules.
package models

import "errors"

// MilkYes and MilkNo are the two values a validated milk answer can take.
const (
	MilkYes = "yes"
	MilkNo  = "no"
)

// Error variables for better error handling and testability
var (
	// ErrTooLate indicates an undo attempt after the countdown expired.
	ErrTooLate = errors.New("undo window expired")
	// ErrUndoLost indicates the undo registry entry was claimed but the
	// row restore found nothing to change (the race was lost to expiry).
	ErrUndoLost = errors.New("undo lost race with finalization")
	// ErrNotModified indicates a message edit that would not change the
	// message content. Transports report it so callers can treat it as
	// benign.
	ErrNotModified = errors.New("message content not modified")
)

// Order is a single persisted drink order. Rows are never physically
// deleted: DeletedAt is set by soft-delete and cleared by undo.
type Order struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	ChatID    int64  `json:"chat_id"`
	Drink     string `json:"drink"`
	Size      string `json:"size"`
	Milk      string `json:"milk"`
	CreatedAt int64  `json:"created_at"`           // epoch seconds, assigned at insert
	DeletedAt *int64 `json:"deleted_at,omitempty"` // nil = active
	Locale    string `json:"locale,omitempty"`
}

// Deleted reports whether the order is currently soft-deleted.
func (o Order) Deleted() bool {
	return o.DeletedAt != nil
}

// DrinkCount is one row of a drink leaderboard aggregate.
type DrinkCount struct {
	Drink string `json:"drink"`
	Count int    `json:"count"`
}

// Update is a normalized inbound interaction from the chat transport.
// Exactly one of Text or CallbackData is meaningful: button presses
// carry CallbackData plus the coordinates of the message the button was
// attached to.
type Update struct {
	ID           string // correlation id assigned by the transport layer
	UserID       int64
	ChatID       int64
	MessageID    int    // message carrying the pressed button, 0 for plain messages
	Text         string // message text for plain messages
	CallbackID   string // transport callback handle to acknowledge
	CallbackData string // non-empty for button presses
	Locale       string // sender's language tag, informational
}

// IsCallback reports whether the update is a button press.
func (u Update) IsCallback() bool {
	return u.CallbackData != ""
}
