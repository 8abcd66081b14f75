// Package undo coordinates the time-bounded restore window that follows
// a soft-delete.
//
// Every soft-deleted order gets a registry entry with a deadline on the
// monotonic clock and its own countdown goroutine that keeps the undo
// button's remaining-seconds label fresh. The entry is removed either by
// the user's undo or by the countdown reaching its deadline; whichever
// path takes the entry out of the registry owns the corresponding
// finalization or restore, so neither can run twice.
package undo

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/brewbeat/baristabot/internal/keyboards"
	"github.com/brewbeat/baristabot/internal/messaging"
	"github.com/brewbeat/baristabot/internal/models"
	"github.com/brewbeat/baristabot/internal/store"
)

const (
	// UndoDeadlineSec is the length of the restore window.
	UndoDeadlineSec = 10
	// DefaultTickInterval keeps the displayed seconds accurate without
	// flooding the transport with edits.
	DefaultTickInterval = 200 * time.Millisecond
)

// key identifies one pending deletion.
type key struct {
	userID  int64
	orderID int64
}

// entry is one pending deletion awaiting undo or finalization.
type entry struct {
	userID    int64
	orderID   int64
	chatID    int64
	messageID int
	// deadline comes from time.Now(), which carries the monotonic clock,
	// so wall-clock jumps cannot shrink or stretch the window.
	deadline time.Time
}

// Coordinator owns the pending-deletion registry and the countdown
// tasks. The registry map is the only state shared between a countdown
// goroutine and the undo path; remove-if-present under the mutex is the
// atomic unit both sides coordinate on.
type Coordinator struct {
	st   store.Store
	msg  messaging.Service
	now  func() time.Time
	tick time.Duration

	mu      sync.Mutex
	pending map[key]entry
}

// NewCoordinator creates a Coordinator over the given store and
// messaging service.
func NewCoordinator(st store.Store, msg messaging.Service) *Coordinator {
	return &Coordinator{
		st:      st,
		msg:     msg,
		now:     time.Now,
		tick:    DefaultTickInterval,
		pending: make(map[key]entry),
	}
}

// Begin registers a pending deletion for an already soft-deleted order
// and starts its countdown task. A second soft-delete of the same order
// replaces the existing entry; the superseded countdown task observes
// the fresh deadline through the registry. It returns the initial
// seconds-left value for rendering the undo control.
func (c *Coordinator) Begin(ctx context.Context, userID, orderID, chatID int64, messageID int) int {
	k := key{userID: userID, orderID: orderID}
	e := entry{
		userID:    userID,
		orderID:   orderID,
		chatID:    chatID,
		messageID: messageID,
		deadline:  c.now().Add(UndoDeadlineSec * time.Second),
	}

	c.mu.Lock()
	_, replaced := c.pending[k]
	c.pending[k] = e
	c.mu.Unlock()

	slog.Debug("Undo window opened", "user_id", userID, "order_id", orderID, "replaced", replaced)
	if !replaced {
		go c.runCountdown(ctx, k)
	}
	return c.secondsLeft(e)
}

// Undo attempts to restore a pending deletion. It removes the registry
// entry before touching the store so the countdown task cannot finalize
// a row that is being restored. Returns models.ErrTooLate if no entry
// is pending (expired or never deleted), models.ErrUndoLost if the
// entry was claimed but the row restore changed nothing.
func (c *Coordinator) Undo(ctx context.Context, userID, orderID int64) error {
	k := key{userID: userID, orderID: orderID}

	c.mu.Lock()
	e, ok := c.pending[k]
	if ok && !e.deadline.After(c.now()) {
		// Deadline already passed; the countdown task will finalize.
		ok = false
	} else if ok {
		delete(c.pending, k)
	}
	c.mu.Unlock()

	if !ok {
		slog.Debug("Undo too late", "user_id", userID, "order_id", orderID)
		return models.ErrTooLate
	}

	changed, err := c.st.UndoDeleteOrder(ctx, userID, orderID)
	if err != nil {
		return fmt.Errorf("failed to restore order %d: %w", orderID, err)
	}
	if !changed {
		slog.Warn("Undo lost race with finalization", "user_id", userID, "order_id", orderID)
		return models.ErrUndoLost
	}

	if err := c.msg.EditMessageMarkup(ctx, e.chatID, e.messageID, nil); err != nil && !messaging.IsNotModified(err) {
		slog.Warn("Undo failed to clear keyboard", "error", err, "order_id", orderID)
	}
	if err := c.msg.EditMessageText(ctx, e.chatID, e.messageID, fmt.Sprintf("✅ Order #%d restored.", orderID), nil); err != nil && !messaging.IsNotModified(err) {
		slog.Warn("Undo failed to update message", "error", err, "order_id", orderID)
	}
	slog.Info("Order restored", "user_id", userID, "order_id", orderID)
	return nil
}

// PendingCount reports the number of open undo windows.
func (c *Coordinator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// runCountdown drives one pending deletion's visual countdown and, once
// the deadline lapses with the entry still present, finalizes it. A
// display failure other than "not modified" stops further display
// pushes but never the deadline logic.
func (c *Coordinator) runCountdown(ctx context.Context, k key) {
	lastShown := -1
	displayStopped := false
	for {
		c.mu.Lock()
		e, ok := c.pending[k]
		c.mu.Unlock()
		if !ok {
			return
		}

		left := c.secondsLeft(e)
		if left <= 0 {
			break
		}
		if left != lastShown && !displayStopped {
			err := c.msg.EditMessageMarkup(ctx, e.chatID, e.messageID, keyboards.UndoDelete(e.orderID, left))
			if err != nil && !messaging.IsNotModified(err) {
				slog.Warn("Countdown display update failed, stopping display pushes", "error", err, "order_id", e.orderID)
				displayStopped = true
			}
			lastShown = left
		}
		time.Sleep(c.tick)
	}

	// Only the task that takes the entry out finalizes it. A replacement
	// may have refreshed the deadline between the last check and here;
	// in that case the entry is left alone and the loop resumes.
	c.mu.Lock()
	e, ok := c.pending[k]
	if ok && c.secondsLeft(e) > 0 {
		c.mu.Unlock()
		c.runCountdown(ctx, k)
		return
	}
	if ok {
		delete(c.pending, k)
	}
	c.mu.Unlock()
	if !ok {
		return
	}
	c.finalize(ctx, e)
}

// finalize strips the undo control and leaves the permanent deletion
// notice. The order row itself was already soft-deleted.
func (c *Coordinator) finalize(ctx context.Context, e entry) {
	if err := c.msg.EditMessageMarkup(ctx, e.chatID, e.messageID, nil); err != nil && !messaging.IsNotModified(err) {
		slog.Warn("Finalize failed to clear keyboard", "error", err, "order_id", e.orderID)
	}
	if err := c.msg.EditMessageText(ctx, e.chatID, e.messageID, fmt.Sprintf("🗑 Order #%d permanently deleted.", e.orderID), nil); err != nil && !messaging.IsNotModified(err) {
		slog.Warn("Finalize failed to update message", "error", err, "order_id", e.orderID)
	}
	slog.Info("Undo window expired, deletion finalized", "user_id", e.userID, "order_id", e.orderID)
}

// secondsLeft rounds the remaining window up so the display never shows
// 0 while undo is still possible.
func (c *Coordinator) secondsLeft(e entry) int {
	left := int(math.Ceil(e.deadline.Sub(c.now()).Seconds()))
	if left < 0 {
		return 0
	}
	return left
}
