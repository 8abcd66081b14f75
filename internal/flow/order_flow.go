package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/brewbeat/baristabot/internal/catalog"
	"github.com/brewbeat/baristabot/internal/keyboards"
	"github.com/brewbeat/baristabot/internal/models"
	"github.com/brewbeat/baristabot/internal/store"
)

// Reply is one outbound message the caller should deliver.
type Reply struct {
	Text   string
	Markup *models.Markup
}

// Result carries the replies produced by a flow operation and, on
// completion, the persisted order's id and the user's own sequence
// number for it.
type Result struct {
	Replies     []Reply
	InProgress  bool  // a start was rejected because an order is active
	OrderID     int64 // non-zero once an order was persisted
	OrderNumber int
}

// OrderFlow drives the drink/size/milk dialogue against a session store
// and persists completed orders.
type OrderFlow struct {
	sessions SessionStore
	store    store.Store
	now      func() time.Time
}

// NewOrderFlow creates an OrderFlow over the given session and order stores.
func NewOrderFlow(sessions SessionStore, st store.Store) *OrderFlow {
	return &OrderFlow{sessions: sessions, store: st, now: time.Now}
}

// InProgress reports whether the user has an active conversation.
func (f *OrderFlow) InProgress(ctx context.Context, userID int64) (bool, error) {
	sess, err := f.sessions.Get(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to read session: %w", err)
	}
	return sess != nil, nil
}

// Start begins a new order dialogue. If one is already in progress it
// does not touch the existing state and instead prompts the user to
// resume or cancel.
func (f *OrderFlow) Start(ctx context.Context, userID int64) (*Result, error) {
	sess, err := f.sessions.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if sess != nil {
		slog.Debug("OrderFlow Start rejected: order in progress", "user_id", userID, "state", sess.State)
		return &Result{
			InProgress: true,
			Replies: []Reply{{
				Text:   "⚠️ Looks like you have an *unfinished order*!\n\nPick an action on the keyboard below:",
				Markup: models.ReplyMarkup(keyboards.ResumeOrCancel()),
			}},
		}, nil
	}

	if err := f.sessions.Set(ctx, userID, Session{State: StateAwaitingDrink}); err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	slog.Debug("OrderFlow started", "user_id", userID)
	return &Result{Replies: []Reply{{
		Text:   "Great, let's get you a coffee 🎉\n\n☕ What would you like to drink?",
		Markup: models.ReplyMarkup(keyboards.Drink()),
	}}}, nil
}

// Cancel clears any accumulated state and returns to idle.
func (f *OrderFlow) Cancel(ctx context.Context, userID int64) (*Result, error) {
	if err := f.sessions.Clear(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to clear session: %w", err)
	}
	slog.Debug("OrderFlow cancelled", "user_id", userID)
	return &Result{Replies: []Reply{{
		Text:   "Order cancelled ❌",
		Markup: models.ReplyMarkup(keyboards.Main()),
	}}}, nil
}

// Resume re-asks the current step's question.
func (f *OrderFlow) Resume(ctx context.Context, userID int64) (*Result, error) {
	sess, err := f.sessions.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if sess == nil {
		return &Result{Replies: []Reply{{Text: "No order in progress 👉 /order"}}}, nil
	}
	text, markup := question(sess.State)
	return &Result{Replies: []Reply{{Text: text, Markup: markup}}}, nil
}

// HandleInput feeds one user message into the dialogue. It returns a
// nil Result for idle users so the caller can route the text elsewhere.
func (f *OrderFlow) HandleInput(ctx context.Context, userID, chatID int64, text, locale string) (*Result, error) {
	sess, err := f.sessions.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if sess == nil {
		return nil, nil
	}

	switch sess.State {
	case StateAwaitingDrink:
		return f.handleDrink(ctx, userID, *sess, text)
	case StateAwaitingSize:
		return f.handleSize(ctx, userID, *sess, text)
	case StateAwaitingMilk:
		return f.handleMilk(ctx, userID, chatID, *sess, text, locale)
	default:
		slog.Warn("OrderFlow unknown session state, resetting", "user_id", userID, "state", sess.State)
		if err := f.sessions.Clear(ctx, userID); err != nil {
			return nil, fmt.Errorf("failed to clear session: %w", err)
		}
		return &Result{Replies: []Reply{{Text: "Something went wrong, let's start over 👉 /order", Markup: models.ReplyMarkup(keyboards.Main())}}}, nil
	}
}

func (f *OrderFlow) handleDrink(ctx context.Context, userID int64, sess Session, text string) (*Result, error) {
	code, ok := catalog.NormalizeDrink(text)
	if !ok {
		return &Result{Replies: []Reply{{
			Text: fmt.Sprintf("That drink is not on the menu 😅 Try one of: %s", strings.Join(catalog.DrinkLabels(), ", ")),
		}}}, nil
	}

	sess.Drink = code
	sess.State = StateAwaitingSize
	if err := f.sessions.Set(ctx, userID, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return &Result{Replies: []Reply{
		{Text: fmt.Sprintf("Great choice, %s ☕✨", catalog.DrinkLabel(code))},
		{Text: "And what size would you like?", Markup: models.ReplyMarkup(keyboards.Size())},
	}}, nil
}

func (f *OrderFlow) handleSize(ctx context.Context, userID int64, sess Session, text string) (*Result, error) {
	if text == keyboards.BtnBack {
		sess.Size = ""
		sess.State = StateAwaitingDrink
		if err := f.sessions.Set(ctx, userID, sess); err != nil {
			return nil, fmt.Errorf("failed to save session: %w", err)
		}
		return &Result{Replies: []Reply{{
			Text:   "Okay, back to the drink. Pick one:",
			Markup: models.ReplyMarkup(keyboards.Drink()),
		}}}, nil
	}

	code, ok := catalog.NormalizeSize(text)
	if !ok {
		return &Result{Replies: []Reply{{
			Text:   "The size has to be Small / Medium / Large. Try again.",
			Markup: models.ReplyMarkup(keyboards.Size()),
		}}}, nil
	}

	sess.Size = code
	sess.State = StateAwaitingMilk
	if err := f.sessions.Set(ctx, userID, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return &Result{Replies: []Reply{
		{Text: fmt.Sprintf("👌 Size %s noted!", catalog.SizeLabel(code))},
		{Text: "Would you like milk 🥛?", Markup: models.ReplyMarkup(keyboards.Milk())},
	}}, nil
}

func (f *OrderFlow) handleMilk(ctx context.Context, userID, chatID int64, sess Session, text, locale string) (*Result, error) {
	if text == keyboards.BtnBack {
		sess.Milk = ""
		sess.State = StateAwaitingSize
		if err := f.sessions.Set(ctx, userID, sess); err != nil {
			return nil, fmt.Errorf("failed to save session: %w", err)
		}
		return &Result{Replies: []Reply{{
			Text:   "Okay, back to the size. Pick one:",
			Markup: models.ReplyMarkup(keyboards.Size()),
		}}}, nil
	}

	norm, ok := catalog.NormalizeMilk(text)
	if !ok {
		return &Result{Replies: []Reply{{Text: "Just say Yes/No 😊"}}}, nil
	}

	sess.Milk = norm
	createdAt := f.now().Unix()
	orderID, err := f.store.CreateOrder(ctx, models.Order{
		UserID:    userID,
		ChatID:    chatID,
		Drink:     sess.Drink,
		Size:      sess.Size,
		Milk:      sess.Milk,
		CreatedAt: createdAt,
		Locale:    locale,
	})
	if err != nil {
		// The session stays in AwaitingMilk so the user can retry.
		slog.Error("OrderFlow insert failed", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	orderNumber, err := f.store.OrderNumber(ctx, userID, createdAt)
	if err != nil {
		slog.Warn("OrderFlow order number lookup failed", "error", err, "user_id", userID, "order_id", orderID)
		orderNumber = 0
	}

	if err := f.sessions.Clear(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to clear session: %w", err)
	}
	slog.Info("OrderFlow order completed", "user_id", userID, "order_id", orderID, "drink", sess.Drink, "size", sess.Size, "milk", sess.Milk)

	ack := "Alright, no milk 👍"
	if norm == models.MilkYes {
		ack = "Adding milk 🥛✨"
	}
	summary := fmt.Sprintf(
		"🧾 *Your order is in!*\n\n☕ Drink: *%s*\n📏 Size: *%s*\n🥛 Milk: *%s*\n\nThis is your order #%d. Thank you! 🙌",
		catalog.DrinkLabel(sess.Drink), catalog.SizeLabel(sess.Size), catalog.MilkLabel(sess.Milk), orderNumber,
	)
	return &Result{
		OrderID:     orderID,
		OrderNumber: orderNumber,
		Replies: []Reply{
			{Text: ack},
			{Text: summary, Markup: models.ReplyMarkup(keyboards.AfterOrder())},
		},
	}, nil
}

// question returns the prompt and keyboard for a dialogue step.
func question(state StateType) (string, *models.Markup) {
	switch state {
	case StateAwaitingDrink:
		return "What would you like to drink?", models.ReplyMarkup(keyboards.Drink())
	case StateAwaitingSize:
		return "What size?", models.ReplyMarkup(keyboards.Size())
	case StateAwaitingMilk:
		return "Would you like milk?", models.ReplyMarkup(keyboards.Milk())
	default:
		return "No order in progress 👉 /order", nil
	}
}
