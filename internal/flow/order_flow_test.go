package flow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/brewbeat/baristabot/internal/keyboards"
	"github.com/brewbeat/baristabot/internal/models"
	"github.com/brewbeat/baristabot/internal/store"
)

func newTestFlow(t *testing.T) (*OrderFlow, *store.InMemoryStore) {
	t.Helper()
	st := store.NewInMemoryStore()
	f := NewOrderFlow(NewInMemorySessionStore(), st)
	f.now = func() time.Time { return time.Unix(1_000_000, 0) }
	return f, st
}

func mustState(t *testing.T, f *OrderFlow, userID int64, want StateType) {
	t.Helper()
	sess, err := f.sessions.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("session read failed: %v", err)
	}
	if sess == nil {
		t.Fatalf("no session, want state %s", want)
	}
	if sess.State != want {
		t.Fatalf("state = %s, want %s", sess.State, want)
	}
}

func mustIdle(t *testing.T, f *OrderFlow, userID int64) {
	t.Helper()
	sess, err := f.sessions.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("session read failed: %v", err)
	}
	if sess != nil {
		t.Fatalf("expected idle, got state %s", sess.State)
	}
}

func TestHappyPathPersistsOrder(t *testing.T) {
	f, st := newTestFlow(t)
	ctx := context.Background()

	if _, err := f.Start(ctx, 7); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	mustState(t, f, 7, StateAwaitingDrink)

	if _, err := f.HandleInput(ctx, 7, 7, "Latte", "en"); err != nil {
		t.Fatalf("drink step failed: %v", err)
	}
	mustState(t, f, 7, StateAwaitingSize)

	if _, err := f.HandleInput(ctx, 7, 7, "Medium", "en"); err != nil {
		t.Fatalf("size step failed: %v", err)
	}
	mustState(t, f, 7, StateAwaitingMilk)

	res, err := f.HandleInput(ctx, 7, 7, "Yes", "en")
	if err != nil {
		t.Fatalf("milk step failed: %v", err)
	}
	mustIdle(t, f, 7)

	if res.OrderID == 0 {
		t.Fatal("no order id on completion")
	}
	if res.OrderNumber != 1 {
		t.Errorf("order number = %d, want 1", res.OrderNumber)
	}
	order, err := st.GetOrder(ctx, 7, res.OrderID)
	if err != nil || order == nil {
		t.Fatalf("order not persisted: %v", err)
	}
	if order.Drink != "latte" || order.Size != "medium" || order.Milk != "yes" {
		t.Errorf("persisted order = %+v", order)
	}
	if order.CreatedAt != 1_000_000 {
		t.Errorf("created_at = %d, want clock value", order.CreatedAt)
	}
}

func TestInvalidInputKeepsState(t *testing.T) {
	f, st := newTestFlow(t)
	ctx := context.Background()

	f.Start(ctx, 7)
	res, err := f.HandleInput(ctx, 7, 7, "tea", "en")
	if err != nil {
		t.Fatalf("HandleInput failed: %v", err)
	}
	mustState(t, f, 7, StateAwaitingDrink)
	if len(res.Replies) == 0 || !strings.Contains(res.Replies[0].Text, "not on the menu") {
		t.Errorf("unexpected reprompt: %+v", res.Replies)
	}

	f.HandleInput(ctx, 7, 7, "latte", "en")
	f.HandleInput(ctx, 7, 7, "huge", "en")
	mustState(t, f, 7, StateAwaitingSize)

	f.HandleInput(ctx, 7, 7, "large", "en")
	f.HandleInput(ctx, 7, 7, "maybe", "en")
	mustState(t, f, 7, StateAwaitingMilk)

	if n, _ := st.CountOrders(ctx, 7, ""); n != 0 {
		t.Errorf("invalid input created %d orders", n)
	}
}

func TestBackStepsRewind(t *testing.T) {
	f, _ := newTestFlow(t)
	ctx := context.Background()

	f.Start(ctx, 7)
	f.HandleInput(ctx, 7, 7, "latte", "en")
	f.HandleInput(ctx, 7, 7, "large", "en")
	mustState(t, f, 7, StateAwaitingMilk)

	f.HandleInput(ctx, 7, 7, keyboards.BtnBack, "en")
	mustState(t, f, 7, StateAwaitingSize)

	f.HandleInput(ctx, 7, 7, keyboards.BtnBack, "en")
	mustState(t, f, 7, StateAwaitingDrink)

	// The rewound choice is re-collectable.
	f.HandleInput(ctx, 7, 7, "mocha", "en")
	sess, _ := f.sessions.Get(ctx, 7)
	if sess.Drink != "mocha" {
		t.Errorf("drink after rewind = %q, want mocha", sess.Drink)
	}
}

func TestCancelDiscardsSession(t *testing.T) {
	f, st := newTestFlow(t)
	ctx := context.Background()

	f.Start(ctx, 7)
	f.HandleInput(ctx, 7, 7, "latte", "en")

	res, err := f.Cancel(ctx, 7)
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	mustIdle(t, f, 7)
	if len(res.Replies) == 0 || !strings.Contains(res.Replies[0].Text, "cancelled") {
		t.Errorf("unexpected cancel reply: %+v", res.Replies)
	}
	if n, _ := st.CountOrders(ctx, 7, ""); n != 0 {
		t.Errorf("cancel persisted %d orders", n)
	}
}

func TestStartWhileInProgressPromptsResume(t *testing.T) {
	f, _ := newTestFlow(t)
	ctx := context.Background()

	f.Start(ctx, 7)
	f.HandleInput(ctx, 7, 7, "latte", "en")

	res, err := f.Start(ctx, 7)
	if err != nil {
		t.Fatalf("second Start failed: %v", err)
	}
	if !res.InProgress {
		t.Error("second Start did not report in-progress")
	}
	// The existing progress survives the rejected restart.
	mustState(t, f, 7, StateAwaitingSize)
	sess, _ := f.sessions.Get(ctx, 7)
	if sess.Drink != "latte" {
		t.Errorf("drink lost on restart attempt: %q", sess.Drink)
	}
}

func TestResumeReasksCurrentQuestion(t *testing.T) {
	f, _ := newTestFlow(t)
	ctx := context.Background()

	f.Start(ctx, 7)
	f.HandleInput(ctx, 7, 7, "latte", "en")

	res, err := f.Resume(ctx, 7)
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if len(res.Replies) != 1 || !strings.Contains(res.Replies[0].Text, "size") {
		t.Errorf("resume reply = %+v", res.Replies)
	}
	mustState(t, f, 7, StateAwaitingSize)

	// Resume while idle points at /order instead.
	idle, _ := f.Resume(ctx, 8)
	if !strings.Contains(idle.Replies[0].Text, "/order") {
		t.Errorf("idle resume reply = %+v", idle.Replies)
	}
}

func TestIdleInputIsNotConsumed(t *testing.T) {
	f, _ := newTestFlow(t)

	res, err := f.HandleInput(context.Background(), 7, 7, "latte", "en")
	if err != nil {
		t.Fatalf("HandleInput failed: %v", err)
	}
	if res != nil {
		t.Errorf("idle input produced a result: %+v", res)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	f, _ := newTestFlow(t)
	ctx := context.Background()

	f.Start(ctx, 7)
	f.Start(ctx, 8)
	f.HandleInput(ctx, 7, 7, "latte", "en")

	mustState(t, f, 7, StateAwaitingSize)
	mustState(t, f, 8, StateAwaitingDrink)

	f.Cancel(ctx, 7)
	mustIdle(t, f, 7)
	mustState(t, f, 8, StateAwaitingDrink)
}

// flakyStore fails CreateOrder while createErr is set.
type flakyStore struct {
	*store.InMemoryStore
	createErr error
}

func (s *flakyStore) CreateOrder(ctx context.Context, o models.Order) (int64, error) {
	if s.createErr != nil {
		return 0, s.createErr
	}
	return s.InMemoryStore.CreateOrder(ctx, o)
}

func TestInsertFailureKeepsMilkStateForRetry(t *testing.T) {
	st := &flakyStore{InMemoryStore: store.NewInMemoryStore(), createErr: errors.New("db down")}
	f := NewOrderFlow(NewInMemorySessionStore(), st)
	f.now = func() time.Time { return time.Unix(1_000_000, 0) }
	ctx := context.Background()

	if _, err := f.Start(ctx, 7); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := f.HandleInput(ctx, 7, 7, "Latte", "en"); err != nil {
		t.Fatalf("drink step failed: %v", err)
	}
	if _, err := f.HandleInput(ctx, 7, 7, "Medium", "en"); err != nil {
		t.Fatalf("size step failed: %v", err)
	}

	if _, err := f.HandleInput(ctx, 7, 7, "Yes", "en"); err == nil {
		t.Fatal("expected an error when the insert fails")
	}
	mustState(t, f, 7, StateAwaitingMilk)
	sess, err := f.sessions.Get(ctx, 7)
	if err != nil {
		t.Fatalf("session read failed: %v", err)
	}
	if sess.Drink != "latte" || sess.Size != "medium" {
		t.Errorf("selections lost after failed insert: drink=%q size=%q", sess.Drink, sess.Size)
	}
	if n, _ := st.CountOrders(ctx, 7, ""); n != 0 {
		t.Fatalf("orders persisted after failed insert = %d, want 0", n)
	}

	st.createErr = nil
	res, err := f.HandleInput(ctx, 7, 7, "Yes", "en")
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	mustIdle(t, f, 7)
	if res.OrderID == 0 {
		t.Fatal("no order id on retry completion")
	}
	if n, _ := st.CountOrders(ctx, 7, ""); n != 1 {
		t.Fatalf("orders after retry = %d, want 1", n)
	}
}
