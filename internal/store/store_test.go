package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/brewbeat/baristabot/internal/models"
)

func seed(t *testing.T, s Store, userID int64, drink string, createdAt int64) int64 {
	t.Helper()
	id, err := s.CreateOrder(context.Background(), models.Order{
		UserID:    userID,
		ChatID:    userID,
		Drink:     drink,
		Size:      "medium",
		Milk:      models.MilkYes,
		CreatedAt: createdAt,
	})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	return id
}

func TestInMemoryStoreCreateAndGet(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	id := seed(t, s, 7, "latte", 100)
	if id != 1 {
		t.Errorf("first order id = %d, want 1", id)
	}

	got, err := s.GetOrder(ctx, 7, id)
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if got == nil || got.Drink != "latte" || got.CreatedAt != 100 {
		t.Errorf("GetOrder returned %+v", got)
	}

	// Other users must not see the order.
	other, err := s.GetOrder(ctx, 8, id)
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if other != nil {
		t.Errorf("GetOrder leaked order across users: %+v", other)
	}
}

func TestSoftDeleteHidesEverywhere(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	id := seed(t, s, 7, "latte", 100)
	seed(t, s, 7, "mocha", 200)

	ok, err := s.SoftDeleteOrder(ctx, 7, id)
	if err != nil || !ok {
		t.Fatalf("SoftDeleteOrder = %v, %v", ok, err)
	}

	if got, _ := s.GetOrder(ctx, 7, id); got != nil {
		t.Errorf("deleted order still visible via GetOrder: %+v", got)
	}
	if n, _ := s.CountOrders(ctx, 7, ""); n != 1 {
		t.Errorf("CountOrders = %d, want 1", n)
	}
	rows, _ := s.OrdersBetween(ctx, 7, 0, 1000, "")
	if len(rows) != 1 || rows[0].Drink != "mocha" {
		t.Errorf("OrdersBetween = %+v", rows)
	}
	counts, _ := s.DrinkCountsBetween(ctx, 7, 0, 1000)
	if len(counts) != 1 || counts[0].Drink != "mocha" {
		t.Errorf("DrinkCountsBetween = %+v", counts)
	}
	if n, _ := s.CountAllOrders(ctx); n != 1 {
		t.Errorf("CountAllOrders = %d, want 1", n)
	}
}

func TestSecondSoftDeleteIsNoOp(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	id := seed(t, s, 7, "latte", 100)
	if ok, _ := s.SoftDeleteOrder(ctx, 7, id); !ok {
		t.Fatal("first delete did not change the row")
	}
	if ok, _ := s.SoftDeleteOrder(ctx, 7, id); ok {
		t.Error("second delete reported a change")
	}
	if ok, _ := s.SoftDeleteOrder(ctx, 7, 999); ok {
		t.Error("delete of missing order reported a change")
	}
}

func TestUndoDeleteRestores(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	id := seed(t, s, 7, "latte", 100)
	s.SoftDeleteOrder(ctx, 7, id)

	ok, err := s.UndoDeleteOrder(ctx, 7, id)
	if err != nil || !ok {
		t.Fatalf("UndoDeleteOrder = %v, %v", ok, err)
	}
	got, _ := s.GetOrder(ctx, 7, id)
	if got == nil {
		t.Fatal("restored order not visible")
	}

	// Restoring an active row changes nothing.
	if ok, _ := s.UndoDeleteOrder(ctx, 7, id); ok {
		t.Error("undo of active order reported a change")
	}
}

func TestOrdersPageOrderingAndPaging(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	for i := int64(1); i <= 7; i++ {
		seed(t, s, 7, "latte", 100*i)
	}

	page, err := s.OrdersPage(ctx, 7, "", 0, 5)
	if err != nil {
		t.Fatalf("OrdersPage failed: %v", err)
	}
	if len(page) != 5 {
		t.Fatalf("first page has %d rows, want 5", len(page))
	}
	if page[0].CreatedAt != 700 || page[4].CreatedAt != 300 {
		t.Errorf("first page not newest-first: %+v", page)
	}

	rest, err := s.OrdersPage(ctx, 7, "", 5, 5)
	if err != nil {
		t.Fatalf("OrdersPage failed: %v", err)
	}
	if len(rest) != 2 {
		t.Fatalf("second page has %d rows, want 2", len(rest))
	}
	if rest[0].CreatedAt != 200 || rest[1].CreatedAt != 100 {
		t.Errorf("second page wrong rows: %+v", rest)
	}

	empty, err := s.OrdersPage(ctx, 7, "", 50, 5)
	if err != nil || len(empty) != 0 {
		t.Errorf("offset past end = %+v, %v", empty, err)
	}
}

func TestDrinkFilterMatching(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	seed(t, s, 7, "latte", 100)
	seed(t, s, 7, "latte", 200)
	seed(t, s, 7, "mocha", 300)

	if n, _ := s.CountOrders(ctx, 7, "latte"); n != 2 {
		t.Errorf("CountOrders(latte) = %d, want 2", n)
	}
	if n, _ := s.CountOrders(ctx, 7, "all"); n != 3 {
		t.Errorf("CountOrders(all) = %d, want 3", n)
	}
	if n, _ := s.CountOrders(ctx, 7, ""); n != 3 {
		t.Errorf("CountOrders(empty) = %d, want 3", n)
	}
}

func TestOrdersBetweenHalfOpenChronological(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	seed(t, s, 7, "latte", 100)
	seed(t, s, 7, "mocha", 200)
	seed(t, s, 7, "latte", 300)

	rows, err := s.OrdersBetween(ctx, 7, 100, 300, "")
	if err != nil {
		t.Fatalf("OrdersBetween failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("OrdersBetween returned %d rows, want 2", len(rows))
	}
	// since is inclusive, until exclusive, oldest first.
	if rows[0].CreatedAt != 100 || rows[1].CreatedAt != 200 {
		t.Errorf("OrdersBetween rows = %+v", rows)
	}
}

func TestDrinkCountsOrdering(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	seed(t, s, 7, "mocha", 100)
	seed(t, s, 7, "latte", 200)
	seed(t, s, 7, "latte", 300)
	seed(t, s, 7, "americano", 400)

	counts, err := s.DrinkCountsBetween(ctx, 7, 0, 1000)
	if err != nil {
		t.Fatalf("DrinkCountsBetween failed: %v", err)
	}
	if len(counts) != 3 {
		t.Fatalf("got %d rows, want 3", len(counts))
	}
	if counts[0].Drink != "latte" || counts[0].Count != 2 {
		t.Errorf("top row = %+v", counts[0])
	}
	// Ties break alphabetically.
	if counts[1].Drink != "americano" || counts[2].Drink != "mocha" {
		t.Errorf("tie order wrong: %+v", counts)
	}
}

func TestOrderNumber(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	seed(t, s, 7, "latte", 100)
	seed(t, s, 7, "mocha", 200)
	seed(t, s, 7, "latte", 300)
	seed(t, s, 8, "latte", 150) // other user never counts

	n, err := s.OrderNumber(ctx, 7, 200)
	if err != nil {
		t.Fatalf("OrderNumber failed: %v", err)
	}
	if n != 2 {
		t.Errorf("OrderNumber(200) = %d, want 2", n)
	}

	// Deleting an earlier order shifts later numbers down.
	s.SoftDeleteOrder(ctx, 7, 1)
	if n, _ := s.OrderNumber(ctx, 7, 300); n != 2 {
		t.Errorf("OrderNumber after delete = %d, want 2", n)
	}
}

func TestDetectDSNType(t *testing.T) {
	cases := []struct {
		dsn  string
		want string
	}{
		{"postgres://u:p@localhost/db", "postgres"},
		{"postgresql://u:p@localhost/db", "postgres"},
		{"host=localhost user=u dbname=db", "postgres"},
		{"/var/lib/baristabot/baristabot.db", "sqlite"},
		{"file:test.db?cache=shared", "sqlite"},
	}
	for _, c := range cases {
		if got := DetectDSNType(c.dsn); got != c.want {
			t.Errorf("DetectDSNType(%q) = %q, want %q", c.dsn, got, c.want)
		}
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(WithDSN(dsn))
	if err != nil {
		t.Skipf("SQLite not available: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	id := seed(t, s, 7, "latte", 100)
	seed(t, s, 7, "mocha", 200)

	got, err := s.GetOrder(ctx, 7, id)
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if got == nil || got.Drink != "latte" {
		t.Fatalf("GetOrder returned %+v", got)
	}

	if ok, err := s.SoftDeleteOrder(ctx, 7, id); err != nil || !ok {
		t.Fatalf("SoftDeleteOrder = %v, %v", ok, err)
	}
	if got, _ := s.GetOrder(ctx, 7, id); got != nil {
		t.Errorf("deleted order still visible: %+v", got)
	}
	if ok, err := s.UndoDeleteOrder(ctx, 7, id); err != nil || !ok {
		t.Fatalf("UndoDeleteOrder = %v, %v", ok, err)
	}

	if n, _ := s.CountOrders(ctx, 7, ""); n != 2 {
		t.Errorf("CountOrders = %d, want 2", n)
	}
	rows, err := s.OrdersBetween(ctx, 7, 0, 1000, "latte")
	if err != nil {
		t.Fatalf("OrdersBetween failed: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != id {
		t.Errorf("OrdersBetween = %+v", rows)
	}
	if n, _ := s.OrderNumber(ctx, 7, 200); n != 2 {
		t.Errorf("OrderNumber = %d, want 2", n)
	}
	if err := s.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}
