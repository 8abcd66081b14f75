// Package store provides storage backends for baristabot orders.
//
// It includes an in-memory store for tests and SQLite/PostgreSQL backed
// stores for production use. All queries exclude soft-deleted rows.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/brewbeat/baristabot/internal/models"
)

// Store is the narrow query interface the core depends on. A drink
// filter of "" or "all" matches every drink.
type Store interface {
	// CreateOrder inserts a new order and returns its assigned id.
	// A zero CreatedAt defaults to the current epoch seconds.
	CreateOrder(ctx context.Context, o models.Order) (int64, error)

	// GetOrder returns an active order owned by userID, or nil if it does
	// not exist, is soft-deleted, or belongs to someone else.
	GetOrder(ctx context.Context, userID, orderID int64) (*models.Order, error)

	// SoftDeleteOrder marks an active owned order deleted. It reports
	// whether a row actually changed; repeated calls report false.
	SoftDeleteOrder(ctx context.Context, userID, orderID int64) (bool, error)

	// UndoDeleteOrder clears the deletion mark of a soft-deleted owned
	// order, with the same idempotence contract as SoftDeleteOrder.
	UndoDeleteOrder(ctx context.Context, userID, orderID int64) (bool, error)

	// OrdersPage returns active orders most-recent-first, id descending
	// as the tie-break for equal timestamps.
	OrdersPage(ctx context.Context, userID int64, drink string, offset, limit int) ([]models.Order, error)

	// CountOrders counts a user's active orders, optionally per drink.
	CountOrders(ctx context.Context, userID int64, drink string) (int, error)

	// OrdersBetween returns active orders with since <= created_at < until
	// in chronological order, id ascending as the tie-break.
	OrdersBetween(ctx context.Context, userID int64, since, until int64, drink string) ([]models.Order, error)

	// DrinkCountsBetween aggregates active orders per drink over the same
	// half-open interval, descending by count.
	DrinkCountsBetween(ctx context.Context, userID int64, since, until int64) ([]models.DrinkCount, error)

	// OrderNumber returns the count of the user's active orders with
	// created_at at or before the given timestamp: a stable user-facing
	// sequence number distinct from the global id.
	OrderNumber(ctx context.Context, userID, createdAt int64) (int, error)

	// CountAllOrders counts active orders across all users.
	CountAllOrders(ctx context.Context) (int, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// Opts holds configuration for the database-backed stores.
type Opts struct {
	DSN string
}

// Option defines a configuration option for a store.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// DetectDSNType classifies a DSN as "postgres" or "sqlite". File paths
// and file: URIs are treated as SQLite.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}

// filterMatches reports whether the drink filter selects the order.
func filterMatches(drink, filter string) bool {
	return filter == "" || filter == "all" || drink == filter
}

// InMemoryStore is a Store kept entirely in memory, used in tests.
type InMemoryStore struct {
	mu     sync.Mutex
	orders []models.Order
	nextID int64
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{nextID: 1}
}

func (s *InMemoryStore) CreateOrder(ctx context.Context, o models.Order) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.ID = s.nextID
	s.nextID++
	if o.CreatedAt == 0 {
		o.CreatedAt = time.Now().Unix()
	}
	o.DeletedAt = nil
	s.orders = append(s.orders, o)
	return o.ID, nil
}

func (s *InMemoryStore) GetOrder(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		o := s.orders[i]
		if o.ID == orderID && o.UserID == userID && !o.Deleted() {
			copied := o
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *InMemoryStore) SoftDeleteOrder(ctx context.Context, userID, orderID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		o := &s.orders[i]
		if o.ID == orderID && o.UserID == userID && !o.Deleted() {
			now := time.Now().Unix()
			o.DeletedAt = &now
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStore) UndoDeleteOrder(ctx context.Context, userID, orderID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		o := &s.orders[i]
		if o.ID == orderID && o.UserID == userID && o.Deleted() {
			o.DeletedAt = nil
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStore) OrdersPage(ctx context.Context, userID int64, drink string, offset, limit int) ([]models.Order, error) {
	s.mu.Lock()
	rows := s.activeLocked(userID, drink)
	s.mu.Unlock()

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CreatedAt != rows[j].CreatedAt {
			return rows[i].CreatedAt > rows[j].CreatedAt
		}
		return rows[i].ID > rows[j].ID
	})
	if offset >= len(rows) {
		return nil, nil
	}
	rows = rows[offset:]
	if limit < len(rows) {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *InMemoryStore) CountOrders(ctx context.Context, userID int64, drink string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeLocked(userID, drink)), nil
}

func (s *InMemoryStore) OrdersBetween(ctx context.Context, userID int64, since, until int64, drink string) ([]models.Order, error) {
	s.mu.Lock()
	all := s.activeLocked(userID, drink)
	s.mu.Unlock()

	var rows []models.Order
	for _, o := range all {
		if o.CreatedAt >= since && o.CreatedAt < until {
			rows = append(rows, o)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CreatedAt != rows[j].CreatedAt {
			return rows[i].CreatedAt < rows[j].CreatedAt
		}
		return rows[i].ID < rows[j].ID
	})
	return rows, nil
}

func (s *InMemoryStore) DrinkCountsBetween(ctx context.Context, userID int64, since, until int64) ([]models.DrinkCount, error) {
	s.mu.Lock()
	counts := make(map[string]int)
	for _, o := range s.orders {
		if o.UserID == userID && !o.Deleted() && o.CreatedAt >= since && o.CreatedAt < until {
			counts[o.Drink]++
		}
	}
	s.mu.Unlock()

	rows := make([]models.DrinkCount, 0, len(counts))
	for drink, n := range counts {
		rows = append(rows, models.DrinkCount{Drink: drink, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Drink < rows[j].Drink
	})
	return rows, nil
}

func (s *InMemoryStore) OrderNumber(ctx context.Context, userID, createdAt int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, o := range s.orders {
		if o.UserID == userID && !o.Deleted() && o.CreatedAt <= createdAt {
			n++
		}
	}
	return n, nil
}

func (s *InMemoryStore) CountAllOrders(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, o := range s.orders {
		if !o.Deleted() {
			n++
		}
	}
	return n, nil
}

func (s *InMemoryStore) Ping(ctx context.Context) error { return nil }

func (s *InMemoryStore) Close() error { return nil }

// activeLocked collects the user's active orders matching the drink
// filter. Caller holds the mutex.
func (s *InMemoryStore) activeLocked(userID int64, drink string) []models.Order {
	var rows []models.Order
	for _, o := range s.orders {
		if o.UserID == userID && !o.Deleted() && filterMatches(o.Drink, drink) {
			rows = append(rows, o)
		}
	}
	return rows
}
