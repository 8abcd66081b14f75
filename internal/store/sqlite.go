package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/brewbeat/baristabot/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	// Ensure the directory exists
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	// Run migrations to ensure tables exist
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully", "dsn", dsn)

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) CreateOrder(ctx context.Context, o models.Order) (int64, error) {
	createdAt := o.CreatedAt
	if createdAt == 0 {
		createdAt = time.Now().Unix()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO orders (user_id, chat_id, drink, size, milk, created_at, locale) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.UserID, o.ChatID, o.Drink, o.Size, o.Milk, createdAt, nilIfEmpty(o.Locale))
	if err != nil {
		slog.Error("SQLiteStore CreateOrder failed", "error", err, "user_id", o.UserID)
		return 0, fmt.Errorf("failed to insert order: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted order id: %w", err)
	}
	slog.Debug("SQLiteStore CreateOrder succeeded", "id", id, "user_id", o.UserID, "drink", o.Drink)
	return id, nil
}

func (s *SQLiteStore) GetOrder(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = ? AND id = ? AND deleted_at IS NULL`,
		userID, orderID)
	o, err := scanOrderRow(row)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetOrder not found", "user_id", userID, "order_id", orderID)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetOrder failed", "error", err, "user_id", userID, "order_id", orderID)
		return nil, fmt.Errorf("failed to query order %d: %w", orderID, err)
	}
	return &o, nil
}

func (s *SQLiteStore) SoftDeleteOrder(ctx context.Context, userID, orderID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE orders SET deleted_at = ? WHERE id = ? AND user_id = ? AND deleted_at IS NULL`,
		time.Now().Unix(), orderID, userID)
	if err != nil {
		slog.Error("SQLiteStore SoftDeleteOrder failed", "error", err, "user_id", userID, "order_id", orderID)
		return false, fmt.Errorf("failed to soft-delete order %d: %w", orderID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	slog.Debug("SQLiteStore SoftDeleteOrder", "user_id", userID, "order_id", orderID, "changed", n > 0)
	return n > 0, nil
}

func (s *SQLiteStore) UndoDeleteOrder(ctx context.Context, userID, orderID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE orders SET deleted_at = NULL WHERE id = ? AND user_id = ? AND deleted_at IS NOT NULL`,
		orderID, userID)
	if err != nil {
		slog.Error("SQLiteStore UndoDeleteOrder failed", "error", err, "user_id", userID, "order_id", orderID)
		return false, fmt.Errorf("failed to restore order %d: %w", orderID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	slog.Debug("SQLiteStore UndoDeleteOrder", "user_id", userID, "order_id", orderID, "changed", n > 0)
	return n > 0, nil
}

func (s *SQLiteStore) OrdersPage(ctx context.Context, userID int64, drink string, offset, limit int) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = ? AND deleted_at IS NULL`
	args := []interface{}{userID}
	if drink != "" && drink != "all" {
		query += ` AND drink = ?`
		args = append(args, drink)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Error("SQLiteStore OrdersPage query failed", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to query orders page: %w", err)
	}
	return collectOrders(rows)
}

func (s *SQLiteStore) CountOrders(ctx context.Context, userID int64, drink string) (int, error) {
	query := `SELECT COUNT(*) FROM orders WHERE user_id = ? AND deleted_at IS NULL`
	args := []interface{}{userID}
	if drink != "" && drink != "all" {
		query += ` AND drink = ?`
		args = append(args, drink)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		slog.Error("SQLiteStore CountOrders failed", "error", err, "user_id", userID)
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) OrdersBetween(ctx context.Context, userID int64, since, until int64, drink string) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = ? AND deleted_at IS NULL AND created_at >= ? AND created_at < ?`
	args := []interface{}{userID, since, until}
	if drink != "" && drink != "all" {
		query += ` AND drink = ?`
		args = append(args, drink)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Error("SQLiteStore OrdersBetween query failed", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to query orders between: %w", err)
	}
	return collectOrders(rows)
}

func (s *SQLiteStore) DrinkCountsBetween(ctx context.Context, userID int64, since, until int64) ([]models.DrinkCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT drink, COUNT(*) AS cnt
		 FROM orders
		 WHERE user_id = ? AND deleted_at IS NULL AND created_at >= ? AND created_at < ?
		 GROUP BY drink
		 ORDER BY cnt DESC, drink ASC`,
		userID, since, until)
	if err != nil {
		slog.Error("SQLiteStore DrinkCountsBetween query failed", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to query drink counts: %w", err)
	}
	return collectDrinkCounts(rows)
}

func (s *SQLiteStore) OrderNumber(ctx context.Context, userID, createdAt int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE user_id = ? AND deleted_at IS NULL AND created_at <= ?`,
		userID, createdAt).Scan(&n)
	if err != nil {
		slog.Error("SQLiteStore OrderNumber failed", "error", err, "user_id", userID)
		return 0, fmt.Errorf("failed to compute order number: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) CountAllOrders(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE deleted_at IS NULL`).Scan(&n); err != nil {
		slog.Error("SQLiteStore CountAllOrders failed", "error", err)
		return 0, fmt.Errorf("failed to count all orders: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	slog.Debug("SQLiteStore closing database")
	return s.db.Close()
}
