package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/brewbeat/baristabot/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	// Configure connection pool for better performance
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) CreateOrder(ctx context.Context, o models.Order) (int64, error) {
	createdAt := o.CreatedAt
	if createdAt == 0 {
		createdAt = time.Now().Unix()
	}
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO orders (user_id, chat_id, drink, size, milk, created_at, locale)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		o.UserID, o.ChatID, o.Drink, o.Size, o.Milk, createdAt, nilIfEmpty(o.Locale)).Scan(&id)
	if err != nil {
		slog.Error("PostgresStore CreateOrder failed", "error", err, "user_id", o.UserID)
		return 0, fmt.Errorf("failed to insert order: %w", err)
	}
	slog.Debug("PostgresStore CreateOrder succeeded", "id", id, "user_id", o.UserID, "drink", o.Drink)
	return id, nil
}

func (s *PostgresStore) GetOrder(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL`,
		userID, orderID)
	o, err := scanOrderRow(row)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetOrder not found", "user_id", userID, "order_id", orderID)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetOrder failed", "error", err, "user_id", userID, "order_id", orderID)
		return nil, fmt.Errorf("failed to query order %d: %w", orderID, err)
	}
	return &o, nil
}

func (s *PostgresStore) SoftDeleteOrder(ctx context.Context, userID, orderID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE orders SET deleted_at = $1 WHERE id = $2 AND user_id = $3 AND deleted_at IS NULL`,
		time.Now().Unix(), orderID, userID)
	if err != nil {
		slog.Error("PostgresStore SoftDeleteOrder failed", "error", err, "user_id", userID, "order_id", orderID)
		return false, fmt.Errorf("failed to soft-delete order %d: %w", orderID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	slog.Debug("PostgresStore SoftDeleteOrder", "user_id", userID, "order_id", orderID, "changed", n > 0)
	return n > 0, nil
}

func (s *PostgresStore) UndoDeleteOrder(ctx context.Context, userID, orderID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE orders SET deleted_at = NULL WHERE id = $1 AND user_id = $2 AND deleted_at IS NOT NULL`,
		orderID, userID)
	if err != nil {
		slog.Error("PostgresStore UndoDeleteOrder failed", "error", err, "user_id", userID, "order_id", orderID)
		return false, fmt.Errorf("failed to restore order %d: %w", orderID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	slog.Debug("PostgresStore UndoDeleteOrder", "user_id", userID, "order_id", orderID, "changed", n > 0)
	return n > 0, nil
}

func (s *PostgresStore) OrdersPage(ctx context.Context, userID int64, drink string, offset, limit int) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 AND deleted_at IS NULL`
	args := []interface{}{userID}
	if drink != "" && drink != "all" {
		query += fmt.Sprintf(` AND drink = $%d`, len(args)+1)
		args = append(args, drink)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Error("PostgresStore OrdersPage query failed", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to query orders page: %w", err)
	}
	return collectOrders(rows)
}

func (s *PostgresStore) CountOrders(ctx context.Context, userID int64, drink string) (int, error) {
	query := `SELECT COUNT(*) FROM orders WHERE user_id = $1 AND deleted_at IS NULL`
	args := []interface{}{userID}
	if drink != "" && drink != "all" {
		query += fmt.Sprintf(` AND drink = $%d`, len(args)+1)
		args = append(args, drink)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		slog.Error("PostgresStore CountOrders failed", "error", err, "user_id", userID)
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) OrdersBetween(ctx context.Context, userID int64, since, until int64, drink string) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 AND deleted_at IS NULL AND created_at >= $2 AND created_at < $3`
	args := []interface{}{userID, since, until}
	if drink != "" && drink != "all" {
		query += fmt.Sprintf(` AND drink = $%d`, len(args)+1)
		args = append(args, drink)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Error("PostgresStore OrdersBetween query failed", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to query orders between: %w", err)
	}
	return collectOrders(rows)
}

func (s *PostgresStore) DrinkCountsBetween(ctx context.Context, userID int64, since, until int64) ([]models.DrinkCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT drink, COUNT(*) AS cnt
		 FROM orders
		 WHERE user_id = $1 AND deleted_at IS NULL AND created_at >= $2 AND created_at < $3
		 GROUP BY drink
		 ORDER BY cnt DESC, drink ASC`,
		userID, since, until)
	if err != nil {
		slog.Error("PostgresStore DrinkCountsBetween query failed", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to query drink counts: %w", err)
	}
	return collectDrinkCounts(rows)
}

func (s *PostgresStore) OrderNumber(ctx context.Context, userID, createdAt int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE user_id = $1 AND deleted_at IS NULL AND created_at <= $2`,
		userID, createdAt).Scan(&n)
	if err != nil {
		slog.Error("PostgresStore OrderNumber failed", "error", err, "user_id", userID)
		return 0, fmt.Errorf("failed to compute order number: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) CountAllOrders(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE deleted_at IS NULL`).Scan(&n); err != nil {
		slog.Error("PostgresStore CountAllOrders failed", "error", err)
		return 0, fmt.Errorf("failed to count all orders: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	slog.Debug("PostgresStore closing database")
	return s.db.Close()
}
