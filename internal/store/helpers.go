package store

import (
	"database/sql"
	"fmt"

	"github.com/brewbeat/baristabot/internal/models"
)

// orderColumns is the column list every order query selects, in scan order.
const orderColumns = "id, user_id, chat_id, drink, size, milk, created_at, deleted_at, locale"

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// scanOrder scans an Order from sql.Rows.
func scanOrder(rows *sql.Rows) (models.Order, error) {
	var o models.Order
	var deletedAt sql.NullInt64
	var locale sql.NullString
	err := rows.Scan(&o.ID, &o.UserID, &o.ChatID, &o.Drink, &o.Size, &o.Milk, &o.CreatedAt, &deletedAt, &locale)
	if err != nil {
		return o, fmt.Errorf("scan order failed: %w", err)
	}
	if deletedAt.Valid {
		o.DeletedAt = &deletedAt.Int64
	}
	o.Locale = locale.String
	return o, nil
}

// scanOrderRow scans an Order from a single sql.Row.
func scanOrderRow(row *sql.Row) (models.Order, error) {
	var o models.Order
	var deletedAt sql.NullInt64
	var locale sql.NullString
	err := row.Scan(&o.ID, &o.UserID, &o.ChatID, &o.Drink, &o.Size, &o.Milk, &o.CreatedAt, &deletedAt, &locale)
	if err != nil {
		return o, err
	}
	if deletedAt.Valid {
		o.DeletedAt = &deletedAt.Int64
	}
	o.Locale = locale.String
	return o, nil
}

// collectOrders drains rows into a slice, closing them on return.
func collectOrders(rows *sql.Rows) ([]models.Order, error) {
	defer rows.Close()
	var orders []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows failed: %w", err)
	}
	return orders, nil
}

// collectDrinkCounts drains aggregate rows into a slice, closing them on return.
func collectDrinkCounts(rows *sql.Rows) ([]models.DrinkCount, error) {
	defer rows.Close()
	var counts []models.DrinkCount
	for rows.Next() {
		var dc models.DrinkCount
		if err := rows.Scan(&dc.Drink, &dc.Count); err != nil {
			return nil, fmt.Errorf("scan drink count failed: %w", err)
		}
		counts = append(counts, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate drink count rows failed: %w", err)
	}
	return counts, nil
}
