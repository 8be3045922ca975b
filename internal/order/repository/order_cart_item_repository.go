package repository

import (
	"context"
	"database/sql"

	"tastycheckout/internal/domain"
	apperrors "tastycheckout/internal/errors"
)

type MySQLOrderCartItemRepository struct {
	db *sql.DB
}

func NewMySQLOrderCartItemRepository(db *sql.DB) *MySQLOrderCartItemRepository {
	return &MySQLOrderCartItemRepository{db: db}
}

// InsertAll stores the cart lines of an order inside the caller's transaction,
// keeping their submission order in the position column.
func (r *MySQLOrderCartItemRepository) InsertAll(ctx context.Context, tx *sql.Tx, orderID string, items []domain.CartItem) error {
	query := `INSERT INTO OrderCartItems (orderId, position, menuItemId, name, quantity) VALUES (?, ?, ?, ?, ?)`

	for i, item := range items {
		if _, err := tx.ExecContext(ctx, query, orderID, i, item.MenuItemID, item.Name, item.Quantity); err != nil {
			return apperrors.NewPersistenceError("inserting order cart item", err)
		}
	}

	return nil
}

func (r *MySQLOrderCartItemRepository) FindByOrderID(ctx context.Context, orderID string) ([]domain.CartItem, error) {
	query := `
		SELECT menuItemId, name, quantity
		FROM OrderCartItems
		WHERE orderId = ?
		ORDER BY position
	`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, apperrors.NewPersistenceError("querying order cart items", err)
	}
	defer rows.Close()

	items := []domain.CartItem{}
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.MenuItemID, &item.Name, &item.Quantity); err != nil {
			return nil, apperrors.NewPersistenceError("scanning order cart item row", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewPersistenceError("iterating order cart item rows", err)
	}

	return items, nil
}
