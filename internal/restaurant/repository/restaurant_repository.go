package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tastycheckout/internal/domain"
	apperrors "tastycheckout/internal/errors"
)

type MySQLRepository struct {
	db *sql.DB
}

func NewMySQLRepository(db *sql.DB) *MySQLRepository {
	return &MySQLRepository{db: db}
}

// GetMenuAndDeliveryPrice loads a restaurant with its menu, in menu order.
func (r *MySQLRepository) GetMenuAndDeliveryPrice(ctx context.Context, restaurantID string) (*domain.Restaurant, error) {
	query := `
		SELECT id, name, deliveryPrice
		FROM Restaurants
		WHERE id = ?
	`

	var restaurant domain.Restaurant
	err := r.db.QueryRowContext(ctx, query, restaurantID).Scan(
		&restaurant.ID, &restaurant.Name, &restaurant.DeliveryPrice,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("restaurant with id %s not found", restaurantID))
	}
	if err != nil {
		return nil, apperrors.NewPersistenceError("querying restaurant by id", err)
	}

	items, err := r.findMenuItems(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	restaurant.MenuItems = items

	return &restaurant, nil
}

func (r *MySQLRepository) findMenuItems(ctx context.Context, restaurantID string) ([]domain.MenuItem, error) {
	query := `
		SELECT id, name, price
		FROM MenuItems
		WHERE restaurantId = ?
		ORDER BY position, id
	`

	rows, err := r.db.QueryContext(ctx, query, restaurantID)
	if err != nil {
		return nil, apperrors.NewPersistenceError("querying menu items", err)
	}
	defer rows.Close()

	var items []domain.MenuItem
	for rows.Next() {
		var item domain.MenuItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Price); err != nil {
			return nil, apperrors.NewPersistenceError("scanning menu item row", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewPersistenceError("iterating menu item rows", err)
	}

	return items, nil
}
