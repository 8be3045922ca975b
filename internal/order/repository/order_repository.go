package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tastycheckout/internal/domain"
	apperrors "tastycheckout/internal/errors"
)

type MySQLOrderRepository struct {
	db        *sql.DB
	cartItems *MySQLOrderCartItemRepository
}

func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{
		db:        db,
		cartItems: NewMySQLOrderCartItemRepository(db),
	}
}

// Create stores a new order and its cart in one transaction. The order is
// readable by FindByID as soon as Create returns.
func (r *MySQLOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	if order.Status != domain.OrderStatusPlaced {
		return apperrors.NewConflictError("new orders must be in placed status")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewPersistenceError("beginning order transaction", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO Orders (id, restaurantId, userId, email, name, addressLine1, city,
		                    status, totalAmount, createdAt, updatedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL, ?, ?)
	`
	_, err = tx.ExecContext(ctx, query,
		order.ID, order.RestaurantID, order.UserID,
		order.DeliveryDetails.Email, order.DeliveryDetails.Name,
		order.DeliveryDetails.AddressLine1, order.DeliveryDetails.City,
		string(order.Status), order.CreatedAt.UTC(), order.UpdatedAt.UTC(),
	)
	if err != nil {
		return apperrors.NewPersistenceError("inserting order", err)
	}

	if err := r.cartItems.InsertAll(ctx, tx, order.ID, order.CartItems); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewPersistenceError("committing order", err)
	}

	return nil
}

func (r *MySQLOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `
		SELECT id, restaurantId, userId, email, name, addressLine1, city,
		       status, totalAmount, createdAt, updatedAt
		FROM Orders
		WHERE id = ?
	`

	var (
		order       domain.Order
		status      string
		totalAmount sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID, &order.RestaurantID, &order.UserID,
		&order.DeliveryDetails.Email, &order.DeliveryDetails.Name,
		&order.DeliveryDetails.AddressLine1, &order.DeliveryDetails.City,
		&status, &totalAmount, &order.CreatedAt, &order.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("order with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewPersistenceError("querying order by id", err)
	}

	order.Status = domain.OrderStatus(status)
	if totalAmount.Valid {
		amount := totalAmount.Int64
		order.TotalAmount = &amount
	}

	items, err := r.cartItems.FindByOrderID(ctx, id)
	if err != nil {
		return nil, err
	}
	order.CartItems = items

	return &order, nil
}

// Save persists an order copy. The only change it can write is the
// placed to paid transition; a paid order's total is never rewritten and a
// placed order never carries a total.
func (r *MySQLOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	if !order.Status.Valid() {
		return apperrors.NewValidationError(fmt.Sprintf("unknown order status %q", order.Status))
	}

	if order.Status == domain.OrderStatusPlaced {
		return r.touchPlaced(ctx, order)
	}
	return r.savePaid(ctx, order)
}

func (r *MySQLOrderRepository) touchPlaced(ctx context.Context, order *domain.Order) error {
	if order.TotalAmount != nil {
		return apperrors.NewValidationError("placed orders cannot carry a total amount")
	}

	query := `
		UPDATE Orders
		SET updatedAt = ?
		WHERE id = ? AND status = ?
	`
	applied, err := r.execSave(ctx, query, order.UpdatedAt.UTC(), order.ID, string(domain.OrderStatusPlaced))
	if err != nil || applied {
		return err
	}

	current, err := r.FindByID(ctx, order.ID)
	if err != nil {
		return err
	}
	// MySQL reports zero affected rows when nothing changed
	if current.Status == domain.OrderStatusPlaced {
		return nil
	}
	return apperrors.NewConflictError(fmt.Sprintf("order with id %s cannot move back to placed", order.ID))
}

func (r *MySQLOrderRepository) savePaid(ctx context.Context, order *domain.Order) error {
	if order.TotalAmount == nil {
		return apperrors.NewValidationError("paid orders must carry a total amount")
	}
	// replay the transition on a placed copy so the amount rules live in one place
	transition := domain.Order{ID: order.ID, Status: domain.OrderStatusPlaced}
	if err := transition.MarkPaid(*order.TotalAmount, order.UpdatedAt); err != nil {
		return err
	}

	query := `
		UPDATE Orders
		SET status = ?, totalAmount = ?, updatedAt = ?
		WHERE id = ? AND status = ?
	`
	applied, err := r.execSave(ctx, query,
		string(domain.OrderStatusPaid), *transition.TotalAmount, transition.UpdatedAt.UTC(),
		order.ID, string(domain.OrderStatusPlaced),
	)
	if err != nil || applied {
		return err
	}

	current, err := r.FindByID(ctx, order.ID)
	if err != nil {
		return err
	}
	if current.Status == domain.OrderStatusPaid && current.TotalAmount != nil && *current.TotalAmount == *order.TotalAmount {
		return nil
	}
	return apperrors.NewConflictError(fmt.Sprintf("order with id %s is already paid with a different total", order.ID))
}

func (r *MySQLOrderRepository) execSave(ctx context.Context, query string, args ...interface{}) (bool, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, apperrors.NewPersistenceError("updating order", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.NewPersistenceError("getting rows affected", err)
	}
	return rowsAffected > 0, nil
}

// MarkPaid moves a placed order to paid in a single conditional statement.
// It reports false when the order was not in placed status, so concurrent
// callers see at most one successful transition.
func (r *MySQLOrderRepository) MarkPaid(ctx context.Context, id string, amountMinor int64, at time.Time) (bool, error) {
	query := `
		UPDATE Orders
		SET status = ?, totalAmount = ?, updatedAt = ?
		WHERE id = ? AND status = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		string(domain.OrderStatusPaid), amountMinor, at.UTC(),
		id, string(domain.OrderStatusPlaced),
	)
	if err != nil {
		return false, apperrors.NewPersistenceError("marking order paid", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.NewPersistenceError("getting rows affected", err)
	}

	return rowsAffected == 1, nil
}
