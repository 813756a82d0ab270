package repos

import (
	"context"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"grocerly/internal/domain"
)

var (
	// ErrOrderStatusChanged means a conditional status update matched no row.
	ErrOrderStatusChanged = errors.New("order status changed")
	// ErrDuplicateOrderNumber is returned when every generated order number collided.
	ErrDuplicateOrderNumber = errors.New("duplicate order number")
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderCols = `o.order_id, o.user_id, o.order_number, o.item_total, o.delivery_fee, o.total_amount, o.status,
  o.delivery_address, o.customer_name, o.customer_email, o.customer_contact, o.cancellation_fee,
  o.created_at, o.updated_at,
  (SELECT COUNT(*) FROM order_items WHERE order_id = o.order_id) AS item_count`

const itemCols = `item_id, order_id, product_id, product_name, product_quantity, product_price,
  cart_quantity, item_total, product_images`

// Create inserts the header and all items in one transaction and returns the new order id.
// nextNumber is asked for a fresh order number after a uniqueness collision, up to attempts times.
// Nothing is visible to readers unless every insert succeeds.
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order, items []domain.OrderItem, nextNumber func() string, attempts int) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	orderID, err := insertHeader(ctx, tx, o, nextNumber, attempts)
	if err != nil {
		return 0, err
	}

	for _, it := range items {
		if _, err := tx.ExecContext(ctx, `
		  INSERT INTO order_items
		    (order_id, product_id, product_name, product_quantity, product_price, cart_quantity, item_total, product_images)
		  VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, orderID, it.ProductID, it.ProductName, it.ProductQuantity, it.ProductPrice,
			it.CartQuantity, it.ItemTotal, it.ProductImages); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	o.ID = orderID
	return orderID, nil
}

func insertHeader(ctx context.Context, tx *sqlx.Tx, o *domain.Order, nextNumber func() string, attempts int) (int64, error) {
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		if i > 0 || o.OrderNumber == "" {
			o.OrderNumber = nextNumber()
		}
		res, err := tx.ExecContext(ctx, `
		  INSERT INTO orders
		    (user_id, order_number, item_total, delivery_fee, total_amount, status,
		     delivery_address, customer_name, customer_email, customer_contact, created_at, updated_at)
		  VALUES (?, ?, ?, ?, ?, 'confirmed', ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		`, o.UserID, o.OrderNumber, o.ItemTotal, o.DeliveryFee, o.TotalAmount,
			o.DeliveryAddress, o.CustomerName, o.CustomerEmail, o.CustomerContact)
		if err != nil {
			if IsUniqueViolation(err, "orders.order_number") {
				continue
			}
			return 0, err
		}
		o.Status = domain.StatusConfirmed
		return res.LastInsertId()
	}
	return 0, ErrDuplicateOrderNumber
}

// IsUniqueViolation matches SQLite unique constraint failures mentioning column.
func IsUniqueViolation(err error, column string) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, column)
}

// Get loads the header with its items.
func (r *OrderRepo) Get(ctx context.Context, orderID int64) (domain.Order, error) {
	return r.load(ctx, `o.order_id = ?`, orderID)
}

// GetOwned is Get restricted to orders owned by userID. A foreign order looks like a missing one.
func (r *OrderRepo) GetOwned(ctx context.Context, orderID, userID int64) (domain.Order, error) {
	return r.load(ctx, `o.order_id = ? AND o.user_id = ?`, orderID, userID)
}

func (r *OrderRepo) load(ctx context.Context, where string, args ...any) (domain.Order, error) {
	var o domain.Order
	if err := r.db.GetContext(ctx, &o, `SELECT `+orderCols+` FROM orders o WHERE `+where, args...); err != nil {
		return domain.Order{}, err
	}
	items := []domain.OrderItem{}
	if err := r.db.SelectContext(ctx, &items, `
		SELECT `+itemCols+` FROM order_items WHERE order_id = ? ORDER BY item_id
	`, o.ID); err != nil {
		return domain.Order{}, err
	}
	o.Items = items
	return o, nil
}

// ListByUser returns the user's orders newest first, items attached.
func (r *OrderRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	out := []domain.Order{}
	if err := r.db.SelectContext(ctx, &out, `
		SELECT `+orderCols+`
		FROM orders o
		WHERE o.user_id = ?
		ORDER BY o.created_at DESC, o.order_id DESC
	`, userID); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]int64, len(out))
	for i, o := range out {
		ids[i] = o.ID
	}
	query, args, err := sqlx.In(`SELECT `+itemCols+` FROM order_items WHERE order_id IN (?) ORDER BY item_id`, ids)
	if err != nil {
		return nil, err
	}
	var items []domain.OrderItem
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	byOrder := make(map[int64][]domain.OrderItem, len(out))
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	for i := range out {
		out[i].Items = byOrder[out[i].ID]
		if out[i].Items == nil {
			out[i].Items = []domain.OrderItem{}
		}
	}
	return out, nil
}

// Cancel moves a non-terminal order owned by userID to cancelled and records the fee.
func (r *OrderRepo) Cancel(ctx context.Context, orderID, userID int64, fee decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = 'cancelled', cancellation_fee = ?, updated_at = CURRENT_TIMESTAMP
		WHERE order_id = ? AND user_id = ? AND status NOT IN ('cancelled','delivered')
	`, fee, orderID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOrderStatusChanged
	}
	return nil
}

// UpdateStatus changes status only if it still equals from.
func (r *OrderRepo) UpdateStatus(ctx context.Context, orderID int64, from, to domain.OrderStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE order_id = ? AND status = ?
	`, to, orderID, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOrderStatusChanged
	}
	return nil
}
