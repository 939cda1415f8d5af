package orders

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/buildunia/commerce/internal/domain"
)

var ErrInvalidTransition = errors.New("invalid order status transition")

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the order and its items in one transaction. Both land or
// neither does; a paid order can never exist without its items.
func (r *Repository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	order.ID = uuid.New().String()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, user_id, status, platform, subtotal, shipping_fee, tax, total,
			ship_name, ship_email, ship_phone, ship_address, ship_city, ship_state,
			ship_pincode, ship_country, mentor_id, gateway_order_id, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $19)
	`, order.ID, order.UserID, order.Status, order.Platform,
		order.Subtotal, order.ShippingFee, order.Tax, order.Total,
		order.ShippingAddress.Name, order.ShippingAddress.Email, order.ShippingAddress.Phone,
		order.ShippingAddress.Address, order.ShippingAddress.City, order.ShippingAddress.State,
		order.ShippingAddress.Pincode, order.ShippingAddress.Country,
		nullable(order.MentorID), nullable(order.GatewayOrderID), order.CreatedAt)
	if err != nil {
		return err
	}

	for _, item := range order.Items {
		itemID := uuid.New().String()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, title, quantity, unit_price, price_option)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, itemID, order.ID, item.ProductID, item.Title, item.Quantity, item.UnitPrice, item.Option)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	order := &domain.Order{}

	var mentorID, gatewayOrderID, gatewayPaymentID sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, status, platform, subtotal, shipping_fee, tax, total,
			ship_name, ship_email, ship_phone, ship_address, ship_city, ship_state,
			ship_pincode, ship_country, mentor_id, gateway_order_id, gateway_payment_id,
			created_at, updated_at
		FROM orders
		WHERE id = $1
	`, id).Scan(&order.ID, &order.UserID, &order.Status, &order.Platform,
		&order.Subtotal, &order.ShippingFee, &order.Tax, &order.Total,
		&order.ShippingAddress.Name, &order.ShippingAddress.Email, &order.ShippingAddress.Phone,
		&order.ShippingAddress.Address, &order.ShippingAddress.City, &order.ShippingAddress.State,
		&order.ShippingAddress.Pincode, &order.ShippingAddress.Country,
		&mentorID, &gatewayOrderID, &gatewayPaymentID,
		&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	order.MentorID = mentorID.String
	order.GatewayOrderID = gatewayOrderID.String
	order.GatewayPaymentID = gatewayPaymentID.String

	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, title, quantity, unit_price, price_option
		FROM order_items
		WHERE order_id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Title, &item.Quantity, &item.UnitPrice, &item.Option); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return order, nil
}

// SetGatewayOrder records the provider-side order handle once it exists.
func (r *Repository) SetGatewayOrder(ctx context.Context, id, gatewayOrderID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE orders SET gateway_order_id = $1, updated_at = NOW()
		WHERE id = $2
	`, gatewayOrderID, id)
	return err
}

// MarkPaid transitions an order to paid. The condition makes re-delivery of
// the same verified payload a no-op: an already paid order is left exactly
// as it is, updated_at included. Returns true when this call did the
// transition.
func (r *Repository) MarkPaid(ctx context.Context, id, gatewayPaymentID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, gateway_payment_id = $2, updated_at = NOW()
		WHERE id = $3 AND status <> $1
	`, domain.OrderStatusPaid, gatewayPaymentID, id)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

// UpdateStatus applies an admin or fulfilment status change, refusing
// transitions the domain does not allow.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	order, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, nil
	}

	if !order.Status.CanTransitionTo(status) {
		return nil, ErrInvalidTransition
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, status, id)
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, status, platform, subtotal, shipping_fee, tax, total,
			created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var list []domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.UserID, &order.Status, &order.Platform,
			&order.Subtotal, &order.ShippingFee, &order.Tax, &order.Total,
			&order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, order)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

// UpdatedAt reports the row's last modification time without fetching items.
func (r *Repository) UpdatedAt(ctx context.Context, id string) (time.Time, error) {
	var updatedAt time.Time
	err := r.db.QueryRowContext(ctx, `SELECT updated_at FROM orders WHERE id = $1`, id).Scan(&updatedAt)
	return updatedAt, err
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
