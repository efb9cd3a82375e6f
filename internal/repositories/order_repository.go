package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/models"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// LockOrderByID is GetOrderByID holding a row lock on the order until
	// the surrounding transaction ends.
	LockOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateOrderState(ctx context.Context, id uuid.UUID, status models.OrderStatus, shipping models.ShippingStatus) (time.Time, error)
	ListOrdersByBuyer(ctx context.Context, buyerID uuid.UUID, page, size int) ([]*models.Order, int, error)
	ListOrdersBySeller(ctx context.Context, sellerID uuid.UUID, page, size int) ([]*models.Order, int, error)
}

type orderRepository struct {
	DB *sql.DB
}

func NewOrderRepo(db *sql.DB) OrderRepository {
	return &orderRepository{DB: db}
}

const orderColumns = `id, buyer_id, seller_id, total_amount, status, shipping_status, shipping_address, payment_method, tracking_number, created_at, updated_at`

func scanOrder(row rowScanner) (*models.Order, error) {
	order := &models.Order{}

	err := row.Scan(&order.ID, &order.BuyerID, &order.SellerID, &order.TotalAmount, &order.Status, &order.ShippingStatus,
		&order.ShippingAddress, &order.PaymentMethod, &order.TrackingNumber, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return order, nil
}

func (r *orderRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	db := conn(ctx, r.DB)

	query := `
		INSERT INTO orders (id, buyer_id, seller_id, total_amount, status, shipping_status, shipping_address, payment_method, tracking_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := db.QueryRowContext(dbCtx, query, order.ID, order.BuyerID, order.SellerID, order.TotalAmount, order.Status,
		order.ShippingStatus, order.ShippingAddress, order.PaymentMethod, order.TrackingNumber).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	lineQuery := `
		INSERT INTO order_lines (id, order_id, product_id, seller_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	for i := range order.Lines {
		line := &order.Lines[i]

		err := db.QueryRowContext(dbCtx, lineQuery, line.ID, order.ID, line.ProductID, line.SellerID, line.Quantity, line.UnitPrice).Scan(&line.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert an order line: %w", err)
		}
	}

	return nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.getOrder(ctx, id, "")
}

func (r *orderRepository) LockOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.getOrder(ctx, id, " FOR UPDATE")
}

func (r *orderRepository) getOrder(ctx context.Context, id uuid.UUID, lockClause string) (*models.Order, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1` + lockClause

	order, err := scanOrder(conn(ctx, r.DB).QueryRowContext(dbCtx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		return nil, fmt.Errorf("failed to get the order: %w", err)
	}

	if err := r.attachLines(dbCtx, conn(ctx, r.DB), []*models.Order{order}); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *orderRepository) UpdateOrderState(ctx context.Context, id uuid.UUID, status models.OrderStatus, shipping models.ShippingStatus) (time.Time, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE orders SET status = $1, shipping_status = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING updated_at
	`

	var updatedAt time.Time

	err := conn(ctx, r.DB).QueryRowContext(dbCtx, query, status, shipping, id).Scan(&updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, err
		}

		return time.Time{}, fmt.Errorf("failed to update order status: %w", err)
	}

	return updatedAt, nil
}

func (r *orderRepository) ListOrdersByBuyer(ctx context.Context, buyerID uuid.UUID, page, size int) ([]*models.Order, int, error) {
	return r.listOrders(ctx, "buyer_id", buyerID, page, size)
}

func (r *orderRepository) ListOrdersBySeller(ctx context.Context, sellerID uuid.UUID, page, size int) ([]*models.Order, int, error) {
	return r.listOrders(ctx, "seller_id", sellerID, page, size)
}

// listOrders pages through orders newest first, filtered on one party column.
func (r *orderRepository) listOrders(ctx context.Context, column string, partyID uuid.UUID, page, size int) ([]*models.Order, int, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	db := conn(ctx, r.DB)

	var total int

	if err := db.QueryRowContext(dbCtx, `SELECT COUNT(*) FROM orders WHERE `+column+` = $1`, partyID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	offset := (page - 1) * size

	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + column + ` = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := db.QueryContext(dbCtx, query, partyID, size, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*models.Order, 0, size)

	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan the orders: %w", err)
		}

		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate orders: %w", err)
	}

	if err := r.attachLines(dbCtx, db, orders); err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// attachLines loads the lines of every given order in one query.
func (r *orderRepository) attachLines(ctx context.Context, db DBTX, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, 0, len(orders))
	byID := make(map[uuid.UUID]*models.Order, len(orders))

	for _, order := range orders {
		order.Lines = []models.OrderLine{}
		ids = append(ids, order.ID.String())
		byID[order.ID] = order
	}

	query := `
		SELECT id, order_id, product_id, seller_id, quantity, unit_price, created_at
		FROM order_lines
		WHERE order_id = ANY($1::uuid[])
		ORDER BY seq
	`

	rows, err := db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to get the order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line models.OrderLine

		if err := rows.Scan(&line.ID, &line.OrderID, &line.ProductID, &line.SellerID, &line.Quantity, &line.UnitPrice, &line.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan order line: %w", err)
		}

		if order, ok := byID[line.OrderID]; ok {
			order.Lines = append(order.Lines, line)
		}
	}

	return rows.Err()
}
