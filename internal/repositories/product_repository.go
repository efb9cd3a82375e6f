package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/models"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/utils"
	"github.com/google/uuid"
)

// ErrInsufficientStock is returned by ReserveStock when the product exists
// but holds fewer units than requested.
var ErrInsufficientStock = errors.New("insufficient stock")

type ProductRepository interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	// LockProductByID holds the product row until the surrounding
	// transaction ends, so an edit cannot overwrite a concurrent reservation.
	LockProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
	ListProducts(ctx context.Context, page, size int) ([]*models.Product, int, error)
	ListProductsBySeller(ctx context.Context, sellerID uuid.UUID, page, size int) ([]*models.Product, int, error)
	ReserveStock(ctx context.Context, id uuid.UUID, quantity int) (*models.Product, error)
	ReleaseStock(ctx context.Context, id uuid.UUID, quantity int) (*models.Product, error)
}

type productRepository struct {
	DB *sql.DB
}

func NewProductRepo(db *sql.DB) ProductRepository {
	return &productRepository{DB: db}
}

const productColumns = `id, seller_id, name, description, price, stock, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	product := &models.Product{}

	err := row.Scan(&product.ID, &product.SellerID, &product.Name, &product.Description, &product.Price,
		&product.Stock, &product.Status, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return product, nil
}

func (r *productRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO products (seller_id, name, description, price, stock, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	return conn(ctx, r.DB).QueryRowContext(dbCtx, query, product.SellerID, product.Name, product.Description,
		product.Price, product.Stock, product.Status).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
}

func (r *productRepository) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return r.getProduct(ctx, id, "")
}

func (r *productRepository) LockProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return r.getProduct(ctx, id, " FOR UPDATE")
}

func (r *productRepository) getProduct(ctx context.Context, id uuid.UUID, lockClause string) (*models.Product, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1` + lockClause

	product, err := scanProduct(conn(ctx, r.DB).QueryRowContext(dbCtx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return product, nil
}

func (r *productRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE products
		SET name = $1, description = $2, price = $3, stock = $4, status = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`

	return conn(ctx, r.DB).QueryRowContext(dbCtx, query, product.Name, product.Description, product.Price,
		product.Stock, product.Status, product.ID).Scan(&product.UpdatedAt)
}

func (r *productRepository) ListProducts(ctx context.Context, page, size int) ([]*models.Product, int, error) {
	return r.listProducts(ctx, "", page, size)
}

func (r *productRepository) ListProductsBySeller(ctx context.Context, sellerID uuid.UUID, page, size int) ([]*models.Product, int, error) {
	return r.listProducts(ctx, ` WHERE seller_id = $1`, page, size, sellerID)
}

// listProducts pages through products matching where, whose placeholders
// are bound to args; LIMIT and OFFSET take the next two.
func (r *productRepository) listProducts(ctx context.Context, where string, page, size int, args ...any) ([]*models.Product, int, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	db := conn(ctx, r.DB)

	var total int

	if err := db.QueryRowContext(dbCtx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM products%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		productColumns, where, len(args)+1, len(args)+2)

	rows, err := db.QueryContext(dbCtx, query, append(args, size, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := make([]*models.Product, 0, size)

	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}

		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// ReserveStock takes quantity units in a single conditional update, so the
// row lock is held until the surrounding transaction ends and no concurrent
// reservation can observe the old stock.
func (r *productRepository) ReserveStock(ctx context.Context, id uuid.UUID, quantity int) (*models.Product, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE products
		SET stock = stock - $2,
			status = CASE
				WHEN status = 'INACTIVE' THEN status
				WHEN stock - $2 <= 0 THEN 'OUT_OF_STOCK'
				ELSE 'ACTIVE'
			END,
			updated_at = NOW()
		WHERE id = $1 AND stock >= $2
		RETURNING ` + productColumns

	product, err := scanProduct(conn(ctx, r.DB).QueryRowContext(dbCtx, query, id, quantity))
	if err == nil {
		return product, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to reserve stock: %w", err)
	}

	var exists bool

	if err := conn(ctx, r.DB).QueryRowContext(dbCtx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check product existence: %w", err)
	}

	if !exists {
		return nil, sql.ErrNoRows
	}

	return nil, ErrInsufficientStock
}

func (r *productRepository) ReleaseStock(ctx context.Context, id uuid.UUID, quantity int) (*models.Product, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE products
		SET stock = stock + $2,
			status = CASE
				WHEN status = 'OUT_OF_STOCK' AND stock + $2 > 0 THEN 'ACTIVE'
				ELSE status
			END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns

	product, err := scanProduct(conn(ctx, r.DB).QueryRowContext(dbCtx, query, id, quantity))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		return nil, fmt.Errorf("failed to release stock: %w", err)
	}

	return product, nil
}
