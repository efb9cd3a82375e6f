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
)

type CartRepository interface {
	// EnsureCart creates an empty cart for owner unless one already exists.
	EnsureCart(ctx context.Context, owner models.CartOwner) error
	// LockCartByOwner loads the owner's cart and its lines, holding a row
	// lock on the cart until the surrounding transaction ends.
	LockCartByOwner(ctx context.Context, owner models.CartOwner) (*models.Cart, error)
	DeleteCart(ctx context.Context, cartID uuid.UUID) error
	TouchCart(ctx context.Context, cartID uuid.UUID) (time.Time, error)
	GetLine(ctx context.Context, lineID uuid.UUID) (*models.CartLine, error)
	AddLine(ctx context.Context, line *models.CartLine) error
	UpdateLineQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error
	MoveLine(ctx context.Context, lineID, toCartID uuid.UUID) error
	DeleteLine(ctx context.Context, lineID uuid.UUID) error
	ClearLines(ctx context.Context, cartID uuid.UUID) error
}

type cartRepository struct {
	DB *sql.DB
}

func NewCartRepo(db *sql.DB) CartRepository {
	return &cartRepository{DB: db}
}

func ownerColumn(owner models.CartOwner) (string, any) {
	if userID, ok := owner.UserID(); ok {
		return "user_id", userID
	}

	sessionID, _ := owner.SessionID()

	return "session_id", sessionID
}

func (r *cartRepository) EnsureCart(ctx context.Context, owner models.CartOwner) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	column, value := ownerColumn(owner)

	query := `INSERT INTO carts (` + column + `) VALUES ($1) ON CONFLICT (` + column + `) DO NOTHING`

	if _, err := conn(ctx, r.DB).ExecContext(dbCtx, query, value); err != nil {
		return fmt.Errorf("failed to create cart: %w", err)
	}

	return nil
}

func (r *cartRepository) LockCartByOwner(ctx context.Context, owner models.CartOwner) (*models.Cart, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	db := conn(ctx, r.DB)
	column, value := ownerColumn(owner)

	query := `SELECT id, created_at, updated_at FROM carts WHERE ` + column + ` = $1 FOR UPDATE`

	cart := &models.Cart{Owner: owner}

	err := db.QueryRowContext(dbCtx, query, value).Scan(&cart.ID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	linesQuery := `
		SELECT id, cart_id, product_id, quantity, unit_price, created_at
		FROM cart_lines
		WHERE cart_id = $1
		ORDER BY seq
	`

	rows, err := db.QueryContext(dbCtx, linesQuery, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart lines: %w", err)
	}
	defer rows.Close()

	cart.Lines = []models.CartLine{}

	for rows.Next() {
		var line models.CartLine

		if err := rows.Scan(&line.ID, &line.CartID, &line.ProductID, &line.Quantity, &line.UnitPrice, &line.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}

		cart.Lines = append(cart.Lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cart lines: %w", err)
	}

	return cart, nil
}

func (r *cartRepository) DeleteCart(ctx context.Context, cartID uuid.UUID) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := conn(ctx, r.DB).ExecContext(dbCtx, `DELETE FROM carts WHERE id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	return expectAffected(result)
}

func (r *cartRepository) TouchCart(ctx context.Context, cartID uuid.UUID) (time.Time, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var updatedAt time.Time

	err := conn(ctx, r.DB).QueryRowContext(dbCtx, `UPDATE carts SET updated_at = NOW() WHERE id = $1 RETURNING updated_at`, cartID).Scan(&updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, err
		}

		return time.Time{}, fmt.Errorf("failed to update cart: %w", err)
	}

	return updatedAt, nil
}

func (r *cartRepository) GetLine(ctx context.Context, lineID uuid.UUID) (*models.CartLine, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, cart_id, product_id, quantity, unit_price, created_at
		FROM cart_lines
		WHERE id = $1
	`

	line := &models.CartLine{}

	err := conn(ctx, r.DB).QueryRowContext(dbCtx, query, lineID).Scan(&line.ID, &line.CartID, &line.ProductID, &line.Quantity, &line.UnitPrice, &line.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		return nil, fmt.Errorf("failed to get cart line: %w", err)
	}

	return line, nil
}

func (r *cartRepository) AddLine(ctx context.Context, line *models.CartLine) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO cart_lines (cart_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := conn(ctx, r.DB).QueryRowContext(dbCtx, query, line.CartID, line.ProductID, line.Quantity, line.UnitPrice).Scan(&line.ID, &line.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert cart line: %w", err)
	}

	return nil
}

func (r *cartRepository) UpdateLineQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := conn(ctx, r.DB).ExecContext(dbCtx, `UPDATE cart_lines SET quantity = $1 WHERE id = $2`, quantity, lineID)
	if err != nil {
		return fmt.Errorf("failed to update cart line: %w", err)
	}

	return expectAffected(result)
}

// MoveLine reassigns a line to another cart. The line takes a fresh seq so
// it sorts after the lines the target cart already holds.
func (r *cartRepository) MoveLine(ctx context.Context, lineID, toCartID uuid.UUID) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `UPDATE cart_lines SET cart_id = $1, seq = nextval(pg_get_serial_sequence('cart_lines', 'seq')) WHERE id = $2`

	result, err := conn(ctx, r.DB).ExecContext(dbCtx, query, toCartID, lineID)
	if err != nil {
		return fmt.Errorf("failed to move cart line: %w", err)
	}

	return expectAffected(result)
}

func (r *cartRepository) DeleteLine(ctx context.Context, lineID uuid.UUID) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := conn(ctx, r.DB).ExecContext(dbCtx, `DELETE FROM cart_lines WHERE id = $1`, lineID)
	if err != nil {
		return fmt.Errorf("failed to delete cart line: %w", err)
	}

	return expectAffected(result)
}

// ClearLines succeeds on an already empty cart.
func (r *cartRepository) ClearLines(ctx context.Context, cartID uuid.UUID) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	if _, err := conn(ctx, r.DB).ExecContext(dbCtx, `DELETE FROM cart_lines WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return nil
}

func expectAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
