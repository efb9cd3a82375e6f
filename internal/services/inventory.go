package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	appErrors "github.com/aaravmahajanofficial/ekommerce-marketplace/internal/errors"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/metrics"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/models"
	repository "github.com/aaravmahajanofficial/ekommerce-marketplace/internal/repositories"
	"github.com/google/uuid"
)

// InventoryLedger owns every stock mutation. Both operations are single
// conditional updates, so callers inside a transaction hold the product row
// lock until commit.
type InventoryLedger interface {
	Reserve(ctx context.Context, productID uuid.UUID, quantity int) (*models.Product, error)
	Release(ctx context.Context, productID uuid.UUID, quantity int) (*models.Product, error)
}

type inventoryLedger struct {
	productRepo repository.ProductRepository
}

func NewInventoryLedger(productRepo repository.ProductRepository) InventoryLedger {
	return &inventoryLedger{productRepo: productRepo}
}

func (l *inventoryLedger) Reserve(ctx context.Context, productID uuid.UUID, quantity int) (*models.Product, error) {
	if quantity < 1 {
		return nil, appErrors.ValidationError("Reserved quantity must be at least 1")
	}

	product, err := l.productRepo.ReserveStock(ctx, productID, quantity)
	switch {
	case err == nil:
		metrics.StockReservations.WithLabelValues(metrics.OutcomeReserved).Inc()
		return product, nil
	case errors.Is(err, repository.ErrInsufficientStock):
		metrics.StockReservations.WithLabelValues(metrics.OutcomeInsufficientStock).Inc()
		return nil, appErrors.InsufficientStockError(fmt.Sprintf("Not enough stock for product %s", productID))
	case errors.Is(err, sql.ErrNoRows):
		metrics.StockReservations.WithLabelValues(metrics.OutcomeNotFound).Inc()
		return nil, appErrors.NotFoundError(fmt.Sprintf("Product %s not found", productID))
	default:
		metrics.StockReservations.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, appErrors.DatabaseError("Failed to reserve stock").WithError(err)
	}
}

func (l *inventoryLedger) Release(ctx context.Context, productID uuid.UUID, quantity int) (*models.Product, error) {
	if quantity < 1 {
		return nil, appErrors.ValidationError("Released quantity must be at least 1")
	}

	product, err := l.productRepo.ReleaseStock(ctx, productID, quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError(fmt.Sprintf("Product %s not found", productID)).WithError(err)
		}

		return nil, appErrors.DatabaseError("Failed to release stock").WithError(err)
	}

	metrics.StockReleasedUnits.Add(float64(quantity))

	return product, nil
}
