package service_test

import (
	"database/sql"
	"errors"
	"testing"

	appErrors "github.com/aaravmahajanofficial/ekommerce-marketplace/internal/errors"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/metrics"
	repository "github.com/aaravmahajanofficial/ekommerce-marketplace/internal/repositories"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/repositories/mocks"
	service "github.com/aaravmahajanofficial/ekommerce-marketplace/internal/services"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestInventoryLedger_Reserve(t *testing.T) {
	t.Run("Success - Stock decremented", func(t *testing.T) {
		// Arrange
		repo := mocks.NewProductRepository(t)
		ledger := service.NewInventoryLedger(repo)
		product := newProduct(7, "10.00")
		before := testutil.ToFloat64(metrics.StockReservations.WithLabelValues(metrics.OutcomeReserved))

		repo.On("ReserveStock", mock.Anything, product.ID, 3).Return(product, nil).Once()

		// Act
		got, err := ledger.Reserve(t.Context(), product.ID, 3)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, product, got)
		assert.Equal(t, before+1, testutil.ToFloat64(metrics.StockReservations.WithLabelValues(metrics.OutcomeReserved)))
	})

	tests := []struct {
		name      string
		repoErr   error
		errorCode string
	}{
		{name: "Failure - Insufficient stock", repoErr: repository.ErrInsufficientStock, errorCode: appErrors.ErrCodeInsufficientStock},
		{name: "Failure - Unknown product", repoErr: sql.ErrNoRows, errorCode: appErrors.ErrCodeNotFound},
		{name: "Failure - Database error", repoErr: errors.New("deadlock detected"), errorCode: appErrors.ErrCodeDatabaseError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			repo := mocks.NewProductRepository(t)
			ledger := service.NewInventoryLedger(repo)
			id := uuid.New()

			repo.On("ReserveStock", mock.Anything, id, 2).Return(nil, tc.repoErr).Once()

			// Act
			got, err := ledger.Reserve(t.Context(), id, 2)

			// Assert
			assert.Nil(t, got)
			assertAppErrorCode(t, err, tc.errorCode)
		})
	}

	t.Run("Failure - Non positive quantity", func(t *testing.T) {
		// Arrange
		repo := mocks.NewProductRepository(t)
		ledger := service.NewInventoryLedger(repo)

		// Act
		_, err := ledger.Reserve(t.Context(), uuid.New(), 0)

		// Assert
		assertAppErrorCode(t, err, appErrors.ErrCodeValidation)
		repo.AssertNotCalled(t, "ReserveStock", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestInventoryLedger_Release(t *testing.T) {
	t.Run("Success - Units counted", func(t *testing.T) {
		// Arrange
		repo := mocks.NewProductRepository(t)
		ledger := service.NewInventoryLedger(repo)
		product := newProduct(5, "10.00")
		before := testutil.ToFloat64(metrics.StockReleasedUnits)

		repo.On("ReleaseStock", mock.Anything, product.ID, 4).Return(product, nil).Once()

		// Act
		got, err := ledger.Release(t.Context(), product.ID, 4)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 5, got.Stock)
		assert.Equal(t, before+4, testutil.ToFloat64(metrics.StockReleasedUnits))
	})

	t.Run("Failure - Product deleted", func(t *testing.T) {
		// Arrange
		repo := mocks.NewProductRepository(t)
		ledger := service.NewInventoryLedger(repo)
		id := uuid.New()

		repo.On("ReleaseStock", mock.Anything, id, 1).Return(nil, sql.ErrNoRows).Once()

		// Act
		_, err := ledger.Release(t.Context(), id, 1)

		// Assert
		assertAppErrorCode(t, err, appErrors.ErrCodeNotFound)
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("Failure - Negative quantity", func(t *testing.T) {
		// Arrange
		repo := mocks.NewProductRepository(t)
		ledger := service.NewInventoryLedger(repo)

		// Act
		_, err := ledger.Release(t.Context(), uuid.New(), -2)

		// Assert
		assertAppErrorCode(t, err, appErrors.ErrCodeValidation)
	})
}
