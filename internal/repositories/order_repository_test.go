package repository_test

import (
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/models"
	repository "github.com/aaravmahajanofficial/ekommerce-marketplace/internal/repositories"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	orderRowColumns     = []string{"id", "buyer_id", "seller_id", "total_amount", "status", "shipping_status", "shipping_address", "payment_method", "tracking_number", "created_at", "updated_at"}
	orderLineRowColumns = []string{"id", "order_id", "product_id", "seller_id", "quantity", "unit_price", "created_at"}
)

func addOrderRow(rows *sqlmock.Rows, o *models.Order) *sqlmock.Rows {
	return rows.AddRow(o.ID.String(), o.BuyerID.String(), o.SellerID.String(), o.TotalAmount.StringFixed(2), string(o.Status),
		string(o.ShippingStatus), o.ShippingAddress, string(o.PaymentMethod), o.TrackingNumber, o.CreatedAt, o.UpdatedAt)
}

func sampleOrder(now time.Time) *models.Order {
	return &models.Order{
		ID:              uuid.New(),
		BuyerID:         uuid.New(),
		SellerID:        uuid.New(),
		TotalAmount:     decimal.RequireFromString("30.00"),
		Status:          models.OrderStatusPending,
		ShippingStatus:  models.ShippingStatusPreparing,
		ShippingAddress: "1 Main St",
		PaymentMethod:   models.PaymentMethodCard,
		TrackingNumber:  "TRK1700000000000ABCDEF12",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func setupOrderRepoTest(t *testing.T) (repository.OrderRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err, "Failed to create sqlmock")

	t.Cleanup(func() {
		db.Close()
	})

	return repository.NewOrderRepo(db), mock
}

func TestOrderRepository(t *testing.T) {
	now := time.Now()
	linesQuery := regexp.QuoteMeta(`FROM order_lines WHERE order_id = ANY($1::uuid[]) ORDER BY seq`)

	t.Run("CreateOrder", func(t *testing.T) {
		t.Run("Success - Inserts the order and each line", func(t *testing.T) {
			// Arrange
			repo, mock := setupOrderRepoTest(t)
			order := sampleOrder(time.Time{})
			order.Lines = []models.OrderLine{
				{ID: uuid.New(), ProductID: uuid.New(), SellerID: order.SellerID, Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
				{ID: uuid.New(), ProductID: uuid.New(), SellerID: order.SellerID, Quantity: 1, UnitPrice: decimal.RequireFromString("10.00")},
			}

			mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO orders`)).
				WithArgs(order.ID, order.BuyerID, order.SellerID, order.TotalAmount, order.Status, order.ShippingStatus,
					order.ShippingAddress, order.PaymentMethod, order.TrackingNumber).
				WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

			for _, line := range order.Lines {
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO order_lines`)).
					WithArgs(line.ID, order.ID, line.ProductID, line.SellerID, line.Quantity, line.UnitPrice).
					WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))
			}

			// Act
			err := repo.CreateOrder(t.Context(), order)

			// Assert
			require.NoError(t, err)
			assert.WithinDuration(t, now, order.CreatedAt, time.Second)
			assert.WithinDuration(t, now, order.Lines[1].CreatedAt, time.Second)
			require.NoError(t, mock.ExpectationsWereMet())
		})

		t.Run("Failure - Line insert error", func(t *testing.T) {
			// Arrange
			repo, mock := setupOrderRepoTest(t)
			order := sampleOrder(time.Time{})
			order.Lines = []models.OrderLine{{ID: uuid.New(), ProductID: uuid.New(), SellerID: order.SellerID, Quantity: 1, UnitPrice: decimal.NewFromInt(30)}}
			dbErr := errors.New("fk violation")

			mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO orders`)).
				WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
			mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO order_lines`)).WillReturnError(dbErr)

			// Act
			err := repo.CreateOrder(t.Context(), order)

			// Assert
			assert.ErrorIs(t, err, dbErr)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	})

	t.Run("GetOrderByID", func(t *testing.T) {
		t.Run("Success - Attaches lines", func(t *testing.T) {
			// Arrange
			repo, mock := setupOrderRepoTest(t)
			order := sampleOrder(now)
			productID := uuid.New()

			mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE id = $1`)).
				WithArgs(order.ID).
				WillReturnRows(addOrderRow(sqlmock.NewRows(orderRowColumns), order))
			mock.ExpectQuery(linesQuery).
				WithArgs(sqlmock.AnyArg()).
				WillReturnRows(sqlmock.NewRows(orderLineRowColumns).
					AddRow(uuid.NewString(), order.ID.String(), productID.String(), order.SellerID.String(), 3, "10.00", now))

			// Act
			got, err := repo.GetOrderByID(t.Context(), order.ID)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, order.ID, got.ID)
			assert.Equal(t, models.OrderStatusPending, got.Status)
			assert.Equal(t, models.ShippingStatusPreparing, got.ShippingStatus)
			require.Len(t, got.Lines, 1)
			assert.Equal(t, productID, got.Lines[0].ProductID)
			assert.Equal(t, 3, got.Lines[0].Quantity)
			require.NoError(t, mock.ExpectationsWereMet())
		})

		t.Run("Failure - Not found", func(t *testing.T) {
			// Arrange
			repo, mock := setupOrderRepoTest(t)
			id := uuid.New()

			mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE id = $1`)).WithArgs(id).WillReturnError(sql.ErrNoRows)

			// Act
			got, err := repo.GetOrderByID(t.Context(), id)

			// Assert
			assert.Nil(t, got)
			assert.ErrorIs(t, err, sql.ErrNoRows)
		})
	})

	t.Run("LockOrderByID", func(t *testing.T) {
		t.Run("Success - Selects for update", func(t *testing.T) {
			// Arrange
			repo, mock := setupOrderRepoTest(t)
			order := sampleOrder(now)

			mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE id = $1 FOR UPDATE`)).
				WithArgs(order.ID).
				WillReturnRows(addOrderRow(sqlmock.NewRows(orderRowColumns), order))
			mock.ExpectQuery(linesQuery).
				WithArgs(sqlmock.AnyArg()).
				WillReturnRows(sqlmock.NewRows(orderLineRowColumns))

			// Act
			got, err := repo.LockOrderByID(t.Context(), order.ID)

			// Assert
			require.NoError(t, err)
			assert.Empty(t, got.Lines)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	})

	t.Run("UpdateOrderState", func(t *testing.T) {
		query := regexp.QuoteMeta(`UPDATE orders SET status = $1, shipping_status = $2, updated_at = NOW() WHERE id = $3`)

		t.Run("Success", func(t *testing.T) {
			// Arrange
			repo, mock := setupOrderRepoTest(t)
			id := uuid.New()

			mock.ExpectQuery(query).
				WithArgs(models.OrderStatusShipped, models.ShippingStatusShipped, id).
				WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))

			// Act
			updatedAt, err := repo.UpdateOrderState(t.Context(), id, models.OrderStatusShipped, models.ShippingStatusShipped)

			// Assert
			require.NoError(t, err)
			assert.WithinDuration(t, now, updatedAt, time.Second)
		})

		t.Run("Failure - Not found", func(t *testing.T) {
			// Arrange
			repo, mock := setupOrderRepoTest(t)
			id := uuid.New()

			mock.ExpectQuery(query).WillReturnError(sql.ErrNoRows)

			// Act
			_, err := repo.UpdateOrderState(t.Context(), id, models.OrderStatusShipped, models.ShippingStatusShipped)

			// Assert
			assert.ErrorIs(t, err, sql.ErrNoRows)
		})
	})

	t.Run("ListOrdersByBuyer", func(t *testing.T) {
		t.Run("Success - Newest first with lines", func(t *testing.T) {
			// Arrange
			repo, mock := setupOrderRepoTest(t)
			newer := sampleOrder(now)
			older := sampleOrder(now.Add(-time.Hour))
			older.BuyerID = newer.BuyerID

			mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM orders WHERE buyer_id = $1`)).
				WithArgs(newer.BuyerID).
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
			mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE buyer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`)).
				WithArgs(newer.BuyerID, 10, 0).
				WillReturnRows(addOrderRow(addOrderRow(sqlmock.NewRows(orderRowColumns), newer), older))
			mock.ExpectQuery(linesQuery).
				WithArgs(sqlmock.AnyArg()).
				WillReturnRows(sqlmock.NewRows(orderLineRowColumns).
					AddRow(uuid.NewString(), older.ID.String(), uuid.NewString(), older.SellerID.String(), 1, "30.00", now).
					AddRow(uuid.NewString(), newer.ID.String(), uuid.NewString(), newer.SellerID.String(), 3, "10.00", now))

			// Act
			orders, total, err := repo.ListOrdersByBuyer(t.Context(), newer.BuyerID, 1, 10)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, 2, total)
			require.Len(t, orders, 2)
			assert.Equal(t, newer.ID, orders[0].ID)
			require.Len(t, orders[0].Lines, 1)
			assert.Equal(t, 3, orders[0].Lines[0].Quantity)
			require.Len(t, orders[1].Lines, 1)
			require.NoError(t, mock.ExpectationsWereMet())
		})

		t.Run("Success - No orders skips the line query", func(t *testing.T) {
			// Arrange
			repo, mock := setupOrderRepoTest(t)
			buyerID := uuid.New()

			mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM orders WHERE buyer_id = $1`)).
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
			mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE buyer_id = $1 ORDER BY`)).
				WillReturnRows(sqlmock.NewRows(orderRowColumns))

			// Act
			orders, total, err := repo.ListOrdersByBuyer(t.Context(), buyerID, 1, 10)

			// Assert
			require.NoError(t, err)
			assert.Zero(t, total)
			assert.Empty(t, orders)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	})

	t.Run("ListOrdersBySeller", func(t *testing.T) {
		t.Run("Failure - Query error", func(t *testing.T) {
			// Arrange
			repo, mock := setupOrderRepoTest(t)
			sellerID := uuid.New()
			dbErr := errors.New("timeout")

			mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM orders WHERE seller_id = $1`)).
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
			mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE seller_id = $1 ORDER BY`)).
				WillReturnError(dbErr)

			// Act
			orders, _, err := repo.ListOrdersBySeller(t.Context(), sellerID, 1, 10)

			// Assert
			assert.Nil(t, orders)
			assert.ErrorIs(t, err, dbErr)
		})
	})
}
