package service_test

import (
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	appErrors "github.com/aaravmahajanofficial/ekommerce-marketplace/internal/errors"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/models"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/repositories/mocks"
	service "github.com/aaravmahajanofficial/ekommerce-marketplace/internal/services"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type cartFixture struct {
	tx          *mocks.Transactor
	cartRepo    *mocks.CartRepository
	productRepo *mocks.ProductRepository
	service     service.CartService
}

func setupCartService(t *testing.T) *cartFixture {
	t.Helper()

	f := &cartFixture{
		tx:          &mocks.Transactor{},
		cartRepo:    mocks.NewCartRepository(t),
		productRepo: mocks.NewProductRepository(t),
	}
	f.service = service.NewCartService(f.tx, f.cartRepo, f.productRepo)

	return f
}

func newCart(owner models.CartOwner, lines ...models.CartLine) *models.Cart {
	cart := &models.Cart{ID: uuid.New(), Owner: owner, Lines: []models.CartLine{}}
	for _, line := range lines {
		line.CartID = cart.ID
		cart.Lines = append(cart.Lines, line)
	}

	return cart
}

func newLine(productID uuid.UUID, quantity int, price string) models.CartLine {
	return models.CartLine{
		ID:        uuid.New(),
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: decimal.RequireFromString(price),
	}
}

func newProduct(stock int, price string) *models.Product {
	return &models.Product{
		ID:       uuid.New(),
		SellerID: uuid.New(),
		Name:     "Mechanical Keyboard",
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		Status:   models.AvailabilityFor(models.ProductStatusActive, stock),
	}
}

func (f *cartFixture) expectLocked(cart *models.Cart) {
	f.cartRepo.On("EnsureCart", mock.Anything, cart.Owner).Return(nil).Once()
	f.cartRepo.On("LockCartByOwner", mock.Anything, cart.Owner).Return(cart, nil).Once()
}

func (f *cartFixture) expectTouched(cart *models.Cart) time.Time {
	touched := time.Now()
	f.cartRepo.On("TouchCart", mock.Anything, cart.ID).Return(touched, nil).Once()

	return touched
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()

	appErr, ok := appErrors.IsAppError(err)
	require.True(t, ok, "expected an AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func TestCartGetOrCreate(t *testing.T) {
	t.Run("Success - Anonymous session gets its own cart", func(t *testing.T) {
		// Arrange
		f := setupCartService(t)
		cart := newCart(models.AnonymousOwner("sess-1"))
		f.expectLocked(cart)

		// Act
		got, err := f.service.GetOrCreate(t.Context(), models.CartIdentity{SessionID: "sess-1"})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, cart.ID, got.ID)
		assert.True(t, got.IsEmpty())
		assert.Equal(t, 1, f.tx.Calls)
		assert.True(t, f.tx.Committed)
	})

	t.Run("Success - Login merges session cart and sums shared products", func(t *testing.T) {
		// Arrange
		f := setupCartService(t)
		userID := uuid.New()
		shared, onlyGuest := uuid.New(), uuid.New()

		userCart := newCart(models.UserOwner(userID), newLine(shared, 2, "10.00"))
		guestCart := newCart(models.AnonymousOwner("sess-1"), newLine(shared, 3, "9.00"), newLine(onlyGuest, 1, "4.00"))
		movedLineID := guestCart.Lines[1].ID

		f.expectLocked(userCart)
		f.cartRepo.On("LockCartByOwner", mock.Anything, guestCart.Owner).Return(guestCart, nil).Once()
		f.cartRepo.On("UpdateLineQuantity", mock.Anything, userCart.Lines[0].ID, 5).Return(nil).Once()
		f.cartRepo.On("MoveLine", mock.Anything, movedLineID, userCart.ID).Return(nil).Once()
		f.cartRepo.On("DeleteCart", mock.Anything, guestCart.ID).Return(nil).Once()
		touched := f.expectTouched(userCart)

		// Act
		got, err := f.service.GetOrCreate(t.Context(), models.CartIdentity{UserID: userID, SessionID: "sess-1"})

		// Assert
		require.NoError(t, err)
		require.Len(t, got.Lines, 2)

		line, ok := got.LineForProduct(shared)
		require.True(t, ok)
		assert.Equal(t, 5, line.Quantity)
		assert.True(t, decimal.RequireFromString("10.00").Equal(line.UnitPrice), "user line keeps its price")

		moved, ok := got.LineForProduct(onlyGuest)
		require.True(t, ok)
		assert.Equal(t, userCart.ID, moved.CartID)
		assert.Equal(t, 6, got.TotalQuantity())
		assert.Equal(t, touched, got.UpdatedAt)
	})

	t.Run("Success - Login without a session cart skips the merge", func(t *testing.T) {
		// Arrange
		f := setupCartService(t)
		userID := uuid.New()
		userCart := newCart(models.UserOwner(userID))

		f.expectLocked(userCart)
		f.cartRepo.On("LockCartByOwner", mock.Anything, models.AnonymousOwner("sess-2")).Return(nil, sql.ErrNoRows).Once()

		// Act
		got, err := f.service.GetOrCreate(t.Context(), models.CartIdentity{UserID: userID, SessionID: "sess-2"})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, userCart.ID, got.ID)
		f.cartRepo.AssertNotCalled(t, "DeleteCart", mock.Anything, mock.Anything)
	})

	t.Run("Failure - Merge rolls back on database error", func(t *testing.T) {
		// Arrange
		f := setupCartService(t)
		userID := uuid.New()
		userCart := newCart(models.UserOwner(userID))
		guestCart := newCart(models.AnonymousOwner("sess-1"), newLine(uuid.New(), 1, "1.00"))
		dbErr := errors.New("connection reset")

		f.expectLocked(userCart)
		f.cartRepo.On("LockCartByOwner", mock.Anything, guestCart.Owner).Return(guestCart, nil).Once()
		f.cartRepo.On("MoveLine", mock.Anything, guestCart.Lines[0].ID, userCart.ID).Return(dbErr).Once()

		// Act
		got, err := f.service.GetOrCreate(t.Context(), models.CartIdentity{UserID: userID, SessionID: "sess-1"})

		// Assert
		assert.Nil(t, got)
		assertAppErrorCode(t, err, appErrors.ErrCodeDatabaseError)
		assert.ErrorIs(t, err, dbErr)
		assert.False(t, f.tx.Committed)
	})

	t.Run("Failure - No identity", func(t *testing.T) {
		// Arrange
		f := setupCartService(t)

		// Act
		got, err := f.service.GetOrCreate(t.Context(), models.CartIdentity{})

		// Assert
		assert.Nil(t, got)
		assertAppErrorCode(t, err, appErrors.ErrCodeValidation)
	})

	t.Run("Failure - Oversized session id is rejected before storage", func(t *testing.T) {
		for _, identity := range []models.CartIdentity{
			{SessionID: strings.Repeat("s", models.MaxSessionIDLength+1)},
			{UserID: uuid.New(), SessionID: strings.Repeat("s", models.MaxSessionIDLength+1)},
		} {
			// Arrange
			f := setupCartService(t)

			// Act
			got, err := f.service.GetOrCreate(t.Context(), identity)

			// Assert
			assert.Nil(t, got)
			assertAppErrorCode(t, err, appErrors.ErrCodeValidation)
			f.cartRepo.AssertNotCalled(t, "EnsureCart", mock.Anything, mock.Anything)
		}
	})
}

func TestCartAddLine(t *testing.T) {
	identity := models.CartIdentity{SessionID: "sess-1"}

	t.Run("Success - New line captures current price", func(t *testing.T) {
		// Arrange
		f := setupCartService(t)
		cart := newCart(models.AnonymousOwner("sess-1"))
		product := newProduct(10, "19.99")

		f.expectLocked(cart)
		f.productRepo.On("GetProductByID", mock.Anything, product.ID).Return(product, nil).Once()
		f.cartRepo.On("AddLine", mock.Anything, mock.MatchedBy(func(line *models.CartLine) bool {
			return line.CartID == cart.ID && line.ProductID == product.ID && line.Quantity == 2 && line.UnitPrice.Equal(product.Price)
		})).Return(nil).Once()
		f.expectTouched(cart)

		// Act
		got, err := f.service.AddLine(t.Context(), identity, &models.AddCartLineRequest{ProductID: product.ID, Quantity: 2})

		// Assert
		require.NoError(t, err)
		require.Len(t, got.Lines, 1)
		assert.True(t, decimal.RequireFromString("39.98").Equal(got.TotalAmount()))
	})

	t.Run("Success - Existing product increments its line", func(t *testing.T) {
		// Arrange
		f := setupCartService(t)
		product := newProduct(10, "5.00")
		cart := newCart(models.AnonymousOwner("sess-1"), newLine(product.ID, 3, "4.50"))

		f.expectLocked(cart)
		f.productRepo.On("GetProductByID", mock.Anything, product.ID).Return(product, nil).Once()
		f.cartRepo.On("UpdateLineQuantity", mock.Anything, cart.Lines[0].ID, 7).Return(nil).Once()
		f.expectTouched(cart)

		// Act
		got, err := f.service.AddLine(t.Context(), identity, &models.AddCartLineRequest{ProductID: product.ID, Quantity: 4})

		// Assert
		require.NoError(t, err)
		require.Len(t, got.Lines, 1)
		assert.Equal(t, 7, got.Lines[0].Quantity)
		assert.True(t, decimal.RequireFromString("4.50").Equal(got.Lines[0].UnitPrice))
	})

	t.Run("Failure - Combined quantity exceeds stock", func(t *testing.T) {
		// Arrange
		f := setupCartService(t)
		product := newProduct(5, "5.00")
		cart := newCart(models.AnonymousOwner("sess-1"), newLine(product.ID, 4, "5.00"))

		f.expectLocked(cart)
		f.productRepo.On("GetProductByID", mock.Anything, product.ID).Return(product, nil).Once()

		// Act
		got, err := f.service.AddLine(t.Context(), identity, &models.AddCartLineRequest{ProductID: product.ID, Quantity: 2})

		// Assert
		assert.Nil(t, got)
		assertAppErrorCode(t, err, appErrors.ErrCodeInsufficientStock)
		assert.False(t, f.tx.Committed)
	})

	t.Run("Failure - Product not found", func(t *testing.T) {
		// Arrange
		f := setupCartService(t)
		cart := newCart(models.AnonymousOwner("sess-1"))
		productID := uuid.New()

		f.expectLocked(cart)
		f.productRepo.On("GetProductByID", mock.Anything, productID).Return(nil, sql.ErrNoRows).Once()

		// Act
		_, err := f.service.AddLine(t.Context(), identity, &models.AddCartLineRequest{ProductID: productID, Quantity: 1})

		// Assert
		assertAppErrorCode(t, err, appErrors.ErrCodeNotFound)
	})

	t.Run("Failure - Quantity below one", func(t *testing.T) {
		// Arrange
		f := setupCartService(t)

		// Act
		_, err := f.service.AddLine(t.Context(), identity, &models.AddCartLineRequest{ProductID: uuid.New(), Quantity: 0})

		// Assert
		assertAppErrorCode(t, err, appErrors.ErrCodeValidation)
		assert.Equal(t, 0, f.tx.Calls)
	})
}

func TestCartUpdateLine(t *testing.T) {
	identity := models.CartIdentity{SessionID: "sess-1"}

	t.Run("Success - Sets quantity within stock", func(t *testing.T) {
		// Arrange
		f := setupCartService(t)
		product := newProduct(8, "2.00")
		cart := newCart(models.AnonymousOwner("sess-1"), newLine(product.ID, 1, "2.00"))
		line := cart.Lines[0]

		f.expectLocked(cart)
		f.cartRepo.On("GetLine", mock.Anything, line.ID).Return(&line, nil).Once()
		f.productRepo.On("GetProductByID", mock.Anything, product.ID).Return(product, nil).Once()
		f.cartRepo.On("UpdateLineQuantity", mock.Anything, line.ID, 8).Return(nil).Once()
		f.expectTouched(cart)

		// Act
		got, err := f.service.UpdateLine(t.Context(), identity, line.ID, 8)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 8, got.Lines[0].Quantity)
	})

	t.Run("Success - Zero removes the line", func(t *testing.T) {
		// Arrange
		f := setupCartService(t)
		cart := newCart(models.AnonymousOwner("sess-1"), newLine(uuid.New(), 2, "2.00"))
		line := cart.Lines[0]

		f.expectLocked(cart)
		f.cartRepo.On("GetLine", mock.Anything, line.ID).Return(&line, nil).Once()
		f.cartRepo.On("DeleteLine", mock.Anything, line.ID).Return(nil).Once()
		f.expectTouched(cart)

		// Act
		got, err := f.service.UpdateLine(t.Context(), identity, line.ID, 0)

		// Assert
		require.NoError(t, err)
		assert.True(t, got.IsEmpty())
	})

	t.Run("Failure - Line belongs to another cart", func(t *testing.T) {
		// Arrange
		f := setupCartService(t)
		cart := newCart(models.AnonymousOwner("sess-1"))
		foreign := newLine(uuid.New(), 1, "1.00")
		foreign.CartID = uuid.New()

		f.expectLocked(cart)
		f.cartRepo.On("GetLine", mock.Anything, foreign.ID).Return(&foreign, nil).Once()

		// Act
		_, err := f.service.UpdateLine(t.Context(), identity, foreign.ID, 3)

		// Assert
		assertAppErrorCode(t, err, appErrors.ErrCodeNotOwner)
	})

	t.Run("Failure - Quantity exceeds stock", func(t *testing.T) {
		// Arrange
		f := setupCartService(t)
		product := newProduct(2, "2.00")
		cart := newCart(models.AnonymousOwner("sess-1"), newLine(product.ID, 1, "2.00"))
		line := cart.Lines[0]

		f.expectLocked(cart)
		f.cartRepo.On("GetLine", mock.Anything, line.ID).Return(&line, nil).Once()
		f.productRepo.On("GetProductByID", mock.Anything, product.ID).Return(product, nil).Once()

		// Act
		_, err := f.service.UpdateLine(t.Context(), identity, line.ID, 3)

		// Assert
		assertAppErrorCode(t, err, appErrors.ErrCodeInsufficientStock)
	})

	t.Run("Failure - Negative quantity", func(t *testing.T) {
		f := setupCartService(t)

		_, err := f.service.UpdateLine(t.Context(), identity, uuid.New(), -1)

		assertAppErrorCode(t, err, appErrors.ErrCodeValidation)
	})
}

func TestCartRemoveLine(t *testing.T) {
	t.Run("Failure - Line not found", func(t *testing.T) {
		// Arrange
		f := setupCartService(t)
		cart := newCart(models.AnonymousOwner("sess-1"))
		lineID := uuid.New()

		f.expectLocked(cart)
		f.cartRepo.On("GetLine", mock.Anything, lineID).Return(nil, sql.ErrNoRows).Once()

		// Act
		_, err := f.service.RemoveLine(t.Context(), models.CartIdentity{SessionID: "sess-1"}, lineID)

		// Assert
		assertAppErrorCode(t, err, appErrors.ErrCodeNotFound)
	})
}

func TestCartClear(t *testing.T) {
	t.Run("Success - Clearing twice is idempotent", func(t *testing.T) {
		// Arrange
		f := setupCartService(t)
		userID := uuid.New()
		identity := models.CartIdentity{UserID: userID}
		cart := newCart(models.UserOwner(userID), newLine(uuid.New(), 2, "3.00"))

		f.cartRepo.On("EnsureCart", mock.Anything, cart.Owner).Return(nil).Twice()
		f.cartRepo.On("LockCartByOwner", mock.Anything, cart.Owner).Return(cart, nil).Twice()
		f.cartRepo.On("ClearLines", mock.Anything, cart.ID).Return(nil).Twice()
		f.cartRepo.On("TouchCart", mock.Anything, cart.ID).Return(time.Now(), nil).Twice()

		// Act
		first, err := f.service.Clear(t.Context(), identity)
		require.NoError(t, err)
		second, err := f.service.Clear(t.Context(), identity)

		// Assert
		require.NoError(t, err)
		assert.True(t, first.IsEmpty())
		assert.True(t, second.IsEmpty())
		assert.Equal(t, 2, f.tx.Calls)
	})
}
