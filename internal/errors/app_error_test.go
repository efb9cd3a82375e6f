package errors_test

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	appErrors "github.com/aaravmahajanofficial/ekommerce-marketplace/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name           string
		err            *appErrors.AppError
		expectedCode   string
		expectedStatus int
	}{
		{"Validation", appErrors.ValidationError("bad"), appErrors.ErrCodeValidation, http.StatusBadRequest},
		{"NotFound", appErrors.NotFoundError("missing"), appErrors.ErrCodeNotFound, http.StatusNotFound},
		{"InsufficientStock", appErrors.InsufficientStockError("short"), appErrors.ErrCodeInsufficientStock, http.StatusConflict},
		{"MixedSellerOrder", appErrors.MixedSellerOrderError("mixed"), appErrors.ErrCodeMixedSellerOrder, http.StatusUnprocessableEntity},
		{"NotOwner", appErrors.NotOwnerError("foreign line"), appErrors.ErrCodeNotOwner, http.StatusForbidden},
		{"Forbidden", appErrors.ForbiddenError("nope"), appErrors.ErrCodeForbidden, http.StatusForbidden},
		{"EmptyCart", appErrors.EmptyCartError("empty"), appErrors.ErrCodeEmptyCart, http.StatusUnprocessableEntity},
		{"InvalidTransition", appErrors.InvalidTransitionError("backwards"), appErrors.ErrCodeInvalidTransition, http.StatusConflict},
		{"Database", appErrors.DatabaseError("db"), appErrors.ErrCodeDatabaseError, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expectedCode, tc.err.Code)
			assert.Equal(t, tc.expectedStatus, tc.err.StatusCode)
		})
	}
}

func TestIsAppError(t *testing.T) {
	t.Run("Success - Wrapped AppError is found", func(t *testing.T) {
		// Arrange
		cause := stdErrors.New("row lock timeout")
		wrapped := fmt.Errorf("reserve failed: %w", appErrors.DatabaseError("Failed to reserve stock").WithError(cause))

		// Act
		appErr, ok := appErrors.IsAppError(wrapped)

		// Assert
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeDatabaseError, appErr.Code)
		assert.ErrorIs(t, wrapped, cause)
	})

	t.Run("Failure - Plain error", func(t *testing.T) {
		appErr, ok := appErrors.IsAppError(stdErrors.New("plain"))

		assert.False(t, ok)
		assert.Nil(t, appErr)
	})
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("context: %w", appErrors.EmptyCartError("Cart is empty"))

	assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeEmptyCart))
	assert.False(t, appErrors.HasCode(err, appErrors.ErrCodeNotFound))
	assert.False(t, appErrors.HasCode(nil, appErrors.ErrCodeNotFound))
}

func TestWithDetail(t *testing.T) {
	err := appErrors.AddValidationError("quantity", "must be at least 1").WithDetail("quantity=0")

	assert.Equal(t, "Invalid field 'quantity': must be at least 1", err.Error())
	assert.Equal(t, "quantity=0", err.Detail)
}
