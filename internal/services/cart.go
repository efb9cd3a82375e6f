package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/api/middleware"
	appErrors "github.com/aaravmahajanofficial/ekommerce-marketplace/internal/errors"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/metrics"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/models"
	repository "github.com/aaravmahajanofficial/ekommerce-marketplace/internal/repositories"
	"github.com/google/uuid"
)

type CartService interface {
	// GetOrCreate resolves the cart of identity, creating it when missing.
	// An authenticated identity that also carries a session id absorbs the
	// session cart, which is then deleted.
	GetOrCreate(ctx context.Context, identity models.CartIdentity) (*models.Cart, error)
	AddLine(ctx context.Context, identity models.CartIdentity, req *models.AddCartLineRequest) (*models.Cart, error)
	UpdateLine(ctx context.Context, identity models.CartIdentity, lineID uuid.UUID, quantity int) (*models.Cart, error)
	RemoveLine(ctx context.Context, identity models.CartIdentity, lineID uuid.UUID) (*models.Cart, error)
	Clear(ctx context.Context, identity models.CartIdentity) (*models.Cart, error)
}

type cartService struct {
	tx          repository.Transactor
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(tx repository.Transactor, cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{tx: tx, cartRepo: cartRepo, productRepo: productRepo}
}

func (s *cartService) GetOrCreate(ctx context.Context, identity models.CartIdentity) (*models.Cart, error) {
	var cart *models.Cart

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		cart, err = s.lockCart(ctx, identity)

		return err
	})
	if err != nil {
		return nil, err
	}

	return cart, nil
}

// lockCart must run inside a transaction; the returned cart stays locked
// until it ends.
func (s *cartService) lockCart(ctx context.Context, identity models.CartIdentity) (*models.Cart, error) {
	if len(identity.SessionID) > models.MaxSessionIDLength {
		return nil, appErrors.AddValidationError("X-Session-ID", fmt.Sprintf("must be at most %d characters", models.MaxSessionIDLength))
	}

	switch {
	case identity.IsAuthenticated():
		cart, err := s.ensureAndLock(ctx, models.UserOwner(identity.UserID))
		if err != nil {
			return nil, err
		}

		if identity.SessionID != "" {
			if err := s.mergeSession(ctx, cart, identity.SessionID); err != nil {
				return nil, err
			}
		}

		return cart, nil
	case identity.SessionID != "":
		return s.ensureAndLock(ctx, models.AnonymousOwner(identity.SessionID))
	default:
		return nil, appErrors.ValidationError("A signed in user or a session id is required to use a cart")
	}
}

func (s *cartService) ensureAndLock(ctx context.Context, owner models.CartOwner) (*models.Cart, error) {
	if err := s.cartRepo.EnsureCart(ctx, owner); err != nil {
		return nil, appErrors.DatabaseError("Failed to create cart").WithError(err)
	}

	cart, err := s.cartRepo.LockCartByOwner(ctx, owner)
	if err != nil {
		return nil, appErrors.DatabaseError("Failed to load cart").WithError(err)
	}

	return cart, nil
}

// mergeSession folds the session cart into target. target is already locked;
// the session cart is locked second, which is the order every merge uses.
// Quantities of shared products are summed without a stock check.
func (s *cartService) mergeSession(ctx context.Context, target *models.Cart, sessionID string) error {
	session, err := s.cartRepo.LockCartByOwner(ctx, models.AnonymousOwner(sessionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}

		return appErrors.DatabaseError("Failed to load session cart").WithError(err)
	}

	for _, line := range session.Lines {
		if existing, ok := target.LineForProduct(line.ProductID); ok {
			quantity := existing.Quantity + line.Quantity
			if err := s.cartRepo.UpdateLineQuantity(ctx, existing.ID, quantity); err != nil {
				return appErrors.DatabaseError("Failed to merge cart line").WithError(err)
			}

			existing.Quantity = quantity

			continue
		}

		if err := s.cartRepo.MoveLine(ctx, line.ID, target.ID); err != nil {
			return appErrors.DatabaseError("Failed to merge cart line").WithError(err)
		}

		line.CartID = target.ID
		target.Lines = append(target.Lines, line)
	}

	if err := s.cartRepo.DeleteCart(ctx, session.ID); err != nil {
		return appErrors.DatabaseError("Failed to remove merged session cart").WithError(err)
	}

	if err := s.touch(ctx, target); err != nil {
		return err
	}

	metrics.CartMerges.Inc()
	middleware.LoggerFromContext(ctx).Info("Merged session cart",
		slog.String("cartId", target.ID.String()),
		slog.Int("mergedLines", len(session.Lines)),
	)

	return nil
}

func (s *cartService) touch(ctx context.Context, cart *models.Cart) error {
	updatedAt, err := s.cartRepo.TouchCart(ctx, cart.ID)
	if err != nil {
		return appErrors.DatabaseError("Failed to update cart").WithError(err)
	}

	cart.UpdatedAt = updatedAt

	return nil
}

func (s *cartService) getProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError(fmt.Sprintf("Product %s not found", productID))
		}

		return nil, appErrors.DatabaseError("Failed to get product").WithError(err)
	}

	return product, nil
}

// mutate runs fn against the locked cart of identity in one transaction.
func (s *cartService) mutate(ctx context.Context, identity models.CartIdentity, fn func(ctx context.Context, cart *models.Cart) error) (*models.Cart, error) {
	var cart *models.Cart

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error

		cart, err = s.lockCart(ctx, identity)
		if err != nil {
			return err
		}

		if err := fn(ctx, cart); err != nil {
			return err
		}

		return s.touch(ctx, cart)
	})
	if err != nil {
		return nil, err
	}

	return cart, nil
}

// AddLine captures the product's current price on a new line. Adding a
// product already in the cart increments that line and keeps its price.
func (s *cartService) AddLine(ctx context.Context, identity models.CartIdentity, req *models.AddCartLineRequest) (*models.Cart, error) {
	if req.Quantity < 1 {
		return nil, appErrors.ValidationError("Quantity must be at least 1")
	}

	return s.mutate(ctx, identity, func(ctx context.Context, cart *models.Cart) error {
		product, err := s.getProduct(ctx, req.ProductID)
		if err != nil {
			return err
		}

		existing, found := cart.LineForProduct(product.ID)

		requested := req.Quantity
		if found {
			requested += existing.Quantity
		}

		if requested > product.Stock {
			return appErrors.InsufficientStockError(
				fmt.Sprintf("Only %d units of product %s are available", product.Stock, product.ID))
		}

		if found {
			if err := s.cartRepo.UpdateLineQuantity(ctx, existing.ID, requested); err != nil {
				return appErrors.DatabaseError("Failed to update cart line").WithError(err)
			}

			existing.Quantity = requested

			return nil
		}

		line := models.CartLine{
			CartID:    cart.ID,
			ProductID: product.ID,
			Quantity:  req.Quantity,
			UnitPrice: product.Price,
		}

		if err := s.cartRepo.AddLine(ctx, &line); err != nil {
			return appErrors.DatabaseError("Failed to add cart line").WithError(err)
		}

		cart.Lines = append(cart.Lines, line)

		return nil
	})
}

// ownedLine returns the index of lineID within cart.
func (s *cartService) ownedLine(ctx context.Context, cart *models.Cart, lineID uuid.UUID) (int, error) {
	line, err := s.cartRepo.GetLine(ctx, lineID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return -1, appErrors.NotFoundError("Cart line not found")
		}

		return -1, appErrors.DatabaseError("Failed to get cart line").WithError(err)
	}

	if line.CartID != cart.ID {
		return -1, appErrors.NotOwnerError("Cart line belongs to another cart")
	}

	for i := range cart.Lines {
		if cart.Lines[i].ID == lineID {
			return i, nil
		}
	}

	return -1, appErrors.NotFoundError("Cart line not found")
}

func (s *cartService) UpdateLine(ctx context.Context, identity models.CartIdentity, lineID uuid.UUID, quantity int) (*models.Cart, error) {
	if quantity < 0 {
		return nil, appErrors.ValidationError("Quantity cannot be negative")
	}

	return s.mutate(ctx, identity, func(ctx context.Context, cart *models.Cart) error {
		idx, err := s.ownedLine(ctx, cart, lineID)
		if err != nil {
			return err
		}

		if quantity == 0 {
			return s.deleteLine(ctx, cart, idx)
		}

		product, err := s.getProduct(ctx, cart.Lines[idx].ProductID)
		if err != nil {
			return err
		}

		if quantity > product.Stock {
			return appErrors.InsufficientStockError(
				fmt.Sprintf("Only %d units of product %s are available", product.Stock, product.ID))
		}

		if err := s.cartRepo.UpdateLineQuantity(ctx, lineID, quantity); err != nil {
			return appErrors.DatabaseError("Failed to update cart line").WithError(err)
		}

		cart.Lines[idx].Quantity = quantity

		return nil
	})
}

func (s *cartService) RemoveLine(ctx context.Context, identity models.CartIdentity, lineID uuid.UUID) (*models.Cart, error) {
	return s.mutate(ctx, identity, func(ctx context.Context, cart *models.Cart) error {
		idx, err := s.ownedLine(ctx, cart, lineID)
		if err != nil {
			return err
		}

		return s.deleteLine(ctx, cart, idx)
	})
}

func (s *cartService) deleteLine(ctx context.Context, cart *models.Cart, idx int) error {
	if err := s.cartRepo.DeleteLine(ctx, cart.Lines[idx].ID); err != nil {
		return appErrors.DatabaseError("Failed to remove cart line").WithError(err)
	}

	cart.Lines = append(cart.Lines[:idx], cart.Lines[idx+1:]...)

	return nil
}

// Clear is idempotent.
func (s *cartService) Clear(ctx context.Context, identity models.CartIdentity) (*models.Cart, error) {
	return s.mutate(ctx, identity, func(ctx context.Context, cart *models.Cart) error {
		if err := s.cartRepo.ClearLines(ctx, cart.ID); err != nil {
			return appErrors.DatabaseError("Failed to clear cart").WithError(err)
		}

		cart.Lines = []models.CartLine{}

		return nil
	})
}
