package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/api/middleware"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/cache"
	appErrors "github.com/aaravmahajanofficial/ekommerce-marketplace/internal/errors"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/models"
	repository "github.com/aaravmahajanofficial/ekommerce-marketplace/internal/repositories"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/utils"
	"github.com/google/uuid"
)

type ProductService interface {
	CreateProduct(ctx context.Context, sellerID uuid.UUID, req *models.CreateProductRequest) (*models.Product, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, requester models.Requester, req *models.UpdateProductRequest) (*models.Product, error)
	ListProducts(ctx context.Context, page, pageSize int) ([]*models.Product, int, error)
	ListSellerProducts(ctx context.Context, sellerID uuid.UUID, page, pageSize int) ([]*models.Product, int, error)
	// DeactivateProduct withdraws a product from sale. Rows are never
	// deleted because order lines keep referencing them.
	DeactivateProduct(ctx context.Context, id uuid.UUID, requester models.Requester) (*models.Product, error)
}

type productService struct {
	tx       repository.Transactor
	repo     repository.ProductRepository
	cache    cache.Cache
	cacheTTL time.Duration
}

func NewProductService(tx repository.Transactor, repo repository.ProductRepository, productCache cache.Cache, cacheTTL time.Duration) ProductService {
	return &productService{tx: tx, repo: repo, cache: productCache, cacheTTL: cacheTTL}
}

func (s *productService) CreateProduct(ctx context.Context, sellerID uuid.UUID, req *models.CreateProductRequest) (*models.Product, error) {
	if !req.Price.IsPositive() {
		return nil, appErrors.AddValidationError("price", "must be greater than zero")
	}

	product := &models.Product{
		SellerID:    sellerID,
		Name:        utils.SanitizeText(req.Name),
		Description: utils.SanitizeText(req.Description),
		Price:       req.Price,
		Stock:       req.Stock,
		Status:      models.AvailabilityFor(models.ProductStatusActive, req.Stock),
	}

	if product.Name == "" {
		return nil, appErrors.AddValidationError("name", "is required")
	}

	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, appErrors.DatabaseError("Failed to create product").WithError(err)
	}

	return product, nil
}

func (s *productService) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	key := cache.ProductKey(id)

	var cached models.Product
	if found, err := s.cache.Get(ctx, key, &cached); err != nil {
		middleware.LoggerFromContext(ctx).Warn("Product cache read failed", slog.String("productId", id.String()), slog.Any("error", err))
	} else if found {
		return &cached, nil
	}

	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Product not found")
		}

		return nil, appErrors.DatabaseError("Failed to get product").WithError(err)
	}

	if err := s.cache.Set(ctx, key, product, s.cacheTTL); err != nil {
		middleware.LoggerFromContext(ctx).Warn("Product cache write failed", slog.String("productId", id.String()), slog.Any("error", err))
	}

	return product, nil
}

// UpdateProduct applies the set fields of req. Stock edits re-derive the
// availability status; an explicit INACTIVE always wins.
func (s *productService) UpdateProduct(ctx context.Context, id uuid.UUID, requester models.Requester, req *models.UpdateProductRequest) (*models.Product, error) {
	if req.Price != nil && !req.Price.IsPositive() {
		return nil, appErrors.AddValidationError("price", "must be greater than zero")
	}

	var product *models.Product

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error

		product, err = s.lockOwned(ctx, id, requester)
		if err != nil {
			return err
		}

		if req.Name != nil {
			product.Name = utils.SanitizeText(*req.Name)
		}
		if req.Description != nil {
			product.Description = utils.SanitizeText(*req.Description)
		}
		if req.Price != nil {
			product.Price = *req.Price
		}
		if req.Stock != nil {
			product.Stock = *req.Stock
		}
		if req.Status != nil {
			// reactivation starts from ACTIVE and lets stock decide
			product.Status = *req.Status
		}

		product.Status = models.AvailabilityFor(product.Status, product.Stock)

		if err := s.repo.UpdateProduct(ctx, product); err != nil {
			return appErrors.DatabaseError("Failed to update product").WithError(err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	cache.Invalidate(ctx, s.cache, cache.ProductKey(product.ID))

	return product, nil
}

// page means "page number requested"
// pageSize means "number of products to be displayed per page"
func (s *productService) ListProducts(ctx context.Context, page, pageSize int) ([]*models.Product, int, error) {
	products, total, err := s.repo.ListProducts(ctx, page, pageSize)
	if err != nil {
		return nil, 0, appErrors.DatabaseError("Failed to fetch products").WithError(err)
	}

	return products, total, nil
}

func (s *productService) ListSellerProducts(ctx context.Context, sellerID uuid.UUID, page, pageSize int) ([]*models.Product, int, error) {
	products, total, err := s.repo.ListProductsBySeller(ctx, sellerID, page, pageSize)
	if err != nil {
		return nil, 0, appErrors.DatabaseError("Failed to fetch products").WithError(err)
	}

	return products, total, nil
}

func (s *productService) DeactivateProduct(ctx context.Context, id uuid.UUID, requester models.Requester) (*models.Product, error) {
	var product *models.Product

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error

		product, err = s.lockOwned(ctx, id, requester)
		if err != nil {
			return err
		}

		if product.Status == models.ProductStatusInactive {
			return nil
		}

		product.Status = models.ProductStatusInactive

		if err := s.repo.UpdateProduct(ctx, product); err != nil {
			return appErrors.DatabaseError("Failed to deactivate product").WithError(err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	cache.Invalidate(ctx, s.cache, cache.ProductKey(product.ID))

	return product, nil
}

// lockOwned locks the product for the rest of the transaction and checks
// that requester is its seller or an admin.
func (s *productService) lockOwned(ctx context.Context, id uuid.UUID, requester models.Requester) (*models.Product, error) {
	product, err := s.repo.LockProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Product not found")
		}

		return nil, appErrors.DatabaseError("Failed to get product").WithError(err)
	}

	if product.SellerID != requester.UserID && !requester.IsAdmin() {
		return nil, appErrors.ForbiddenError("You can only edit your own products")
	}

	return product, nil
}
