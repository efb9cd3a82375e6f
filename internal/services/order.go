package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/api/middleware"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/cache"
	appErrors "github.com/aaravmahajanofficial/ekommerce-marketplace/internal/errors"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/events"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/lifecycle"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/metrics"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/models"
	repository "github.com/aaravmahajanofficial/ekommerce-marketplace/internal/repositories"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/utils"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/shopspring/decimal"
)

type OrderService interface {
	// PlaceOrder turns the caller's cart into a PENDING order, reserving
	// stock for every line and emptying the cart in the same transaction.
	PlaceOrder(ctx context.Context, identity models.CartIdentity, req *models.PlaceOrderRequest) (*models.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID, requester models.Requester) (*models.Order, error)
	ListBuyerOrders(ctx context.Context, requester models.Requester, page, size int) ([]*models.Order, int, error)
	ListSellerOrders(ctx context.Context, requester models.Requester, page, size int) ([]*models.Order, int, error)
	Cancel(ctx context.Context, id uuid.UUID, requester models.Requester) (*models.Order, error)
	SetStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus, requester models.Requester) (*models.Order, error)
	SetShippingStatus(ctx context.Context, id uuid.UUID, shipping models.ShippingStatus, requester models.Requester) (*models.Order, error)
	Approve(ctx context.Context, id uuid.UUID, requester models.Requester) (*models.Order, error)
}

// TrackingGenerator returns a fresh tracking number for an order created at
// the given time.
type TrackingGenerator func(now time.Time) string

// NewTrackingNumber formats TRK, the creation time in milliseconds and eight
// random hex characters.
func NewTrackingNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])

	return fmt.Sprintf("TRK%d%s", now.UnixMilli(), suffix)
}

type OrderOption func(*orderService)

func WithTrackingGenerator(gen TrackingGenerator) OrderOption {
	return func(s *orderService) {
		s.tracking = gen
	}
}

func WithClock(now func() time.Time) OrderOption {
	return func(s *orderService) {
		s.now = now
	}
}

type orderService struct {
	tx          repository.Transactor
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	carts       CartService
	ledger      InventoryLedger
	machine     *lifecycle.Machine
	cache       cache.Cache
	cacheTTL    time.Duration
	publisher   events.Publisher
	tracking    TrackingGenerator
	now         func() time.Time
}

func NewOrderService(
	tx repository.Transactor,
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	carts CartService,
	ledger InventoryLedger,
	machine *lifecycle.Machine,
	orderCache cache.Cache,
	cacheTTL time.Duration,
	publisher events.Publisher,
	opts ...OrderOption,
) OrderService {
	s := &orderService{
		tx:          tx,
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		carts:       carts,
		ledger:      ledger,
		machine:     machine,
		cache:       orderCache,
		cacheTTL:    cacheTTL,
		publisher:   publisher,
		tracking:    NewTrackingNumber,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *orderService) PlaceOrder(ctx context.Context, identity models.CartIdentity, req *models.PlaceOrderRequest) (*models.Order, error) {
	if !identity.IsAuthenticated() {
		return nil, appErrors.UnauthorizedError("Sign in to place an order")
	}

	var order *models.Order

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		cart, err := s.carts.GetOrCreate(ctx, identity)
		if err != nil {
			return err
		}

		if cart.IsEmpty() {
			return appErrors.EmptyCartError("Cart has no lines to order")
		}

		address := utils.SanitizeText(req.ShippingAddress)
		if address == "" {
			return appErrors.ValidationError("Shipping address is required")
		}

		sellerID, err := s.singleSeller(ctx, cart)
		if err != nil {
			return err
		}

		order = &models.Order{
			ID:              uuid.New(),
			BuyerID:         identity.UserID,
			SellerID:        sellerID,
			Lines:           make([]models.OrderLine, 0, len(cart.Lines)),
			TotalAmount:     decimal.Zero,
			Status:          lifecycle.Initial.Status,
			ShippingStatus:  lifecycle.Initial.Shipping,
			ShippingAddress: address,
			PaymentMethod:   req.PaymentMethod,
			TrackingNumber:  s.tracking(s.now()),
		}

		if order.PaymentMethod == "" {
			order.PaymentMethod = models.PaymentMethodCard
		}

		for _, line := range cart.Lines {
			product, err := s.ledger.Reserve(ctx, line.ProductID, line.Quantity)
			if err != nil {
				return err
			}

			// the order is priced at the live product price, not the cart snapshot
			order.Lines = append(order.Lines, models.OrderLine{
				ID:        uuid.New(),
				OrderID:   order.ID,
				ProductID: product.ID,
				SellerID:  product.SellerID,
				Quantity:  line.Quantity,
				UnitPrice: product.Price,
			})
			order.TotalAmount = order.TotalAmount.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}

		if err := s.orderRepo.CreateOrder(ctx, order); err != nil {
			return appErrors.DatabaseError("Failed to create order").WithError(err)
		}

		if err := s.cartRepo.ClearLines(ctx, cart.ID); err != nil {
			return appErrors.DatabaseError("Failed to clear cart").WithError(err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersPlaced.Inc()
	middleware.LoggerFromContext(ctx).Info("Order placed",
		slog.String("orderId", order.ID.String()),
		slog.String("buyerId", order.BuyerID.String()),
		slog.String("total", order.TotalAmount.String()),
	)

	s.publish(ctx, models.OrderEventPlaced, order)
	cache.Invalidate(ctx, s.cache, productKeys(order)...)

	return order, nil
}

// singleSeller resolves every product in the cart and returns their common
// seller.
func (s *orderService) singleSeller(ctx context.Context, cart *models.Cart) (uuid.UUID, error) {
	var sellerID uuid.UUID

	for _, line := range cart.Lines {
		product, err := s.productRepo.GetProductByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return uuid.Nil, appErrors.NotFoundError(fmt.Sprintf("Product %s not found", line.ProductID))
			}

			return uuid.Nil, appErrors.DatabaseError("Failed to get product").WithError(err)
		}

		if sellerID == uuid.Nil {
			sellerID = product.SellerID

			continue
		}

		if product.SellerID != sellerID {
			return uuid.Nil, appErrors.MixedSellerOrderError("All products in an order must come from the same seller")
		}
	}

	return sellerID, nil
}

func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID, requester models.Requester) (*models.Order, error) {
	key := cache.OrderKey(id)

	var cached models.Order
	if found, err := s.cache.Get(ctx, key, &cached); err != nil {
		middleware.LoggerFromContext(ctx).Warn("Order cache read failed", slog.String("orderId", id.String()), slog.Any("error", err))
	} else if found {
		if !canView(&cached, requester) {
			return nil, appErrors.ForbiddenError("You are not allowed to view this order")
		}

		return &cached, nil
	}

	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, orderLookupError(err)
	}

	if !canView(order, requester) {
		return nil, appErrors.ForbiddenError("You are not allowed to view this order")
	}

	if err := s.cache.Set(ctx, key, order, s.cacheTTL); err != nil {
		middleware.LoggerFromContext(ctx).Warn("Order cache write failed", slog.String("orderId", id.String()), slog.Any("error", err))
	}

	return order, nil
}

func (s *orderService) ListBuyerOrders(ctx context.Context, requester models.Requester, page, size int) ([]*models.Order, int, error) {
	orders, total, err := s.orderRepo.ListOrdersByBuyer(ctx, requester.UserID, page, size)
	if err != nil {
		return nil, 0, appErrors.DatabaseError("Failed to fetch orders").WithError(err)
	}

	return orders, total, nil
}

func (s *orderService) ListSellerOrders(ctx context.Context, requester models.Requester, page, size int) ([]*models.Order, int, error) {
	orders, total, err := s.orderRepo.ListOrdersBySeller(ctx, requester.UserID, page, size)
	if err != nil {
		return nil, 0, appErrors.DatabaseError("Failed to fetch orders").WithError(err)
	}

	return orders, total, nil
}

func (s *orderService) Cancel(ctx context.Context, id uuid.UUID, requester models.Requester) (*models.Order, error) {
	return s.transition(ctx, id, func(order *models.Order) (lifecycle.State, error) {
		if order.BuyerID != requester.UserID && !requester.IsAdmin() {
			return lifecycle.State{}, appErrors.ForbiddenError("Only the buyer can cancel this order")
		}

		return s.machine.Cancel(lifecycle.StateOf(order))
	})
}

func (s *orderService) SetStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus, requester models.Requester) (*models.Order, error) {
	return s.transition(ctx, id, func(order *models.Order) (lifecycle.State, error) {
		if err := authorizeSeller(order, requester); err != nil {
			return lifecycle.State{}, err
		}

		return s.machine.RequestStatus(lifecycle.StateOf(order), status)
	})
}

func (s *orderService) SetShippingStatus(ctx context.Context, id uuid.UUID, shipping models.ShippingStatus, requester models.Requester) (*models.Order, error) {
	return s.transition(ctx, id, func(order *models.Order) (lifecycle.State, error) {
		if err := authorizeSeller(order, requester); err != nil {
			return lifecycle.State{}, err
		}

		return s.machine.RequestShipping(lifecycle.StateOf(order), shipping)
	})
}

func (s *orderService) Approve(ctx context.Context, id uuid.UUID, requester models.Requester) (*models.Order, error) {
	return s.SetStatus(ctx, id, models.OrderStatusConfirmed, requester)
}

// transition locks the order, asks decide for the next state and persists
// it. Entering CANCELLED returns every line's quantity to stock; lines that
// fail to release do not block the others or the cancellation itself.
func (s *orderService) transition(ctx context.Context, id uuid.UUID, decide func(order *models.Order) (lifecycle.State, error)) (*models.Order, error) {
	var (
		order      *models.Order
		previous   lifecycle.State
		released   bool
		releaseErr error
	)

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error

		order, err = s.orderRepo.LockOrderByID(ctx, id)
		if err != nil {
			return orderLookupError(err)
		}

		previous = lifecycle.StateOf(order)

		next, err := decide(order)
		if err != nil {
			return err
		}

		updatedAt, err := s.orderRepo.UpdateOrderState(ctx, order.ID, next.Status, next.Shipping)
		if err != nil {
			return appErrors.DatabaseError("Failed to update order").WithError(err)
		}

		order.Status = next.Status
		order.ShippingStatus = next.Shipping
		order.UpdatedAt = updatedAt

		if lifecycle.EntersCancellation(previous, next) {
			released = true
			releaseErr = s.releaseLines(ctx, order)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if releaseErr != nil {
		var merr *multierror.Error
		if errors.As(releaseErr, &merr) {
			for _, e := range merr.Errors {
				order.ReleaseFailures = append(order.ReleaseFailures, e.Error())
			}
		}

		middleware.LoggerFromContext(ctx).Error("Order cancelled with unreleased stock",
			slog.String("orderId", order.ID.String()),
			slog.Int("failedLines", len(order.ReleaseFailures)),
			slog.Any("error", releaseErr),
		)
	}

	metrics.OrderTransitions.WithLabelValues(string(previous.Status), string(order.Status)).Inc()

	eventType := models.OrderEventStatusChanged
	keys := []string{cache.OrderKey(order.ID)}

	if released {
		eventType = models.OrderEventCancelled
		keys = append(keys, productKeys(order)...)
	}

	s.publish(ctx, eventType, order)
	cache.Invalidate(ctx, s.cache, keys...)

	return order, nil
}

// releaseLines returns each line's quantity to stock, each under its own
// savepoint so a failing line leaves the transaction usable. Every failure
// is logged and all of them are returned together.
func (s *orderService) releaseLines(ctx context.Context, order *models.Order) error {
	logger := middleware.LoggerFromContext(ctx)

	var result *multierror.Error

	for i, line := range order.Lines {
		err := s.tx.WithinSavepoint(ctx, fmt.Sprintf("release_line_%d", i), func(ctx context.Context) error {
			_, err := s.ledger.Release(ctx, line.ProductID, line.Quantity)
			return err
		})
		if err != nil {
			metrics.StockReleaseFailures.Inc()
			logger.Error("Failed to release stock",
				slog.String("orderId", order.ID.String()),
				slog.String("productId", line.ProductID.String()),
				slog.Int("quantity", line.Quantity),
				slog.Any("error", err),
			)

			result = multierror.Append(result, fmt.Errorf("product %s: %w", line.ProductID, err))
		}
	}

	return result.ErrorOrNil()
}

func (s *orderService) publish(ctx context.Context, eventType models.OrderEventType, order *models.Order) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(ctx, models.NewOrderEvent(eventType, order)); err != nil {
		metrics.EventPublishFailures.WithLabelValues(string(eventType)).Inc()
		middleware.LoggerFromContext(ctx).Error("Failed to publish order event",
			slog.String("type", string(eventType)),
			slog.String("orderId", order.ID.String()),
			slog.Any("error", err),
		)
	}
}

func authorizeSeller(order *models.Order, requester models.Requester) error {
	if requester.IsAdmin() || order.HasSellerLine(requester.UserID) {
		return nil
	}

	return appErrors.ForbiddenError("Only the seller of this order can change its status")
}

func canView(order *models.Order, requester models.Requester) bool {
	return requester.IsAdmin() || order.BuyerID == requester.UserID || order.HasSellerLine(requester.UserID)
}

func orderLookupError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.NotFoundError("Order not found")
	}

	return appErrors.DatabaseError("Failed to get order").WithError(err)
}

func productKeys(order *models.Order) []string {
	keys := make([]string, 0, len(order.Lines))
	for _, line := range order.Lines {
		keys = append(keys, cache.ProductKey(line.ProductID))
	}

	return keys
}
