package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/api/middleware"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/errors"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/models"
	service "github.com/aaravmahajanofficial/ekommerce-marketplace/internal/services"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/utils"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/utils/response"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type OrderHandler struct {
	orderService service.OrderService
	validator    *validator.Validate
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService, validator: validator.New()}
}

// PlaceOrder godoc
//
//	@Summary		Place an order from the cart
//	@Description	Turns the caller's cart into an order. Stock is reserved for every line and the cart is emptied. A session id header merges a guest cart first.
//	@Tags			Orders
//	@Accept			json
//	@Produce		json
//	@Param			X-Session-ID	header		string						false	"Guest cart session id"
//	@Param			order			body		models.PlaceOrderRequest	true	"Shipping and payment details"
//	@Success		201				{object}	models.Order				"Order placed"
//	@Failure		400				{object}	response.ErrorResponse		"Missing shipping address"
//	@Failure		401				{object}	response.ErrorResponse		"Authentication required"
//	@Failure		404				{object}	response.ErrorResponse		"A product in the cart no longer exists"
//	@Failure		409				{object}	response.ErrorResponse		"Insufficient stock"
//	@Failure		422				{object}	response.ErrorResponse		"Empty cart or products from several sellers"
//	@Failure		500				{object}	response.ErrorResponse		"Internal server error"
//	@Security		BearerAuth
//	@Router			/orders [post]
func (h *OrderHandler) PlaceOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized order placement attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		logger = logger.With(slog.String("userID", claims.UserID.String()))

		var req models.PlaceOrderRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid place order input")
			return
		}

		order, err := h.orderService.PlaceOrder(r.Context(), middleware.CartIdentityFromRequest(r), &req)
		if err != nil {
			logger.Error("Failed to place order", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Order placed successfully", slog.String("orderId", order.ID.String()))
		response.Success(w, http.StatusCreated, order)
	}
}

// GetOrder godoc
//
//	@Summary		Get an order by ID
//	@Description	Visible to the buyer, the seller of its lines and admins.
//	@Tags			Orders
//	@Produce		json
//	@Param			id	path		string					true	"Order ID (UUID)"	Format(uuid)
//	@Success		200	{object}	models.Order			"Successfully retrieved order"
//	@Failure		400	{object}	response.ErrorResponse	"Invalid order ID format"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		403	{object}	response.ErrorResponse	"Not a party to this order"
//	@Failure		404	{object}	response.ErrorResponse	"Order not found"
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/orders/{id} [get]
func (h *OrderHandler) GetOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized order access attempt: missing user claims")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		id, err := utils.ParseID(r, "id")
		if err != nil {
			logger.Warn("Invalid order id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		logger = logger.With(slog.String("orderId", id.String()))

		order, err := h.orderService.GetOrder(r.Context(), id, claims.Requester())
		if err != nil {
			logger.Error("Failed to get order", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Order retrieved successfully")
		response.Success(w, http.StatusOK, order)
	}
}

// ListOrders godoc
//
//	@Summary		List the caller's orders
//	@Description	Orders placed by the authenticated user, newest first.
//	@Tags			Orders
//	@Produce		json
//	@Param			page		query		int												false	"Page number for pagination (default: 1)"			minimum(1)
//	@Param			pageSize	query		int												false	"Number of items per page (default: 10, max: 100)"	minimum(1)	maximum(100)
//	@Success		200			{object}	models.PaginatedResponse{Data=[]models.Order}	"Successfully retrieved list of orders"
//	@Failure		401			{object}	response.ErrorResponse							"Authentication required"
//	@Failure		500			{object}	response.ErrorResponse							"Internal server error"
//	@Security		BearerAuth
//	@Router			/orders [get]
func (h *OrderHandler) ListOrders() http.HandlerFunc {
	return h.list("buyer", h.orderService.ListBuyerOrders)
}

// ListSellerOrders godoc
//
//	@Summary		List orders for the caller's products
//	@Description	Orders containing lines sold by the authenticated seller, newest first.
//	@Tags			Orders
//	@Produce		json
//	@Param			page		query		int												false	"Page number for pagination (default: 1)"			minimum(1)
//	@Param			pageSize	query		int												false	"Number of items per page (default: 10, max: 100)"	minimum(1)	maximum(100)
//	@Success		200			{object}	models.PaginatedResponse{Data=[]models.Order}	"Successfully retrieved list of orders"
//	@Failure		401			{object}	response.ErrorResponse							"Authentication required"
//	@Failure		403			{object}	response.ErrorResponse							"Sellers only"
//	@Failure		500			{object}	response.ErrorResponse							"Internal server error"
//	@Security		BearerAuth
//	@Router			/orders/seller [get]
func (h *OrderHandler) ListSellerOrders() http.HandlerFunc {
	return h.list("seller", h.orderService.ListSellerOrders)
}

type listOrdersFunc func(ctx context.Context, requester models.Requester, page, size int) ([]*models.Order, int, error)

func (h *OrderHandler) list(view string, fetch listOrdersFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized order list attempt: missing user claims")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		page, pageSize := utils.ParsePagination(r)
		logger = logger.With(slog.String("view", view), slog.Int("page", page), slog.Int("pageSize", pageSize))

		orders, total, err := fetch(r.Context(), claims.Requester(), page, pageSize)
		if err != nil {
			logger.Error("Failed to list orders", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Orders listed successfully", slog.Int("count", len(orders)), slog.Int("total", total))
		response.Success(w, http.StatusOK, models.PaginatedResponse{
			Data:     orders,
			Total:    total,
			Page:     page,
			PageSize: pageSize,
		})
	}
}

// CancelOrder godoc
//
//	@Summary		Cancel an order
//	@Description	The buyer or an admin cancels a PENDING or CONFIRMED order. Reserved stock is returned.
//	@Tags			Orders
//	@Produce		json
//	@Param			id	path		string					true	"Order ID (UUID)"	Format(uuid)
//	@Success		200	{object}	models.Order			"Order cancelled"
//	@Failure		400	{object}	response.ErrorResponse	"Invalid order ID format"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		403	{object}	response.ErrorResponse	"Not the buyer"
//	@Failure		404	{object}	response.ErrorResponse	"Order not found"
//	@Failure		409	{object}	response.ErrorResponse	"Order can no longer be cancelled"
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/orders/{id}/cancel [put]
func (h *OrderHandler) CancelOrder() http.HandlerFunc {
	return h.transition("cancel", func(w http.ResponseWriter, r *http.Request, id uuid.UUID, requester models.Requester) (*models.Order, bool, error) {
		order, err := h.orderService.Cancel(r.Context(), id, requester)
		return order, true, err
	})
}

// ApproveOrder godoc
//
//	@Summary		Approve an order
//	@Description	The seller confirms a PENDING order.
//	@Tags			Orders
//	@Produce		json
//	@Param			id	path		string					true	"Order ID (UUID)"	Format(uuid)
//	@Success		200	{object}	models.Order			"Order confirmed"
//	@Failure		400	{object}	response.ErrorResponse	"Invalid order ID format"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		403	{object}	response.ErrorResponse	"Not the seller of this order"
//	@Failure		404	{object}	response.ErrorResponse	"Order not found"
//	@Failure		409	{object}	response.ErrorResponse	"Invalid transition"
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/orders/{id}/approve [put]
func (h *OrderHandler) ApproveOrder() http.HandlerFunc {
	return h.transition("approve", func(w http.ResponseWriter, r *http.Request, id uuid.UUID, requester models.Requester) (*models.Order, bool, error) {
		order, err := h.orderService.Approve(r.Context(), id, requester)
		return order, true, err
	})
}

// UpdateOrderStatus godoc
//
//	@Summary		Update order status
//	@Description	The seller moves the order forward. The shipping status follows.
//	@Tags			Orders
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Order ID (UUID)"	Format(uuid)
//	@Param			status	body		models.UpdateOrderStatusRequest	true	"New Order Status"
//	@Success		200		{object}	models.Order					"Successfully updated order status"
//	@Failure		400		{object}	response.ErrorResponse			"Invalid order ID format or invalid status value"
//	@Failure		401		{object}	response.ErrorResponse			"Authentication required"
//	@Failure		403		{object}	response.ErrorResponse			"Not the seller of this order"
//	@Failure		404		{object}	response.ErrorResponse			"Order not found"
//	@Failure		409		{object}	response.ErrorResponse			"Invalid transition"
//	@Failure		500		{object}	response.ErrorResponse			"Internal server error"
//	@Security		BearerAuth
//	@Router			/orders/{id}/status [put]
func (h *OrderHandler) UpdateOrderStatus() http.HandlerFunc {
	return h.transition("status", func(w http.ResponseWriter, r *http.Request, id uuid.UUID, requester models.Requester) (*models.Order, bool, error) {
		var req models.UpdateOrderStatusRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return nil, false, nil
		}

		order, err := h.orderService.SetStatus(r.Context(), id, req.Status, requester)
		return order, true, err
	})
}

// UpdateShippingStatus godoc
//
//	@Summary		Update shipping status
//	@Description	The seller reports shipping progress. The order status follows.
//	@Tags			Orders
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string								true	"Order ID (UUID)"	Format(uuid)
//	@Param			shipping	body		models.UpdateShippingStatusRequest	true	"New Shipping Status"
//	@Success		200			{object}	models.Order						"Successfully updated shipping status"
//	@Failure		400			{object}	response.ErrorResponse				"Invalid order ID format or invalid status value"
//	@Failure		401			{object}	response.ErrorResponse				"Authentication required"
//	@Failure		403			{object}	response.ErrorResponse				"Not the seller of this order"
//	@Failure		404			{object}	response.ErrorResponse				"Order not found"
//	@Failure		409			{object}	response.ErrorResponse				"Invalid transition"
//	@Failure		500			{object}	response.ErrorResponse				"Internal server error"
//	@Security		BearerAuth
//	@Router			/orders/{id}/shipping [put]
func (h *OrderHandler) UpdateShippingStatus() http.HandlerFunc {
	return h.transition("shipping", func(w http.ResponseWriter, r *http.Request, id uuid.UUID, requester models.Requester) (*models.Order, bool, error) {
		var req models.UpdateShippingStatusRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return nil, false, nil
		}

		order, err := h.orderService.SetShippingStatus(r.Context(), id, req.ShippingStatus, requester)
		return order, true, err
	})
}

// transitionFunc reports handled=false when it already wrote a response.
type transitionFunc func(w http.ResponseWriter, r *http.Request, id uuid.UUID, requester models.Requester) (order *models.Order, handled bool, err error)

func (h *OrderHandler) transition(action string, apply transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized order update attempt: missing user claims")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		id, err := utils.ParseID(r, "id")
		if err != nil {
			logger.Warn("Invalid order id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		logger = logger.With(
			slog.String("action", action),
			slog.String("orderId", id.String()),
			slog.String("updaterUserID", claims.UserID.String()),
		)

		order, handled, err := apply(w, r, id, claims.Requester())
		if !handled {
			logger.Warn("Invalid order update input")
			return
		}

		if err != nil {
			logger.Error("Failed to update order", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Order updated successfully",
			slog.String("status", string(order.Status)),
			slog.String("shippingStatus", string(order.ShippingStatus)),
		)
		response.Success(w, http.StatusOK, order)
	}
}
