package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/api/middleware"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/models"
	service "github.com/aaravmahajanofficial/ekommerce-marketplace/internal/services"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/utils"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

// CartHandler serves both signed in users and guests. Guests are identified
// by the X-Session-ID header; a signed in caller that also sends it has the
// guest cart merged into their own.
type CartHandler struct {
	cartService service.CartService
	validator   *validator.Validate
}

func NewCartHandler(cartService service.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		validator:   validator.New(),
	}
}

func cartLogger(r *http.Request, identity models.CartIdentity) *slog.Logger {
	logger := middleware.LoggerFromContext(r.Context())
	if identity.IsAuthenticated() {
		return logger.With(slog.String("userID", identity.UserID.String()))
	}

	return logger.With(slog.Bool("guest", true))
}

func writeCart(w http.ResponseWriter, logger *slog.Logger, cart *models.Cart, err error, action string) {
	if err != nil {
		logger.Error("Cart "+action+" failed", slog.Any("error", err))
		response.Error(w, err)
		return
	}

	logger.Info("Cart "+action+" succeeded", slog.String("cartId", cart.ID.String()), slog.Int("lines", len(cart.Lines)))
	response.Success(w, http.StatusOK, cart.View())
}

// GetCart godoc
//
//	@Summary		Get the caller's cart
//	@Description	Returns the cart of the signed in user or guest session, creating it when missing.
//	@Tags			Cart
//	@Produce		json
//	@Param			X-Session-ID	header		string					false	"Guest cart session id"
//	@Success		200				{object}	models.CartView			"Current cart with totals"
//	@Failure		400				{object}	response.ErrorResponse	"Neither a token nor a session id was sent"
//	@Failure		500				{object}	response.ErrorResponse	"Internal server error"
//	@Router			/cart [get]
func (h *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := middleware.CartIdentityFromRequest(r)

		cart, err := h.cartService.GetOrCreate(r.Context(), identity)
		writeCart(w, cartLogger(r, identity), cart, err, "fetch")
	}
}

// AddLine godoc
//
//	@Summary		Add a product to the cart
//	@Description	Adds a line at the product's current price, or increases the quantity of an existing line.
//	@Tags			Cart
//	@Accept			json
//	@Produce		json
//	@Param			X-Session-ID	header		string						false	"Guest cart session id"
//	@Param			line			body		models.AddCartLineRequest	true	"Product and quantity"
//	@Success		200				{object}	models.CartView				"Updated cart"
//	@Failure		400				{object}	response.ErrorResponse		"Invalid input"
//	@Failure		404				{object}	response.ErrorResponse		"Product not found"
//	@Failure		409				{object}	response.ErrorResponse		"Insufficient stock"
//	@Failure		500				{object}	response.ErrorResponse		"Internal server error"
//	@Router			/cart/lines [post]
func (h *CartHandler) AddLine() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := middleware.CartIdentityFromRequest(r)
		logger := cartLogger(r, identity)

		var req models.AddCartLineRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid add to cart input")
			return
		}

		cart, err := h.cartService.AddLine(r.Context(), identity, &req)
		writeCart(w, logger.With(slog.String("productId", req.ProductID.String())), cart, err, "add line")
	}
}

// UpdateLine godoc
//
//	@Summary		Change a cart line quantity
//	@Description	Sets the quantity of a line. Zero removes it.
//	@Tags			Cart
//	@Accept			json
//	@Produce		json
//	@Param			X-Session-ID	header		string							false	"Guest cart session id"
//	@Param			id				path		string							true	"Cart line ID (UUID)"	Format(uuid)
//	@Param			line			body		models.UpdateCartLineRequest	true	"New quantity"
//	@Success		200				{object}	models.CartView					"Updated cart"
//	@Failure		400				{object}	response.ErrorResponse			"Invalid input"
//	@Failure		403				{object}	response.ErrorResponse			"Line belongs to another cart"
//	@Failure		404				{object}	response.ErrorResponse			"Line not found"
//	@Failure		409				{object}	response.ErrorResponse			"Insufficient stock"
//	@Failure		500				{object}	response.ErrorResponse			"Internal server error"
//	@Router			/cart/lines/{id} [put]
func (h *CartHandler) UpdateLine() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := middleware.CartIdentityFromRequest(r)
		logger := cartLogger(r, identity)

		lineID, err := utils.ParseID(r, "id")
		if err != nil {
			logger.Warn("Invalid cart line id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		var req models.UpdateCartLineRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid cart line update input")
			return
		}

		cart, err := h.cartService.UpdateLine(r.Context(), identity, lineID, *req.Quantity)
		writeCart(w, logger.With(slog.String("lineId", lineID.String())), cart, err, "update line")
	}
}

// RemoveLine godoc
//
//	@Summary		Remove a cart line
//	@Tags			Cart
//	@Produce		json
//	@Param			X-Session-ID	header		string					false	"Guest cart session id"
//	@Param			id				path		string					true	"Cart line ID (UUID)"	Format(uuid)
//	@Success		200				{object}	models.CartView			"Updated cart"
//	@Failure		400				{object}	response.ErrorResponse	"Invalid line id"
//	@Failure		403				{object}	response.ErrorResponse	"Line belongs to another cart"
//	@Failure		404				{object}	response.ErrorResponse	"Line not found"
//	@Failure		500				{object}	response.ErrorResponse	"Internal server error"
//	@Router			/cart/lines/{id} [delete]
func (h *CartHandler) RemoveLine() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := middleware.CartIdentityFromRequest(r)
		logger := cartLogger(r, identity)

		lineID, err := utils.ParseID(r, "id")
		if err != nil {
			logger.Warn("Invalid cart line id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		cart, err := h.cartService.RemoveLine(r.Context(), identity, lineID)
		writeCart(w, logger.With(slog.String("lineId", lineID.String())), cart, err, "remove line")
	}
}

// ClearCart godoc
//
//	@Summary		Empty the cart
//	@Tags			Cart
//	@Produce		json
//	@Param			X-Session-ID	header		string					false	"Guest cart session id"
//	@Success		200				{object}	models.CartView			"Empty cart"
//	@Failure		400				{object}	response.ErrorResponse	"Neither a token nor a session id was sent"
//	@Failure		500				{object}	response.ErrorResponse	"Internal server error"
//	@Router			/cart [delete]
func (h *CartHandler) ClearCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := middleware.CartIdentityFromRequest(r)

		cart, err := h.cartService.Clear(r.Context(), identity)
		writeCart(w, cartLogger(r, identity), cart, err, "clear")
	}
}
