package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/api/middleware"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/errors"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/models"
	service "github.com/aaravmahajanofficial/ekommerce-marketplace/internal/services"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/utils"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type UserHandler struct {
	userService service.UserService
	validator   *validator.Validate
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService, validator: validator.New()}
}

// Register godoc
//
//	@Summary		Register a new user
//	@Description	Creates a customer or seller account.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			user	body		models.RegisterRequest	true	"Account details"
//	@Success		201		{object}	models.User				"User registered"
//	@Failure		400		{object}	response.ErrorResponse	"Invalid input"
//	@Failure		403		{object}	response.ErrorResponse	"Admin accounts cannot self register"
//	@Failure		409		{object}	response.ErrorResponse	"Email already registered"
//	@Failure		500		{object}	response.ErrorResponse	"Internal server error"
//	@Router			/users/register [post]
func (h *UserHandler) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.RegisterRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid registration input")
			return
		}

		user, err := h.userService.Register(r.Context(), &req)
		if err != nil {
			logger.Error("User registration failed", slog.String("email", req.Email), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("User registered", slog.String("userId", user.ID.String()), slog.String("role", string(user.Role)))
		response.Success(w, http.StatusCreated, user)
	}
}

// Login godoc
//
//	@Summary		Log in
//	@Description	Issues a bearer token. A guest session id header merges that cart into the user's cart.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			X-Session-ID	header		string					false	"Guest cart session id"
//	@Param			credentials		body		models.LoginRequest		true	"Email and password"
//	@Success		200				{object}	models.LoginResponse	"Logged in"
//	@Failure		400				{object}	response.ErrorResponse	"Invalid input"
//	@Failure		401				{object}	models.LoginResponse	"Invalid credentials"
//	@Failure		429				{object}	models.LoginResponse	"Too many attempts"
//	@Failure		500				{object}	response.ErrorResponse	"Rate limiter unavailable"
//	@Router			/users/login [post]
func (h *UserHandler) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.LoginRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid login input")
			return
		}

		logger = logger.With(slog.String("email", req.Email))

		resp, err := h.userService.Login(r.Context(), &req, r.Header.Get(middleware.SessionHeader))
		if err != nil {
			logger.Error("Login failed", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		if !resp.Success {
			appErr := errors.UnauthorizedError(resp.Message)
			if resp.RetryAfter > 0 {
				appErr = errors.TooManyRequestsError(resp.Message)
			}

			logger.Warn("Login rejected", slog.Int("remainingTries", resp.RemainingTries), slog.Int("retryAfter", resp.RetryAfter))
			response.WriteJson(w, appErr.StatusCode, response.APIResponse{
				Success: false,
				Data:    resp,
				Error:   &response.ErrorResponse{Code: appErr.Code, Message: appErr.Message},
			})
			return
		}

		logger.Info("User logged in", slog.Bool("cartMerged", resp.Cart != nil))
		response.Success(w, http.StatusOK, resp)
	}
}

// Profile godoc
//
//	@Summary		Get the caller's profile
//	@Tags			Users
//	@Produce		json
//	@Success		200	{object}	models.User				"Current user"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		404	{object}	response.ErrorResponse	"User not found"
//	@Security		BearerAuth
//	@Router			/users/profile [get]
func (h *UserHandler) Profile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized access attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		user, err := h.userService.GetUserByID(r.Context(), claims.UserID)
		if err != nil {
			logger.Warn("User not found", slog.String("userID", claims.UserID.String()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, user)
	}
}
