package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/errors"
	models "github.com/aaravmahajanofficial/ekommerce-marketplace/internal/models"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/utils/response"
	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const UserContextKey = contextKey("user")

// SessionHeader carries the anonymous cart session of a guest shopper.
const SessionHeader = "X-Session-ID"

type AuthMiddleware struct {
	jwtKey []byte
}

func NewAuthMiddleware(jwtKey []byte) *AuthMiddleware {
	return &AuthMiddleware{jwtKey: jwtKey}
}

// parse returns the claims of a bearer token. A nil AppError with nil
// claims means the request carried no Authorization header.
func (m *AuthMiddleware) parse(r *http.Request, logger *slog.Logger) (*models.Claims, *errors.AppError) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, nil
	}

	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
		logger.Warn("Invalid authorization header format")
		return nil, errors.UnauthorizedError("Invalid authorization format")
	}

	claims := &models.Claims{}

	token, err := jwt.ParseWithClaims(tokenParts[1], claims, func(t *jwt.Token) (any, error) {
		return m.jwtKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		logger.Warn("JWT parsing failed", slog.Any("error", err))
		return nil, errors.UnauthorizedError("Invalid or expired token")
	}

	return claims, nil
}

func (m *AuthMiddleware) withClaims(r *http.Request, claims *models.Claims, logger *slog.Logger) *http.Request {
	scoped := logger.With(slog.String("userId", claims.UserID.String()), slog.String("role", string(claims.Role)))
	ctx := context.WithValue(r.Context(), UserContextKey, claims)

	return r.WithContext(WithLogger(ctx, scoped))
}

func (m *AuthMiddleware) Authenticate(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := LoggerFromContext(r.Context())

		claims, appErr := m.parse(r, logger)
		if appErr != nil {
			response.Error(w, appErr)
			return
		}

		if claims == nil {
			logger.Warn("Missing authorization header")
			response.Error(w, errors.UnauthorizedError("Authorization header is required"))
			return
		}

		next.ServeHTTP(w, m.withClaims(r, claims, logger))
	}
}

// OptionalAuthenticate lets guests through while still rejecting a token
// that is present but invalid. Cart routes use it so anonymous sessions work.
func (m *AuthMiddleware) OptionalAuthenticate(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := LoggerFromContext(r.Context())

		claims, appErr := m.parse(r, logger)
		if appErr != nil {
			response.Error(w, appErr)
			return
		}

		if claims == nil {
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, m.withClaims(r, claims, logger))
	}
}

// RequireRole must run after Authenticate.
func RequireRole(next http.Handler, roles ...models.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		if !slices.Contains(roles, claims.Role) {
			LoggerFromContext(r.Context()).Warn("Role not permitted", slog.String("role", string(claims.Role)))
			response.Error(w, errors.ForbiddenError("Insufficient role for this operation"))
			return
		}

		next.ServeHTTP(w, r)
	}
}

func ClaimsFromContext(ctx context.Context) (*models.Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*models.Claims)
	return claims, ok && claims != nil
}

// CartIdentityFromRequest resolves who owns the cart of this request: the
// authenticated user when there is one, plus any guest session header.
func CartIdentityFromRequest(r *http.Request) models.CartIdentity {
	identity := models.CartIdentity{SessionID: strings.TrimSpace(r.Header.Get(SessionHeader))}

	if claims, ok := ClaimsFromContext(r.Context()); ok {
		identity.UserID = claims.UserID
	}

	return identity
}
