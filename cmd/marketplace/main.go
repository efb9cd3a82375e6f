package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/aaravmahajanofficial/ekommerce-marketplace/docs"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/api/handlers"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/api/middleware"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/cache"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/config"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/events"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/health"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/lifecycle"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/metrics"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/models"
	repository "github.com/aaravmahajanofficial/ekommerce-marketplace/internal/repositories"
	service "github.com/aaravmahajanofficial/ekommerce-marketplace/internal/services"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/tracing"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

//	@title						Ekommerce Marketplace API
//	@version					1.0
//	@description				Carts, checkout and order lifecycle for a multi-seller marketplace.
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
func main() {

	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	shutdownTracing, err := tracing.Setup(context.Background(), cfg.Otel, cfg.Env)
	if err != nil {
		slog.Error("❌ Error setting up tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Database setup
	repos, err := repository.New(cfg)
	if err != nil {
		slog.Error("❌ Error accessing the database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		if err := repos.Close(); err != nil {
			slog.Error("⚠️ Error closing database connection", slog.String("error", err.Error()))
		} else {
			slog.Info("✅ Database connection closed")
		}
	}()

	// Redis setup
	redisClient, err := repository.NewRedisClient(cfg)
	if err != nil {
		slog.Error("❌ Error accessing the redis instance", slog.String("error", err.Error()))
		os.Exit(1)
	}

	redisCache := cache.NewRedisCache(redisClient, &cfg.Cache)
	defer redisCache.Close()

	publisher := events.NewPublisher(cfg.Kafka)
	defer func() {
		if err := publisher.Close(); err != nil {
			slog.Error("⚠️ Error closing event publisher", slog.String("error", err.Error()))
		}
	}()

	healthHandler, err := health.NewHealthHandler(cfg)
	if err != nil {
		slog.Error("❌ Error setting up health checks", slog.String("error", err.Error()))
		os.Exit(1)
	}

	jwtKey := []byte(cfg.Security.JWTKey)
	tokenTTL := time.Duration(cfg.Security.JWTExpiryHours) * time.Hour
	machine := lifecycle.NewMachine(cfg.Lifecycle.PermissiveTransitions)
	ledger := service.NewInventoryLedger(repos.Product)

	cartService := service.NewCartService(repos.Tx, repos.Cart, repos.Product)
	cartHandler := handlers.NewCartHandler(cartService)
	userService := service.NewUserService(repos.User, repository.NewRateLimitRepo(redisClient, cfg), cartService, jwtKey, tokenTTL)
	userHandler := handlers.NewUserHandler(userService)
	productService := service.NewProductService(repos.Tx, repos.Product, redisCache, cfg.Cache.DefaultTTL)
	productHandler := handlers.NewProductHandler(productService)
	orderService := service.NewOrderService(repos.Tx, repos.Order, repos.Cart, repos.Product, cartService, ledger, machine,
		redisCache, cfg.Cache.DefaultTTL, publisher)
	orderHandler := handlers.NewOrderHandler(orderService)
	authMiddleware := middleware.NewAuthMiddleware(jwtKey)

	slog.Info("storage initialized",
		slog.String("env", cfg.Env),
		slog.String("version", "1.0.0"),
		slog.Bool("permissiveTransitions", cfg.Lifecycle.PermissiveTransitions),
	)

	sellers := func(next http.Handler) http.HandlerFunc {
		return authMiddleware.Authenticate(middleware.RequireRole(next, models.RoleSeller, models.RoleAdmin))
	}

	// Setup router
	routerMux := http.NewServeMux()
	routerMux.HandleFunc("POST /api/v1/users/register", userHandler.Register())
	routerMux.HandleFunc("POST /api/v1/users/login", userHandler.Login())
	routerMux.HandleFunc("GET /api/v1/users/profile", authMiddleware.Authenticate(userHandler.Profile()))

	routerMux.HandleFunc("GET /api/v1/products", productHandler.ListProducts())
	routerMux.HandleFunc("GET /api/v1/products/mine", sellers(productHandler.ListMyProducts()))
	routerMux.HandleFunc("GET /api/v1/products/{id}", productHandler.GetProduct())
	routerMux.HandleFunc("POST /api/v1/products", sellers(productHandler.CreateProduct()))
	routerMux.HandleFunc("PUT /api/v1/products/{id}", sellers(productHandler.UpdateProduct()))
	routerMux.HandleFunc("DELETE /api/v1/products/{id}", sellers(productHandler.DeactivateProduct()))

	routerMux.HandleFunc("GET /api/v1/cart", authMiddleware.OptionalAuthenticate(cartHandler.GetCart()))
	routerMux.HandleFunc("DELETE /api/v1/cart", authMiddleware.OptionalAuthenticate(cartHandler.ClearCart()))
	routerMux.HandleFunc("POST /api/v1/cart/lines", authMiddleware.OptionalAuthenticate(cartHandler.AddLine()))
	routerMux.HandleFunc("PUT /api/v1/cart/lines/{id}", authMiddleware.OptionalAuthenticate(cartHandler.UpdateLine()))
	routerMux.HandleFunc("DELETE /api/v1/cart/lines/{id}", authMiddleware.OptionalAuthenticate(cartHandler.RemoveLine()))

	routerMux.HandleFunc("POST /api/v1/orders", authMiddleware.Authenticate(orderHandler.PlaceOrder()))
	routerMux.HandleFunc("GET /api/v1/orders", authMiddleware.Authenticate(orderHandler.ListOrders()))
	routerMux.HandleFunc("GET /api/v1/orders/seller", sellers(orderHandler.ListSellerOrders()))
	routerMux.HandleFunc("GET /api/v1/orders/{id}", authMiddleware.Authenticate(orderHandler.GetOrder()))
	routerMux.HandleFunc("PUT /api/v1/orders/{id}/cancel", authMiddleware.Authenticate(orderHandler.CancelOrder()))
	routerMux.HandleFunc("PUT /api/v1/orders/{id}/status", sellers(orderHandler.UpdateOrderStatus()))
	routerMux.HandleFunc("PUT /api/v1/orders/{id}/approve", sellers(orderHandler.ApproveOrder()))
	routerMux.HandleFunc("PUT /api/v1/orders/{id}/shipping", sellers(orderHandler.UpdateShippingStatus()))

	routerMux.Handle("GET /metrics", metrics.Handler())
	routerMux.Handle("GET /health", healthHandler.Handler())
	routerMux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// Middleware chaining, metrics sits on the mux so route patterns are visible
	var handler http.Handler = routerMux
	handler = metrics.Middleware(handler)
	handler = middleware.Logging(handler)
	handler = otelhttp.NewHandler(handler, "ekommerce-marketplace")

	// Setup http server
	server := http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("🚀 Server is starting...", slog.String("address", cfg.Addr))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("❌ Failed to start server", slog.String("error", err.Error()))
			done <- syscall.SIGTERM
		}
	}()

	<-done

	slog.Warn("🛑 Shutdown signal received. Preparing to stop the server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("⚠️ Server shutdown encountered an issue", slog.String("error", err.Error()))
	} else {
		slog.Info("✅ Server shut down gracefully. All connections closed.")
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("⚠️ Error flushing traces", slog.String("error", err.Error()))
	}
}
