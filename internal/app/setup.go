// Package app contains the application setup for the marketplace server.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/GauravMishra537/Kisaan-Dost/internal/account"
	accountrest "github.com/GauravMishra537/Kisaan-Dost/internal/account/rest"
	"github.com/GauravMishra537/Kisaan-Dost/internal/cart"
	cartrest "github.com/GauravMishra537/Kisaan-Dost/internal/cart/rest"
	"github.com/GauravMishra537/Kisaan-Dost/internal/config"
	"github.com/GauravMishra537/Kisaan-Dost/internal/middleware"
	"github.com/GauravMishra537/Kisaan-Dost/internal/order"
	orderrest "github.com/GauravMishra537/Kisaan-Dost/internal/order/rest"
	"github.com/GauravMishra537/Kisaan-Dost/internal/product"
	productrest "github.com/GauravMishra537/Kisaan-Dost/internal/product/rest"
	"github.com/GauravMishra537/Kisaan-Dost/pkg/auth"
	"github.com/GauravMishra537/Kisaan-Dost/pkg/server"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

type Dependencies struct {
	AccountStore   account.Store
	AccountService account.AccountService
	ProductService product.ProductService
	CartService    cart.CartService
	OrderService   order.OrderService
	Tokens         *auth.TokenService
	Logger         *slog.Logger
}

// SetupDependencies wires the stores and services over the given database.
func SetupDependencies(db *mongo.Database, tokens *auth.TokenService, logger *slog.Logger) *Dependencies {
	accountStore := account.NewMongoStore(db)
	productStore := product.NewMongoStore(db)
	orderStore := order.NewMongoStore(db)

	return &Dependencies{
		AccountStore:   accountStore,
		AccountService: account.NewService(accountStore, tokens),
		ProductService: product.NewService(productStore),
		CartService:    cart.NewService(accountStore, productStore),
		OrderService:   order.NewService(orderStore, accountStore, productStore),
		Tokens:         tokens,
		Logger:         logger,
	}
}

// EnsureIndexes creates the indexes every collection relies on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	if err := account.NewMongoStore(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("account indexes: %w", err)
	}
	if err := product.NewMongoStore(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("product indexes: %w", err)
	}
	if err := order.NewMongoStore(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("order indexes: %w", err)
	}
	return nil
}

// SetupHttpHandler initializes the router and registers every API route.
// Used by E2E tests to set up the HTTP server with the necessary routes
// and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the marketplace server.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	authn := middleware.Authenticator(deps.Tokens, deps.AccountStore, deps.Logger)
	adminOnly := middleware.RequireAdmin(deps.Logger)
	farmerOnly := middleware.RequireFarmer(deps.Logger)

	accountHandler := accountrest.NewHandler(deps.AccountService, deps.Logger)
	accountHandler.RegisterRoutes(mux, authn)
	accountHandler.RegisterAdminRoutes(mux, authn, adminOnly)

	productHandler := productrest.NewHandler(deps.ProductService, deps.Logger)
	productHandler.RegisterRoutes(mux, authn, farmerOnly)

	cartHandler := cartrest.NewHandler(deps.CartService, deps.Logger)
	cartHandler.RegisterRoutes(mux, authn)

	orderHandler := orderrest.NewHandler(deps.OrderService, deps.Logger)
	orderHandler.RegisterRoutes(mux, authn)
	orderHandler.RegisterAdminRoutes(mux, authn, adminOnly)

	mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// SetupHttpServer creates and configures the HTTP server for the
// marketplace application.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}
