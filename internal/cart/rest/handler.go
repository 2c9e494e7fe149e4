// Package rest provides HTTP handlers for the shopping cart.
package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/GauravMishra537/Kisaan-Dost/internal/cart"
	"github.com/GauravMishra537/Kisaan-Dost/internal/middleware"
	"github.com/GauravMishra537/Kisaan-Dost/internal/product"
	"github.com/GauravMishra537/Kisaan-Dost/pkg/web"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Handler struct {
	service cart.CartService
	logger  *slog.Logger
}

// NewHandler creates a new instance of the cart API.
func NewHandler(service cart.CartService, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger.With("component", "rest.cart"),
	}
}

// RegisterRoutes registers the token-protected cart routes.
func (h *Handler) RegisterRoutes(r chi.Router, authn func(http.Handler) http.Handler) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Use(authn)
		r.Get("/", h.Get)
		r.Post("/", h.Add)
		r.Delete("/{id}", h.Remove)
	})
}

type addRequest struct {
	ProductID string `json:"productId"`
	Qty       int32  `json:"qty"`
}

// Get returns the caller's cart with resolved product snapshots.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	caller := middleware.CurrentAccount(r.Context())
	entries, err := h.service.Get(r.Context(), caller.ID)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving cart", "ID", caller.ID, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch cart")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]any{"cart": entries})
}

// Add puts a product in the cart or increments its quantity.
// A missing qty defaults to 1.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	caller := middleware.CurrentAccount(r.Context())

	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid product ID")
		return
	}
	if req.Qty == 0 {
		req.Qty = 1
	}

	entries, err := h.service.Add(r.Context(), caller.ID, productID, req.Qty)
	if err != nil {
		switch {
		case errors.Is(err, cart.ErrInvalidQuantity):
			web.RespondError(w, mLogger, http.StatusBadRequest, "Quantity must be at least 1")
		case errors.Is(err, product.ErrProductNotFound):
			web.RespondError(w, mLogger, http.StatusNotFound, "Product not found")
		case errors.Is(err, cart.ErrInsufficientStock):
			web.RespondError(w, mLogger, http.StatusBadRequest, err.Error())
		default:
			mLogger.ErrorContext(r.Context(), "Error adding to cart", "ID", caller.ID, "error", err)
			web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to update cart")
		}
		return
	}
	mLogger.InfoContext(r.Context(), "Cart updated", "ID", caller.ID, "product", productID)
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]any{"cart": entries})
}

// Remove drops a product from the caller's cart.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	caller := middleware.CurrentAccount(r.Context())
	productID, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	entries, err := h.service.Remove(r.Context(), caller.ID, productID)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error removing from cart", "ID", caller.ID, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to update cart")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]any{"cart": entries})
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := chimiddleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}
