// Package rest provides HTTP handlers for checkout and order tracking.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/GauravMishra537/Kisaan-Dost/internal/middleware"
	"github.com/GauravMishra537/Kisaan-Dost/internal/order"
	"github.com/GauravMishra537/Kisaan-Dost/pkg/web"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service  order.OrderService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new instance of the order API.
func NewHandler(service order.OrderService, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With("component", "rest.order"),
	}
}

// RegisterRoutes registers the token-protected order routes.
func (h *Handler) RegisterRoutes(r chi.Router, authn func(http.Handler) http.Handler) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Use(authn)
		r.Post("/", h.Place)
		r.Get("/myorders", h.FindMine)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.FindByID)
			r.Get("/status", h.GetStatus)
			r.Put("/status", h.UpdateStatus)
		})
	})
}

// RegisterAdminRoutes registers the order administration routes.
func (h *Handler) RegisterAdminRoutes(r chi.Router, authn, adminOnly func(http.Handler) http.Handler) {
	r.Route("/api/admin/orders", func(r chi.Router) {
		r.Use(authn, adminOnly)
		r.Get("/", h.List)
		r.Get("/{id}", h.FindByID)
	})
}

const maxPageLimit = 1000

// List returns a page of all orders, optionally filtered by ?status=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	page, limit := web.ParsePage(r, 50, maxPageLimit)

	status := order.Status(r.URL.Query().Get("status"))
	if status != "" && !status.IsValid() {
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid status filter")
		return
	}

	result, err := h.service.List(r.Context(), status, page, limit)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error listing orders", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch orders")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, result)
}

// Place converts the caller's cart into an order.
func (h *Handler) Place(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	caller := middleware.CurrentAccount(r.Context())

	var dto order.PlaceOrderDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(dto); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			errorResponse := make(map[string]string)
			for _, fieldErr := range validationErrors {
				errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
			}
			mLogger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
			web.RespondJSON(w, mLogger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
			return
		}
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to place order", "ID", caller.ID)
	placed, err := h.service.PlaceOrder(r.Context(), caller.ID, dto)
	if err != nil {
		var unavailable *order.CartUnavailableError
		switch {
		case errors.Is(err, order.ErrEmptyCart):
			web.RespondError(w, mLogger, http.StatusBadRequest, "No items in cart")
		case errors.Is(err, order.ErrShippingAddressRequired):
			web.RespondError(w, mLogger, http.StatusBadRequest, "Shipping address is required")
		case errors.As(err, &unavailable):
			web.RespondJSON(w, mLogger, http.StatusBadRequest, map[string]any{
				"error":        "All items in your cart are no longer available",
				"removedItems": unavailable.Removed,
			})
		case errors.Is(err, order.ErrProductUnavailable), errors.Is(err, order.ErrInsufficientStock):
			web.RespondError(w, mLogger, http.StatusBadRequest, err.Error())
		default:
			mLogger.ErrorContext(r.Context(), "Error placing order", "ID", caller.ID, "error", err)
			web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to place order")
		}
		return
	}
	mLogger.InfoContext(r.Context(), "Order placed", "order", placed.Order.ID, "user", caller.ID, "total", placed.Order.TotalPrice)
	web.RespondJSON(w, mLogger, http.StatusCreated, placed)
}

// FindMine returns the caller's orders, newest first.
func (h *Handler) FindMine(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	caller := middleware.CurrentAccount(r.Context())
	orders, err := h.service.FindByUser(r.Context(), caller.ID)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving orders", "ID", caller.ID, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch orders")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, orders)
}

// FindByID retrieves a single order for its owner or an admin.
func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	caller := middleware.CurrentAccount(r.Context())
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	found, err := h.service.FindByID(r.Context(), caller, id)
	if err != nil {
		h.respondOrderError(w, r, mLogger, id.Hex(), err)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// GetStatus returns the tracking summary of an order.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	caller := middleware.CurrentAccount(r.Context())
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	status, err := h.service.GetStatus(r.Context(), caller, id)
	if err != nil {
		h.respondOrderError(w, r, mLogger, id.Hex(), err)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, status)
}

// UpdateStatus records a new tracking state for an order.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	caller := middleware.CurrentAccount(r.Context())
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	var dto order.StatusUpdateDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	status, err := h.service.UpdateStatus(r.Context(), caller, id, dto)
	if err != nil {
		if errors.Is(err, order.ErrInvalidStatus) {
			web.RespondError(w, mLogger, http.StatusBadRequest, err.Error())
			return
		}
		h.respondOrderError(w, r, mLogger, id.Hex(), err)
		return
	}
	mLogger.InfoContext(r.Context(), "Order status updated", "order", id, "status", status.Status, "by", caller.ID)
	web.RespondJSON(w, mLogger, http.StatusOK, status)
}

func (h *Handler) respondOrderError(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, id string, err error) {
	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Order with ID %s not found", id))
	case errors.Is(err, order.ErrAccessDenied):
		web.RespondError(w, mLogger, http.StatusForbidden, "Not authorized to view this order")
	default:
		mLogger.ErrorContext(r.Context(), "Error handling order request", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to process order request")
	}
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := chimiddleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}
