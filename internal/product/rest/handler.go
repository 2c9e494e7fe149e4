// Package rest provides HTTP handlers for the product catalog.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/GauravMishra537/Kisaan-Dost/internal/middleware"
	"github.com/GauravMishra537/Kisaan-Dost/internal/product"
	"github.com/GauravMishra537/Kisaan-Dost/pkg/web"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service  product.ProductService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new instance of the product API.
func NewHandler(service product.ProductService, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With("component", "rest.product"),
	}
}

// RegisterRoutes registers public catalog routes and farmer-only
// management routes. authn resolves the bearer token; farmerOnly rejects
// non-farmer callers.
func (h *Handler) RegisterRoutes(r chi.Router, authn, farmerOnly func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.FindAll)
		r.Get("/category/{name}", h.FindByCategory)

		r.Group(func(r chi.Router) {
			r.Use(authn, farmerOnly)
			r.Get("/myproducts", h.FindMine)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})

		r.Get("/{id}", h.FindByID)
	})
}

// FindAll retrieves the full public catalog.
func (h *Handler) FindAll(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	list, err := h.service.FindAll(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving product list", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// FindByCategory retrieves all products in one category.
func (h *Handler) FindByCategory(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	category := chi.URLParam(r, "name")
	list, err := h.service.FindByCategory(r.Context(), category)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving products by category", "category", category, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// FindByID retrieves a single product.
func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	found, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, product.ErrProductNotFound) {
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product with ID %s not found", id.Hex()))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error retrieving product", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch product")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// FindMine retrieves the calling farmer's own listings.
func (h *Handler) FindMine(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	caller := middleware.CurrentAccount(r.Context())
	list, err := h.service.FindByFarmer(r.Context(), caller.ID)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving farmer products", "farmer", caller.ID, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// Create lists a new product owned by the calling farmer.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	caller := middleware.CurrentAccount(r.Context())
	var dto product.CreateDto
	if !h.bindJSON(w, r, mLogger, &dto) {
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to create product", "name", dto.Name, "farmer", caller.ID)
	created, err := h.service.Create(r.Context(), caller.ID, dto)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error creating product", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to create product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product created", "ID", created.ID, "Name", created.Name)
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// Update applies a partial update to the calling farmer's own product.
// A product owned by someone else reads as not found.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	caller := middleware.CurrentAccount(r.Context())
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	var dto product.UpdateDto
	if !h.bindJSON(w, r, mLogger, &dto) {
		return
	}
	updated, err := h.service.Update(r.Context(), caller.ID, id, dto)
	if err != nil {
		if errors.Is(err, product.ErrProductNotFound) || errors.Is(err, product.ErrNotOwner) {
			web.RespondError(w, mLogger, http.StatusNotFound, "Product not found or not authorized")
			return
		}
		mLogger.ErrorContext(r.Context(), "Error updating product", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to update product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product updated", "ID", updated.ID)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// Delete removes the calling farmer's own product.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	caller := middleware.CurrentAccount(r.Context())
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), caller.ID, id); err != nil {
		if errors.Is(err, product.ErrProductNotFound) || errors.Is(err, product.ErrNotOwner) {
			web.RespondError(w, mLogger, http.StatusNotFound, "Product not found or not authorized")
			return
		}
		mLogger.ErrorContext(r.Context(), "Error deleting product", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to delete product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product deleted", "ID", id)
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]string{"message": "Product removed"})
}

func (h *Handler) bindJSON(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			errorResponse := make(map[string]string)
			for _, fieldErr := range validationErrors {
				errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
			}
			mLogger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
			web.RespondJSON(w, mLogger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
			return false
		}
		mLogger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := chimiddleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}
