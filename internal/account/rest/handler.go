// Package rest provides HTTP handlers for registration, authentication
// and profile management.
package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/GauravMishra537/Kisaan-Dost/internal/account"
	"github.com/GauravMishra537/Kisaan-Dost/internal/middleware"
	"github.com/GauravMishra537/Kisaan-Dost/pkg/web"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service  account.AccountService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new instance of the auth/profile API.
func NewHandler(service account.AccountService, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With("component", "rest.account"),
	}
}

// RegisterRoutes registers the public auth routes and the token-protected
// profile routes. The authn middleware resolves the bearer token to an
// account.
func (h *Handler) RegisterRoutes(r chi.Router, authn func(http.Handler) http.Handler) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/forgot", h.Forgot)
		r.Post("/verify-security", h.VerifySecurity)
		r.Post("/reset-password", h.ResetPassword)
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Use(authn)
		r.Get("/profile", h.Profile)
		r.Put("/profile", h.UpdateProfile)
		r.Delete("/profile", h.DeleteProfile)
	})
}

// RegisterAdminRoutes registers the account administration routes.
// adminOnly is expected to reject non-admin callers before these run.
func (h *Handler) RegisterAdminRoutes(r chi.Router, authn, adminOnly func(http.Handler) http.Handler) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(authn, adminOnly)
		r.Get("/users", h.ListUsers)
		r.Get("/farmers", h.ListFarmers)

		r.Route("/users/{id}", func(r chi.Router) {
			r.Put("/block", h.Block)
			r.Put("/unblock", h.Unblock)
			r.Put("/promote", h.Promote)
			r.Delete("/", h.DeleteUser)
		})
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type forgotRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type verifySecurityRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Answer string `json:"securityAnswer" validate:"required"`
}

type resetPasswordRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Token    string `json:"resetToken" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// Register creates a new account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto account.RegisterDto
	if !h.bindJSON(w, r, mLogger, &dto) {
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to register account", "email", dto.Email)
	created, err := h.service.Register(r.Context(), dto)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrEmailExists):
			mLogger.WarnContext(r.Context(), "Email already registered", "email", dto.Email)
			web.RespondError(w, mLogger, http.StatusBadRequest, "User already exists")
		case errors.Is(err, account.ErrInvalidRole):
			web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid role")
		default:
			mLogger.ErrorContext(r.Context(), "Error registering account", "error", err)
			web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to register")
		}
		return
	}
	mLogger.InfoContext(r.Context(), "Account registered", "ID", created.ID, "role", created.Role)
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// Login authenticates by email and password and returns a signed token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var req loginRequest
	if !h.bindJSON(w, r, mLogger, &req) {
		return
	}
	authDto, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrAccountBlocked):
			mLogger.WarnContext(r.Context(), "Blocked account attempted login", "email", req.Email)
			web.RespondError(w, mLogger, http.StatusForbidden, "Your account is blocked. Please contact support or admin.")
		case errors.Is(err, account.ErrInvalidCredentials), errors.Is(err, account.ErrAccountNotFound):
			web.RespondError(w, mLogger, http.StatusUnauthorized, "Invalid email or password")
		default:
			mLogger.ErrorContext(r.Context(), "Error during login", "error", err)
			web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to log in")
		}
		return
	}
	mLogger.InfoContext(r.Context(), "Login successful", "ID", authDto.ID)
	web.RespondJSON(w, mLogger, http.StatusOK, authDto)
}

// Forgot returns the account's security question. The reply is the same
// whether or not the account exists, to avoid leaking registered emails.
func (h *Handler) Forgot(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var req forgotRequest
	if !h.bindJSON(w, r, mLogger, &req) {
		return
	}
	question, err := h.service.SecurityQuestion(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) || errors.Is(err, account.ErrNoSecurityQuestion) {
			web.RespondJSON(w, mLogger, http.StatusOK, map[string]string{
				"message": "If the account exists, the security question has been provided",
			})
			return
		}
		mLogger.ErrorContext(r.Context(), "Error fetching security question", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to process request")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]string{"securityQuestion": question})
}

// VerifySecurity checks the security answer and issues a reset token.
func (h *Handler) VerifySecurity(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var req verifySecurityRequest
	if !h.bindJSON(w, r, mLogger, &req) {
		return
	}
	token, err := h.service.VerifySecurityAnswer(r.Context(), req.Email, req.Answer)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrSecurityAnswerMismatch):
			web.RespondError(w, mLogger, http.StatusUnauthorized, "Incorrect security answer")
		case errors.Is(err, account.ErrAccountNotFound), errors.Is(err, account.ErrNoSecurityQuestion):
			web.RespondError(w, mLogger, http.StatusNotFound, "Account not found")
		default:
			mLogger.ErrorContext(r.Context(), "Error verifying security answer", "error", err)
			web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to process request")
		}
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]string{"resetToken": token})
}

// ResetPassword consumes a valid reset token and sets a new password.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var req resetPasswordRequest
	if !h.bindJSON(w, r, mLogger, &req) {
		return
	}
	if err := h.service.ResetPassword(r.Context(), req.Email, req.Token, req.Password); err != nil {
		switch {
		case errors.Is(err, account.ErrResetTokenInvalid):
			web.RespondError(w, mLogger, http.StatusUnauthorized, "Invalid or expired reset token")
		case errors.Is(err, account.ErrAccountNotFound):
			web.RespondError(w, mLogger, http.StatusNotFound, "Account not found")
		default:
			mLogger.ErrorContext(r.Context(), "Error resetting password", "error", err)
			web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to reset password")
		}
		return
	}
	mLogger.InfoContext(r.Context(), "Password reset", "email", req.Email)
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]string{"message": "Password reset successful"})
}

// Profile returns the caller's own profile.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	caller := middleware.CurrentAccount(r.Context())
	profile, err := h.service.Profile(r.Context(), caller.ID)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			web.RespondError(w, mLogger, http.StatusNotFound, "Account not found")
			return
		}
		mLogger.ErrorContext(r.Context(), "Error retrieving profile", "ID", caller.ID, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch profile")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, profile)
}

// UpdateProfile applies a partial profile update.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	caller := middleware.CurrentAccount(r.Context())
	var dto account.ProfileUpdateDto
	if !h.bindJSON(w, r, mLogger, &dto) {
		return
	}
	updated, err := h.service.UpdateProfile(r.Context(), caller.ID, dto)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrEmailExists):
			web.RespondError(w, mLogger, http.StatusBadRequest, "Email already in use")
		case errors.Is(err, account.ErrAccountNotFound):
			web.RespondError(w, mLogger, http.StatusNotFound, "Account not found")
		default:
			mLogger.ErrorContext(r.Context(), "Error updating profile", "ID", caller.ID, "error", err)
			web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to update profile")
		}
		return
	}
	mLogger.InfoContext(r.Context(), "Profile updated", "ID", caller.ID)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// DeleteProfile removes the caller's own account.
func (h *Handler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	caller := middleware.CurrentAccount(r.Context())
	if err := h.service.Delete(r.Context(), caller.ID); err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			web.RespondError(w, mLogger, http.StatusNotFound, "Account not found")
			return
		}
		mLogger.ErrorContext(r.Context(), "Error deleting account", "ID", caller.ID, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to delete account")
		return
	}
	mLogger.InfoContext(r.Context(), "Account deleted", "ID", caller.ID)
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]string{"message": "Account deleted"})
}

const maxPageLimit = 1000

// ListUsers returns a page of account summaries, optionally filtered by
// role via ?role=.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	page, limit := web.ParsePage(r, 50, maxPageLimit)

	role := account.Role(r.URL.Query().Get("role"))
	if role != "" && !role.IsValid() {
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid role filter")
		return
	}

	result, err := h.service.List(r.Context(), role, page, limit)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error listing accounts", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch users")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, result)
}

// ListFarmers returns a page of farmer accounts.
func (h *Handler) ListFarmers(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	page, limit := web.ParsePage(r, 50, maxPageLimit)

	result, err := h.service.List(r.Context(), account.RoleFarmer, page, limit)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error listing farmers", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch farmers")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, result)
}

// Block marks an account as blocked.
func (h *Handler) Block(w http.ResponseWriter, r *http.Request) {
	h.setBlocked(w, r, true)
}

// Unblock lifts the block on an account.
func (h *Handler) Unblock(w http.ResponseWriter, r *http.Request) {
	h.setBlocked(w, r, false)
}

func (h *Handler) setBlocked(w http.ResponseWriter, r *http.Request, blocked bool) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	summary, err := h.service.SetBlocked(r.Context(), id, blocked)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			web.RespondError(w, mLogger, http.StatusNotFound, "Account not found")
			return
		}
		mLogger.ErrorContext(r.Context(), "Error updating blocked flag", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to update account")
		return
	}
	mLogger.InfoContext(r.Context(), "Account blocked flag updated", "ID", id, "blocked", blocked)
	web.RespondJSON(w, mLogger, http.StatusOK, summary)
}

type promoteRequest struct {
	MakeAdmin bool `json:"makeAdmin"`
}

// Promote toggles the Admin role on an account. Demotion reverts to Buyer.
func (h *Handler) Promote(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	var req promoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	summary, err := h.service.SetAdmin(r.Context(), id, req.MakeAdmin)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			web.RespondError(w, mLogger, http.StatusNotFound, "Account not found")
			return
		}
		mLogger.ErrorContext(r.Context(), "Error updating admin role", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to update account")
		return
	}
	mLogger.InfoContext(r.Context(), "Account role updated", "ID", id, "role", summary.Role)
	web.RespondJSON(w, mLogger, http.StatusOK, summary)
}

// DeleteUser removes an account.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			web.RespondError(w, mLogger, http.StatusNotFound, "Account not found")
			return
		}
		mLogger.ErrorContext(r.Context(), "Error deleting account", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to delete account")
		return
	}
	mLogger.InfoContext(r.Context(), "Account deleted by admin", "ID", id)
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]string{"message": "User removed"})
}

// bindJSON decodes the request body into dst and validates it. Responds
// with a 400 and reports false when either step fails.
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
