// Package middleware provides the authentication and role gates.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/GauravMishra537/Kisaan-Dost/internal/account"
	"github.com/GauravMishra537/Kisaan-Dost/pkg/auth"
	"github.com/GauravMishra537/Kisaan-Dost/pkg/web"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type contextKey string

const accountContextKey = contextKey("account")

// Authenticator verifies the bearer token in the Authorization header,
// resolves it to an account record and adds the account to the request
// context. Missing or invalid credentials yield a 401; blocked accounts a
// 403. Handlers downstream receive the resolved caller explicitly via
// CurrentAccount, never through ambient globals.
func Authenticator(verifier auth.Verifier, accounts account.Store, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				web.RespondError(w, logger, http.StatusUnauthorized, "Not authorized, no token")
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader { // no Bearer prefix
				web.RespondError(w, logger, http.StatusUnauthorized, "Bearer token is required")
				return
			}

			token, err := verifier.Verify(r.Context(), tokenString)
			if err != nil {
				web.RespondError(w, logger, http.StatusUnauthorized, "Not authorized, token failed")
				return
			}

			// get the account ID from the token claims
			subject, ok := token.Subject()
			if !ok {
				web.RespondError(w, logger, http.StatusUnauthorized, "no claim `sub`")
				return
			}
			id, err := primitive.ObjectIDFromHex(subject)
			if err != nil {
				web.RespondError(w, logger, http.StatusUnauthorized, "Invalid token subject")
				return
			}

			a, err := accounts.FindByID(r.Context(), id)
			if err != nil {
				web.RespondError(w, logger, http.StatusUnauthorized, "Not authorized, token failed")
				return
			}
			if a.Blocked {
				web.RespondError(w, logger, http.StatusForbidden, "Your account is blocked. Please contact support or admin.")
				return
			}

			// Enrich the request context with the resolved caller.
			ctx := WithAccount(r.Context(), a)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects callers without the Admin role.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return requireRole(logger, "Admin access required", account.RoleAdmin)
}

// RequireFarmer rejects callers without the Farmer role.
func RequireFarmer(logger *slog.Logger) func(http.Handler) http.Handler {
	return requireRole(logger, "Not authorized as a farmer", account.RoleFarmer)
}

func requireRole(logger *slog.Logger, message string, roles ...account.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a := CurrentAccount(r.Context())
			if a == nil {
				web.RespondError(w, logger, http.StatusUnauthorized, "Not authenticated")
				return
			}
			for _, role := range roles {
				if a.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			web.RespondError(w, logger, http.StatusForbidden, message)
		})
	}
}

// WithAccount adds the resolved account to the context.
func WithAccount(ctx context.Context, a *account.Account) context.Context {
	return context.WithValue(ctx, accountContextKey, a)
}

// CurrentAccount retrieves the resolved account from the context.
// Returns nil when the request did not pass the Authenticator.
func CurrentAccount(ctx context.Context) *account.Account {
	a, _ := ctx.Value(accountContextKey).(*account.Account)
	return a
}
