package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/port"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/usecase"
)

// TokenHeader carries the access token in both directions.
const TokenHeader = "auth-token"

// ErrorResponse matches the failure envelope written by the handlers.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Message: message, TraceID: GetTraceID(c)})
}

// Authenticator resolves a token to the live account it was issued for.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Account, *port.TokenClaims, error)
}

// RequireAuth validates the auth-token header and stores the account in the context.
func RequireAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(TokenHeader))
		if token == "" {
			abort(c, http.StatusUnauthorized, "Access denied. No token provided.")
			return
		}

		account, claims, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, usecase.ErrUnauthenticated):
				abort(c, http.StatusUnauthorized, "Invalid token.")
			case errors.Is(err, domain.ErrAccountDisabled):
				abort(c, http.StatusUnauthorized, "Account is disabled.")
			default:
				abort(c, http.StatusInternalServerError, "authentication failed")
			}
			return
		}

		c.Set(AccountIDKey, account.ID)
		c.Set(RoleKey, account.Role)
		c.Set(AccountKey, *account)
		c.Set("claims", claims)

		if reqCtx := GetRequestContext(c); reqCtx != nil {
			reqCtx.AccountID = account.ID
		}

		c.Next()
	}
}

// RequireRole rejects accounts whose role is not in roles.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		val, exists := c.Get(RoleKey)
		if !exists {
			abort(c, http.StatusUnauthorized, "authentication required")
			return
		}

		role, ok := val.(domain.Role)
		if !ok {
			abort(c, http.StatusInternalServerError, "invalid role format")
			return
		}

		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "Access denied. Insufficient permissions.")
	}
}

// GetAuthenticatedAccountID retrieves the account ID stored by RequireAuth.
func GetAuthenticatedAccountID(c *gin.Context) (string, bool) {
	v, exists := c.Get(AccountIDKey)
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// GetAuthenticatedAccount retrieves the account snapshot stored by RequireAuth.
func GetAuthenticatedAccount(c *gin.Context) (domain.Account, bool) {
	v, exists := c.Get(AccountKey)
	if !exists {
		return domain.Account{}, false
	}
	account, ok := v.(domain.Account)
	return account, ok
}
