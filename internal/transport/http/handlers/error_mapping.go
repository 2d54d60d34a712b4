package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/logger"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/usecase"
)

// ErrorCase maps a sentinel error to an HTTP status code and response message.
type ErrorCase struct {
	Err     error
	Status  int
	Message string
}

// taxonomyCases apply after the handler-specific cases. Order matters: locked
// is a kind of disabled.
var taxonomyCases = []ErrorCase{
	{Err: domain.ErrDuplicateIdentifier, Status: http.StatusBadRequest, Message: "Email Already Exists"},
	{Err: domain.ErrAccountLocked, Status: http.StatusBadRequest, Message: "Account temporarily locked after repeated failed logins"},
	{Err: domain.ErrAccountDisabled, Status: http.StatusBadRequest, Message: "Your account has been disabled. Please contact admin to activate it"},
	{Err: domain.ErrInvalidCredential, Status: http.StatusBadRequest, Message: "Invalid email or password"},
	{Err: domain.ErrUploadRejected, Status: http.StatusBadRequest, Message: "Only image files within the size limit are allowed"},
	{Err: domain.ErrNotFound, Status: http.StatusNotFound, Message: "Resource not found"},
	{Err: domain.ErrVersionConflict, Status: http.StatusConflict, Message: "The resource was modified concurrently, please retry"},
	{Err: usecase.ErrUnauthenticated, Status: http.StatusUnauthorized, Message: "Invalid token."},
	{Err: usecase.ErrForbidden, Status: http.StatusForbidden, Message: "Access denied. Insufficient permissions."},
}

// RespondWithMappedError resolves the provided error against known cases or falls back to a generic response.
// Validation failures always answer 400 with their field errors.
func RespondWithMappedError(c *gin.Context, err error, cases []ErrorCase, fallbackStatus int, fallbackMessage string) {
	if err == nil {
		c.Status(http.StatusOK)
		return
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp := NewErrorResponse(c, "Validation failed")
		resp.Errors = verr.Fields
		c.JSON(http.StatusBadRequest, resp)
		return
	}

	for _, group := range [][]ErrorCase{cases, taxonomyCases} {
		for _, cs := range group {
			if cs.Err != nil && errors.Is(err, cs.Err) {
				c.JSON(cs.Status, NewErrorResponse(c, cs.Message))
				return
			}
		}
	}

	if errors.Is(err, domain.ErrValidationFailed) {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, err.Error()))
		return
	}

	logger.WithContext(c.Request.Context()).Error(fallbackMessage,
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(fallbackStatus, NewErrorResponse(c, fallbackMessage))
}

func respondError(c *gin.Context, err error, fallbackMessage string, cases ...ErrorCase) {
	RespondWithMappedError(c, err, cases, http.StatusInternalServerError, fallbackMessage)
}
