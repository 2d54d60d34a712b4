package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/transport/http/middleware"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/usecase"
)

var preferencesNotFound = ErrorCase{Err: domain.ErrNotFound, Status: http.StatusNotFound, Message: "Preferences not found"}

// PreferencesHandler exposes the authenticated account's preferences.
type PreferencesHandler struct {
	prefs *usecase.PreferencesService
}

// NewPreferencesHandler constructs PreferencesHandler.
func NewPreferencesHandler(prefs *usecase.PreferencesService) *PreferencesHandler {
	return &PreferencesHandler{prefs: prefs}
}

// RegisterRoutes binds preference routes. The group must already require authentication.
func (h *PreferencesHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.get)
	r.PUT("", h.update)
}

func (h *PreferencesHandler) get(c *gin.Context) {
	accountID, _ := middleware.GetAuthenticatedAccountID(c)
	prefs, err := h.prefs.Get(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err, "Error fetching preferences", preferencesNotFound)
		return
	}
	respond(c, http.StatusOK, "", newPreferencesResponse(prefs))
}

func (h *PreferencesHandler) update(c *gin.Context) {
	var req PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingFailure(c, err))
		return
	}

	accountID, _ := middleware.GetAuthenticatedAccountID(c)
	prefs, err := h.prefs.Update(c.Request.Context(), accountID, req.patch())
	if err != nil {
		respondError(c, err, "Error updating preferences", preferencesNotFound)
		return
	}
	respond(c, http.StatusOK, "Preferences updated successfully", newPreferencesResponse(prefs))
}
