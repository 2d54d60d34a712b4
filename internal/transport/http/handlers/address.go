package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/transport/http/middleware"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/usecase"
)

var addressNotFound = ErrorCase{Err: domain.ErrNotFound, Status: http.StatusNotFound, Message: "Address not found"}

// AddressHandler exposes the authenticated account's address book.
type AddressHandler struct {
	addresses *usecase.AddressService
}

// NewAddressHandler constructs AddressHandler.
func NewAddressHandler(addresses *usecase.AddressService) *AddressHandler {
	return &AddressHandler{addresses: addresses}
}

// RegisterRoutes binds address routes. The group must already require authentication.
func (h *AddressHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("", h.create)
	r.GET("", h.list)
	r.GET("/default", h.getDefault)
	r.GET("/:id", h.get)
	r.PUT("/:id", h.update)
	r.PATCH("/:id/default", h.setDefault)
	r.PATCH("/:id/use", h.markUsed)
	r.DELETE("/:id", h.delete)
}

func (h *AddressHandler) create(c *gin.Context) {
	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingFailure(c, err))
		return
	}

	accountID, _ := middleware.GetAuthenticatedAccountID(c)
	addr, err := h.addresses.Create(c.Request.Context(), accountID, req.address(), req.IsDefault)
	if err != nil {
		respondError(c, err, "Error creating address")
		return
	}

	respond(c, http.StatusCreated, "Address created successfully", newAddressResponse(addr))
}

func (h *AddressHandler) list(c *gin.Context) {
	var filter *domain.AddressType
	if raw := c.Query("type"); raw != "" {
		t := domain.AddressType(raw)
		filter = &t
	}

	accountID, _ := middleware.GetAuthenticatedAccountID(c)
	list, err := h.addresses.List(c.Request.Context(), accountID, filter)
	if err != nil {
		respondError(c, err, "Error fetching addresses")
		return
	}

	out := make([]AddressResponse, 0, len(list))
	for _, a := range list {
		out = append(out, newAddressResponse(a))
	}
	count := len(out)
	c.JSON(http.StatusOK, Response{Success: true, Count: &count, Data: out})
}

func (h *AddressHandler) getDefault(c *gin.Context) {
	accountID, _ := middleware.GetAuthenticatedAccountID(c)
	addr, err := h.addresses.GetDefault(c.Request.Context(), accountID, domain.AddressType(c.DefaultQuery("type", string(domain.AddressShipping))))
	if err != nil {
		respondError(c, err, "Error fetching default address",
			ErrorCase{Err: domain.ErrNotFound, Status: http.StatusNotFound, Message: "No default address set"})
		return
	}
	respond(c, http.StatusOK, "", newAddressResponse(addr))
}

func (h *AddressHandler) get(c *gin.Context) {
	accountID, _ := middleware.GetAuthenticatedAccountID(c)
	addr, err := h.addresses.Get(c.Request.Context(), accountID, c.Param("id"))
	if err != nil {
		respondError(c, err, "Error fetching address", addressNotFound)
		return
	}
	respond(c, http.StatusOK, "", newAddressResponse(addr))
}

func (h *AddressHandler) update(c *gin.Context) {
	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingFailure(c, err))
		return
	}

	accountID, _ := middleware.GetAuthenticatedAccountID(c)
	addr, err := h.addresses.Update(c.Request.Context(), accountID, c.Param("id"), req.address(), req.IsDefault)
	if err != nil {
		respondError(c, err, "Error updating address", addressNotFound)
		return
	}
	respond(c, http.StatusOK, "Address updated successfully", newAddressResponse(addr))
}

func (h *AddressHandler) setDefault(c *gin.Context) {
	accountID, _ := middleware.GetAuthenticatedAccountID(c)
	addr, err := h.addresses.SetDefault(c.Request.Context(), accountID, c.Param("id"))
	if err != nil {
		respondError(c, err, "Error setting default address", addressNotFound)
		return
	}
	respond(c, http.StatusOK, "Default address updated", newAddressResponse(addr))
}

func (h *AddressHandler) markUsed(c *gin.Context) {
	accountID, _ := middleware.GetAuthenticatedAccountID(c)
	if err := h.addresses.MarkUsed(c.Request.Context(), accountID, c.Param("id")); err != nil {
		respondError(c, err, "Error recording address usage", addressNotFound)
		return
	}
	respond(c, http.StatusOK, "Address usage recorded", nil)
}

func (h *AddressHandler) delete(c *gin.Context) {
	accountID, _ := middleware.GetAuthenticatedAccountID(c)
	if err := h.addresses.Delete(c.Request.Context(), accountID, c.Param("id")); err != nil {
		respondError(c, err, "Error deleting address", addressNotFound)
		return
	}
	respond(c, http.StatusOK, "Address deleted successfully", nil)
}
