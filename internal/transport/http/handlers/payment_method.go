package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/transport/http/middleware"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/usecase"
)

var paymentMethodNotFound = ErrorCase{Err: domain.ErrNotFound, Status: http.StatusNotFound, Message: "Payment method not found"}

// PaymentMethodHandler exposes stored payment methods.
type PaymentMethodHandler struct {
	methods *usecase.PaymentMethodService
}

// NewPaymentMethodHandler constructs PaymentMethodHandler.
func NewPaymentMethodHandler(methods *usecase.PaymentMethodService) *PaymentMethodHandler {
	return &PaymentMethodHandler{methods: methods}
}

// RegisterRoutes binds payment method routes. The group must already require authentication.
func (h *PaymentMethodHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("", h.create)
	r.GET("", h.list)
	r.GET("/default", h.getDefault)
	r.GET("/:id", h.get)
	r.PUT("/:id", h.update)
	r.PATCH("/:id/default", h.setDefault)
	r.PATCH("/:id/use", h.markUsed)
	r.DELETE("/:id", h.delete)
}

func (h *PaymentMethodHandler) create(c *gin.Context) {
	var req PaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingFailure(c, err))
		return
	}

	accountID, _ := middleware.GetAuthenticatedAccountID(c)
	pm, err := h.methods.Create(c.Request.Context(), accountID, req.method(), req.IsDefault)
	if err != nil {
		respondError(c, err, "Error adding payment method")
		return
	}
	respond(c, http.StatusCreated, "Payment method added successfully", newPaymentMethodResponse(pm))
}

func (h *PaymentMethodHandler) list(c *gin.Context) {
	accountID, _ := middleware.GetAuthenticatedAccountID(c)
	list, err := h.methods.List(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err, "Error fetching payment methods")
		return
	}

	out := make([]PaymentMethodResponse, 0, len(list))
	for _, pm := range list {
		out = append(out, newPaymentMethodResponse(pm))
	}
	count := len(out)
	c.JSON(http.StatusOK, Response{Success: true, Count: &count, Data: out})
}

func (h *PaymentMethodHandler) getDefault(c *gin.Context) {
	accountID, _ := middleware.GetAuthenticatedAccountID(c)
	pm, err := h.methods.GetDefault(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err, "Error fetching default payment method",
			ErrorCase{Err: domain.ErrNotFound, Status: http.StatusNotFound, Message: "No default payment method set"})
		return
	}
	respond(c, http.StatusOK, "", newPaymentMethodResponse(pm))
}

func (h *PaymentMethodHandler) get(c *gin.Context) {
	accountID, _ := middleware.GetAuthenticatedAccountID(c)
	pm, err := h.methods.Get(c.Request.Context(), accountID, c.Param("id"))
	if err != nil {
		respondError(c, err, "Error fetching payment method", paymentMethodNotFound)
		return
	}
	respond(c, http.StatusOK, "", newPaymentMethodResponse(pm))
}

func (h *PaymentMethodHandler) update(c *gin.Context) {
	var req PaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingFailure(c, err))
		return
	}

	accountID, _ := middleware.GetAuthenticatedAccountID(c)
	pm, err := h.methods.Update(c.Request.Context(), accountID, c.Param("id"), req.method(), req.IsDefault)
	if err != nil {
		respondError(c, err, "Error updating payment method", paymentMethodNotFound)
		return
	}
	respond(c, http.StatusOK, "Payment method updated successfully", newPaymentMethodResponse(pm))
}

func (h *PaymentMethodHandler) setDefault(c *gin.Context) {
	accountID, _ := middleware.GetAuthenticatedAccountID(c)
	pm, err := h.methods.SetDefault(c.Request.Context(), accountID, c.Param("id"))
	if err != nil {
		respondError(c, err, "Error setting default payment method", paymentMethodNotFound)
		return
	}
	respond(c, http.StatusOK, "Default payment method updated", newPaymentMethodResponse(pm))
}

func (h *PaymentMethodHandler) markUsed(c *gin.Context) {
	accountID, _ := middleware.GetAuthenticatedAccountID(c)
	if err := h.methods.MarkUsed(c.Request.Context(), accountID, c.Param("id")); err != nil {
		respondError(c, err, "Error recording payment method usage", paymentMethodNotFound)
		return
	}
	respond(c, http.StatusOK, "Payment method usage recorded", nil)
}

func (h *PaymentMethodHandler) delete(c *gin.Context) {
	accountID, _ := middleware.GetAuthenticatedAccountID(c)
	if err := h.methods.Delete(c.Request.Context(), accountID, c.Param("id")); err != nil {
		respondError(c, err, "Error removing payment method", paymentMethodNotFound)
		return
	}
	respond(c, http.StatusOK, "Payment method removed successfully", nil)
}
