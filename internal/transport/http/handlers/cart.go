package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/transport/http/middleware"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/usecase"
)

var (
	cartInactive = ErrorCase{Err: usecase.ErrCartInactive, Status: http.StatusNotFound, Message: "Cart is no longer active"}
	cartNotFound = ErrorCase{Err: domain.ErrNotFound, Status: http.StatusNotFound, Message: "Cart not found"}
)

// CartHandler exposes the authenticated account's cart.
type CartHandler struct {
	carts *usecase.CartService
	now   func() time.Time
}

// NewCartHandler constructs CartHandler.
func NewCartHandler(carts *usecase.CartService) *CartHandler {
	return &CartHandler{carts: carts, now: time.Now}
}

// RegisterRoutes binds cart routes. The group must already require authentication.
func (h *CartHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.get)
	r.DELETE("", h.clear)
	r.POST("/items", h.addItem)
	r.DELETE("/items", h.removeItem)
	r.POST("/coupons", h.applyCoupon)
	r.DELETE("/coupons/:code", h.removeCoupon)
	r.PUT("/shipping", h.setShipping)
}

func (h *CartHandler) write(c *gin.Context, cart domain.Cart, err error, message, failure string, cases ...ErrorCase) {
	if err != nil {
		mapped := append([]ErrorCase{cartInactive}, cases...)
		respondError(c, err, failure, append(mapped, cartNotFound)...)
		return
	}
	respond(c, http.StatusOK, message, newCartResponse(cart, h.now()))
}

func (h *CartHandler) get(c *gin.Context) {
	accountID, _ := middleware.GetAuthenticatedAccountID(c)
	cart, err := h.carts.Get(c.Request.Context(), accountID)
	h.write(c, cart, err, "Cart retrieved successfully", "Error fetching cart")
}

func (h *CartHandler) addItem(c *gin.Context) {
	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingFailure(c, err))
		return
	}

	accountID, _ := middleware.GetAuthenticatedAccountID(c)
	cart, err := h.carts.AddItem(c.Request.Context(), accountID, domain.NewCartItem{
		ProductID:   req.ProductID,
		Quantity:    req.Quantity,
		Variant:     req.Variant,
		PriceAtTime: req.PriceAtTime,
		Discount:    req.Discount,
		Tax:         req.Tax,
		Notes:       req.Notes,
	})
	h.write(c, cart, err, "Item added to cart", "Error adding item to cart")
}

func (h *CartHandler) removeItem(c *gin.Context) {
	var req RemoveCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingFailure(c, err))
		return
	}

	accountID, _ := middleware.GetAuthenticatedAccountID(c)
	cart, err := h.carts.RemoveItem(c.Request.Context(), accountID, req.ProductID, req.Variant)
	h.write(c, cart, err, "Item removed from cart", "Error removing item from cart",
		ErrorCase{Err: domain.ErrNotFound, Status: http.StatusNotFound, Message: "Item not found in cart"})
}

func (h *CartHandler) clear(c *gin.Context) {
	accountID, _ := middleware.GetAuthenticatedAccountID(c)
	cart, err := h.carts.Clear(c.Request.Context(), accountID)
	h.write(c, cart, err, "Cart cleared", "Error clearing cart")
}

func (h *CartHandler) applyCoupon(c *gin.Context) {
	var req ApplyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingFailure(c, err))
		return
	}

	accountID, _ := middleware.GetAuthenticatedAccountID(c)
	cart, err := h.carts.ApplyCoupon(c.Request.Context(), accountID, req.Code, req.DiscountAmount)
	h.write(c, cart, err, "Coupon applied", "Error applying coupon")
}

func (h *CartHandler) removeCoupon(c *gin.Context) {
	accountID, _ := middleware.GetAuthenticatedAccountID(c)
	cart, err := h.carts.RemoveCoupon(c.Request.Context(), accountID, c.Param("code"))
	h.write(c, cart, err, "Coupon removed", "Error removing coupon",
		ErrorCase{Err: domain.ErrNotFound, Status: http.StatusNotFound, Message: "Coupon not applied to cart"})
}

func (h *CartHandler) setShipping(c *gin.Context) {
	var req ShippingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingFailure(c, err))
		return
	}

	accountID, _ := middleware.GetAuthenticatedAccountID(c)
	cart, err := h.carts.SetShipping(c.Request.Context(), accountID, req.MethodID, req.Cost)
	h.write(c, cart, err, "Shipping method updated", "Error updating shipping")
}
