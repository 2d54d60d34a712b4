package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/transport/http/middleware"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/usecase"
)

var (
	wishlistNotFound  = ErrorCase{Err: domain.ErrNotFound, Status: http.StatusNotFound, Message: "Wishlist item not found"}
	wishlistDuplicate = ErrorCase{Err: domain.ErrDuplicateIdentifier, Status: http.StatusConflict, Message: "Product already in wishlist"}
)

// WishlistHandler exposes the authenticated account's wishlist.
type WishlistHandler struct {
	wishlist *usecase.WishlistService
}

// NewWishlistHandler constructs WishlistHandler.
func NewWishlistHandler(wishlist *usecase.WishlistService) *WishlistHandler {
	return &WishlistHandler{wishlist: wishlist}
}

// RegisterRoutes binds wishlist routes. The group must already require authentication.
func (h *WishlistHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.list)
	r.POST("", h.add)
	r.PATCH("/:id", h.update)
	r.DELETE("/:id", h.remove)
}

func (h *WishlistHandler) list(c *gin.Context) {
	filter := domain.WishlistFilter{
		Limit: queryInt(c, "limit"),
		Skip:  queryInt(c, "skip"),
	}
	if raw := c.Query("priority"); raw != "" {
		p := domain.WishlistPriority(raw)
		filter.Priority = &p
	}

	accountID, _ := middleware.GetAuthenticatedAccountID(c)
	page, err := h.wishlist.List(c.Request.Context(), accountID, filter)
	if err != nil {
		respondError(c, err, "Error fetching wishlist")
		return
	}

	out := make([]WishlistItemResponse, 0, len(page.Items))
	for _, w := range page.Items {
		out = append(out, newWishlistItemResponse(w))
	}
	count := len(out)
	c.JSON(http.StatusOK, Response{
		Success: true,
		Count:   &count,
		Data:    out,
		Meta:    ListMeta{Total: page.Total, Limit: page.Limit, Skip: page.Skip},
	})
}

func (h *WishlistHandler) add(c *gin.Context) {
	var req AddWishlistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingFailure(c, err))
		return
	}

	accountID, _ := middleware.GetAuthenticatedAccountID(c)
	item, err := h.wishlist.Add(c.Request.Context(), accountID, domain.WishlistItem{
		ProductID: req.ProductID,
		Notes:     req.Notes,
		Priority:  domain.WishlistPriority(req.Priority),
	})
	if err != nil {
		respondError(c, err, "Error adding to wishlist", wishlistDuplicate)
		return
	}
	respond(c, http.StatusCreated, "Product added to wishlist", newWishlistItemResponse(item))
}

func (h *WishlistHandler) update(c *gin.Context) {
	var req UpdateWishlistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingFailure(c, err))
		return
	}

	accountID, _ := middleware.GetAuthenticatedAccountID(c)
	item, err := h.wishlist.Update(c.Request.Context(), accountID, c.Param("id"), req.patch())
	if err != nil {
		respondError(c, err, "Error updating wishlist item", wishlistNotFound)
		return
	}
	respond(c, http.StatusOK, "Wishlist item updated", newWishlistItemResponse(item))
}

func (h *WishlistHandler) remove(c *gin.Context) {
	accountID, _ := middleware.GetAuthenticatedAccountID(c)
	if err := h.wishlist.Remove(c.Request.Context(), accountID, c.Param("id")); err != nil {
		respondError(c, err, "Error removing wishlist item", wishlistNotFound)
		return
	}
	respond(c, http.StatusOK, "Product removed from wishlist", nil)
}
