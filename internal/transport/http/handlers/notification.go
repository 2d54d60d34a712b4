package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/transport/http/middleware"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/usecase"
)

var notificationNotFound = ErrorCase{Err: domain.ErrNotFound, Status: http.StatusNotFound, Message: "Notification not found"}

// NotificationHandler exposes the in-app notification inbox.
type NotificationHandler struct {
	notifications *usecase.NotificationService
	now           func() time.Time
}

// NewNotificationHandler constructs NotificationHandler.
func NewNotificationHandler(notifications *usecase.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, now: time.Now}
}

// RegisterRoutes binds the inbox routes; admin guards the creation endpoint.
// The group must already require authentication.
func (h *NotificationHandler) RegisterRoutes(r *gin.RouterGroup, admin gin.HandlerFunc) {
	r.GET("", h.list)
	r.POST("", admin, h.create)
	r.GET("/unread-count", h.unreadCount)
	r.PATCH("/read-all", h.markAllRead)
	r.PATCH("/:id/read", h.markRead)
	r.PATCH("/:id/delivered", h.markDelivered)
	r.DELETE("/:id", h.delete)
}

func (h *NotificationHandler) list(c *gin.Context) {
	filter := domain.NotificationFilter{
		Limit: queryInt(c, "limit"),
		Skip:  queryInt(c, "skip"),
	}
	if raw := c.Query("type"); raw != "" {
		t := domain.NotificationType(raw)
		filter.Type = &t
	}
	if raw := c.Query("priority"); raw != "" {
		filter.Priority = &raw
	}
	if raw := c.Query("isRead"); raw != "" {
		isRead, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "isRead must be true or false"))
			return
		}
		filter.IsRead = &isRead
	}

	ctx := c.Request.Context()
	accountID, _ := middleware.GetAuthenticatedAccountID(c)
	page, err := h.notifications.List(ctx, accountID, filter)
	if err != nil {
		respondError(c, err, "Error fetching notifications")
		return
	}
	unread, err := h.notifications.UnreadCount(ctx, accountID)
	if err != nil {
		respondError(c, err, "Error fetching notifications")
		return
	}

	now := h.now()
	out := make([]NotificationResponse, 0, len(page.Items))
	for _, n := range page.Items {
		out = append(out, newNotificationResponse(n, now))
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    out,
		Meta:    PageMeta{Total: page.Total, Limit: page.Limit, Skip: page.Skip, Unread: unread},
	})
}

func (h *NotificationHandler) create(c *gin.Context) {
	var req CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingFailure(c, err))
		return
	}

	n, err := h.notifications.Create(c.Request.Context(), domain.Notification{
		AccountID:      req.UserID,
		Title:          req.Title,
		Message:        req.Message,
		Type:           domain.NotificationType(req.Type),
		AuctionID:      req.AuctionID,
		BidID:          req.BidID,
		DeliveryMethod: req.DeliveryMethod,
		Priority:       req.Priority,
		ActionURL:      req.ActionURL,
		ActionText:     req.ActionText,
	})
	if err != nil {
		respondError(c, err, "Error creating notification")
		return
	}
	respond(c, http.StatusCreated, "Notification created successfully", newNotificationResponse(n, h.now()))
}

func (h *NotificationHandler) unreadCount(c *gin.Context) {
	accountID, _ := middleware.GetAuthenticatedAccountID(c)
	count, err := h.notifications.UnreadCount(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err, "Error counting notifications")
		return
	}
	respond(c, http.StatusOK, "", gin.H{"unread": count})
}

func (h *NotificationHandler) markRead(c *gin.Context) {
	accountID, _ := middleware.GetAuthenticatedAccountID(c)
	if err := h.notifications.MarkRead(c.Request.Context(), accountID, c.Param("id")); err != nil {
		respondError(c, err, "Error updating notification", notificationNotFound)
		return
	}
	respond(c, http.StatusOK, "Notification marked as read", nil)
}

func (h *NotificationHandler) markAllRead(c *gin.Context) {
	accountID, _ := middleware.GetAuthenticatedAccountID(c)
	updated, err := h.notifications.MarkAllRead(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err, "Error updating notifications")
		return
	}
	respond(c, http.StatusOK, "All notifications marked as read", gin.H{"updated": updated})
}

func (h *NotificationHandler) markDelivered(c *gin.Context) {
	accountID, _ := middleware.GetAuthenticatedAccountID(c)
	if err := h.notifications.MarkDelivered(c.Request.Context(), accountID, c.Param("id")); err != nil {
		respondError(c, err, "Error updating notification", notificationNotFound)
		return
	}
	respond(c, http.StatusOK, "Notification marked as delivered", nil)
}

func (h *NotificationHandler) delete(c *gin.Context) {
	accountID, _ := middleware.GetAuthenticatedAccountID(c)
	if err := h.notifications.Delete(c.Request.Context(), accountID, c.Param("id")); err != nil {
		respondError(c, err, "Error deleting notification", notificationNotFound)
		return
	}
	respond(c, http.StatusOK, "Notification deleted", nil)
}

func queryInt(c *gin.Context, key string) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return v
}
