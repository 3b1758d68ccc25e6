package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
)

// NotificationHandler lists the caller's inbox.
type NotificationHandler struct {
	facade InboxFacade
}

// NewNotificationHandler constructs NotificationHandler.
func NewNotificationHandler(facade InboxFacade) *NotificationHandler {
	return &NotificationHandler{facade: facade}
}

// List handles GET /api/notifications.
func (h *NotificationHandler) List(c *gin.Context) {
	limit, ok := limitQuery(c)
	if !ok {
		return
	}
	items, err := h.facade.Notifications(c.Request.Context(), CurrentUserID(c), limit)
	if err != nil {
		WriteError(c, err)
		return
	}
	if items == nil {
		items = []model.Notification{}
	}
	c.JSON(http.StatusOK, items)
}
