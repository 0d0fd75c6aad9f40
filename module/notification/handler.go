package notification

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	midsec "sparrow/middleware/security"
	notifmodel "sparrow/module/notification/model"
	"sparrow/tools/errs"
)

type Store interface {
	ListNotifications(ctx context.Context, receiverID string) ([]notifmodel.Notification, error)
	MarkNotificationsSeen(ctx context.Context, receiverID string) (int64, error)
}

type Handler struct {
	Store Store
}

// HandlerList returns the caller's notifications, newest first.
func (h *Handler) HandlerList(c *gin.Context) {
	me := midsec.UserID(c)
	out, err := h.Store.ListNotifications(c, me)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	if out == nil {
		out = []notifmodel.Notification{}
	}
	c.JSON(http.StatusOK, gin.H{"notifications": out})
}

// HandlerMarkSeen marks every unseen notification of the caller as seen.
func (h *Handler) HandlerMarkSeen(c *gin.Context) {
	me := midsec.UserID(c)
	n, err := h.Store.MarkNotificationsSeen(c, me)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}
