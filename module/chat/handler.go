package chat

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	midsec "sparrow/middleware/security"
	chatmodel "sparrow/module/chat/model"
	usermodel "sparrow/module/user/model"
	"sparrow/tools/errs"
)

type Store interface {
	EnsureConversation(ctx context.Context, a, b string) (*chatmodel.Conversation, error)
	GetConversation(ctx context.Context, conversationID string) (*chatmodel.Conversation, error)
	ListMessages(ctx context.Context, conversationID string) ([]chatmodel.Message, error)
}

type Handler struct {
	Store Store
}

type startReq struct {
	UserID string `json:"userId" binding:"required"` // the peer
}

// HandlerStart finds or creates the conversation between the caller and the
// requested peer.
func (h *Handler) HandlerStart(c *gin.Context) {
	var req startReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	if !usermodel.ValidID(req.UserID) {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail("invalid user id"))
		return
	}
	me := midsec.UserID(c)
	if me == req.UserID {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail("cannot chat with yourself"))
		return
	}

	conv, err := h.Store.EnsureConversation(c, me, req.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"conversationId": conv.ConversationID,
		"user1":          conv.User1,
		"user2":          conv.User2,
	})
}

// HandlerMessages lists a conversation's history, oldest first. Only
// participants may read it.
func (h *Handler) HandlerMessages(c *gin.Context) {
	convID := c.Param("id")
	me := midsec.UserID(c)

	conv, err := h.Store.GetConversation(c, convID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	if conv == nil {
		c.JSON(http.StatusNotFound, errs.ErrConversationNotFound)
		return
	}
	if !conv.Has(me) {
		c.JSON(http.StatusForbidden, errs.ErrBadRequest.WithDetail("not a participant"))
		return
	}

	msgs, err := h.Store.ListMessages(c, convID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	if msgs == nil {
		msgs = []chatmodel.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}
