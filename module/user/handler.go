package user

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	midsec "sparrow/middleware/security"
	usermodel "sparrow/module/user/model"
	"sparrow/service/gateway"
	"sparrow/tools/errs"
	jwtlib "sparrow/tools/security"
)

// Handler carries the user-facing REST endpoints: the login bootstrap and
// the follow edge toggles that drive notification emission.
type Handler struct {
	Store    Store
	Notifier *gateway.Notifier
	JWT      jwtlib.Options
}

// Store is the slice of persistence the user handlers touch.
type Store interface {
	UpsertUser(ctx context.Context, u *usermodel.User) error
	SetFollow(ctx context.Context, followerID, targetID string, follow bool) error
}

type loginReq struct {
	UserID   string `json:"userId" binding:"required"`
	Username string `json:"username"`
	Name     string `json:"name"`
	FaceURL  string `json:"imgUrl"`
	Email    string `json:"email"`
}

// HandlerLogin upserts the account record and issues an access token.
// Password verification belongs to the main account service; this endpoint
// only bootstraps a session for the real-time layer.
func (h *Handler) HandlerLogin(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	if !usermodel.ValidID(req.UserID) {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail("invalid user id"))
		return
	}

	u := &usermodel.User{
		UserID:   req.UserID,
		Username: req.Username,
		Name:     req.Name,
		FaceURL:  req.FaceURL,
		Email:    req.Email,
	}
	if err := h.Store.UpsertUser(c, u); err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrBadRequest.WithDetail(err.Error()))
		return
	}

	token, hash, exp, err := jwtlib.Generate(h.JWT, req.UserID, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"tokenHash": hash,
		"expireAt":  exp.UnixMilli(),
	})
}

type followReq struct {
	UserID string `json:"userId" binding:"required"` // target of the follow
}

func (h *Handler) HandlerFollow(c *gin.Context)   { h.toggleFollow(c, true) }
func (h *Handler) HandlerUnfollow(c *gin.Context) { h.toggleFollow(c, false) }

func (h *Handler) toggleFollow(c *gin.Context, follow bool) {
	var req followReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	if !usermodel.ValidID(req.UserID) {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail("invalid user id"))
		return
	}
	follower := midsec.UserID(c)
	if follower == req.UserID {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail("cannot follow yourself"))
		return
	}

	if err := h.Store.SetFollow(c, follower, req.UserID, follow); err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrBadRequest.WithDetail(err.Error()))
		return
	}

	typ := string(gateway.NotifyFollow)
	if !follow {
		typ = string(gateway.NotifyUnfollow)
	}
	if _, err := h.Notifier.Emit(c, follower, req.UserID, typ); err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
