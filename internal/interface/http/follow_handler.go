package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/cosmebag/internal/application"
	"github.com/oksasatya/cosmebag/internal/navigation"
	"github.com/oksasatya/cosmebag/internal/workspace"
	"github.com/oksasatya/cosmebag/pkg/response"
)

// FollowHandler serves the followers and following screens and the follow toggle.
type FollowHandler struct {
	Screens
	Accessors *application.Accessors
	Logger    *logrus.Logger
}

func NewFollowHandler(spaces *workspace.Manager, nav *navigation.Store, accessors *application.Accessors, logger *logrus.Logger) *FollowHandler {
	return &FollowHandler{Screens: Screens{Spaces: spaces, Nav: nav}, Accessors: accessors, Logger: logger}
}

type followRequest struct {
	OwnerUserID string `json:"owner_user_id"`
}

func (h *FollowHandler) Followers(c *gin.Context) {
	list, err := h.Accessors.GetFollowers(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, list, "", nil)
}

// Following lists the bags followed by :id, or by the caller when :id is "me".
func (h *FollowHandler) Following(c *gin.Context) {
	uid := c.Param("id")
	if uid == "" || uid == "me" {
		uid = currentUserID(c)
	}
	list, err := h.Accessors.GetFollowing(c.Request.Context(), uid)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, list, "", nil)
}

func (h *FollowHandler) Status(c *gin.Context) {
	bagID := c.Param("id")
	following, err := h.Accessors.IsFollowing(c.Request.Context(), currentUserID(c), bagID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bag_id": bagID, "following": following}, "", nil)
}

func (h *FollowHandler) Follow(c *gin.Context) {
	var req followRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	ws, ok := h.workspaceFor(c)
	if !ok {
		return
	}
	bagID := c.Param("id")
	if err := ws.Follow(c.Request.Context(), followTargetFor(ws, bagID, req.OwnerUserID)); err != nil {
		fail(c, ws, err)
		return
	}
	render(c, ws, http.StatusOK, gin.H{"bag_id": bagID, "following": true}, "Вы подписались на косметичку")
}

func (h *FollowHandler) Unfollow(c *gin.Context) {
	ws, ok := h.workspaceFor(c)
	if !ok {
		return
	}
	bagID := c.Param("id")
	if err := ws.Unfollow(c.Request.Context(), bagID); err != nil {
		fail(c, ws, err)
		return
	}
	render(c, ws, http.StatusOK, gin.H{"bag_id": bagID, "following": false}, "Вы отписались от косметички")
}
