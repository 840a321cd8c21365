// Package handlers is the HTTP surface of the screens. Handlers resolve the caller's
// workspace and navigation state, run one screen action and render the result in the
// standard response envelope. Notices raised by an action travel in meta.notices.
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/cosmebag/internal/application"
	"github.com/oksasatya/cosmebag/internal/interface/middleware"
	"github.com/oksasatya/cosmebag/internal/navigation"
	"github.com/oksasatya/cosmebag/internal/workspace"
	"github.com/oksasatya/cosmebag/pkg/apperrors"
	"github.com/oksasatya/cosmebag/pkg/response"
	"github.com/oksasatya/cosmebag/pkg/validation"
)

// Screens is what every screen handler needs: the per-user workspaces and the
// per-session navigation store.
type Screens struct {
	Spaces *workspace.Manager
	Nav    *navigation.Store
}

func currentUserID(c *gin.Context) string { return c.GetString(middleware.CtxUserIDKey) }

func currentSessionID(c *gin.Context) string {
	if sess := middleware.SessionFrom(c); sess != nil {
		return sess.SessionID
	}
	return ""
}

// workspaceFor loads the caller's workspace, writing the error envelope on failure.
func (s Screens) workspaceFor(c *gin.Context) (*workspace.Workspace, bool) {
	ws, err := s.Spaces.Ensure(c.Request.Context(), currentUserID(c))
	if err != nil {
		fail(c, ws, err)
		return nil, false
	}
	return ws, true
}

// ownBagOnly refuses bag mutations while the session is looking at somebody else's bag.
func (s Screens) ownBagOnly(ctx context.Context, sessionID string) error {
	st, err := s.Nav.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	if st.ViewingOtherBag() {
		return navigation.ErrReadOnlyBag
	}
	return nil
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error[any](c, http.StatusBadRequest, apperrors.ErrValidation.Message,
			response.ErrorBody{Code: apperrors.CodeValidation, Details: validation.ToDetails(err)})
		return false
	}
	return true
}

func noticesMeta(ws *workspace.Workspace) any {
	if ws == nil {
		return nil
	}
	if n := ws.TakeNotices(); len(n) > 0 {
		return gin.H{"notices": n}
	}
	return nil
}

func render[T any](c *gin.Context, ws *workspace.Workspace, status int, data T, message string) {
	response.Success(c, status, data, message, noticesMeta(ws))
}

// fail writes the error envelope. The failure notice queued by the workspace is
// dropped since the envelope already carries the same message.
func fail(c *gin.Context, ws *workspace.Workspace, err error) {
	if ws != nil {
		ws.TakeNotices()
	}
	response.FromError(c, err)
}

func queryInt(c *gin.Context, key string, def int) int {
	if v := c.Query(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

// followTargetFor fills the owner from the open foreign bag so self-follow can be
// decided locally.
func followTargetFor(ws *workspace.Workspace, bagID, ownerUserID string) application.FollowTarget {
	t := application.FollowTarget{BagID: bagID, OwnerUserID: ownerUserID}
	if t.OwnerUserID == "" {
		if fb := ws.ForeignBag(); fb != nil && fb.Bag != nil && fb.Bag.ID == bagID {
			t.OwnerUserID = fb.Bag.UserID
		}
	}
	return t
}
