package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/cosmebag/internal/domain/entity"
	"github.com/oksasatya/cosmebag/internal/navigation"
	"github.com/oksasatya/cosmebag/internal/workspace"
	"github.com/oksasatya/cosmebag/pkg/apperrors"
)

// WorkspaceHandler serves the shell: the initial workspace load, navigation and the
// home and profile screens.
type WorkspaceHandler struct {
	Screens
	Logger *logrus.Logger
}

func NewWorkspaceHandler(spaces *workspace.Manager, nav *navigation.Store, logger *logrus.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{Screens: Screens{Spaces: spaces, Nav: nav}, Logger: logger}
}

type workspaceView struct {
	Nav        *navigation.State  `json:"nav"`
	Home       workspace.HomeView `json:"home"`
	Bag        workspace.BagView  `json:"bag"`
	ForeignBag *workspace.BagView `json:"foreign_bag,omitempty"`
	Passport   *entity.Passport   `json:"passport"`
	Visits     []entity.Visit     `json:"visits"`
}

type navView struct {
	Nav        *navigation.State  `json:"nav"`
	ForeignBag *workspace.BagView `json:"foreign_bag,omitempty"`
}

type tabRequest struct {
	View navigation.ViewKind `json:"view" binding:"required"`
}

type editRequest struct {
	Mode navigation.EditMode `json:"mode" binding:"required"`
}

// Load returns everything the shell renders on start. With ?bag=<id or share token>
// it lands on that bag the way a share link does.
func (h *WorkspaceHandler) Load(c *gin.Context) {
	ws, ok := h.workspaceFor(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	sid := currentSessionID(c)

	var (
		st  *navigation.State
		err error
	)
	if ref := c.Query("bag"); ref != "" {
		st, err = h.openShared(ctx, ws, sid, ref)
	} else {
		st, err = h.Nav.Load(ctx, sid)
		if err == nil {
			err = h.syncForeign(ctx, ws, st)
		}
	}
	if err != nil {
		fail(c, ws, err)
		return
	}
	render(c, ws, http.StatusOK, workspaceView{
		Nav:        st,
		Home:       ws.Home(),
		Bag:        ws.Bag(),
		ForeignBag: ws.ForeignBag(),
		Passport:   ws.Passport(),
		Visits:     ws.Visits(),
	}, "Рабочее пространство загружено")
}

func (h *WorkspaceHandler) openShared(ctx context.Context, ws *workspace.Workspace, sid, ref string) (*navigation.State, error) {
	owned, err := ws.OpenForeignBag(ctx, ref)
	if err != nil {
		return nil, err
	}
	bagID, ownerID := "", ws.UserID()
	if owned {
		if b := ws.Bag().Bag; b != nil {
			bagID = b.ID
		}
	} else if fb := ws.ForeignBag(); fb != nil {
		bagID, ownerID = fb.Bag.ID, fb.Bag.UserID
	}
	return h.Nav.Update(ctx, sid, func(st *navigation.State) error {
		return st.OpenShared(bagID, ownerID, ws.UserID())
	})
}

// syncForeign reloads the foreign bag the navigation state points at when the
// workspace does not hold it, e.g. after a restart.
func (h *WorkspaceHandler) syncForeign(ctx context.Context, ws *workspace.Workspace, st *navigation.State) error {
	if st.ForeignBag == nil {
		ws.CloseForeignBag()
		return nil
	}
	if fb := ws.ForeignBag(); fb != nil && fb.Bag.ID == st.ForeignBag.BagID {
		return nil
	}
	_, err := ws.OpenForeignBag(ctx, st.ForeignBag.BagID)
	return err
}

func (h *WorkspaceHandler) respondNav(c *gin.Context, ws *workspace.Workspace, st *navigation.State, err error) {
	if err == nil {
		err = h.syncForeign(c.Request.Context(), ws, st)
	}
	if err != nil {
		fail(c, ws, err)
		return
	}
	render(c, ws, http.StatusOK, navView{Nav: st, ForeignBag: ws.ForeignBag()}, "")
}

func (h *WorkspaceHandler) Nav(c *gin.Context) {
	ws, ok := h.workspaceFor(c)
	if !ok {
		return
	}
	st, err := h.Nav.Load(c.Request.Context(), currentSessionID(c))
	h.respondNav(c, ws, st, err)
}

func (h *WorkspaceHandler) SelectTab(c *gin.Context) {
	var req tabRequest
	if !bindJSON(c, &req) {
		return
	}
	ws, ok := h.workspaceFor(c)
	if !ok {
		return
	}
	st, err := h.Nav.Update(c.Request.Context(), currentSessionID(c), func(st *navigation.State) error {
		return st.SelectTab(req.View)
	})
	h.respondNav(c, ws, st, err)
}

// Open pushes a detail screen given as {"kind": "...", "data": {...}}. A bag screen
// resolves its owner first so the foreign flag is set correctly.
func (h *WorkspaceHandler) Open(c *gin.Context) {
	var env navigation.Envelope
	if !bindJSON(c, &env) {
		return
	}
	scr, err := navigation.Decode(env)
	if err != nil {
		fail(c, nil, apperrors.Validation(navigation.ErrNotDetail.Message).WithCause(err))
		return
	}
	ws, ok := h.workspaceFor(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	sid := currentSessionID(c)

	var st *navigation.State
	switch s := scr.(type) {
	case navigation.BagScreen:
		if s.BagID == "" {
			fail(c, ws, navigation.ErrMissingParam)
			return
		}
		owned, oerr := ws.OpenForeignBag(ctx, s.BagID)
		if oerr != nil {
			fail(c, ws, oerr)
			return
		}
		owner := ws.UserID()
		if fb := ws.ForeignBag(); !owned && fb != nil {
			owner = fb.Bag.UserID
		}
		st, err = h.Nav.Update(ctx, sid, func(st *navigation.State) error {
			return st.OpenBag(s.BagID, owner, ws.UserID())
		})
	case navigation.VisitScreen:
		if ws.Visit(s.VisitID) == nil {
			fail(c, ws, apperrors.NotFound("Визит не найден"))
			return
		}
		st, err = h.Nav.Update(ctx, sid, func(st *navigation.State) error { return st.Open(s) })
	default:
		st, err = h.Nav.Update(ctx, sid, func(st *navigation.State) error { return st.Open(scr) })
	}
	h.respondNav(c, ws, st, err)
}

func (h *WorkspaceHandler) Back(c *gin.Context) {
	ws, ok := h.workspaceFor(c)
	if !ok {
		return
	}
	st, err := h.Nav.Update(c.Request.Context(), currentSessionID(c), func(st *navigation.State) error {
		st.Back()
		return nil
	})
	h.respondNav(c, ws, st, err)
}

func (h *WorkspaceHandler) ReturnToOwnBag(c *gin.Context) {
	ws, ok := h.workspaceFor(c)
	if !ok {
		return
	}
	st, err := h.Nav.Update(c.Request.Context(), currentSessionID(c), func(st *navigation.State) error {
		st.ReturnToOwnBag()
		return nil
	})
	h.respondNav(c, ws, st, err)
}

func (h *WorkspaceHandler) BeginEdit(c *gin.Context) {
	var req editRequest
	if !bindJSON(c, &req) {
		return
	}
	ws, ok := h.workspaceFor(c)
	if !ok {
		return
	}
	st, err := h.Nav.Update(c.Request.Context(), currentSessionID(c), func(st *navigation.State) error {
		return st.BeginEdit(req.Mode)
	})
	h.respondNav(c, ws, st, err)
}

func (h *WorkspaceHandler) EndEdit(c *gin.Context) {
	ws, ok := h.workspaceFor(c)
	if !ok {
		return
	}
	st, err := h.Nav.Update(c.Request.Context(), currentSessionID(c), func(st *navigation.State) error {
		st.EndEdit()
		return nil
	})
	h.respondNav(c, ws, st, err)
}

func (h *WorkspaceHandler) Home(c *gin.Context) {
	ws, ok := h.workspaceFor(c)
	if !ok {
		return
	}
	render(c, ws, http.StatusOK, ws.Home(), "")
}

func (h *WorkspaceHandler) Profile(c *gin.Context) {
	ws, ok := h.workspaceFor(c)
	if !ok {
		return
	}
	render(c, ws, http.StatusOK, ws.Profile(), "")
}

func (h *WorkspaceHandler) UpdateProfile(c *gin.Context) {
	var patch entity.ProfilePatch
	if !bindJSON(c, &patch) {
		return
	}
	ws, ok := h.workspaceFor(c)
	if !ok {
		return
	}
	p, err := ws.UpdateProfile(c.Request.Context(), patch)
	if err != nil {
		fail(c, ws, err)
		return
	}
	h.endEdit(c, navigation.EditProfile)
	render(c, ws, http.StatusOK, p, "Профиль сохранён")
}

// endEdit closes the editor after a successful save when it is the one open.
func (s Screens) endEdit(c *gin.Context, modes ...navigation.EditMode) {
	_, _ = s.Nav.Update(c.Request.Context(), currentSessionID(c), func(st *navigation.State) error {
		for _, m := range modes {
			if st.Edit == m {
				st.EndEdit()
			}
		}
		return nil
	})
}
