package modules

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/cosmebag/internal/interface/http"
	"github.com/oksasatya/cosmebag/internal/interface/middleware"
)

// WorkspaceModule wires the shell: workspace load, navigation, home and profile.
type WorkspaceModule struct {
	Handler  *handlers.WorkspaceHandler
	Sessions middleware.SessionLookup
	Redis    *redis.Client
}

func NewWorkspaceModule(h *handlers.WorkspaceHandler, sessions middleware.SessionLookup, rdb *redis.Client) *WorkspaceModule {
	return &WorkspaceModule{Handler: h, Sessions: sessions, Redis: rdb}
}

func (m *WorkspaceModule) Register(rg *gin.RouterGroup) {
	auth := protected(rg, m.Sessions, m.Redis)
	{
		auth.GET("/workspace", m.Handler.Load)
		auth.GET("/home", m.Handler.Home)
		auth.GET("/profile", m.Handler.Profile)
		auth.PATCH("/profile", m.Handler.UpdateProfile)

		auth.GET("/nav", m.Handler.Nav)
		auth.POST("/nav/tab", m.Handler.SelectTab)
		auth.POST("/nav/open", m.Handler.Open)
		auth.POST("/nav/back", m.Handler.Back)
		auth.POST("/nav/own-bag", m.Handler.ReturnToOwnBag)
		auth.POST("/nav/edit", m.Handler.BeginEdit)
		auth.DELETE("/nav/edit", m.Handler.EndEdit)
	}
}
