package modules

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/cosmebag/internal/interface/http"
	"github.com/oksasatya/cosmebag/internal/interface/middleware"
)

// FollowModule wires the follow graph.
type FollowModule struct {
	Handler  *handlers.FollowHandler
	Sessions middleware.SessionLookup
	Redis    *redis.Client
}

func NewFollowModule(h *handlers.FollowHandler, sessions middleware.SessionLookup, rdb *redis.Client) *FollowModule {
	return &FollowModule{Handler: h, Sessions: sessions, Redis: rdb}
}

func (m *FollowModule) Register(rg *gin.RouterGroup) {
	auth := protected(rg, m.Sessions, m.Redis)
	{
		auth.GET("/bags/:id/followers", m.Handler.Followers)
		auth.GET("/bags/:id/follow", m.Handler.Status)
		auth.POST("/bags/:id/follow", m.Handler.Follow)
		auth.DELETE("/bags/:id/follow", m.Handler.Unfollow)
		auth.GET("/users/:id/following", m.Handler.Following)
	}
}
