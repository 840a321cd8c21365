package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/cosmebag/internal/interface/middleware"
)

// protected returns a group that requires a live session, with a per-IP and a
// per-user rate limit shared by every module.
func protected(rg *gin.RouterGroup, sessions middleware.SessionLookup, rdb *redis.Client) *gin.RouterGroup {
	g := rg.Group("/")
	g.Use(middleware.Auth(sessions))
	g.Use(
		middleware.RateLimit(rdb, 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	return g
}
