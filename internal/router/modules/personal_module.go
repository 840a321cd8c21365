package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/cosmebag/internal/interface/http"
	"github.com/oksasatya/cosmebag/internal/interface/middleware"
)

// PersonalModule wires the aesthetic passport and the visit log.
type PersonalModule struct {
	Handler  *handlers.PersonalHandler
	Sessions middleware.SessionLookup
	Redis    *redis.Client
}

func NewPersonalModule(h *handlers.PersonalHandler, sessions middleware.SessionLookup, rdb *redis.Client) *PersonalModule {
	return &PersonalModule{Handler: h, Sessions: sessions, Redis: rdb}
}

func (m *PersonalModule) Register(rg *gin.RouterGroup) {
	adviceLimiter := middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByUserID(), nil)
	uploadLimiter := middleware.RateLimit(m.Redis, 20, time.Minute, middleware.KeyByUserID(), nil)

	auth := protected(rg, m.Sessions, m.Redis)
	{
		auth.GET("/passport", m.Handler.Passport)
		auth.PUT("/passport", m.Handler.SavePassport)
		auth.GET("/passport/advice", adviceLimiter, m.Handler.Advice)

		auth.GET("/visits", m.Handler.Visits)
		auth.POST("/visits", m.Handler.AddVisit)
		auth.POST("/visits/photos", uploadLimiter, m.Handler.UploadPhoto)
		auth.GET("/visits/:id", m.Handler.Visit)
		auth.DELETE("/visits/:id", m.Handler.DeleteVisit)
	}
}
