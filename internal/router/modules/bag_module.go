package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/cosmebag/internal/interface/http"
	"github.com/oksasatya/cosmebag/internal/interface/middleware"
)

// BagModule wires the bag screen, the public directory and share links.
type BagModule struct {
	Handler  *handlers.BagHandler
	Sessions middleware.SessionLookup
	Redis    *redis.Client
}

func NewBagModule(h *handlers.BagHandler, sessions middleware.SessionLookup, rdb *redis.Client) *BagModule {
	return &BagModule{Handler: h, Sessions: sessions, Redis: rdb}
}

func (m *BagModule) Register(rg *gin.RouterGroup) {
	// Share links open without an account
	sharedLimiter := middleware.RateLimit(m.Redis, 60, time.Minute, middleware.KeyByIPAndPath(), nil)
	rg.GET("/shared/bags/:ref", sharedLimiter, middleware.OptionalAuth(m.Sessions), m.Handler.Shared)

	auth := protected(rg, m.Sessions, m.Redis)
	{
		auth.GET("/bag", m.Handler.Bag)
		auth.PATCH("/bag", m.Handler.UpdateBag)
		auth.PUT("/bag/image", m.Handler.SetImage)
		auth.POST("/bag/items", m.Handler.AddToBag)
		auth.POST("/bag/wishlist", m.Handler.AddToWishlist)
		auth.POST("/bag/wishlist/:productID/own", m.Handler.MoveToOwned)
		auth.PATCH("/bag/items/:id", m.Handler.UpdateItem)
		auth.DELETE("/bag/items/:id", m.Handler.RemoveItem)
		auth.GET("/bag/membership/:productID", m.Handler.Membership)
		auth.GET("/stats", m.Handler.Stats)

		auth.GET("/bags/public", m.Handler.PublicBags)
		auth.GET("/bags/search", m.Handler.SearchBags)
	}
}
