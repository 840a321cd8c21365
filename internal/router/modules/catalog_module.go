package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/cosmebag/internal/interface/http"
	"github.com/oksasatya/cosmebag/internal/interface/middleware"
)

// CatalogModule wires the products, scan and product detail screens.
type CatalogModule struct {
	Handler  *handlers.CatalogHandler
	Sessions middleware.SessionLookup
	Redis    *redis.Client
}

func NewCatalogModule(h *handlers.CatalogHandler, sessions middleware.SessionLookup, rdb *redis.Client) *CatalogModule {
	return &CatalogModule{Handler: h, Sessions: sessions, Redis: rdb}
}

func (m *CatalogModule) Register(rg *gin.RouterGroup) {
	// Every uncached page costs an outbound product API call
	lookupLimiter := middleware.RateLimit(m.Redis, 60, time.Minute, middleware.KeyByUserID(), nil)

	auth := protected(rg, m.Sessions, m.Redis)
	{
		auth.GET("/catalog/categories", m.Handler.Categories)
		auth.GET("/catalog/products", lookupLimiter, m.Handler.Products)
		auth.GET("/catalog/products/:barcode", lookupLimiter, m.Handler.Product)
		auth.POST("/catalog/scan", lookupLimiter, m.Handler.Scan)
		auth.GET("/catalog/scans", m.Handler.RecentScans)
		auth.DELETE("/catalog/scans", m.Handler.ClearScans)
	}
}
