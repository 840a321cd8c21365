package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/cosmebag/internal/application"
	"github.com/oksasatya/cosmebag/internal/domain/entity"
	"github.com/oksasatya/cosmebag/internal/navigation"
	"github.com/oksasatya/cosmebag/internal/workspace"
	"github.com/oksasatya/cosmebag/pkg/response"
)

// CatalogHandler serves the products, scan and product detail screens.
type CatalogHandler struct {
	Screens
	Catalog *application.CatalogService
	Scans   *application.RecentScans
	Logger  *logrus.Logger
}

func NewCatalogHandler(spaces *workspace.Manager, nav *navigation.Store, catalog *application.CatalogService,
	scans *application.RecentScans, logger *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{Screens: Screens{Spaces: spaces, Nav: nav}, Catalog: catalog, Scans: scans, Logger: logger}
}

type scanRequest struct {
	Barcode string `json:"barcode" binding:"required"`
}

type productView struct {
	Product    *entity.CatalogProduct `json:"product"`
	InBag      bool                   `json:"in_bag"`
	InWishlist bool                   `json:"in_wishlist"`
}

type scanView struct {
	productView
	RecentScans []entity.RecentScan `json:"recent_scans"`
}

func (h *CatalogHandler) Categories(c *gin.Context) {
	response.Success(c, http.StatusOK, h.Catalog.Categories(), "", nil)
}

// catalogQuery reads ?mode=all|category|search&category=&q=&page=. The mode is
// inferred from the other parameters when omitted.
func catalogQuery(c *gin.Context) navigation.CatalogQuery {
	q := navigation.CatalogQuery{
		Mode:     navigation.CatalogMode(c.Query("mode")),
		Category: strings.TrimSpace(c.Query("category")),
		Term:     strings.TrimSpace(c.Query("q")),
		Page:     max(queryInt(c, "page", 1), 1),
	}
	switch q.Mode {
	case navigation.CatalogAll, navigation.CatalogCategory, navigation.CatalogSearch:
	default:
		switch {
		case q.Term != "":
			q.Mode = navigation.CatalogSearch
		case q.Category != "":
			q.Mode = navigation.CatalogCategory
		default:
			q.Mode = navigation.CatalogAll
		}
	}
	return q
}

func (h *CatalogHandler) fetch(ctx context.Context, q navigation.CatalogQuery) []entity.CatalogProduct {
	switch q.Mode {
	case navigation.CatalogSearch:
		return h.Catalog.Search(ctx, q.Term, q.Page)
	case navigation.CatalogCategory:
		return h.Catalog.ByCategory(ctx, q.Category, q.Page)
	default:
		return h.Catalog.BrowseAll(ctx, q.Page)
	}
}

// Products returns one catalog page annotated with the caller's membership flags.
// An unchanged query is served from the session's catalog slice. A request overtaken
// by a newer one gets the committed page with meta.superseded set.
func (h *CatalogHandler) Products(c *gin.Context) {
	ws, ok := h.workspaceFor(c)
	if !ok {
		return
	}
	q := catalogQuery(c)
	page, err := h.Nav.LoadCatalog(c.Request.Context(), currentSessionID(c), q, h.fetch)
	if err != nil {
		fail(c, ws, err)
		return
	}
	meta := gin.H{"query": page.Query, "cached": page.Cached}
	if page.Superseded {
		meta["superseded"] = true
	}
	if n := ws.TakeNotices(); len(n) > 0 {
		meta["notices"] = n
	}
	response.Success(c, http.StatusOK, ws.AnnotateCatalog(page.Products), "", meta)
}

func (h *CatalogHandler) describe(ws *workspace.Workspace, p *entity.CatalogProduct) productView {
	v := productView{Product: p}
	if p != nil {
		v.InBag, v.InWishlist = ws.Membership(p.Barcode)
	}
	return v
}

// Product looks a barcode up; an unknown product is a successful empty result.
func (h *CatalogHandler) Product(c *gin.Context) {
	ws, ok := h.workspaceFor(c)
	if !ok {
		return
	}
	p := h.Catalog.ProductByBarcode(c.Request.Context(), c.Param("barcode"))
	msg := ""
	if p == nil {
		msg = "Продукт не найден"
	}
	render(c, ws, http.StatusOK, h.describe(ws, p), msg)
}

// Scan looks a barcode up, records it in the recent scans and opens the product screen.
func (h *CatalogHandler) Scan(c *gin.Context) {
	var req scanRequest
	if !bindJSON(c, &req) {
		return
	}
	ws, ok := h.workspaceFor(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	uid := currentUserID(c)

	p := h.Catalog.ProductByBarcode(ctx, req.Barcode)
	if p == nil {
		render(c, ws, http.StatusOK, scanView{productView: h.describe(ws, nil), RecentScans: h.Scans.List(ctx, uid)}, "Продукт не найден")
		return
	}
	scans := h.Scans.Record(ctx, uid, *p)
	if _, err := h.Nav.Update(ctx, currentSessionID(c), func(st *navigation.State) error {
		return st.Open(navigation.ProductScreen{Barcode: p.Barcode, Product: p})
	}); err != nil {
		fail(c, ws, err)
		return
	}
	render(c, ws, http.StatusOK, scanView{productView: h.describe(ws, p), RecentScans: scans}, "")
}

func (h *CatalogHandler) RecentScans(c *gin.Context) {
	response.Success(c, http.StatusOK, h.Scans.List(c.Request.Context(), currentUserID(c)), "", nil)
}

func (h *CatalogHandler) ClearScans(c *gin.Context) {
	if err := h.Scans.Clear(c.Request.Context(), currentUserID(c)); err != nil {
		h.Logger.WithError(err).WithField("user_id", currentUserID(c)).Warn("clear recent scans failed")
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, []entity.RecentScan{}, "Список очищен", nil)
}
