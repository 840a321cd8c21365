package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/cosmebag/internal/application"
	"github.com/oksasatya/cosmebag/internal/domain/entity"
	"github.com/oksasatya/cosmebag/internal/interface/middleware"
	"github.com/oksasatya/cosmebag/internal/navigation"
	"github.com/oksasatya/cosmebag/internal/workspace"
	"github.com/oksasatya/cosmebag/pkg/apperrors"
	"github.com/oksasatya/cosmebag/pkg/response"
)

// BagHandler serves the bag screen and the public bag directory.
type BagHandler struct {
	Screens
	Accessors *application.Accessors
	Logger    *logrus.Logger
}

func NewBagHandler(spaces *workspace.Manager, nav *navigation.Store, accessors *application.Accessors, logger *logrus.Logger) *BagHandler {
	return &BagHandler{Screens: Screens{Spaces: spaces, Nav: nav}, Accessors: accessors, Logger: logger}
}

type bagImageRequest struct {
	DataURL string `json:"data_url" binding:"required"`
}

type moveToOwnedRequest struct {
	PurchaseDate *time.Time `json:"purchase_date"`
}

type membershipView struct {
	ProductID  string `json:"product_id"`
	InBag      bool   `json:"in_bag"`
	InWishlist bool   `json:"in_wishlist"`
}

type sharedBagView struct {
	workspace.BagView
	ItemCount int `json:"item_count"`
}

// mutable resolves the workspace for an edit of the bag on screen: name, emoji,
// image and item edits are refused while a foreign bag is shown. Adding products
// always targets the viewer's own bag and does not go through it.
func (h *BagHandler) mutable(c *gin.Context) (*workspace.Workspace, bool) {
	ws, ok := h.workspaceFor(c)
	if !ok {
		return nil, false
	}
	if err := h.ownBagOnly(c.Request.Context(), currentSessionID(c)); err != nil {
		fail(c, ws, err)
		return nil, false
	}
	return ws, true
}

// Bag returns the bag on screen: the foreign bag when one is open, otherwise the own bag.
func (h *BagHandler) Bag(c *gin.Context) {
	ws, ok := h.workspaceFor(c)
	if !ok {
		return
	}
	st, err := h.Nav.Load(c.Request.Context(), currentSessionID(c))
	if err != nil {
		fail(c, ws, err)
		return
	}
	if st.ViewingOtherBag() {
		if fb := ws.ForeignBag(); fb != nil {
			render(c, ws, http.StatusOK, *fb, "")
			return
		}
	}
	render(c, ws, http.StatusOK, ws.Bag(), "")
}

func (h *BagHandler) UpdateBag(c *gin.Context) {
	var patch entity.BagPatch
	if !bindJSON(c, &patch) {
		return
	}
	ws, ok := h.mutable(c)
	if !ok {
		return
	}
	b, err := ws.UpdateBag(c.Request.Context(), patch)
	if err != nil {
		fail(c, ws, err)
		return
	}
	h.endEdit(c, navigation.EditBagName, navigation.EditBagEmoji)
	render(c, ws, http.StatusOK, b, "Косметичка обновлена")
}

func (h *BagHandler) SetImage(c *gin.Context) {
	var req bagImageRequest
	if !bindJSON(c, &req) {
		return
	}
	ws, ok := h.mutable(c)
	if !ok {
		return
	}
	b, err := ws.SetBagImage(c.Request.Context(), req.DataURL)
	if err != nil {
		fail(c, ws, err)
		return
	}
	h.endEdit(c, navigation.EditBagImage)
	render(c, ws, http.StatusOK, b, "Обложка обновлена")
}

func (h *BagHandler) AddToBag(c *gin.Context) {
	var in application.AddItemInput
	if !bindJSON(c, &in) {
		return
	}
	ws, ok := h.workspaceFor(c)
	if !ok {
		return
	}
	it, err := ws.AddToBag(c.Request.Context(), in)
	if err != nil {
		fail(c, ws, err)
		return
	}
	render(c, ws, http.StatusCreated, it, "Продукт добавлен в косметичку")
}

func (h *BagHandler) AddToWishlist(c *gin.Context) {
	var in application.AddItemInput
	if !bindJSON(c, &in) {
		return
	}
	ws, ok := h.workspaceFor(c)
	if !ok {
		return
	}
	it, err := ws.AddToWishlist(c.Request.Context(), in)
	if err != nil {
		fail(c, ws, err)
		return
	}
	render(c, ws, http.StatusCreated, it, "Продукт добавлен в список желаний")
}

func (h *BagHandler) MoveToOwned(c *gin.Context) {
	var req moveToOwnedRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	ws, ok := h.workspaceFor(c)
	if !ok {
		return
	}
	it, err := ws.MoveToOwned(c.Request.Context(), c.Param("productID"), req.PurchaseDate)
	if err != nil {
		fail(c, ws, err)
		return
	}
	render(c, ws, http.StatusOK, it, "Продукт перемещён в косметичку")
}

func (h *BagHandler) UpdateItem(c *gin.Context) {
	var patch entity.ItemPatch
	if !bindJSON(c, &patch) {
		return
	}
	ws, ok := h.mutable(c)
	if !ok {
		return
	}
	it, err := ws.UpdateItem(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		fail(c, ws, err)
		return
	}
	render(c, ws, http.StatusOK, it, "Продукт обновлён")
}

func (h *BagHandler) RemoveItem(c *gin.Context) {
	ws, ok := h.mutable(c)
	if !ok {
		return
	}
	if err := ws.RemoveItem(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, ws, err)
		return
	}
	render(c, ws, http.StatusOK, gin.H{"removed": true}, "Продукт удалён")
}

func (h *BagHandler) Membership(c *gin.Context) {
	ws, ok := h.workspaceFor(c)
	if !ok {
		return
	}
	pid := c.Param("productID")
	inBag, inWishlist := ws.Membership(pid)
	render(c, ws, http.StatusOK, membershipView{ProductID: pid, InBag: inBag, InWishlist: inWishlist}, "")
}

// Stats are computed by the data layer, unlike the home counters derived in the workspace.
func (h *BagHandler) Stats(c *gin.Context) {
	st, err := h.Accessors.GetUserStats(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, st, "", nil)
}

func (h *BagHandler) PublicBags(c *gin.Context) {
	limit, offset := queryInt(c, "limit", 20), queryInt(c, "offset", 0)
	bags, err := h.Accessors.GetPublicBags(c.Request.Context(), limit, offset)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, bags, "", gin.H{"limit": limit, "offset": offset})
}

func (h *BagHandler) SearchBags(c *gin.Context) {
	bags, err := h.Accessors.SearchBags(c.Request.Context(), c.Query("q"), queryInt(c, "limit", 20))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, bags, "", nil)
}

// Shared resolves a share link by bag id or share token. Anyone may view it; only
// the owner gets the edit affordances.
func (h *BagHandler) Shared(c *gin.Context) {
	ctx := c.Request.Context()
	pb, err := h.Accessors.ResolveSharedBag(ctx, c.Param("ref"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	if pb == nil {
		response.FromError(c, apperrors.NotFound("Косметичка не найдена"))
		return
	}
	items, err := h.Accessors.FetchBagItems(ctx, pb.ID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	viewer := ""
	if sess := middleware.SessionFrom(c); sess != nil {
		viewer = sess.UserID
	}
	b := pb.Bag
	v := sharedBagView{
		BagView: workspace.BagView{
			Bag:              &b,
			OwnerDisplayName: pb.OwnerDisplayName,
			OwnerUsername:    pb.OwnerUsername,
			Owned:            entity.FilterByStatus(items, entity.StatusOwned),
			Wishlist:         entity.FilterByStatus(items, entity.StatusWishlist),
			CanEdit:          viewer != "" && viewer == pb.UserID,
		},
		ItemCount: len(items),
	}
	if viewer != "" && !v.CanEdit {
		if v.IsFollowing, err = h.Accessors.IsFollowing(ctx, viewer, pb.ID); err != nil {
			response.FromError(c, err)
			return
		}
	}
	response.Success(c, http.StatusOK, v, "", nil)
}
