package workspace

import (
	"slices"

	"github.com/oksasatya/cosmebag/internal/domain/entity"
)

type HomeView struct {
	Profile *entity.Profile  `json:"profile"`
	Bag     *entity.Bag      `json:"bag"`
	Stats   entity.UserStats `json:"stats"`
}

// BagView is a bag split into its owned and wishlist views.
type BagView struct {
	Bag              *entity.Bag      `json:"bag"`
	OwnerDisplayName string           `json:"owner_display_name,omitempty"`
	OwnerUsername    string           `json:"owner_username,omitempty"`
	Owned            []entity.BagItem `json:"owned"`
	Wishlist         []entity.BagItem `json:"wishlist"`
	CanEdit          bool             `json:"can_edit"`
	IsFollowing      bool             `json:"is_following"`
}

// CatalogEntry is a catalog product annotated with the viewer's membership flags.
type CatalogEntry struct {
	entity.CatalogProduct
	InBag      bool `json:"in_bag"`
	InWishlist bool `json:"in_wishlist"`
}

func stats(bag *entity.Bag, items []entity.BagItem, visits int) entity.UserStats {
	st := entity.UserStats{Visits: visits}
	for _, it := range items {
		switch it.Status {
		case entity.StatusOwned:
			st.Owned++
		case entity.StatusWishlist:
			st.Wishlist++
		}
		if it.IsFavorite {
			st.Favorites++
		}
	}
	if bag != nil {
		st.Followers, st.Following = bag.FollowersCount, bag.FollowingCount
	}
	return st
}

func splitItems(bag *entity.Bag, items []entity.BagItem) BagView {
	return BagView{
		Bag:      bag,
		Owned:    entity.FilterByStatus(items, entity.StatusOwned),
		Wishlist: entity.FilterByStatus(items, entity.StatusWishlist),
	}
}

func (w *Workspace) Home() HomeView {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return HomeView{
		Profile: clonePtr(w.st.profile),
		Bag:     clonePtr(w.st.bag),
		Stats:   stats(w.st.bag, w.st.items, len(w.st.visits)),
	}
}

func (w *Workspace) Profile() *entity.Profile {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return clonePtr(w.st.profile)
}

// Bag returns the viewer's own bag.
func (w *Workspace) Bag() BagView {
	w.mu.RLock()
	defer w.mu.RUnlock()
	v := splitItems(clonePtr(w.st.bag), w.st.items)
	v.CanEdit = true
	if w.st.profile != nil {
		v.OwnerDisplayName, v.OwnerUsername = w.st.profile.DisplayName, w.st.profile.Username
	}
	return v
}

// ForeignBag returns the open foreign bag, or nil.
func (w *Workspace) ForeignBag() *BagView {
	w.mu.RLock()
	defer w.mu.RUnlock()
	f := w.st.foreign
	if f == nil {
		return nil
	}
	b := f.bag.Bag
	v := splitItems(&b, f.items)
	v.OwnerDisplayName, v.OwnerUsername = f.bag.OwnerDisplayName, f.bag.OwnerUsername
	v.IsFollowing = f.following
	return &v
}

// Membership scans the own bag for productID.
func (w *Workspace) Membership(productID string) (inBag, inWishlist bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if it := entity.FindByProduct(w.st.items, productID); it != nil {
		return it.Status == entity.StatusOwned, it.Status == entity.StatusWishlist
	}
	return false, false
}

func (w *Workspace) AnnotateCatalog(products []entity.CatalogProduct) []CatalogEntry {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]CatalogEntry, 0, len(products))
	for _, p := range products {
		e := CatalogEntry{CatalogProduct: p}
		if it := entity.FindByProduct(w.st.items, p.Barcode); it != nil {
			e.InBag = it.Status == entity.StatusOwned
			e.InWishlist = it.Status == entity.StatusWishlist
		}
		out = append(out, e)
	}
	return out
}

func (w *Workspace) Items() []entity.BagItem {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.st.items)
}

func (w *Workspace) Passport() *entity.Passport {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return clonePtr(w.st.passport)
}

func (w *Workspace) Visits() []entity.Visit {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.st.visits)
}

// Visit returns the visit with id, or nil.
func (w *Workspace) Visit(id string) *entity.Visit {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for i := range w.st.visits {
		if w.st.visits[i].ID == id {
			v := w.st.visits[i]
			return &v
		}
	}
	return nil
}
