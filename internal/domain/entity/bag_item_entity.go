package entity

import (
	"time"
)

// ItemStatus places a bag item in exactly one of the owned and wishlist views.
type ItemStatus string

const (
	StatusOwned    ItemStatus = "owned"
	StatusWishlist ItemStatus = "wishlist"
)

func (s ItemStatus) Valid() bool {
	return s == StatusOwned || s == StatusWishlist
}

// ProductSnapshot is the product data copied into a bag item when it is added.
type ProductSnapshot struct {
	Name     string   `json:"name"`
	Brand    string   `json:"brand"`
	Category string   `json:"category"`
	Price    *float64 `json:"price,omitempty"`
	ImageURL string   `json:"image_url"`
}

type BagItem struct {
	ID           string          `json:"id"`
	BagID        string          `json:"bag_id"`
	ProductID    string          `json:"product_id"`
	Status       ItemStatus      `json:"status"`
	Product      ProductSnapshot `json:"product"`
	Rating       *int            `json:"rating,omitempty"`
	Priority     *int            `json:"priority,omitempty"`
	Notes        string          `json:"notes"`
	IsFavorite   bool            `json:"is_favorite"`
	PurchaseDate *time.Time      `json:"purchase_date,omitempty"`
	AddedAt      time.Time       `json:"added_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ItemPatch is a partial update of a bag item; nil fields are left untouched.
type ItemPatch struct {
	Notes        *string    `json:"notes"`
	Rating       *int       `json:"rating" binding:"omitempty,min=1,max=5"`
	Priority     *int       `json:"priority" binding:"omitempty,min=1,max=3"`
	IsFavorite   *bool      `json:"is_favorite"`
	PurchaseDate *time.Time `json:"purchase_date"`
}

func (p ItemPatch) Apply(it *BagItem) {
	if p.Notes != nil {
		it.Notes = *p.Notes
	}
	if p.Rating != nil {
		r := *p.Rating
		it.Rating = &r
	}
	if p.Priority != nil {
		pr := *p.Priority
		it.Priority = &pr
	}
	if p.IsFavorite != nil {
		it.IsFavorite = *p.IsFavorite
	}
	if p.PurchaseDate != nil {
		d := *p.PurchaseDate
		it.PurchaseDate = &d
	}
}

// FilterByStatus returns the items with the given status, preserving order.
func FilterByStatus(items []BagItem, status ItemStatus) []BagItem {
	out := make([]BagItem, 0, len(items))
	for _, it := range items {
		if it.Status == status {
			out = append(out, it)
		}
	}
	return out
}

// FindByProduct returns the item holding productID, or nil.
func FindByProduct(items []BagItem, productID string) *BagItem {
	for i := range items {
		if items[i].ProductID == productID {
			return &items[i]
		}
	}
	return nil
}
