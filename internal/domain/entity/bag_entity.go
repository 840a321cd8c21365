package entity

import (
	"time"
)

const (
	DefaultBagName  = "Моя косметичка"
	DefaultBagEmoji = "👜"
)

// Bag is a user's single cosmetics collection.
type Bag struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Name           string    `json:"name"`
	Emoji          string    `json:"emoji"`
	ImageURL       string    `json:"image_url"`
	FollowersCount int       `json:"followers_count"`
	FollowingCount int       `json:"following_count"`
	ShareToken     string    `json:"share_token"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// CachedImage is a locally cached image blob (data URL) that overrides ImageURL.
	// It is never persisted with the row.
	CachedImage string `json:"cached_image,omitempty"`
}

// DisplayImage returns the cached image when present, else the remote URL.
func (b *Bag) DisplayImage() string {
	if b.CachedImage != "" {
		return b.CachedImage
	}
	return b.ImageURL
}

// BagPatch carries rename and re-emoji edits.
type BagPatch struct {
	Name  *string `json:"name"`
	Emoji *string `json:"emoji"`
}

func (p BagPatch) Apply(b *Bag) {
	if p.Name != nil {
		b.Name = *p.Name
	}
	if p.Emoji != nil {
		b.Emoji = *p.Emoji
	}
}

// PublicBag is a bag listed for browsing or search, joined with its owner.
type PublicBag struct {
	Bag
	OwnerDisplayName string `json:"owner_display_name"`
	OwnerUsername    string `json:"owner_username"`
	ItemCount        int    `json:"item_count"`
}

// UserStats aggregates the counters shown on the home screen.
type UserStats struct {
	Owned     int `json:"owned"`
	Wishlist  int `json:"wishlist"`
	Favorites int `json:"favorites"`
	Followers int `json:"followers"`
	Following int `json:"following"`
	Visits    int `json:"visits"`
}
