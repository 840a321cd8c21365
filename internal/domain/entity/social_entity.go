package entity

import "time"

// FollowEdge subscribes a user to another user's bag. Unique per pair, never self-referential.
type FollowEdge struct {
	ID             string    `json:"id"`
	FollowerUserID string    `json:"follower_user_id"`
	FollowingBagID string    `json:"following_bag_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// Follower is a user following a bag, as listed on that bag's followers screen.
type Follower struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Username    string    `json:"username"`
	AvatarURL   string    `json:"avatar_url"`
	BagID       string    `json:"bag_id,omitempty"`
	FollowedAt  time.Time `json:"followed_at"`
}

// FollowedBag is a bag the user follows, as listed on the following screen.
type FollowedBag struct {
	BagID            string    `json:"bag_id"`
	OwnerUserID      string    `json:"owner_user_id"`
	Name             string    `json:"name"`
	Emoji            string    `json:"emoji"`
	ImageURL         string    `json:"image_url"`
	OwnerDisplayName string    `json:"owner_display_name"`
	OwnerUsername    string    `json:"owner_username"`
	FollowedAt       time.Time `json:"followed_at"`
}

// CatalogProduct is a read-only product from the external lookup service.
type CatalogProduct struct {
	Barcode     string `json:"barcode"`
	Name        string `json:"name"`
	Brand       string `json:"brand"`
	Category    string `json:"category"`
	ImageURL    string `json:"image_url"`
	Quantity    string `json:"quantity,omitempty"`
	Ingredients string `json:"ingredients,omitempty"`
}

// Snapshot copies the fields embedded into a bag item.
func (p CatalogProduct) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		Name:     p.Name,
		Brand:    p.Brand,
		Category: p.Category,
		ImageURL: p.ImageURL,
	}
}

// RecentScan is an entry of the per-user recent scans list.
type RecentScan struct {
	Barcode   string    `json:"barcode"`
	Name      string    `json:"name"`
	Brand     string    `json:"brand"`
	ImageURL  string    `json:"image_url"`
	ScannedAt time.Time `json:"scanned_at"`
}
