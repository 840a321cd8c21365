package repository

import (
	"context"
	"time"

	"github.com/oksasatya/cosmebag/internal/domain/entity"
)

type BagRepository interface {
	// GetOrCreate returns the user's bag, inserting one built from defaults when absent.
	GetOrCreate(ctx context.Context, userID string, defaults entity.Bag) (*entity.Bag, error)
	GetByID(ctx context.Context, id string) (*entity.Bag, error)
	GetByUserID(ctx context.Context, userID string) (*entity.Bag, error)
	GetByShareToken(ctx context.Context, token string) (*entity.Bag, error)
	Update(ctx context.Context, b *entity.Bag) error
	// ListPublic lists bags of public profiles, most recently updated first.
	ListPublic(ctx context.Context, limit, offset int) ([]entity.PublicBag, error)
	// Search matches bag names and owner names of public profiles.
	Search(ctx context.Context, query string, limit int) ([]entity.PublicBag, error)
	GetPublic(ctx context.Context, id string) (*entity.PublicBag, error)
}

// BagItemRepository stores bag items; (bag_id, product_id) is unique.
type BagItemRepository interface {
	ListByBag(ctx context.Context, bagID string) ([]entity.BagItem, error)
	GetByID(ctx context.Context, bagID, id string) (*entity.BagItem, error)
	GetByProduct(ctx context.Context, bagID, productID string) (*entity.BagItem, error)
	// Insert returns ErrDuplicate when the product is already in the bag.
	Insert(ctx context.Context, item *entity.BagItem) error
	Update(ctx context.Context, item *entity.BagItem) error
	// SetStatus transitions an item and returns the updated row.
	SetStatus(ctx context.Context, bagID, id string, status entity.ItemStatus, purchaseDate *time.Time) (*entity.BagItem, error)
	Delete(ctx context.Context, bagID, id string) error
}

type PassportRepository interface {
	GetByUserID(ctx context.Context, userID string) (*entity.Passport, error)
	// Upsert creates the passport or updates the existing one keyed by user.
	Upsert(ctx context.Context, p *entity.Passport) error
}

type VisitRepository interface {
	// ListByUser returns visits newest visit date first.
	ListByUser(ctx context.Context, userID string) ([]entity.Visit, error)
	Create(ctx context.Context, v *entity.Visit) error
	Delete(ctx context.Context, userID, id string) error
	CountByUser(ctx context.Context, userID string) (int, error)
}

type FollowRepository interface {
	// Follow inserts the edge if absent and maintains bag counters. created is false
	// when the edge already existed.
	Follow(ctx context.Context, followerUserID, bagID string) (created bool, err error)
	Unfollow(ctx context.Context, followerUserID, bagID string) (removed bool, err error)
	Exists(ctx context.Context, followerUserID, bagID string) (bool, error)
	ListFollowers(ctx context.Context, bagID string) ([]entity.Follower, error)
	ListFollowing(ctx context.Context, userID string) ([]entity.FollowedBag, error)
}
