// Package workspace binds domain data to screens for one signed-in user: it keeps
// the last fetched profile, bag, items, passport and visits, derives the lists and
// flags the screens render, and applies every mutation optimistically before
// reconciling with the data gateway.
package workspace

import (
	"context"
	"time"

	"github.com/oksasatya/cosmebag/internal/application"
	"github.com/oksasatya/cosmebag/internal/domain/entity"
)

// Gateway is the accessor surface the workspace reads and writes through.
// *application.Accessors implements it.
type Gateway interface {
	FetchProfile(ctx context.Context, userID string) (*entity.Profile, error)
	UpdateProfile(ctx context.Context, userID string, patch entity.ProfilePatch) (*entity.Profile, error)

	FetchBag(ctx context.Context, userID string) (*entity.Bag, error)
	FetchBagItems(ctx context.Context, bagID string) ([]entity.BagItem, error)
	AddProductToBag(ctx context.Context, userID string, in application.AddItemInput) (*entity.BagItem, error)
	AddToWishlist(ctx context.Context, userID string, in application.AddItemInput) (*entity.BagItem, error)
	MoveToOwned(ctx context.Context, userID, productID string, purchaseDate *time.Time) (*entity.BagItem, error)
	RemoveProduct(ctx context.Context, userID, itemID string) error
	UpdateProduct(ctx context.Context, userID, itemID string, patch entity.ItemPatch) (*entity.BagItem, error)
	UpdateBag(ctx context.Context, userID string, patch entity.BagPatch) (*entity.Bag, error)
	SetBagImage(ctx context.Context, userID, dataURL string) (*entity.Bag, error)
	ResolveSharedBag(ctx context.Context, ref string) (*entity.PublicBag, error)

	FetchPassport(ctx context.Context, userID string) (*entity.Passport, error)
	SavePassport(ctx context.Context, userID string, patch entity.PassportPatch) (*entity.Passport, error)

	FetchVisits(ctx context.Context, userID string) ([]entity.Visit, error)
	AddVisit(ctx context.Context, userID string, in application.VisitInput) (*entity.Visit, error)
	DeleteVisit(ctx context.Context, userID, visitID string) error

	IsFollowing(ctx context.Context, userID, bagID string) (bool, error)
	FollowBag(ctx context.Context, userID string, target application.FollowTarget) error
	UnfollowBag(ctx context.Context, userID, bagID string) error
}

var _ Gateway = (*application.Accessors)(nil)
