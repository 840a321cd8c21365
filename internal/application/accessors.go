package application

import (
	"context"
	"time"

	"github.com/oksasatya/cosmebag/internal/domain/entity"
)

// Accessors is the single entry point the screens use to read and mutate domain data.
type Accessors struct {
	Profiles  *ProfileService
	Bags      *BagService
	Passports *PassportService
	Visits    *VisitService
	Follows   *FollowService
}

func NewAccessors(profiles *ProfileService, bags *BagService, passports *PassportService, visits *VisitService, follows *FollowService) *Accessors {
	return &Accessors{Profiles: profiles, Bags: bags, Passports: passports, Visits: visits, Follows: follows}
}

func (a *Accessors) FetchProfile(ctx context.Context, userID string) (*entity.Profile, error) {
	return a.Profiles.Get(ctx, userID)
}

func (a *Accessors) UpdateProfile(ctx context.Context, userID string, patch entity.ProfilePatch) (*entity.Profile, error) {
	p, err := a.Profiles.Update(ctx, userID, patch)
	if err == nil {
		a.Bags.Reindex(ctx, userID)
	}
	return p, err
}

func (a *Accessors) FetchBag(ctx context.Context, userID string) (*entity.Bag, error) {
	return a.Bags.FetchBag(ctx, userID)
}

func (a *Accessors) FetchBagItems(ctx context.Context, bagID string) ([]entity.BagItem, error) {
	return a.Bags.FetchItems(ctx, bagID)
}

func (a *Accessors) AddProductToBag(ctx context.Context, userID string, in AddItemInput) (*entity.BagItem, error) {
	return a.Bags.AddToBag(ctx, userID, in)
}

func (a *Accessors) AddToWishlist(ctx context.Context, userID string, in AddItemInput) (*entity.BagItem, error) {
	return a.Bags.AddToWishlist(ctx, userID, in)
}

func (a *Accessors) IsProductInBag(ctx context.Context, userID, productID string) (bool, error) {
	inBag, _, err := a.Bags.Membership(ctx, userID, productID)
	return inBag, err
}

func (a *Accessors) IsProductInWishlist(ctx context.Context, userID, productID string) (bool, error) {
	_, inWishlist, err := a.Bags.Membership(ctx, userID, productID)
	return inWishlist, err
}

func (a *Accessors) MoveToOwned(ctx context.Context, userID, productID string, purchaseDate *time.Time) (*entity.BagItem, error) {
	return a.Bags.MoveToOwned(ctx, userID, productID, purchaseDate)
}

func (a *Accessors) RemoveProduct(ctx context.Context, userID, itemID string) error {
	return a.Bags.RemoveItem(ctx, userID, itemID)
}

func (a *Accessors) UpdateProduct(ctx context.Context, userID, itemID string, patch entity.ItemPatch) (*entity.BagItem, error) {
	return a.Bags.UpdateItem(ctx, userID, itemID, patch)
}

func (a *Accessors) UpdateBag(ctx context.Context, userID string, patch entity.BagPatch) (*entity.Bag, error) {
	return a.Bags.UpdateBag(ctx, userID, patch)
}

func (a *Accessors) SetBagImage(ctx context.Context, userID, dataURL string) (*entity.Bag, error) {
	return a.Bags.SetBagImage(ctx, userID, dataURL)
}

func (a *Accessors) GetUserStats(ctx context.Context, userID string) (entity.UserStats, error) {
	return a.Bags.Stats(ctx, userID)
}

func (a *Accessors) GetPublicBags(ctx context.Context, limit, offset int) ([]entity.PublicBag, error) {
	return a.Bags.PublicBags(ctx, limit, offset)
}

func (a *Accessors) SearchBags(ctx context.Context, q string, limit int) ([]entity.PublicBag, error) {
	return a.Bags.SearchBags(ctx, q, limit)
}

func (a *Accessors) ResolveSharedBag(ctx context.Context, ref string) (*entity.PublicBag, error) {
	return a.Bags.ResolveShared(ctx, ref)
}

func (a *Accessors) FetchPassport(ctx context.Context, userID string) (*entity.Passport, error) {
	return a.Passports.Get(ctx, userID)
}

func (a *Accessors) SavePassport(ctx context.Context, userID string, patch entity.PassportPatch) (*entity.Passport, error) {
	return a.Passports.Save(ctx, userID, patch)
}

func (a *Accessors) PassportAdvice(ctx context.Context, userID string) (string, error) {
	return a.Passports.Advice(ctx, userID)
}

func (a *Accessors) FetchVisits(ctx context.Context, userID string) ([]entity.Visit, error) {
	return a.Visits.List(ctx, userID)
}

func (a *Accessors) AddVisit(ctx context.Context, userID string, in VisitInput) (*entity.Visit, error) {
	return a.Visits.Add(ctx, userID, in)
}

func (a *Accessors) DeleteVisit(ctx context.Context, userID, visitID string) error {
	return a.Visits.Delete(ctx, userID, visitID)
}

func (a *Accessors) GetFollowers(ctx context.Context, bagID string) ([]entity.Follower, error) {
	return a.Follows.Followers(ctx, bagID)
}

func (a *Accessors) GetFollowing(ctx context.Context, userID string) ([]entity.FollowedBag, error) {
	return a.Follows.Following(ctx, userID)
}

func (a *Accessors) IsFollowing(ctx context.Context, userID, bagID string) (bool, error) {
	return a.Follows.IsFollowing(ctx, userID, bagID)
}

// FollowBag follows the target and refreshes its follower count in the search index.
func (a *Accessors) FollowBag(ctx context.Context, userID string, target FollowTarget) error {
	if err := a.Follows.Follow(ctx, userID, target); err != nil {
		return err
	}
	a.Bags.ReindexBag(ctx, target.BagID)
	return nil
}

func (a *Accessors) UnfollowBag(ctx context.Context, userID, bagID string) error {
	if err := a.Follows.Unfollow(ctx, userID, bagID); err != nil {
		return err
	}
	a.Bags.ReindexBag(ctx, bagID)
	return nil
}
