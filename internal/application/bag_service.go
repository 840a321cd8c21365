package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/cosmebag/internal/domain/entity"
	repo "github.com/oksasatya/cosmebag/internal/domain/repository"
	"github.com/oksasatya/cosmebag/pkg/apperrors"
	"github.com/oksasatya/cosmebag/pkg/helpers"
)

// Uploader stores a binary object and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}

// BagIndexer keeps the bag search index in sync; *search.BagIndex implements it.
type BagIndexer interface {
	IndexBag(ctx context.Context, b entity.PublicBag) error
	DeleteBag(ctx context.Context, bagID string) error
	SearchBags(ctx context.Context, q string, size int) ([]entity.PublicBag, error)
}

// BagImageCacheKey is the Redis hash holding cached bag images by bag id.
var BagImageCacheKey = helpers.RedisKey("bag_images")

const (
	maxBagNameLen  = 60
	maxBagImageLen = 2 << 20
	shareTokenTry  = 3
)

type AddItemInput struct {
	ProductID string                 `json:"product_id" binding:"required"`
	Product   entity.ProductSnapshot `json:"product"`
	Notes     string                 `json:"notes"`
	Priority  *int                   `json:"priority" binding:"omitempty,min=1,max=3"`
}

type BagService struct {
	Bags     repo.BagRepository
	Items    repo.BagItemRepository
	Profiles repo.ProfileRepository
	Visits   repo.VisitRepository
	Redis    *redis.Client
	Images   Uploader   // optional
	Index    BagIndexer // optional
	Logger   *logrus.Logger
}

func NewBagService(bags repo.BagRepository, items repo.BagItemRepository, profiles repo.ProfileRepository,
	visits repo.VisitRepository, rdb *redis.Client, images Uploader, index BagIndexer, logger *logrus.Logger) *BagService {
	return &BagService{Bags: bags, Items: items, Profiles: profiles, Visits: visits, Redis: rdb,
		Images: images, Index: index, Logger: logger}
}

// FetchBag returns the user's bag, creating and indexing it on first access.
func (s *BagService) FetchBag(ctx context.Context, userID string) (*entity.Bag, error) {
	var (
		b     *entity.Bag
		token string
		err   error
	)
	for i := 0; i < shareTokenTry; i++ {
		if token, err = helpers.NewShareToken(); err != nil {
			return nil, internal("fetch bag", err)
		}
		b, err = s.Bags.GetOrCreate(ctx, userID, entity.Bag{
			Name:       entity.DefaultBagName,
			Emoji:      entity.DefaultBagEmoji,
			ShareToken: token,
		})
		if !errors.Is(err, repo.ErrDuplicate) {
			break
		}
	}
	if err != nil {
		return nil, internal("fetch bag", err)
	}
	// a fresh share token means the row was created by this call
	if b.ShareToken == token {
		s.reindex(ctx, b.ID)
	}
	s.attachCachedImage(ctx, b)
	return b, nil
}

// BagByID returns a bag by id, or nil when absent.
func (s *BagService) BagByID(ctx context.Context, bagID string) (*entity.Bag, error) {
	b, err := s.Bags.GetByID(ctx, bagID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, internal("fetch bag", err)
	}
	s.attachCachedImage(ctx, b)
	return b, nil
}

func (s *BagService) attachCachedImage(ctx context.Context, b *entity.Bag) {
	if s.Redis == nil || b == nil {
		return
	}
	img, err := s.Redis.HGet(ctx, BagImageCacheKey, b.ID).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.Logger.WithError(err).WithField("bag_id", b.ID).Warn("read cached bag image failed")
		}
		return
	}
	b.CachedImage = img
}

// FetchItems lists a bag's items, newest first.
func (s *BagService) FetchItems(ctx context.Context, bagID string) ([]entity.BagItem, error) {
	items, err := s.Items.ListByBag(ctx, bagID)
	if err != nil {
		if isNotFound(err) {
			return []entity.BagItem{}, nil
		}
		return nil, internal("fetch bag items", err)
	}
	return items, nil
}

func (s *BagService) itemByProduct(ctx context.Context, bagID, productID string) (*entity.BagItem, error) {
	it, err := s.Items.GetByProduct(ctx, bagID, productID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, internal("lookup bag item", err)
	}
	return it, nil
}

func validateAdd(in AddItemInput) error {
	if strings.TrimSpace(in.ProductID) == "" {
		return apperrors.ValidationWithDetails(msgCheckInput, map[string]string{"product_id": "обязательное поле"})
	}
	if in.Priority != nil && (*in.Priority < 1 || *in.Priority > 3) {
		return apperrors.ValidationWithDetails(msgCheckInput, map[string]string{"priority": "от 1 до 3"})
	}
	return nil
}

// AddToBag adds a product as owned. A wishlisted product is moved to owned and an
// already owned product is returned unchanged.
func (s *BagService) AddToBag(ctx context.Context, userID string, in AddItemInput) (*entity.BagItem, error) {
	if err := validateAdd(in); err != nil {
		return nil, err
	}
	bag, err := s.FetchBag(ctx, userID)
	if err != nil {
		return nil, err
	}
	resolve := func(existing *entity.BagItem) (*entity.BagItem, error) {
		if existing.Status == entity.StatusOwned {
			return existing, nil
		}
		return s.setStatus(ctx, bag.ID, existing.ID, nil)
	}

	existing, err := s.itemByProduct(ctx, bag.ID, in.ProductID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return resolve(existing)
	}

	item := &entity.BagItem{BagID: bag.ID, ProductID: in.ProductID, Status: entity.StatusOwned,
		Product: in.Product, Notes: in.Notes}
	if err := s.Items.Insert(ctx, item); err != nil {
		if !errors.Is(err, repo.ErrDuplicate) {
			return nil, internal("add to bag", err)
		}
		// lost a race with a concurrent add of the same product
		if existing, err = s.itemByProduct(ctx, bag.ID, in.ProductID); err != nil || existing == nil {
			return nil, internal("add to bag", errors.Join(repo.ErrDuplicate, err))
		}
		return resolve(existing)
	}
	s.reindex(ctx, bag.ID)
	return item, nil
}

// AddToWishlist adds a product to the wishlist. Owned products are rejected and an
// already wishlisted product is returned unchanged.
func (s *BagService) AddToWishlist(ctx context.Context, userID string, in AddItemInput) (*entity.BagItem, error) {
	if err := validateAdd(in); err != nil {
		return nil, err
	}
	bag, err := s.FetchBag(ctx, userID)
	if err != nil {
		return nil, err
	}
	resolve := func(existing *entity.BagItem) (*entity.BagItem, error) {
		if existing.Status == entity.StatusOwned {
			return nil, apperrors.ErrAlreadyOwned
		}
		return existing, nil
	}

	existing, err := s.itemByProduct(ctx, bag.ID, in.ProductID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return resolve(existing)
	}

	item := &entity.BagItem{BagID: bag.ID, ProductID: in.ProductID, Status: entity.StatusWishlist,
		Product: in.Product, Notes: in.Notes, Priority: in.Priority}
	if err := s.Items.Insert(ctx, item); err != nil {
		if !errors.Is(err, repo.ErrDuplicate) {
			return nil, internal("add to wishlist", err)
		}
		if existing, err = s.itemByProduct(ctx, bag.ID, in.ProductID); err != nil || existing == nil {
			return nil, internal("add to wishlist", errors.Join(repo.ErrDuplicate, err))
		}
		return resolve(existing)
	}
	s.reindex(ctx, bag.ID)
	return item, nil
}

// MoveToOwned transitions a wishlisted product to owned. Owned products are returned as is.
func (s *BagService) MoveToOwned(ctx context.Context, userID, productID string, purchaseDate *time.Time) (*entity.BagItem, error) {
	bag, err := s.FetchBag(ctx, userID)
	if err != nil {
		return nil, err
	}
	it, err := s.itemByProduct(ctx, bag.ID, productID)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, apperrors.NotFound(msgItemNotFound)
	}
	if it.Status == entity.StatusOwned {
		return it, nil
	}
	return s.setStatus(ctx, bag.ID, it.ID, purchaseDate)
}

func (s *BagService) setStatus(ctx context.Context, bagID, itemID string, purchaseDate *time.Time) (*entity.BagItem, error) {
	it, err := s.Items.SetStatus(ctx, bagID, itemID, entity.StatusOwned, purchaseDate)
	if err != nil {
		return nil, notFoundOr("move to owned", msgItemNotFound, err)
	}
	return it, nil
}

// Membership reports whether productID is in the owned view and the wishlist view.
func (s *BagService) Membership(ctx context.Context, userID, productID string) (inBag, inWishlist bool, err error) {
	bag, err := s.FetchBag(ctx, userID)
	if err != nil {
		return false, false, err
	}
	it, err := s.itemByProduct(ctx, bag.ID, productID)
	if err != nil || it == nil {
		return false, false, err
	}
	return it.Status == entity.StatusOwned, it.Status == entity.StatusWishlist, nil
}

func (s *BagService) RemoveItem(ctx context.Context, userID, itemID string) error {
	bag, err := s.FetchBag(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.Items.Delete(ctx, bag.ID, itemID); err != nil {
		return notFoundOr("remove item", msgItemNotFound, err)
	}
	s.reindex(ctx, bag.ID)
	return nil
}

func (s *BagService) UpdateItem(ctx context.Context, userID, itemID string, patch entity.ItemPatch) (*entity.BagItem, error) {
	details := map[string]string{}
	if patch.Rating != nil && (*patch.Rating < 1 || *patch.Rating > 5) {
		details["rating"] = "от 1 до 5"
	}
	if patch.Priority != nil && (*patch.Priority < 1 || *patch.Priority > 3) {
		details["priority"] = "от 1 до 3"
	}
	if len(details) > 0 {
		return nil, apperrors.ValidationWithDetails(msgCheckInput, details)
	}

	bag, err := s.FetchBag(ctx, userID)
	if err != nil {
		return nil, err
	}
	it, err := s.Items.GetByID(ctx, bag.ID, itemID)
	if err != nil {
		return nil, notFoundOr("update item", msgItemNotFound, err)
	}
	patch.Apply(it)
	if err := s.Items.Update(ctx, it); err != nil {
		return nil, notFoundOr("update item", msgItemNotFound, err)
	}
	return it, nil
}

// UpdateBag renames the bag or changes its emoji.
func (s *BagService) UpdateBag(ctx context.Context, userID string, patch entity.BagPatch) (*entity.Bag, error) {
	if patch.Name != nil {
		n := strings.TrimSpace(*patch.Name)
		if n == "" || utf8.RuneCountInString(n) > maxBagNameLen {
			return nil, apperrors.ValidationWithDetails("Название должно быть от 1 до 60 символов",
				map[string]string{"name": "от 1 до 60 символов"})
		}
		patch.Name = &n
	}
	if patch.Emoji != nil && strings.TrimSpace(*patch.Emoji) == "" {
		return nil, apperrors.ValidationWithDetails(msgCheckInput, map[string]string{"emoji": "обязательное поле"})
	}

	b, err := s.FetchBag(ctx, userID)
	if err != nil {
		return nil, err
	}
	patch.Apply(b)
	if err := s.Bags.Update(ctx, b); err != nil {
		return nil, notFoundOr("update bag", msgBagNotFound, err)
	}
	s.reindex(ctx, b.ID)
	return b, nil
}

// SetBagImage caches the image locally and, when uploads are configured, stores it
// remotely and records the URL on the bag.
func (s *BagService) SetBagImage(ctx context.Context, userID, dataURL string) (*entity.Bag, error) {
	if len(dataURL) > maxBagImageLen {
		return nil, apperrors.Validation("Изображение слишком большое")
	}
	img, err := helpers.ParseDataURL(dataURL)
	if err != nil || !strings.HasPrefix(img.ContentType, "image/") {
		return nil, apperrors.ValidationWithDetails(msgInvalidImage, map[string]string{"image": "ожидается data:image/...;base64"})
	}
	b, err := s.FetchBag(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.Redis != nil {
		if err := s.Redis.HSet(ctx, BagImageCacheKey, b.ID, dataURL).Err(); err != nil {
			s.Logger.WithError(err).WithField("bag_id", b.ID).Warn("cache bag image failed")
		} else {
			b.CachedImage = dataURL
		}
	}

	if s.Images != nil {
		path := fmt.Sprintf("bags/%s/%s%s", b.ID, uuid.NewString(), img.Extension())
		url, err := s.Images.Upload(ctx, path, img.ContentType, img.Reader())
		if err != nil {
			s.Logger.WithError(err).WithField("bag_id", b.ID).Warn("upload bag image failed, keeping cached copy")
			return b, nil
		}
		b.ImageURL = url
		if err := s.Bags.Update(ctx, b); err != nil {
			return nil, notFoundOr("set bag image", msgBagNotFound, err)
		}
		s.reindex(ctx, b.ID)
	}
	return b, nil
}

// Stats computes the home screen counters.
func (s *BagService) Stats(ctx context.Context, userID string) (entity.UserStats, error) {
	b, err := s.FetchBag(ctx, userID)
	if err != nil {
		return entity.UserStats{}, err
	}
	items, err := s.FetchItems(ctx, b.ID)
	if err != nil {
		return entity.UserStats{}, err
	}
	visits, err := s.Visits.CountByUser(ctx, userID)
	if err != nil {
		return entity.UserStats{}, internal("count visits", err)
	}
	st := entity.UserStats{Followers: b.FollowersCount, Following: b.FollowingCount, Visits: visits}
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
	return st, nil
}

func clampLimit(limit, def, maxLimit int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, maxLimit)
}

func (s *BagService) PublicBags(ctx context.Context, limit, offset int) ([]entity.PublicBag, error) {
	bags, err := s.Bags.ListPublic(ctx, clampLimit(limit, 20, 100), max(offset, 0))
	if err != nil {
		return nil, internal("list public bags", err)
	}
	return bags, nil
}

// SearchBags queries the search index when configured. The database answers when
// there is no index, the index fails or it has no hits.
func (s *BagService) SearchBags(ctx context.Context, q string, limit int) ([]entity.PublicBag, error) {
	q = strings.TrimSpace(q)
	limit = clampLimit(limit, 20, 50)
	if q == "" {
		return s.PublicBags(ctx, limit, 0)
	}
	if s.Index != nil {
		bags, err := s.Index.SearchBags(ctx, q, limit)
		switch {
		case err != nil:
			s.Logger.WithError(err).Warn("bag index search failed, falling back to database")
		case len(bags) > 0:
			return bags, nil
		}
	}
	bags, err := s.Bags.Search(ctx, q, limit)
	if err != nil {
		return nil, internal("search bags", err)
	}
	return bags, nil
}

// ResolveShared finds a bag by id or share token. Share links work for private
// profiles too.
func (s *BagService) ResolveShared(ctx context.Context, ref string) (*entity.PublicBag, error) {
	ref = strings.TrimSpace(ref)
	var (
		b   *entity.Bag
		err error
	)
	if _, perr := uuid.Parse(ref); perr == nil {
		b, err = s.Bags.GetByID(ctx, ref)
	} else {
		b, err = s.Bags.GetByShareToken(ctx, ref)
	}
	if err != nil {
		return nil, notFoundOr("resolve shared bag", msgBagNotFound, err)
	}
	s.attachCachedImage(ctx, b)
	pb := &entity.PublicBag{Bag: *b}
	if p, err := s.Profiles.GetByID(ctx, b.UserID); err == nil {
		pb.OwnerDisplayName, pb.OwnerUsername = p.DisplayName, p.Username
	}
	if items, err := s.FetchItems(ctx, b.ID); err == nil {
		pb.ItemCount = len(items)
	}
	return pb, nil
}

// reindex pushes the public view of a bag to the search index, removing it when the
// owner's profile is private.
func (s *BagService) reindex(ctx context.Context, bagID string) {
	if s.Index == nil {
		return
	}
	pb, err := s.Bags.GetPublic(ctx, bagID)
	switch {
	case isNotFound(err):
		err = s.Index.DeleteBag(ctx, bagID)
	case err == nil:
		err = s.Index.IndexBag(ctx, *pb)
	}
	if err != nil {
		s.Logger.WithError(err).WithField("bag_id", bagID).Warn("reindex bag failed")
	}
}

// ReindexBag refreshes one bag's search document; used after follower changes.
func (s *BagService) ReindexBag(ctx context.Context, bagID string) {
	s.reindex(ctx, bagID)
}

// ReindexAll pushes every public bag to the search index and returns how many were
// indexed. Bags created before the index was configured are picked up this way.
func (s *BagService) ReindexAll(ctx context.Context) (int, error) {
	if s.Index == nil {
		return 0, nil
	}
	const pageSize = 100
	n := 0
	for offset := 0; ; offset += pageSize {
		bags, err := s.Bags.ListPublic(ctx, pageSize, offset)
		if err != nil {
			return n, internal("reindex bags", err)
		}
		for _, b := range bags {
			if err := s.Index.IndexBag(ctx, b); err != nil {
				return n, internal("reindex bags", err)
			}
			n++
		}
		if len(bags) < pageSize {
			return n, nil
		}
	}
}

// Reindex refreshes the search document of the user's bag; used after profile edits.
func (s *BagService) Reindex(ctx context.Context, userID string) {
	if s.Index == nil {
		return
	}
	b, err := s.Bags.GetByUserID(ctx, userID)
	if err != nil {
		return
	}
	s.reindex(ctx, b.ID)
}
