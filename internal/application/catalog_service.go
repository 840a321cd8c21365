package application

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/cosmebag/internal/domain/entity"
	"github.com/oksasatya/cosmebag/pkg/helpers"
)

// ProductLookup is the external product API; *catalog.Client implements it.
type ProductLookup interface {
	ProductByBarcode(ctx context.Context, barcode string) (*entity.CatalogProduct, error)
	Search(ctx context.Context, term string, page int) ([]entity.CatalogProduct, error)
}

// Category is a catalog filter shown on the products screen.
type Category struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Term  string `json:"-"`
}

var categories = []Category{
	{ID: "skincare", Label: "Уход за лицом", Term: "skin care"},
	{ID: "makeup", Label: "Макияж", Term: "makeup"},
	{ID: "haircare", Label: "Волосы", Term: "shampoo"},
	{ID: "fragrance", Label: "Парфюмерия", Term: "perfume"},
	{ID: "bodycare", Label: "Тело", Term: "body lotion"},
	{ID: "suncare", Label: "Защита от солнца", Term: "sunscreen"},
}

// browseTerms are the generic terms used to browse the whole catalog.
var browseTerms = []string{"cream", "serum", "cleanser", "lipstick", "mascara", "shampoo", "moisturizer", "toner"}

// CategoryTerm maps a category id to its search term; unknown ids are searched as is.
func CategoryTerm(id string) string {
	for _, c := range categories {
		if c.ID == id {
			return c.Term
		}
	}
	return id
}

type CatalogService struct {
	Lookup   ProductLookup
	Fallback func(category string) []entity.CatalogProduct
	Intn     func(n int) int
	Logger   *logrus.Logger
}

func NewCatalogService(lookup ProductLookup, fallback func(category string) []entity.CatalogProduct, logger *logrus.Logger) *CatalogService {
	return &CatalogService{Lookup: lookup, Fallback: fallback, Intn: rand.IntN, Logger: logger}
}

func (s *CatalogService) Categories() []Category {
	return append([]Category(nil), categories...)
}

// ProductByBarcode returns the product, or nil when it is unknown or the lookup fails.
func (s *CatalogService) ProductByBarcode(ctx context.Context, barcode string) *entity.CatalogProduct {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil
	}
	p, err := s.Lookup.ProductByBarcode(ctx, barcode)
	if err != nil {
		s.Logger.WithError(err).WithField("barcode", barcode).Warn("product lookup failed")
		return nil
	}
	return p
}

// Search returns one page of results, empty on failure.
func (s *CatalogService) Search(ctx context.Context, term string, page int) []entity.CatalogProduct {
	term = strings.TrimSpace(term)
	if term == "" {
		return []entity.CatalogProduct{}
	}
	out, err := s.Lookup.Search(ctx, term, max(page, 1))
	if err != nil {
		s.Logger.WithError(err).WithField("term", term).Warn("product search failed")
		return []entity.CatalogProduct{}
	}
	return out
}

// ByCategory searches the category's term and degrades to the built-in samples.
func (s *CatalogService) ByCategory(ctx context.Context, category string, page int) []entity.CatalogProduct {
	return s.searchOrSamples(ctx, CategoryTerm(category), category, page)
}

// BrowseAll searches a randomly chosen generic term per call.
func (s *CatalogService) BrowseAll(ctx context.Context, page int) []entity.CatalogProduct {
	term := browseTerms[s.Intn(len(browseTerms))]
	return s.searchOrSamples(ctx, term, "", page)
}

func (s *CatalogService) searchOrSamples(ctx context.Context, term, category string, page int) []entity.CatalogProduct {
	out, err := s.Lookup.Search(ctx, term, max(page, 1))
	if err == nil && len(out) > 0 {
		return out
	}
	if err != nil {
		s.Logger.WithError(err).WithField("term", term).Warn("catalog unavailable, showing samples")
	}
	if s.Fallback == nil {
		return []entity.CatalogProduct{}
	}
	return s.Fallback(category)
}

const maxRecentScans = 5

// RecentScanKey is the Redis key of a user's recent scans list.
func RecentScanKey(userID string) string { return helpers.RedisKey("recent_scans", userID) }

// PushRecentScan puts scan first, drops older entries for the same barcode and keeps
// at most five entries.
func PushRecentScan(list []entity.RecentScan, scan entity.RecentScan) []entity.RecentScan {
	out := make([]entity.RecentScan, 0, maxRecentScans)
	out = append(out, scan)
	for _, s := range list {
		if len(out) == maxRecentScans {
			break
		}
		if s.Barcode != scan.Barcode {
			out = append(out, s)
		}
	}
	return out
}

// RecentScans keeps the per-user recent scans list in Redis.
type RecentScans struct {
	Redis  *redis.Client
	TTL    time.Duration
	Logger *logrus.Logger
	Now    func() time.Time
}

func NewRecentScans(rdb *redis.Client, ttl time.Duration, logger *logrus.Logger) *RecentScans {
	return &RecentScans{Redis: rdb, TTL: ttl, Logger: logger, Now: time.Now}
}

// List never fails; a broken slot reads as empty.
func (r *RecentScans) List(ctx context.Context, userID string) []entity.RecentScan {
	var list []entity.RecentScan
	if _, err := helpers.RedisGetJSON(ctx, r.Redis, RecentScanKey(userID), &list); err != nil {
		r.Logger.WithError(err).WithField("user_id", userID).Warn("read recent scans failed")
		return []entity.RecentScan{}
	}
	if list == nil {
		list = []entity.RecentScan{}
	}
	return list
}

func (r *RecentScans) Record(ctx context.Context, userID string, p entity.CatalogProduct) []entity.RecentScan {
	list := PushRecentScan(r.List(ctx, userID), entity.RecentScan{
		Barcode:   p.Barcode,
		Name:      p.Name,
		Brand:     p.Brand,
		ImageURL:  p.ImageURL,
		ScannedAt: r.Now().UTC(),
	})
	if err := helpers.RedisSetJSON(ctx, r.Redis, RecentScanKey(userID), list, r.TTL); err != nil {
		r.Logger.WithError(err).WithField("user_id", userID).Warn("save recent scans failed")
	}
	return list
}

func (r *RecentScans) Clear(ctx context.Context, userID string) error {
	return helpers.RedisDel(ctx, r.Redis, RecentScanKey(userID))
}
