package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/oksasatya/cosmebag/internal/domain/entity"
	"github.com/oksasatya/cosmebag/internal/domain/repository"
)

type BagRepository struct{ s *Store }

func (r *BagRepository) GetOrCreate(_ context.Context, userID string, defaults entity.Bag) (*entity.Bag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if b := r.byUser(userID); b != nil {
		return b, nil
	}
	for _, b := range r.s.bags {
		if b.ShareToken == defaults.ShareToken {
			return nil, repository.ErrDuplicate
		}
	}
	now := r.s.now()
	b := defaults
	b.ID, b.UserID, b.CreatedAt, b.UpdatedAt = newID(), userID, now, now
	b.FollowersCount, b.FollowingCount, b.CachedImage = 0, 0, ""
	r.s.bags[b.ID] = b
	return &b, nil
}

// byUser must be called with the lock held.
func (r *BagRepository) byUser(userID string) *entity.Bag {
	for _, b := range r.s.bags {
		if b.UserID == userID {
			b := b
			return &b
		}
	}
	return nil
}

func (r *BagRepository) GetByID(_ context.Context, id string) (*entity.Bag, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.bags[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (r *BagRepository) GetByUserID(_ context.Context, userID string) (*entity.Bag, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if b := r.byUser(userID); b != nil {
		return b, nil
	}
	return nil, repository.ErrNotFound
}

func (r *BagRepository) GetByShareToken(_ context.Context, token string) (*entity.Bag, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, b := range r.s.bags {
		if b.ShareToken == token {
			b := b
			return &b, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *BagRepository) Update(_ context.Context, b *entity.Bag) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.bags[b.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Name, cur.Emoji, cur.ImageURL = b.Name, b.Emoji, b.ImageURL
	cur.UpdatedAt = r.s.now()
	r.s.bags[b.ID] = cur
	b.UpdatedAt = cur.UpdatedAt
	return nil
}

// public must be called with the lock held.
func (r *BagRepository) public(match func(entity.Bag, entity.Profile) bool) []entity.PublicBag {
	out := make([]entity.PublicBag, 0)
	for _, b := range r.s.bags {
		p, ok := r.s.profiles[b.UserID]
		if !ok || !p.IsPublic || !match(b, p) {
			continue
		}
		count := 0
		for _, it := range r.s.items {
			if it.BagID == b.ID {
				count++
			}
		}
		out = append(out, entity.PublicBag{Bag: b, OwnerDisplayName: p.DisplayName, OwnerUsername: p.Username, ItemCount: count})
	}
	return out
}

func (r *BagRepository) ListPublic(_ context.Context, limit, offset int) ([]entity.PublicBag, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	all := r.public(func(entity.Bag, entity.Profile) bool { return true })
	sort.Slice(all, func(i, j int) bool { return all[i].UpdatedAt.After(all[j].UpdatedAt) })
	return page(all, limit, offset), nil
}

func (r *BagRepository) Search(_ context.Context, query string, limit int) ([]entity.PublicBag, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	q := strings.ToLower(query)
	all := r.public(func(b entity.Bag, p entity.Profile) bool {
		return strings.Contains(strings.ToLower(b.Name), q) ||
			strings.Contains(strings.ToLower(p.DisplayName), q) ||
			strings.Contains(strings.ToLower(p.Username), q)
	})
	sort.Slice(all, func(i, j int) bool {
		if all[i].FollowersCount != all[j].FollowersCount {
			return all[i].FollowersCount > all[j].FollowersCount
		}
		return all[i].UpdatedAt.After(all[j].UpdatedAt)
	})
	return page(all, limit, 0), nil
}

func (r *BagRepository) GetPublic(_ context.Context, id string) (*entity.PublicBag, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	found := r.public(func(b entity.Bag, _ entity.Profile) bool { return b.ID == id })
	if len(found) == 0 {
		return nil, repository.ErrNotFound
	}
	return &found[0], nil
}

func page[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return []T{}
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all
}

type BagItemRepository struct{ s *Store }

func (r *BagItemRepository) ListByBag(_ context.Context, bagID string) ([]entity.BagItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]entity.BagItem, 0)
	for _, it := range r.s.items {
		if it.BagID == bagID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AddedAt.After(out[j].AddedAt) })
	return out, nil
}

func (r *BagItemRepository) GetByID(_ context.Context, bagID, id string) (*entity.BagItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	it, ok := r.s.items[id]
	if !ok || it.BagID != bagID {
		return nil, repository.ErrNotFound
	}
	return &it, nil
}

func (r *BagItemRepository) GetByProduct(_ context.Context, bagID, productID string) (*entity.BagItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if it := r.byProduct(bagID, productID); it != nil {
		return it, nil
	}
	return nil, repository.ErrNotFound
}

func (r *BagItemRepository) byProduct(bagID, productID string) *entity.BagItem {
	for _, it := range r.s.items {
		if it.BagID == bagID && it.ProductID == productID {
			it := it
			return &it
		}
	}
	return nil
}

func (r *BagItemRepository) Insert(_ context.Context, item *entity.BagItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.bags[item.BagID]; !ok {
		return repository.ErrNotFound
	}
	if r.byProduct(item.BagID, item.ProductID) != nil {
		return repository.ErrDuplicate
	}
	now := r.s.now()
	item.ID, item.AddedAt, item.UpdatedAt = newID(), now, now
	r.s.items[item.ID] = *item
	return nil
}

func (r *BagItemRepository) Update(_ context.Context, item *entity.BagItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.items[item.ID]
	if !ok || cur.BagID != item.BagID {
		return repository.ErrNotFound
	}
	cur.Rating, cur.Priority, cur.Notes = item.Rating, item.Priority, item.Notes
	cur.IsFavorite, cur.PurchaseDate = item.IsFavorite, item.PurchaseDate
	cur.UpdatedAt = r.s.now()
	r.s.items[item.ID] = cur
	item.UpdatedAt = cur.UpdatedAt
	return nil
}

func (r *BagItemRepository) SetStatus(_ context.Context, bagID, id string, status entity.ItemStatus, purchaseDate *time.Time) (*entity.BagItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.items[id]
	if !ok || cur.BagID != bagID {
		return nil, repository.ErrNotFound
	}
	cur.Status = status
	if purchaseDate != nil {
		d := *purchaseDate
		cur.PurchaseDate = &d
	}
	cur.UpdatedAt = r.s.now()
	r.s.items[id] = cur
	return &cur, nil
}

func (r *BagItemRepository) Delete(_ context.Context, bagID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.items[id]
	if !ok || cur.BagID != bagID {
		return repository.ErrNotFound
	}
	delete(r.s.items, id)
	return nil
}

var (
	_ repository.BagRepository     = (*BagRepository)(nil)
	_ repository.BagItemRepository = (*BagItemRepository)(nil)
)
