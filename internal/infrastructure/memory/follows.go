package memory

import (
	"context"
	"sort"

	"github.com/oksasatya/cosmebag/internal/domain/entity"
	"github.com/oksasatya/cosmebag/internal/domain/repository"
)

type FollowRepository struct{ s *Store }

func (r *FollowRepository) Follow(_ context.Context, followerUserID, bagID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.bags[bagID]; !ok {
		return false, repository.ErrNotFound
	}
	key := followKey{follower: followerUserID, bag: bagID}
	if _, ok := r.s.follows[key]; ok {
		return false, nil
	}
	r.s.follows[key] = entity.FollowEdge{ID: newID(), FollowerUserID: followerUserID, FollowingBagID: bagID, CreatedAt: r.s.now()}
	r.adjust(followerUserID, bagID, 1)
	return true, nil
}

func (r *FollowRepository) Unfollow(_ context.Context, followerUserID, bagID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := followKey{follower: followerUserID, bag: bagID}
	if _, ok := r.s.follows[key]; !ok {
		return false, nil
	}
	delete(r.s.follows, key)
	r.adjust(followerUserID, bagID, -1)
	return true, nil
}

func (r *FollowRepository) adjust(followerUserID, bagID string, delta int) {
	if b, ok := r.s.bags[bagID]; ok {
		b.FollowersCount = max(b.FollowersCount+delta, 0)
		r.s.bags[bagID] = b
	}
	for id, b := range r.s.bags {
		if b.UserID == followerUserID {
			b.FollowingCount = max(b.FollowingCount+delta, 0)
			r.s.bags[id] = b
		}
	}
}

func (r *FollowRepository) Exists(_ context.Context, followerUserID, bagID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.follows[followKey{follower: followerUserID, bag: bagID}]
	return ok, nil
}

func (r *FollowRepository) ListFollowers(_ context.Context, bagID string) ([]entity.Follower, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]entity.Follower, 0)
	for key, edge := range r.s.follows {
		if key.bag != bagID {
			continue
		}
		p := r.s.profiles[key.follower]
		f := entity.Follower{UserID: key.follower, DisplayName: p.DisplayName, Username: p.Username,
			AvatarURL: p.AvatarURL, FollowedAt: edge.CreatedAt}
		for _, b := range r.s.bags {
			if b.UserID == key.follower {
				f.BagID = b.ID
			}
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FollowedAt.After(out[j].FollowedAt) })
	return out, nil
}

func (r *FollowRepository) ListFollowing(_ context.Context, userID string) ([]entity.FollowedBag, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]entity.FollowedBag, 0)
	for key, edge := range r.s.follows {
		if key.follower != userID {
			continue
		}
		b, ok := r.s.bags[key.bag]
		if !ok {
			continue
		}
		p := r.s.profiles[b.UserID]
		out = append(out, entity.FollowedBag{BagID: b.ID, OwnerUserID: b.UserID, Name: b.Name, Emoji: b.Emoji,
			ImageURL: b.ImageURL, OwnerDisplayName: p.DisplayName, OwnerUsername: p.Username, FollowedAt: edge.CreatedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FollowedAt.After(out[j].FollowedAt) })
	return out, nil
}

var _ repository.FollowRepository = (*FollowRepository)(nil)
