package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/cosmebag/internal/domain/entity"
	"github.com/oksasatya/cosmebag/internal/domain/repository"
)

type FollowRepository struct {
	pool *pgxpool.Pool
}

func NewFollowRepository(pool *pgxpool.Pool) *FollowRepository {
	return &FollowRepository{pool: pool}
}

// Follow inserts the edge with ON CONFLICT DO NOTHING; counters move only when a row was written.
func (r *FollowRepository) Follow(ctx context.Context, followerUserID, bagID string) (bool, error) {
	created := false
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		res, err := tx.Exec(ctx, `
			INSERT INTO follows (follower_user_id, following_bag_id)
			VALUES ($1, $2)
			ON CONFLICT (follower_user_id, following_bag_id) DO NOTHING
		`, followerUserID, bagID)
		if err != nil {
			return err
		}
		if res.RowsAffected() == 0 {
			return nil
		}
		created = true
		return adjustFollowCounters(ctx, tx, followerUserID, bagID, 1)
	})
	if err != nil {
		return false, mapErr(err)
	}
	return created, nil
}

func (r *FollowRepository) Unfollow(ctx context.Context, followerUserID, bagID string) (bool, error) {
	removed := false
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		res, err := tx.Exec(ctx, `DELETE FROM follows WHERE follower_user_id = $1 AND following_bag_id = $2`, followerUserID, bagID)
		if err != nil {
			return err
		}
		if res.RowsAffected() == 0 {
			return nil
		}
		removed = true
		return adjustFollowCounters(ctx, tx, followerUserID, bagID, -1)
	})
	if err != nil {
		return false, mapErr(err)
	}
	return removed, nil
}

func adjustFollowCounters(ctx context.Context, q querier, followerUserID, bagID string, delta int) error {
	if _, err := q.Exec(ctx, `
		UPDATE bags SET followers_count = GREATEST(followers_count + $1, 0) WHERE id = $2
	`, delta, bagID); err != nil {
		return err
	}
	_, err := q.Exec(ctx, `
		UPDATE bags SET following_count = GREATEST(following_count + $1, 0) WHERE user_id = $2
	`, delta, followerUserID)
	return err
}

func (r *FollowRepository) Exists(ctx context.Context, followerUserID, bagID string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM follows WHERE follower_user_id = $1 AND following_bag_id = $2)
	`, followerUserID, bagID).Scan(&ok)
	return ok, mapErr(err)
}

func (r *FollowRepository) ListFollowers(ctx context.Context, bagID string) ([]entity.Follower, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT f.follower_user_id, p.display_name, p.username, p.avatar_url, COALESCE(b.id::text, ''), f.created_at
		FROM follows f
		JOIN profiles p ON p.id = f.follower_user_id
		LEFT JOIN bags b ON b.user_id = f.follower_user_id
		WHERE f.following_bag_id = $1
		ORDER BY f.created_at DESC
	`, bagID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := make([]entity.Follower, 0)
	for rows.Next() {
		var f entity.Follower
		if err := rows.Scan(&f.UserID, &f.DisplayName, &f.Username, &f.AvatarURL, &f.BagID, &f.FollowedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *FollowRepository) ListFollowing(ctx context.Context, userID string) ([]entity.FollowedBag, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT b.id, b.user_id, b.name, b.emoji, b.image_url, p.display_name, p.username, f.created_at
		FROM follows f
		JOIN bags b ON b.id = f.following_bag_id
		JOIN profiles p ON p.id = b.user_id
		WHERE f.follower_user_id = $1
		ORDER BY f.created_at DESC
	`, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := make([]entity.FollowedBag, 0)
	for rows.Next() {
		var fb entity.FollowedBag
		if err := rows.Scan(&fb.BagID, &fb.OwnerUserID, &fb.Name, &fb.Emoji, &fb.ImageURL,
			&fb.OwnerDisplayName, &fb.OwnerUsername, &fb.FollowedAt); err != nil {
			return nil, err
		}
		out = append(out, fb)
	}
	return out, rows.Err()
}

var _ repository.FollowRepository = (*FollowRepository)(nil)
