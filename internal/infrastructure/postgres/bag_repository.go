package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/cosmebag/internal/domain/entity"
	"github.com/oksasatya/cosmebag/internal/domain/repository"
)

type BagRepository struct {
	pool *pgxpool.Pool
}

func NewBagRepository(pool *pgxpool.Pool) *BagRepository {
	return &BagRepository{pool: pool}
}

const bagColumns = `b.id, b.user_id, b.name, b.emoji, b.image_url, b.followers_count, b.following_count,
	b.share_token, b.created_at, b.updated_at`

func scanBag(row pgx.Row, b *entity.Bag, extra ...any) error {
	dest := []any{&b.ID, &b.UserID, &b.Name, &b.Emoji, &b.ImageURL, &b.FollowersCount, &b.FollowingCount,
		&b.ShareToken, &b.CreatedAt, &b.UpdatedAt}
	return row.Scan(append(dest, extra...)...)
}

func (r *BagRepository) GetOrCreate(ctx context.Context, userID string, defaults entity.Bag) (*entity.Bag, error) {
	if _, err := r.pool.Exec(ctx, `
		INSERT INTO bags (user_id, name, emoji, image_url, share_token)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, defaults.Name, defaults.Emoji, defaults.ImageURL, defaults.ShareToken); err != nil {
		return nil, mapErr(err)
	}
	return r.GetByUserID(ctx, userID)
}

func (r *BagRepository) GetByID(ctx context.Context, id string) (*entity.Bag, error) {
	return r.getOne(ctx, `SELECT `+bagColumns+` FROM bags b WHERE b.id = $1`, id)
}

func (r *BagRepository) GetByUserID(ctx context.Context, userID string) (*entity.Bag, error) {
	return r.getOne(ctx, `SELECT `+bagColumns+` FROM bags b WHERE b.user_id = $1`, userID)
}

func (r *BagRepository) GetByShareToken(ctx context.Context, token string) (*entity.Bag, error) {
	return r.getOne(ctx, `SELECT `+bagColumns+` FROM bags b WHERE b.share_token = $1`, token)
}

func (r *BagRepository) getOne(ctx context.Context, sql string, arg any) (*entity.Bag, error) {
	b := &entity.Bag{}
	if err := scanBag(r.pool.QueryRow(ctx, sql, arg), b); err != nil {
		return nil, mapErr(err)
	}
	return b, nil
}

func (r *BagRepository) Update(ctx context.Context, b *entity.Bag) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE bags
		SET name = $1, emoji = $2, image_url = $3, updated_at = now()
		WHERE id = $4
		RETURNING updated_at
	`, b.Name, b.Emoji, b.ImageURL, b.ID).Scan(&b.UpdatedAt)
	return mapErr(err)
}

const publicBagSelect = `SELECT ` + bagColumns + `, p.display_name, p.username,
	(SELECT count(*) FROM bag_items i WHERE i.bag_id = b.id)
	FROM bags b JOIN profiles p ON p.id = b.user_id`

func (r *BagRepository) ListPublic(ctx context.Context, limit, offset int) ([]entity.PublicBag, error) {
	return r.listPublic(ctx, publicBagSelect+`
		WHERE p.is_public
		ORDER BY b.updated_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
}

func (r *BagRepository) Search(ctx context.Context, query string, limit int) ([]entity.PublicBag, error) {
	return r.listPublic(ctx, publicBagSelect+`
		WHERE p.is_public
		  AND (b.name ILIKE '%' || $1 || '%' OR p.display_name ILIKE '%' || $1 || '%' OR p.username ILIKE '%' || $1 || '%')
		ORDER BY b.followers_count DESC, b.updated_at DESC
		LIMIT $2`, query, limit)
}

func (r *BagRepository) GetPublic(ctx context.Context, id string) (*entity.PublicBag, error) {
	pb := &entity.PublicBag{}
	err := scanBag(r.pool.QueryRow(ctx, publicBagSelect+` WHERE b.id = $1`, id), &pb.Bag,
		&pb.OwnerDisplayName, &pb.OwnerUsername, &pb.ItemCount)
	if err != nil {
		return nil, mapErr(err)
	}
	return pb, nil
}

func (r *BagRepository) listPublic(ctx context.Context, sql string, args ...any) ([]entity.PublicBag, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := make([]entity.PublicBag, 0)
	for rows.Next() {
		var pb entity.PublicBag
		if err := scanBag(rows, &pb.Bag, &pb.OwnerDisplayName, &pb.OwnerUsername, &pb.ItemCount); err != nil {
			return nil, err
		}
		out = append(out, pb)
	}
	return out, rows.Err()
}

var _ repository.BagRepository = (*BagRepository)(nil)
