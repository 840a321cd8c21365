package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/cosmebag/internal/domain/entity"
	"github.com/oksasatya/cosmebag/internal/domain/repository"
)

type ProfileRepository struct {
	pool *pgxpool.Pool
}

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

const profileColumns = `id, display_name, username, avatar_url, bio, is_public, created_at, updated_at`

func (r *ProfileRepository) Create(ctx context.Context, p *entity.Profile) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO profiles (id, display_name, username, avatar_url, bio, is_public)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, p.ID, p.DisplayName, p.Username, p.AvatarURL, p.Bio, p.IsPublic)
	return mapErr(row.Scan(&p.CreatedAt, &p.UpdatedAt))
}

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*entity.Profile, error) {
	return r.getOne(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
}

func (r *ProfileRepository) GetByUsername(ctx context.Context, username string) (*entity.Profile, error) {
	return r.getOne(ctx, `SELECT `+profileColumns+` FROM profiles WHERE lower(username) = lower($1)`, username)
}

func (r *ProfileRepository) getOne(ctx context.Context, sql string, arg any) (*entity.Profile, error) {
	p := &entity.Profile{}
	err := r.pool.QueryRow(ctx, sql, arg).Scan(&p.ID, &p.DisplayName, &p.Username, &p.AvatarURL,
		&p.Bio, &p.IsPublic, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return p, nil
}

func (r *ProfileRepository) Update(ctx context.Context, p *entity.Profile) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE profiles
		SET display_name = $1, username = $2, avatar_url = $3, bio = $4, is_public = $5, updated_at = now()
		WHERE id = $6
		RETURNING updated_at
	`, p.DisplayName, p.Username, p.AvatarURL, p.Bio, p.IsPublic, p.ID).Scan(&p.UpdatedAt)
	return mapErr(err)
}

var _ repository.ProfileRepository = (*ProfileRepository)(nil)
