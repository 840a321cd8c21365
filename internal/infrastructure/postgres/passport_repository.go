package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/cosmebag/internal/domain/entity"
	"github.com/oksasatya/cosmebag/internal/domain/repository"
)

type PassportRepository struct {
	pool *pgxpool.Pool
}

func NewPassportRepository(pool *pgxpool.Pool) *PassportRepository {
	return &PassportRepository{pool: pool}
}

func (r *PassportRepository) GetByUserID(ctx context.Context, userID string) (*entity.Passport, error) {
	p := &entity.Passport{}
	var skin string
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, skin_type, skin_concerns, allergies, notes, created_at, updated_at
		FROM passports WHERE user_id = $1
	`, userID).Scan(&p.ID, &p.UserID, &skin, &p.SkinConcerns, &p.Allergies, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	p.SkinType = entity.SkinType(skin)
	return p, nil
}

func (r *PassportRepository) Upsert(ctx context.Context, p *entity.Passport) error {
	concerns, allergies := p.SkinConcerns, p.Allergies
	if concerns == nil {
		concerns = []string{}
	}
	if allergies == nil {
		allergies = []string{}
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO passports (user_id, skin_type, skin_concerns, allergies, notes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET skin_type = EXCLUDED.skin_type,
		    skin_concerns = EXCLUDED.skin_concerns,
		    allergies = EXCLUDED.allergies,
		    notes = EXCLUDED.notes,
		    updated_at = now()
		RETURNING id, created_at, updated_at
	`, p.UserID, string(p.SkinType), concerns, allergies, p.Notes).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return mapErr(err)
}

var _ repository.PassportRepository = (*PassportRepository)(nil)
