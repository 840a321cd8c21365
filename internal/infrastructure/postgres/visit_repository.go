package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/cosmebag/internal/domain/entity"
	"github.com/oksasatya/cosmebag/internal/domain/repository"
)

type VisitRepository struct {
	pool *pgxpool.Pool
}

func NewVisitRepository(pool *pgxpool.Pool) *VisitRepository {
	return &VisitRepository{pool: pool}
}

func (r *VisitRepository) ListByUser(ctx context.Context, userID string) ([]entity.Visit, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, visit_date, doctor_name, clinic_name, procedures, recommendations, attachments, created_at
		FROM visits WHERE user_id = $1
		ORDER BY visit_date DESC, created_at DESC
	`, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := make([]entity.Visit, 0)
	for rows.Next() {
		var v entity.Visit
		if err := rows.Scan(&v.ID, &v.UserID, &v.VisitDate, &v.DoctorName, &v.ClinicName, &v.Procedures,
			&v.Recommendations, &v.Attachments, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *VisitRepository) Create(ctx context.Context, v *entity.Visit) error {
	procedures, attachments := v.Procedures, v.Attachments
	if procedures == nil {
		procedures = []string{}
	}
	if attachments == nil {
		attachments = []entity.VisitAttachment{}
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO visits (user_id, visit_date, doctor_name, clinic_name, procedures, recommendations, attachments)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, v.UserID, v.VisitDate, v.DoctorName, v.ClinicName, procedures, v.Recommendations, attachments).Scan(&v.ID, &v.CreatedAt)
	return mapErr(err)
}

func (r *VisitRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM visits WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return mapErr(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *VisitRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM visits WHERE user_id = $1`, userID).Scan(&n)
	return n, mapErr(err)
}

var _ repository.VisitRepository = (*VisitRepository)(nil)
