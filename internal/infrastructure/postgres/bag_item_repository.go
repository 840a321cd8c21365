package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/cosmebag/internal/domain/entity"
	"github.com/oksasatya/cosmebag/internal/domain/repository"
)

type BagItemRepository struct {
	pool *pgxpool.Pool
}

func NewBagItemRepository(pool *pgxpool.Pool) *BagItemRepository {
	return &BagItemRepository{pool: pool}
}

const itemColumns = `id, bag_id, product_id, status, product, rating, priority, notes, is_favorite,
	purchase_date, added_at, updated_at`

func scanItem(row pgx.Row) (*entity.BagItem, error) {
	it := &entity.BagItem{}
	var status string
	if err := row.Scan(&it.ID, &it.BagID, &it.ProductID, &status, &it.Product, &it.Rating, &it.Priority,
		&it.Notes, &it.IsFavorite, &it.PurchaseDate, &it.AddedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}
	it.Status = entity.ItemStatus(status)
	return it, nil
}

func (r *BagItemRepository) ListByBag(ctx context.Context, bagID string) ([]entity.BagItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+` FROM bag_items WHERE bag_id = $1 ORDER BY added_at DESC`, bagID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := make([]entity.BagItem, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}

func (r *BagItemRepository) GetByID(ctx context.Context, bagID, id string) (*entity.BagItem, error) {
	it, err := scanItem(r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM bag_items WHERE bag_id = $1 AND id = $2`, bagID, id))
	return it, mapErr(err)
}

func (r *BagItemRepository) GetByProduct(ctx context.Context, bagID, productID string) (*entity.BagItem, error) {
	it, err := scanItem(r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM bag_items WHERE bag_id = $1 AND product_id = $2`, bagID, productID))
	return it, mapErr(err)
}

func (r *BagItemRepository) Insert(ctx context.Context, item *entity.BagItem) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO bag_items (bag_id, product_id, status, product, rating, priority, notes, is_favorite, purchase_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, added_at, updated_at
	`, item.BagID, item.ProductID, string(item.Status), item.Product, item.Rating, item.Priority, item.Notes,
		item.IsFavorite, item.PurchaseDate).Scan(&item.ID, &item.AddedAt, &item.UpdatedAt)
	return mapErr(err)
}

func (r *BagItemRepository) Update(ctx context.Context, item *entity.BagItem) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE bag_items
		SET rating = $1, priority = $2, notes = $3, is_favorite = $4, purchase_date = $5, updated_at = now()
		WHERE bag_id = $6 AND id = $7
		RETURNING updated_at
	`, item.Rating, item.Priority, item.Notes, item.IsFavorite, item.PurchaseDate, item.BagID, item.ID).Scan(&item.UpdatedAt)
	return mapErr(err)
}

func (r *BagItemRepository) SetStatus(ctx context.Context, bagID, id string, status entity.ItemStatus, purchaseDate *time.Time) (*entity.BagItem, error) {
	it, err := scanItem(r.pool.QueryRow(ctx, `
		UPDATE bag_items
		SET status = $1, purchase_date = COALESCE($2, purchase_date), updated_at = now()
		WHERE bag_id = $3 AND id = $4
		RETURNING `+itemColumns, string(status), purchaseDate, bagID, id))
	return it, mapErr(err)
}

func (r *BagItemRepository) Delete(ctx context.Context, bagID, id string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM bag_items WHERE bag_id = $1 AND id = $2`, bagID, id)
	if err != nil {
		return mapErr(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.BagItemRepository = (*BagItemRepository)(nil)
