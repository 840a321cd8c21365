package memory

import (
	"context"

	"github.com/oksasatya/cosmebag/internal/domain/entity"
	"github.com/oksasatya/cosmebag/internal/domain/repository"
)

type PassportRepository struct{ s *Store }

func (r *PassportRepository) GetByUserID(_ context.Context, userID string) (*entity.Passport, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.passports[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *PassportRepository) Upsert(_ context.Context, p *entity.Passport) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	if cur, ok := r.s.passports[p.UserID]; ok {
		p.ID, p.CreatedAt = cur.ID, cur.CreatedAt
	} else {
		p.ID, p.CreatedAt = newID(), now
	}
	p.UpdatedAt = now
	r.s.passports[p.UserID] = *p
	return nil
}

// PassportCount returns the number of stored passport rows.
func (r *PassportRepository) PassportCount() int {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.passports)
}

type VisitRepository struct{ s *Store }

func (r *VisitRepository) ListByUser(_ context.Context, userID string) ([]entity.Visit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]entity.Visit, 0)
	for _, v := range r.s.visits {
		if v.UserID == userID {
			out = append(out, v)
		}
	}
	entity.SortVisits(out)
	return out, nil
}

func (r *VisitRepository) Create(_ context.Context, v *entity.Visit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v.ID, v.CreatedAt = newID(), r.s.now()
	r.s.visits[v.ID] = *v
	return nil
}

func (r *VisitRepository) Delete(_ context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.visits[id]
	if !ok || v.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.s.visits, id)
	return nil
}

func (r *VisitRepository) CountByUser(_ context.Context, userID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, v := range r.s.visits {
		if v.UserID == userID {
			n++
		}
	}
	return n, nil
}

var (
	_ repository.PassportRepository = (*PassportRepository)(nil)
	_ repository.VisitRepository    = (*VisitRepository)(nil)
)
