package repository

import (
	"context"
	"errors"
	"time"

	"github.com/oksasatya/cosmebag/internal/domain/entity"
)

var (
	// ErrNotFound is the distinguished "row not found" condition.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate reports a unique constraint violation.
	ErrDuplicate = errors.New("duplicate")
)

type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	MarkConfirmed(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

type ProfileRepository interface {
	Create(ctx context.Context, p *entity.Profile) error
	GetByID(ctx context.Context, id string) (*entity.Profile, error)
	GetByUsername(ctx context.Context, username string) (*entity.Profile, error)
	Update(ctx context.Context, p *entity.Profile) error
}
