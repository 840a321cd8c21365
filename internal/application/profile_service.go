package application

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/cosmebag/internal/domain/entity"
	repo "github.com/oksasatya/cosmebag/internal/domain/repository"
	"github.com/oksasatya/cosmebag/pkg/apperrors"
	"github.com/oksasatya/cosmebag/pkg/validation"
)

type ProfileService struct {
	Profiles repo.ProfileRepository
	Logger   *logrus.Logger
}

func NewProfileService(profiles repo.ProfileRepository, logger *logrus.Logger) *ProfileService {
	return &ProfileService{Profiles: profiles, Logger: logger}
}

// Get returns the profile or nil when absent.
func (s *ProfileService) Get(ctx context.Context, userID string) (*entity.Profile, error) {
	p, err := s.Profiles.GetByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, internal("fetch profile", err)
	}
	return p, nil
}

func (s *ProfileService) Update(ctx context.Context, userID string, patch entity.ProfilePatch) (*entity.Profile, error) {
	if patch.Username != nil {
		u := strings.TrimSpace(*patch.Username)
		if len([]rune(u)) < validation.MinUsernameLen {
			return nil, apperrors.ValidationWithDetails("Имя пользователя должно быть не короче 3 символов",
				map[string]string{"username": "не короче 3 символов"})
		}
		patch.Username = &u
	}
	if patch.DisplayName != nil {
		d := strings.TrimSpace(*patch.DisplayName)
		if d == "" {
			return nil, apperrors.ValidationWithDetails(msgCheckInput, map[string]string{"display_name": "обязательное поле"})
		}
		patch.DisplayName = &d
	}

	p, err := s.Profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr("update profile", msgProfileNotFound, err)
	}
	patch.Apply(p)
	if err := s.Profiles.Update(ctx, p); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, apperrors.Conflict(msgUsernameTaken)
		}
		return nil, notFoundOr("update profile", msgProfileNotFound, err)
	}
	return p, nil
}
