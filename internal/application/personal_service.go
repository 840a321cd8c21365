package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/cosmebag/internal/domain/entity"
	repo "github.com/oksasatya/cosmebag/internal/domain/repository"
	"github.com/oksasatya/cosmebag/pkg/apperrors"
)

// Adviser produces care suggestions for a passport; *gemini.Client implements it.
type Adviser interface {
	Advise(ctx context.Context, p entity.Passport) (string, error)
}

type PassportService struct {
	Passports repo.PassportRepository
	Adviser   Adviser
	Logger    *logrus.Logger
}

func NewPassportService(passports repo.PassportRepository, adviser Adviser, logger *logrus.Logger) *PassportService {
	return &PassportService{Passports: passports, Adviser: adviser, Logger: logger}
}

// Get returns the user's passport, or nil when none was saved yet.
func (s *PassportService) Get(ctx context.Context, userID string) (*entity.Passport, error) {
	p, err := s.Passports.GetByUserID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, internal("fetch passport", err)
	}
	return p, nil
}

// Save creates the passport on first save and updates it afterwards.
func (s *PassportService) Save(ctx context.Context, userID string, patch entity.PassportPatch) (*entity.Passport, error) {
	if patch.SkinType != nil && !patch.SkinType.Valid() {
		return nil, apperrors.ValidationWithDetails(msgCheckInput, map[string]string{"skin_type": "неизвестный тип кожи"})
	}
	patch.SkinConcerns = cleanList(patch.SkinConcerns)
	patch.Allergies = cleanList(patch.Allergies)

	cur, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		cur = &entity.Passport{UserID: userID, SkinType: entity.SkinNormal, SkinConcerns: []string{}, Allergies: []string{}}
	}
	patch.Apply(cur)
	if err := s.Passports.Upsert(ctx, cur); err != nil {
		return nil, internal("save passport", err)
	}
	return cur, nil
}

// Advice returns care suggestions for the saved passport.
func (s *PassportService) Advice(ctx context.Context, userID string) (string, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if p == nil {
		p = &entity.Passport{SkinType: entity.SkinNormal}
	}
	if s.Adviser == nil {
		return "", apperrors.Unavailable("Рекомендации временно недоступны")
	}
	advice, err := s.Adviser.Advise(ctx, *p)
	if err != nil {
		return "", internal("passport advice", err)
	}
	return advice, nil
}

// cleanList trims entries and drops blanks and duplicates. nil stays nil.
func cleanList(in []string) []string {
	if in == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[strings.ToLower(s)]; ok {
			continue
		}
		seen[strings.ToLower(s)] = struct{}{}
		out = append(out, s)
	}
	return out
}

type VisitInput struct {
	VisitDate       time.Time                `json:"visit_date" binding:"required"`
	DoctorName      string                   `json:"doctor_name"`
	ClinicName      string                   `json:"clinic_name"`
	Procedures      []string                 `json:"procedures"`
	Recommendations string                   `json:"recommendations"`
	Attachments     []entity.VisitAttachment `json:"attachments"`
}

type VisitService struct {
	Visits repo.VisitRepository
	Photos Uploader // optional
	Logger *logrus.Logger
}

func NewVisitService(visits repo.VisitRepository, photos Uploader, logger *logrus.Logger) *VisitService {
	return &VisitService{Visits: visits, Photos: photos, Logger: logger}
}

// List returns the user's visits, newest visit first.
func (s *VisitService) List(ctx context.Context, userID string) ([]entity.Visit, error) {
	visits, err := s.Visits.ListByUser(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return []entity.Visit{}, nil
		}
		return nil, internal("fetch visits", err)
	}
	entity.SortVisits(visits)
	return visits, nil
}

func (s *VisitService) Add(ctx context.Context, userID string, in VisitInput) (*entity.Visit, error) {
	details := map[string]string{}
	if in.VisitDate.IsZero() {
		details["visit_date"] = "обязательное поле"
	}
	for i, a := range in.Attachments {
		if !a.Kind.Valid() {
			details[fmt.Sprintf("attachments[%d].kind", i)] = "тип фото должен быть before или after"
		}
		if strings.TrimSpace(a.URL) == "" {
			details[fmt.Sprintf("attachments[%d].url", i)] = "обязательное поле"
		}
	}
	if len(details) > 0 {
		return nil, apperrors.ValidationWithDetails(msgCheckInput, details)
	}

	procedures := cleanList(in.Procedures)
	if procedures == nil {
		procedures = []string{}
	}
	attachments := in.Attachments
	if attachments == nil {
		attachments = []entity.VisitAttachment{}
	}
	v := &entity.Visit{
		UserID:          userID,
		VisitDate:       dateOnly(in.VisitDate),
		DoctorName:      strings.TrimSpace(in.DoctorName),
		ClinicName:      strings.TrimSpace(in.ClinicName),
		Procedures:      procedures,
		Recommendations: strings.TrimSpace(in.Recommendations),
		Attachments:     attachments,
	}
	if err := s.Visits.Create(ctx, v); err != nil {
		return nil, internal("add visit", err)
	}
	return v, nil
}

func (s *VisitService) Delete(ctx context.Context, userID, visitID string) error {
	if err := s.Visits.Delete(ctx, userID, visitID); err != nil {
		return notFoundOr("delete visit", msgVisitNotFound, err)
	}
	return nil
}

// UploadPhoto stores a before/after photo and returns the attachment to put on a visit.
func (s *VisitService) UploadPhoto(ctx context.Context, userID string, kind entity.AttachmentKind, filename, contentType string, r io.Reader) (*entity.VisitAttachment, error) {
	if !kind.Valid() {
		return nil, apperrors.ValidationWithDetails(msgCheckInput, map[string]string{"kind": "тип фото должен быть before или after"})
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, apperrors.ValidationWithDetails(msgCheckInput, map[string]string{"file": "ожидается изображение"})
	}
	if s.Photos == nil {
		return nil, apperrors.Unavailable(msgUploadDisabled)
	}
	objectPath := path.Join("visits", userID, string(kind), uuid.NewString()+strings.ToLower(path.Ext(filename)))
	url, err := s.Photos.Upload(ctx, objectPath, contentType, r)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, internal("upload visit photo", err)
	}
	return &entity.VisitAttachment{Kind: kind, URL: url}, nil
}

// dateOnly keeps the calendar date as written by the client.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
