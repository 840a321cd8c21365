package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/cosmebag/internal/domain/entity"
	"github.com/oksasatya/cosmebag/pkg/apperrors"
)

func TestSavePassport_UpsertsSingleRow(t *testing.T) {
	e := newEnv(t, true)
	uid := e.signUp(t, "anna")
	ctx := context.Background()

	p, err := e.acc.FetchPassport(ctx, uid)
	require.NoError(t, err)
	assert.Nil(t, p, "absent passport reads as nil")

	oily := entity.SkinOily
	first, err := e.acc.SavePassport(ctx, uid, entity.PassportPatch{SkinType: &oily, Allergies: []string{" ланолин ", "", "Ланолин"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"ланолин"}, first.Allergies)

	notes := "после пилинга"
	second, err := e.acc.SavePassport(ctx, uid, entity.PassportPatch{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, entity.SkinOily, second.SkinType)
	assert.Equal(t, "после пилинга", second.Notes)
	assert.Equal(t, 1, e.store.Passports().PassportCount())

	bad := entity.SkinType("mixed")
	_, err = e.acc.SavePassport(ctx, uid, entity.PassportPatch{SkinType: &bad})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

type fakeAdviser struct{ got entity.Passport }

func (f *fakeAdviser) Advise(_ context.Context, p entity.Passport) (string, error) {
	f.got = p
	return "совет для " + string(p.SkinType), nil
}

func TestPassportAdvice(t *testing.T) {
	e := newEnv(t, true)
	uid := e.signUp(t, "anna")
	ctx := context.Background()

	_, err := e.acc.PassportAdvice(ctx, uid)
	assert.ErrorIs(t, err, apperrors.ErrUnavailable)

	adv := &fakeAdviser{}
	e.acc.Passports.Adviser = adv
	dry := entity.SkinDry
	_, err = e.acc.SavePassport(ctx, uid, entity.PassportPatch{SkinType: &dry})
	require.NoError(t, err)

	out, err := e.acc.PassportAdvice(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, "совет для dry", out)
	assert.Equal(t, uid, adv.got.UserID)
}

func TestVisits_NewestFirstAndScopedDelete(t *testing.T) {
	e := newEnv(t, true)
	anna := e.signUp(t, "anna")
	boris := e.signUp(t, "boris")
	ctx := context.Background()
	day := func(d int) time.Time { return time.Date(2025, 4, d, 15, 0, 0, 0, time.UTC) }

	for _, d := range []int{3, 20, 11} {
		_, err := e.acc.AddVisit(ctx, anna, VisitInput{VisitDate: day(d), DoctorName: "Dr. Smirnova", Procedures: []string{"пилинг"}})
		require.NoError(t, err)
	}
	visits, err := e.acc.FetchVisits(ctx, anna)
	require.NoError(t, err)
	require.Len(t, visits, 3)
	assert.Equal(t, 20, visits[0].VisitDate.Day())
	assert.Equal(t, 11, visits[1].VisitDate.Day())
	assert.Equal(t, 3, visits[2].VisitDate.Day())
	assert.Zero(t, visits[0].VisitDate.Hour(), "visit date is date only")

	assert.ErrorIs(t, e.acc.DeleteVisit(ctx, boris, visits[0].ID), apperrors.ErrNotFound)
	require.NoError(t, e.acc.DeleteVisit(ctx, anna, visits[0].ID))
	visits, _ = e.acc.FetchVisits(ctx, anna)
	assert.Len(t, visits, 2)
}

func TestAddVisit_Validation(t *testing.T) {
	e := newEnv(t, true)
	uid := e.signUp(t, "anna")

	_, err := e.acc.AddVisit(context.Background(), uid, VisitInput{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = e.acc.AddVisit(context.Background(), uid, VisitInput{
		VisitDate:   time.Now(),
		Attachments: []entity.VisitAttachment{{Kind: "during", URL: "https://x/1.jpg"}},
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestUploadVisitPhoto(t *testing.T) {
	e := newEnv(t, true)
	uid := e.signUp(t, "anna")
	ctx := context.Background()

	_, err := e.acc.Visits.UploadPhoto(ctx, uid, entity.AttachmentBefore, "face.jpg", "image/jpeg", strings.NewReader("jpg"))
	assert.ErrorIs(t, err, apperrors.ErrUnavailable)

	up := &fakeUploader{}
	e.acc.Visits.Photos = up
	att, err := e.acc.Visits.UploadPhoto(ctx, uid, entity.AttachmentAfter, "Face.JPG", "image/jpeg", strings.NewReader("jpg"))
	require.NoError(t, err)
	assert.Equal(t, entity.AttachmentAfter, att.Kind)
	require.Len(t, up.paths, 1)
	assert.True(t, strings.HasPrefix(up.paths[0], "visits/"+uid+"/after/"))
	assert.True(t, strings.HasSuffix(up.paths[0], ".jpg"))

	_, err = e.acc.Visits.UploadPhoto(ctx, uid, entity.AttachmentAfter, "doc.pdf", "application/pdf", strings.NewReader("pdf"))
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	e.acc.Visits.Photos = &fakeUploader{err: errors.New("gcs down")}
	_, err = e.acc.Visits.UploadPhoto(ctx, uid, entity.AttachmentAfter, "a.png", "image/png", strings.NewReader("png"))
	assert.ErrorIs(t, err, apperrors.ErrInternal)
}
