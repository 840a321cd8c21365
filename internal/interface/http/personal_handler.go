package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/cosmebag/internal/application"
	"github.com/oksasatya/cosmebag/internal/domain/entity"
	"github.com/oksasatya/cosmebag/internal/navigation"
	"github.com/oksasatya/cosmebag/internal/workspace"
	"github.com/oksasatya/cosmebag/pkg/apperrors"
	"github.com/oksasatya/cosmebag/pkg/response"
)

const maxPhotoSize = 10 << 20

// PersonalHandler serves the aesthetic passport and the cosmetologist visits.
type PersonalHandler struct {
	Screens
	Accessors *application.Accessors
	Logger    *logrus.Logger
}

func NewPersonalHandler(spaces *workspace.Manager, nav *navigation.Store, accessors *application.Accessors, logger *logrus.Logger) *PersonalHandler {
	return &PersonalHandler{Screens: Screens{Spaces: spaces, Nav: nav}, Accessors: accessors, Logger: logger}
}

type passportRequest struct {
	SkinType     *entity.SkinType `json:"skin_type" binding:"omitempty,skintype"`
	SkinConcerns []string         `json:"skin_concerns"`
	Allergies    []string         `json:"allergies"`
	Notes        *string          `json:"notes"`
}

func (h *PersonalHandler) Passport(c *gin.Context) {
	ws, ok := h.workspaceFor(c)
	if !ok {
		return
	}
	render(c, ws, http.StatusOK, ws.Passport(), "")
}

func (h *PersonalHandler) SavePassport(c *gin.Context) {
	var req passportRequest
	if !bindJSON(c, &req) {
		return
	}
	ws, ok := h.workspaceFor(c)
	if !ok {
		return
	}
	p, err := ws.SavePassport(c.Request.Context(), entity.PassportPatch{
		SkinType:     req.SkinType,
		SkinConcerns: req.SkinConcerns,
		Allergies:    req.Allergies,
		Notes:        req.Notes,
	})
	if err != nil {
		fail(c, ws, err)
		return
	}
	h.endEdit(c, navigation.EditPassport)
	render(c, ws, http.StatusOK, p, "Паспорт сохранён")
}

func (h *PersonalHandler) Advice(c *gin.Context) {
	advice, err := h.Accessors.PassportAdvice(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"advice": advice}, "", nil)
}

func (h *PersonalHandler) Visits(c *gin.Context) {
	ws, ok := h.workspaceFor(c)
	if !ok {
		return
	}
	render(c, ws, http.StatusOK, ws.Visits(), "")
}

func (h *PersonalHandler) Visit(c *gin.Context) {
	ws, ok := h.workspaceFor(c)
	if !ok {
		return
	}
	v := ws.Visit(c.Param("id"))
	if v == nil {
		fail(c, ws, apperrors.NotFound("Визит не найден"))
		return
	}
	render(c, ws, http.StatusOK, v, "")
}

func (h *PersonalHandler) AddVisit(c *gin.Context) {
	var in application.VisitInput
	if !bindJSON(c, &in) {
		return
	}
	ws, ok := h.workspaceFor(c)
	if !ok {
		return
	}
	v, err := ws.AddVisit(c.Request.Context(), in)
	if err != nil {
		fail(c, ws, err)
		return
	}
	h.endEdit(c, navigation.EditVisitForm)
	render(c, ws, http.StatusCreated, v, "Визит добавлен")
}

func (h *PersonalHandler) DeleteVisit(c *gin.Context) {
	ws, ok := h.workspaceFor(c)
	if !ok {
		return
	}
	if err := ws.DeleteVisit(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, ws, err)
		return
	}
	render(c, ws, http.StatusOK, gin.H{"deleted": true}, "Визит удалён")
}

// UploadPhoto accepts multipart fields "kind" (before|after) and "file" and returns
// the attachment to include when the visit is saved.
func (h *PersonalHandler) UploadPhoto(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPhotoSize)
	fh, err := c.FormFile("file")
	if err != nil {
		response.FromError(c, apperrors.ValidationWithDetails(apperrors.ErrValidation.Message, map[string]string{"file": "обязательное поле"}))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.FromError(c, apperrors.Internal(apperrors.ErrInternal.Message, err))
		return
	}
	defer f.Close()

	att, err := h.Accessors.Visits.UploadPhoto(c.Request.Context(), currentUserID(c),
		entity.AttachmentKind(c.PostForm("kind")), fh.Filename, fh.Header.Get("Content-Type"), f)
	if err != nil {
		h.Logger.WithError(err).WithField("user_id", currentUserID(c)).Warn("visit photo upload failed")
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, att, "Фото загружено", nil)
}
