package workspace

import (
	"time"

	"github.com/oksasatya/cosmebag/pkg/apperrors"
)

type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeError NoticeLevel = "error"
)

// Notice is a transient message for the toast surface.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
	At      time.Time   `json:"at"`
}

const maxNotices = 20

const (
	msgAddedToBag      = "Продукт добавлен в косметичку"
	msgAddedToWishlist = "Продукт добавлен в список желаний"
	msgMovedToOwned    = "Продукт перемещён в косметичку"
	msgItemRemoved     = "Продукт удалён"
	msgBagSaved        = "Косметичка обновлена"
	msgProfileSaved    = "Профиль сохранён"
	msgPassportSaved   = "Паспорт сохранён"
	msgVisitAdded      = "Визит добавлен"
	msgVisitDeleted    = "Визит удалён"
	msgFollowed        = "Вы подписались на косметичку"
	msgUnfollowed      = "Вы отписались от косметички"
)

// inline reports whether err is shown next to the form instead of as a notice.
func inline(err error) bool {
	switch apperrors.CodeOf(err) {
	case apperrors.CodeValidation, apperrors.CodeSelfFollow, apperrors.CodeAlreadyOwned:
		return true
	}
	return false
}

func (w *Workspace) notifyLocked(err error) {
	if err == nil || inline(err) {
		return
	}
	w.pushLocked(NoticeError, apperrors.From(err).Message)
}

func (w *Workspace) pushLocked(level NoticeLevel, msg string) {
	w.notices = append(w.notices, Notice{Level: level, Message: msg, At: w.now()})
	if n := len(w.notices); n > maxNotices {
		w.notices = w.notices[n-maxNotices:]
	}
}

// TakeNotices returns and clears the pending notices.
func (w *Workspace) TakeNotices() []Notice {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := w.notices
	w.notices = nil
	return out
}
