// Package application holds the domain accessors and the session store.
//
// Reads return nil (or an empty slice) when the row does not exist. Every other
// failure is returned as an *apperrors.Error so handlers can map it directly.
package application

import (
	"errors"
	"fmt"

	repo "github.com/oksasatya/cosmebag/internal/domain/repository"
	"github.com/oksasatya/cosmebag/pkg/apperrors"
)

// Localized messages shown to the user.
const (
	msgItemNotFound     = "Продукт не найден в косметичке"
	msgBagNotFound      = "Косметичка не найдена"
	msgVisitNotFound    = "Визит не найден"
	msgProfileNotFound  = "Профиль не найден"
	msgUsernameTaken    = "Имя пользователя уже занято"
	msgEmailTaken       = "Пользователь с таким email уже зарегистрирован"
	msgPasswordMismatch = "Пароли не совпадают"
	msgCheckInput       = "Проверьте введённые данные"
	msgConfirmInvalid   = "Ссылка подтверждения недействительна или устарела"
	msgUploadDisabled   = "Загрузка фото временно недоступна"
	msgInvalidImage     = "Изображение должно быть передано как data URL"
)

// isNotFound reports the distinguished not-found condition of the data layer.
func isNotFound(err error) bool { return errors.Is(err, repo.ErrNotFound) }

// internal wraps a gateway failure with the operation name.
func internal(op string, err error) error {
	var ae *apperrors.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperrors.Internal(apperrors.ErrInternal.Message, fmt.Errorf("%s: %w", op, err))
}

// notFoundOr maps not-found to a coded error carrying msg and wraps everything else.
func notFoundOr(op, msg string, err error) error {
	if isNotFound(err) {
		return apperrors.NotFound(msg)
	}
	return internal(op, err)
}
