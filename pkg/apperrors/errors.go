// Package apperrors provides coded domain errors shared by services and HTTP handlers.
//
// Services return *Error values (or wrap them); handlers map them to a status code
// and a user-facing message through HTTPStatus and Message.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	Is = errors.Is
	As = errors.As
)

// Code is a machine-readable error code.
type Code string

const (
	CodeNotFound           Code = "NOT_FOUND"
	CodeValidation         Code = "VALIDATION"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeEmailNotConfirmed  Code = "EMAIL_NOT_CONFIRMED"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeConflict           Code = "CONFLICT"
	CodeAlreadyOwned       Code = "ALREADY_OWNED"
	CodeSelfFollow         Code = "SELF_FOLLOW"
	CodeRateLimited        Code = "RATE_LIMITED"
	CodeUnavailable        Code = "UNAVAILABLE"
	CodeInternal           Code = "INTERNAL"
)

// HTTPStatus returns the HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidation, CodeSelfFollow:
		return http.StatusBadRequest
	case CodeInvalidCredentials, CodeEmailNotConfirmed, CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeConflict, CodeAlreadyOwned:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, a user-facing message and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func (e *Error) HTTPStatus() int { return e.Code.HTTPStatus() }

// WithDetails returns a copy of e carrying details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: details, cause: e.cause}
}

// WithCause returns a copy of e wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: e.Details, cause: err}
}

// Sentinels for errors.Is. User-facing messages are Russian, matching the app's locale.
var (
	ErrNotFound           = &Error{Code: CodeNotFound, Message: "не найдено"}
	ErrValidation         = &Error{Code: CodeValidation, Message: "некорректные данные"}
	ErrInvalidCredentials = &Error{Code: CodeInvalidCredentials, Message: "Неверный email или пароль"}
	ErrEmailNotConfirmed  = &Error{Code: CodeEmailNotConfirmed, Message: "Подтвердите email, чтобы войти"}
	ErrUnauthorized       = &Error{Code: CodeUnauthorized, Message: "требуется авторизация"}
	ErrForbidden          = &Error{Code: CodeForbidden, Message: "недостаточно прав"}
	ErrConflict           = &Error{Code: CodeConflict, Message: "конфликт данных"}
	ErrAlreadyOwned       = &Error{Code: CodeAlreadyOwned, Message: "Этот продукт уже есть в вашей косметичке"}
	ErrSelfFollow         = &Error{Code: CodeSelfFollow, Message: "Нельзя подписаться на свою косметичку"}
	ErrUnavailable        = &Error{Code: CodeUnavailable, Message: "сервис временно недоступен"}
	ErrInternal           = &Error{Code: CodeInternal, Message: "внутренняя ошибка"}
)

func NotFound(msg string) *Error { return &Error{Code: CodeNotFound, Message: msg} }

func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func Validation(msg string) *Error { return &Error{Code: CodeValidation, Message: msg} }

// ValidationWithDetails creates a validation error with per-field messages.
func ValidationWithDetails(msg string, details map[string]string) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

func Conflict(msg string) *Error { return &Error{Code: CodeConflict, Message: msg} }

func Forbidden(msg string) *Error { return &Error{Code: CodeForbidden, Message: msg} }

func Unavailable(msg string) *Error { return &Error{Code: CodeUnavailable, Message: msg} }

// Internal wraps an unexpected error.
func Internal(msg string, err error) *Error {
	return &Error{Code: CodeInternal, Message: msg, cause: err}
}

// CodeOf returns the code carried by err, or CodeInternal for foreign errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// From returns err as *Error, wrapping foreign errors as internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(ErrInternal.Message, err)
}
