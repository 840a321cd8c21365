package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/cosmebag/internal/application"
	"github.com/oksasatya/cosmebag/pkg/apperrors"
	"github.com/oksasatya/cosmebag/pkg/response"
)

const (
	CtxUserIDKey  = "userID"
	CtxSessionKey = "session"
)

// SessionLookup resolves an access token to its live session.
type SessionLookup interface {
	GetSession(ctx context.Context, accessToken string) (*application.Session, error)
}

// Auth requires a live session. It accepts the access_token cookie or a Bearer token
// and sets userID and session in the Gin context.
func Auth(sessions SessionLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := AccessToken(c)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, "Требуется вход", response.ErrorBody{Code: apperrors.CodeUnauthorized})
			return
		}
		sess, err := sessions.GetSession(c.Request.Context(), token)
		if err != nil {
			ae := apperrors.From(err)
			_ = c.Error(err)
			response.Abort(c, ae.HTTPStatus(), ae.Message, response.ErrorBody{Code: ae.Code})
			return
		}
		if sess == nil {
			response.Abort(c, http.StatusUnauthorized, "Сессия истекла, войдите снова", response.ErrorBody{Code: apperrors.CodeUnauthorized})
			return
		}
		setSession(c, sess)
		c.Next()
	}
}

// OptionalAuth attaches the session when one is presented and valid, and never aborts.
func OptionalAuth(sessions SessionLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := AccessToken(c); token != "" {
			if sess, err := sessions.GetSession(c.Request.Context(), token); err == nil && sess != nil {
				setSession(c, sess)
			}
		}
		c.Next()
	}
}

func setSession(c *gin.Context, sess *application.Session) {
	c.Set(CtxUserIDKey, sess.UserID)
	c.Set(CtxSessionKey, sess)
}

// SessionFrom returns the session attached by Auth or OptionalAuth, or nil.
func SessionFrom(c *gin.Context) *application.Session {
	if v, ok := c.Get(CtxSessionKey); ok {
		if sess, ok := v.(*application.Session); ok {
			return sess
		}
	}
	return nil
}
