package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/cosmebag/internal/application"
	"github.com/oksasatya/cosmebag/internal/interface/middleware"
	"github.com/oksasatya/cosmebag/internal/navigation"
	"github.com/oksasatya/cosmebag/internal/workspace"
	"github.com/oksasatya/cosmebag/pkg/apperrors"
	"github.com/oksasatya/cosmebag/pkg/helpers"
	"github.com/oksasatya/cosmebag/pkg/response"
)

type AuthHandler struct {
	Sessions *application.SessionService
	Nav      *navigation.Store
	Spaces   *workspace.Manager
	Cookies  *helpers.Manager
	Logger   *logrus.Logger
}

func NewAuthHandler(sessions *application.SessionService, nav *navigation.Store, spaces *workspace.Manager,
	logger *logrus.Logger, cookieDomain string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{Sessions: sessions, Nav: nav, Spaces: spaces, Logger: logger,
		Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type signInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type signUpRequest struct {
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
	DisplayName     string `json:"display_name"`
	Username        string `json:"username" binding:"required"`
}

type confirmRequest struct {
	Token string `json:"token" binding:"required"`
}

func sessionMeta(sess *application.Session) gin.H {
	return gin.H{"access_expires_at": sess.AccessExpiresAt, "refresh_expires_at": sess.RefreshExpiresAt}
}

func (h *AuthHandler) setCookies(c *gin.Context, sess *application.Session) {
	h.Cookies.SetPair(c, sess.AccessToken, sess.AccessExpiresAt, sess.RefreshToken, sess.RefreshExpiresAt)
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var req signInRequest
	if !bindJSON(c, &req) {
		return
	}
	sess, err := h.Sessions.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.FromError(c, err)
		return
	}
	h.setCookies(c, sess)
	response.Success(c, http.StatusOK, sess, "Вы вошли", sessionMeta(sess))
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req signUpRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.Sessions.SignUp(c.Request.Context(), application.SignUpInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		DisplayName:     req.DisplayName,
		Username:        req.Username,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	if res.Session == nil {
		response.Success(c, http.StatusCreated, res, "Проверьте почту, чтобы подтвердить email", nil)
		return
	}
	h.setCookies(c, res.Session)
	response.Success(c, http.StatusCreated, res, "Аккаунт создан", sessionMeta(res.Session))
}

func (h *AuthHandler) ConfirmEmail(c *gin.Context) {
	var req confirmRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Sessions.ConfirmEmail(c.Request.Context(), req.Token); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"confirmed": true}, "Email подтверждён, теперь можно войти", nil)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	token := middleware.RefreshToken(c)
	if token == "" {
		response.FromError(c, apperrors.ErrUnauthorized)
		return
	}
	old, _ := h.Sessions.JWT.ParseRefreshToken(token)
	sess, err := h.Sessions.Refresh(c.Request.Context(), token)
	if err != nil {
		response.FromError(c, err)
		return
	}
	// the sid rotates, so the navigation state moves to the new key
	if old != nil {
		h.carryNavigation(c, old.SessionID, sess.SessionID)
	}
	h.setCookies(c, sess)
	response.Success(c, http.StatusOK, sess, "Сессия продлена", sessionMeta(sess))
}

func (h *AuthHandler) carryNavigation(c *gin.Context, fromSID, toSID string) {
	ctx := c.Request.Context()
	st, err := h.Nav.Load(ctx, fromSID)
	if err != nil {
		h.Logger.WithError(err).Warn("load navigation for refresh failed")
		return
	}
	if _, err := h.Nav.Update(ctx, toSID, func(dst *navigation.State) error {
		*dst = *st
		return nil
	}); err != nil {
		h.Logger.WithError(err).Warn("carry navigation failed")
		return
	}
	_ = h.Nav.Delete(ctx, fromSID)
}

func (h *AuthHandler) SignOut(c *gin.Context) {
	sess := middleware.SessionFrom(c)
	if err := h.Sessions.SignOut(c.Request.Context(), sess); err != nil {
		response.FromError(c, err)
		return
	}
	if sess != nil {
		if err := h.Nav.Delete(c.Request.Context(), sess.SessionID); err != nil {
			h.Logger.WithError(err).WithField("user_id", sess.UserID).Warn("clear navigation failed")
		}
		h.Spaces.Drop(sess.UserID)
	}
	h.Cookies.Clear(c)
	response.Success(c, http.StatusOK, gin.H{"signed_out": true}, "Вы вышли", nil)
}

// Session reports the current session, or null when signed out. It never fails on
// a stale token.
func (h *AuthHandler) Session(c *gin.Context) {
	sess := middleware.SessionFrom(c)
	if sess == nil {
		response.Success[any](c, http.StatusOK, nil, "Нет активной сессии", nil)
		return
	}
	response.Success(c, http.StatusOK, sess, "Сессия активна", nil)
}
