package application

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/cosmebag/internal/domain/entity"
	repo "github.com/oksasatya/cosmebag/internal/domain/repository"
	"github.com/oksasatya/cosmebag/pkg/apperrors"
	"github.com/oksasatya/cosmebag/pkg/helpers"
	"github.com/oksasatya/cosmebag/pkg/mailer"
	"github.com/oksasatya/cosmebag/pkg/mailer/templates"
	"github.com/oksasatya/cosmebag/pkg/validation"
)

// JobPublisher enqueues background jobs; *helpers.RabbitPublisher implements it.
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

type SessionConfig struct {
	AutoConfirm bool
	ConfirmURL  string // token is appended as ?token=
	ConfirmTTL  time.Duration
	SessionTTL  time.Duration
	Brand       templates.Brand
}

// Session is an authenticated session. Tokens are set only when freshly issued.
type Session struct {
	UserID           string    `json:"user_id"`
	Email            string    `json:"email"`
	SessionID        string    `json:"-"`
	AccessToken      string    `json:"-"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"-"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at,omitempty"`
}

type SignUpInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	DisplayName     string
	Username        string
}

type SignUpResult struct {
	User      *entity.User    `json:"user"`
	Profile   *entity.Profile `json:"profile"`
	Session   *Session        `json:"session,omitempty"`
	Confirmed bool            `json:"confirmed"`
}

// SessionService is the session store: sign-in, sign-up, sign-out and session lookup.
// The live session of a user is a Redis hash keyed by user id whose sid must match
// the sid claim of the presented token.
type SessionService struct {
	Users    repo.UserRepository
	Profiles repo.ProfileRepository
	JWT      *helpers.JWTManager
	Redis    *redis.Client
	Mail     JobPublisher
	Events   *SessionEvents
	Logger   *logrus.Logger
	Cfg      SessionConfig
	Now      func() time.Time
}

func NewSessionService(users repo.UserRepository, profiles repo.ProfileRepository, jwt *helpers.JWTManager,
	rdb *redis.Client, mail JobPublisher, events *SessionEvents, logger *logrus.Logger, cfg SessionConfig) *SessionService {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.ConfirmTTL <= 0 {
		cfg.ConfirmTTL = 24 * time.Hour
	}
	return &SessionService{Users: users, Profiles: profiles, JWT: jwt, Redis: rdb, Mail: mail,
		Events: events, Logger: logger, Cfg: cfg, Now: time.Now}
}

func sessionKey(userID string) string {
	return "user:session:" + userID
}

func confirmKey(token string) string {
	return "email:confirm:token:" + token
}

var emailValidator = validator.New()

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignIn authenticates by email and password and opens a new session.
func (s *SessionService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.Users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, internal("sign in", err)
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !u.IsConfirmed() {
		return nil, apperrors.ErrEmailNotConfirmed
	}
	sess, err := s.open(ctx, u)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventSignedIn, sess)
	return sess, nil
}

func (s *SessionService) validateSignUp(in SignUpInput) error {
	details := map[string]string{}
	if err := emailValidator.Var(in.Email, "required,email"); err != nil {
		details["email"] = "некорректный email"
	}
	if len([]rune(in.Password)) < validation.MinPasswordLen {
		details["password"] = "Пароль должен быть не короче 6 символов"
	}
	if in.Password != in.ConfirmPassword {
		details["confirm_password"] = msgPasswordMismatch
	}
	if len([]rune(strings.TrimSpace(in.Username))) < validation.MinUsernameLen {
		details["username"] = "Имя пользователя должно быть не короче 3 символов"
	}
	if len(details) == 0 {
		return nil
	}
	msg := msgCheckInput
	if len(details) == 1 {
		for _, m := range details {
			msg = m
		}
	}
	return apperrors.ValidationWithDetails(msg, details)
}

// SignUp registers a user and profile. A session is granted only when no email
// confirmation is required.
func (s *SessionService) SignUp(ctx context.Context, in SignUpInput) (*SignUpResult, error) {
	in.Email = normalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	if err := s.validateSignUp(in); err != nil {
		return nil, err
	}

	if _, err := s.Profiles.GetByUsername(ctx, in.Username); err == nil {
		return nil, apperrors.Conflict(msgUsernameTaken)
	} else if !isNotFound(err) {
		return nil, internal("sign up", err)
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, internal("hash password", err)
	}
	u := &entity.User{Email: in.Email, Password: hash}
	if s.Cfg.AutoConfirm {
		now := s.Now().UTC()
		u.EmailConfirmedAt = &now
	}
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, apperrors.Conflict(msgEmailTaken)
		}
		return nil, internal("create user", err)
	}

	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" {
		displayName = in.Username
	}
	p := &entity.Profile{ID: u.ID, DisplayName: displayName, Username: in.Username, IsPublic: true}
	if err := s.Profiles.Create(ctx, p); err != nil {
		// the user row must not outlive a failed sign up or the email stays taken
		if derr := s.Users.Delete(ctx, u.ID); derr != nil {
			s.Logger.WithError(derr).WithField("user_id", u.ID).Error("discard user after failed sign up")
		}
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, apperrors.Conflict(msgUsernameTaken)
		}
		return nil, internal("create profile", err)
	}

	res := &SignUpResult{User: u, Profile: p, Confirmed: u.IsConfirmed()}
	if !res.Confirmed {
		if err := s.sendConfirmation(ctx, u, p); err != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("send confirmation email failed")
		}
		return res, nil
	}

	sess, err := s.open(ctx, u)
	if err != nil {
		return nil, err
	}
	res.Session = sess
	s.publish(ctx, EventSignedIn, sess)
	return res, nil
}

func (s *SessionService) sendConfirmation(ctx context.Context, u *entity.User, p *entity.Profile) error {
	token, err := helpers.NewToken()
	if err != nil {
		return err
	}
	if err := s.Redis.Set(ctx, confirmKey(token), u.ID, s.Cfg.ConfirmTTL).Err(); err != nil {
		return err
	}
	if s.Mail == nil {
		s.Logger.WithField("user_id", u.ID).Warn("mail publisher not configured, confirmation email skipped")
		return nil
	}
	job := mailer.EmailJob{
		To:       u.Email,
		Template: templates.ConfirmEmail,
		Data:     templates.NewConfirmEmailData(s.Cfg.Brand, p.DisplayName, u.Email, s.confirmLink(token), s.Cfg.ConfirmTTL),
	}
	return s.Mail.PublishJSON(ctx, job)
}

func (s *SessionService) confirmLink(token string) string {
	u, err := url.Parse(s.Cfg.ConfirmURL)
	if err != nil {
		return s.Cfg.ConfirmURL + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

// ConfirmEmail consumes a confirmation token and marks the email confirmed.
func (s *SessionService) ConfirmEmail(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperrors.Validation(msgConfirmInvalid)
	}
	userID, err := s.Redis.GetDel(ctx, confirmKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return apperrors.Validation(msgConfirmInvalid)
	}
	if err != nil {
		return internal("read confirm token", err)
	}
	if err := s.Users.MarkConfirmed(ctx, userID, s.Now().UTC()); err != nil {
		return notFoundOr("confirm email", msgConfirmInvalid, err)
	}

	if s.Mail != nil {
		if u, err := s.Users.GetByID(ctx, userID); err == nil {
			name := ""
			if p, pErr := s.Profiles.GetByID(ctx, userID); pErr == nil {
				name = p.DisplayName
			}
			job := mailer.EmailJob{To: u.Email, Template: templates.Welcome, Data: templates.NewWelcomeData(s.Cfg.Brand, name, u.Email)}
			if err := s.Mail.PublishJSON(ctx, job); err != nil {
				s.Logger.WithError(err).WithField("user_id", userID).Warn("enqueue welcome email failed")
			}
		}
	}
	return nil
}

// GetSession returns the live session for an access token, or nil when the token is
// invalid, expired, or was issued for a session that no longer exists.
func (s *SessionService) GetSession(ctx context.Context, accessToken string) (*Session, error) {
	if accessToken == "" {
		return nil, nil
	}
	claims, err := s.JWT.ParseAccessToken(accessToken)
	if err != nil {
		return nil, nil
	}
	data, err := s.Redis.HGetAll(ctx, sessionKey(claims.UserID)).Result()
	if err != nil {
		return nil, apperrors.Unavailable(apperrors.ErrUnavailable.Message).WithCause(err)
	}
	if len(data) == 0 || data["sid"] != claims.SessionID {
		return nil, nil
	}
	sess := &Session{UserID: claims.UserID, Email: data["email"], SessionID: claims.SessionID, AccessToken: accessToken}
	if claims.ExpiresAt != nil {
		sess.AccessExpiresAt = claims.ExpiresAt.Time
	}
	return sess, nil
}

// SignOut ends the session. Signing out a session that is already gone is not an error.
func (s *SessionService) SignOut(ctx context.Context, sess *Session) error {
	if sess == nil {
		return nil
	}
	key := sessionKey(sess.UserID)
	sid, err := s.Redis.HGet(ctx, key, "sid").Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return internal("sign out", err)
	}
	if sid == sess.SessionID {
		if err := s.Redis.Del(ctx, key).Err(); err != nil {
			return internal("sign out", err)
		}
	}
	s.publish(ctx, EventSignedOut, sess)
	return nil
}

// Refresh rotates the session id and both tokens.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	key := sessionKey(claims.UserID)
	data, err := s.Redis.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, internal("refresh", err)
	}
	if len(data) == 0 || data["sid"] != claims.SessionID {
		return nil, apperrors.ErrUnauthorized
	}
	u, err := s.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, internal("refresh", err)
	}
	sess, err := s.open(ctx, u)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventTokenRefreshed, sess)
	return sess, nil
}

// Subscribe registers fn for session change events.
func (s *SessionService) Subscribe(fn func(SessionEvent)) (unsubscribe func()) {
	return s.Events.Subscribe(fn)
}

// open issues tokens for a new sid and records the session in Redis.
func (s *SessionService) open(ctx context.Context, u *entity.User) (*Session, error) {
	sid := uuid.NewString()
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, sid)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate access token failed")
		return nil, internal("issue tokens", err)
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, sid)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate refresh token failed")
		return nil, internal("issue tokens", err)
	}

	key := sessionKey(u.ID)
	pipe := s.Redis.Pipeline()
	pipe.HSet(ctx, key, map[string]any{
		"user_id":    u.ID,
		"email":      u.Email,
		"sid":        sid,
		"created_at": s.Now().UTC().Format(time.RFC3339Nano),
	})
	pipe.Expire(ctx, key, s.Cfg.SessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		s.Logger.WithError(err).WithField("key", key).Error("redis pipeline failed")
		return nil, apperrors.Unavailable(apperrors.ErrUnavailable.Message).WithCause(err)
	}

	return &Session{
		UserID:           u.ID,
		Email:            u.Email,
		SessionID:        sid,
		AccessToken:      access,
		AccessExpiresAt:  aexp,
		RefreshToken:     refresh,
		RefreshExpiresAt: rexp,
	}, nil
}

func (s *SessionService) publish(ctx context.Context, typ SessionEventType, sess *Session) {
	if s.Events == nil {
		return
	}
	s.Events.Publish(ctx, SessionEvent{Type: typ, UserID: sess.UserID, SessionID: sess.SessionID})
}
