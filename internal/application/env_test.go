package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/cosmebag/internal/infrastructure/memory"
	"github.com/oksasatya/cosmebag/pkg/helpers"
	"github.com/oksasatya/cosmebag/pkg/mailer"
	"github.com/oksasatya/cosmebag/pkg/mailer/templates"
)

type fakePublisher struct {
	mu   sync.Mutex
	jobs []mailer.EmailJob
	err  error
}

func (p *fakePublisher) PublishJSON(_ context.Context, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, body.(mailer.EmailJob))
	return nil
}

func (p *fakePublisher) last() mailer.EmailJob {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.jobs[len(p.jobs)-1]
}

type env struct {
	store    *memory.Store
	mr       *miniredis.Miniredis
	rdb      *redis.Client
	mail     *fakePublisher
	events   *SessionEvents
	sessions *SessionService
	acc      *Accessors
}

func newEnv(t *testing.T, autoConfirm bool) *env {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logger := helpers.NewDiscardLogger()
	store := memory.NewStore()
	mail := &fakePublisher{}
	events := NewSessionEvents(nil, logger)
	jwt := helpers.NewJWTManager("access-secret", "refresh-secret", time.Hour, 24*time.Hour)

	sessions := NewSessionService(store.Users(), store.Profiles(), jwt, rdb, mail, events, logger, SessionConfig{
		AutoConfirm: autoConfirm,
		ConfirmURL:  "https://cosmebag.test/confirm",
		Brand:       templates.Brand{AppName: "CosmeBag"},
	})
	bags := NewBagService(store.Bags(), store.BagItems(), store.Profiles(), store.Visits(), rdb, nil, nil, logger)
	acc := NewAccessors(
		NewProfileService(store.Profiles(), logger),
		bags,
		NewPassportService(store.Passports(), nil, logger),
		NewVisitService(store.Visits(), nil, logger),
		NewFollowService(store.Follows(), store.Bags(), logger),
	)
	return &env{store: store, mr: mr, rdb: rdb, mail: mail, events: events, sessions: sessions, acc: acc}
}

// signUp registers a confirmed user and returns its id.
func (e *env) signUp(t *testing.T, username string) string {
	t.Helper()
	res, err := e.sessions.SignUp(context.Background(), SignUpInput{
		Email:           username + "@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		DisplayName:     username,
		Username:        username,
	})
	require.NoError(t, err)
	if !res.Confirmed {
		require.NoError(t, e.store.Users().MarkConfirmed(context.Background(), res.User.ID, time.Now()))
	}
	return res.User.ID
}
