package application

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/cosmebag/pkg/helpers"
)

type SessionEventType string

const (
	EventSignedIn       SessionEventType = "signed_in"
	EventSignedOut      SessionEventType = "signed_out"
	EventTokenRefreshed SessionEventType = "token_refreshed"
)

// SessionEvent is delivered to subscribers on every session change.
type SessionEvent struct {
	Type      SessionEventType `json:"type"`
	UserID    string           `json:"user_id"`
	SessionID string           `json:"session_id,omitempty"`
	At        time.Time        `json:"at"`
	Origin    string           `json:"origin"`
}

// HasSession reports whether the event leaves a live session behind.
func (e SessionEvent) HasSession() bool { return e.Type != EventSignedOut }

// SessionEventChannel is the Redis pub/sub channel that relays events between instances.
var SessionEventChannel = helpers.RedisKey("session_events")

// SessionEvents fans session changes out to in-process subscribers and, when Redis
// is configured, to the other API instances.
type SessionEvents struct {
	mu     sync.RWMutex
	subs   map[int]func(SessionEvent)
	nextID int

	origin string
	rdb    *redis.Client
	logger *logrus.Logger
}

func NewSessionEvents(rdb *redis.Client, logger *logrus.Logger) *SessionEvents {
	return &SessionEvents{
		subs:   map[int]func(SessionEvent){},
		origin: uuid.NewString(),
		rdb:    rdb,
		logger: logger,
	}
}

// Subscribe registers fn and returns a function that removes it.
func (e *SessionEvents) Subscribe(fn func(SessionEvent)) (unsubscribe func()) {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.subs[id] = fn
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.subs, id)
			e.mu.Unlock()
		})
	}
}

// Publish dispatches ev locally and relays it to other instances.
func (e *SessionEvents) Publish(ctx context.Context, ev SessionEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	ev.Origin = e.origin
	e.dispatch(ev)

	if e.rdb == nil {
		return
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := e.rdb.Publish(ctx, SessionEventChannel, b).Err(); err != nil && e.logger != nil {
		e.logger.WithError(err).WithField("type", ev.Type).Warn("session event relay publish failed")
	}
}

// Run relays events published by other instances until ctx is done.
func (e *SessionEvents) Run(ctx context.Context) error {
	if e.rdb == nil {
		<-ctx.Done()
		return nil
	}
	sub := e.rdb.Subscribe(ctx, SessionEventChannel)
	defer func() { _ = sub.Close() }()
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev SessionEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				if e.logger != nil {
					e.logger.WithError(err).Warn("session event relay: bad payload")
				}
				continue
			}
			if ev.Origin == e.origin {
				continue
			}
			e.dispatch(ev)
		}
	}
}

func (e *SessionEvents) dispatch(ev SessionEvent) {
	e.mu.RLock()
	fns := make([]func(SessionEvent), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.mu.RUnlock()
	for _, fn := range fns {
		fn(ev)
	}
}
