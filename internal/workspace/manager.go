package workspace

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/cosmebag/internal/application"
)

const eventRefreshTimeout = 5 * time.Second

// SessionSubscriber delivers session transitions.
type SessionSubscriber interface {
	Subscribe(fn func(application.SessionEvent)) (unsubscribe func())
}

// Manager keeps one Workspace per signed-in user.
type Manager struct {
	gw     Gateway
	logger *logrus.Logger

	mu     sync.Mutex
	spaces map[string]*Workspace
}

func NewManager(gw Gateway, logger *logrus.Logger) *Manager {
	return &Manager{gw: gw, logger: logger, spaces: map[string]*Workspace{}}
}

// Get returns the user's workspace, creating an empty one when absent.
func (m *Manager) Get(userID string) *Workspace {
	m.mu.Lock()
	defer m.mu.Unlock()
	ws, ok := m.spaces[userID]
	if !ok {
		ws = New(userID, m.gw, m.logger)
		m.spaces[userID] = ws
	}
	return ws
}

// Ensure returns the user's workspace, loading it on first use.
func (m *Manager) Ensure(ctx context.Context, userID string) (*Workspace, error) {
	ws := m.Get(userID)
	if ws.Loaded() {
		return ws, nil
	}
	if err := ws.Load(ctx); err != nil {
		return ws, err
	}
	return ws, nil
}

func (m *Manager) lookup(userID string) *Workspace {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.spaces[userID]
}

// Drop resets and forgets the user's workspace.
func (m *Manager) Drop(userID string) {
	m.mu.Lock()
	ws := m.spaces[userID]
	delete(m.spaces, userID)
	m.mu.Unlock()
	if ws != nil {
		ws.Reset()
	}
}

// HandleSessionEvent clears the workspace on sign-out and re-derives the profile on
// any transition that leaves a session in place.
func (m *Manager) HandleSessionEvent(ev application.SessionEvent) {
	if !ev.HasSession() {
		m.Drop(ev.UserID)
		return
	}
	ws := m.lookup(ev.UserID)
	if ws == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), eventRefreshTimeout)
	defer cancel()
	if err := ws.RefreshProfile(ctx); err != nil {
		m.logger.WithError(err).WithField("user_id", ev.UserID).WithField("event", ev.Type).
			Warn("refresh profile after session event failed")
	}
}

// Attach subscribes the manager to session transitions.
func (m *Manager) Attach(events SessionSubscriber) (detach func()) {
	return events.Subscribe(m.HandleSessionEvent)
}

// Len is the number of live workspaces.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.spaces)
}
