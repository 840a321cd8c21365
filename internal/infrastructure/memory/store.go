// Package memory is an in-process storage driver with the same uniqueness rules as the
// Postgres schema. It backs STORAGE_DRIVER=memory and the service tests.
package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/cosmebag/internal/domain/entity"
)

// Store holds every table behind a single lock.
type Store struct {
	mu        sync.RWMutex
	now       func() time.Time
	users     map[string]entity.User
	profiles  map[string]entity.Profile
	bags      map[string]entity.Bag
	items     map[string]entity.BagItem
	passports map[string]entity.Passport // keyed by user id
	visits    map[string]entity.Visit
	follows   map[followKey]entity.FollowEdge
}

type followKey struct {
	follower string
	bag      string
}

func NewStore() *Store {
	return &Store{
		now:       time.Now,
		users:     map[string]entity.User{},
		profiles:  map[string]entity.Profile{},
		bags:      map[string]entity.Bag{},
		items:     map[string]entity.BagItem{},
		passports: map[string]entity.Passport{},
		visits:    map[string]entity.Visit{},
		follows:   map[followKey]entity.FollowEdge{},
	}
}

// SetClock replaces the time source; tests use it for deterministic ordering.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func newID() string { return uuid.NewString() }

func (s *Store) Users() *UserRepository         { return &UserRepository{s: s} }
func (s *Store) Profiles() *ProfileRepository   { return &ProfileRepository{s: s} }
func (s *Store) Bags() *BagRepository           { return &BagRepository{s: s} }
func (s *Store) BagItems() *BagItemRepository   { return &BagItemRepository{s: s} }
func (s *Store) Passports() *PassportRepository { return &PassportRepository{s: s} }
func (s *Store) Visits() *VisitRepository       { return &VisitRepository{s: s} }
func (s *Store) Follows() *FollowRepository     { return &FollowRepository{s: s} }

// FollowEdgeCount returns the number of stored follow edges.
func (s *Store) FollowEdgeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.follows)
}
