package navigation

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/cosmebag/internal/domain/entity"
	"github.com/oksasatya/cosmebag/pkg/helpers"
)

const maxUpdateRetries = 8

// Store persists navigation state per session id in Redis.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func Key(sessionID string) string { return helpers.RedisKey("nav", sessionID) }

// Load returns the stored state or a fresh one.
func (s *Store) Load(ctx context.Context, sessionID string) (*State, error) {
	st := NewState()
	found, err := helpers.RedisGetJSON(ctx, s.rdb, Key(sessionID), st)
	if err != nil {
		return nil, err
	}
	if !found {
		return NewState(), nil
	}
	return st, nil
}

// Update applies fn atomically to the session's state and stores the result.
// fn may be re-run when a concurrent request changed the state meanwhile.
func (s *Store) Update(ctx context.Context, sessionID string, fn func(*State) error) (*State, error) {
	key := Key(sessionID)
	var out *State
	txf := func(tx *redis.Tx) error {
		st := NewState()
		b, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if err := json.Unmarshal(b, st); err != nil {
				st = NewState()
			}
		}
		if err := fn(st); err != nil {
			return err
		}
		enc, err := json.Marshal(st)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, enc, s.ttl)
			return nil
		})
		if err == nil {
			out = st
		}
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return out, err
	}
	return nil, redis.TxFailedErr
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	return helpers.RedisDel(ctx, s.rdb, Key(sessionID))
}

// CatalogFetcher loads one catalog page.
type CatalogFetcher func(ctx context.Context, q CatalogQuery) []entity.CatalogProduct

// CatalogPage is what LoadCatalog serves. Query is the query the products belong to.
type CatalogPage struct {
	Query    CatalogQuery
	Products []entity.CatalogProduct
	// Cached reports a hit on the session's catalog slice.
	Cached bool
	// Superseded reports that a newer fetch started while this one was in flight.
	// The page then carries the slice as committed, which may be empty while the
	// newer fetch is still running.
	Superseded bool
}

// LoadCatalog serves q from the session's catalog slice when unchanged, otherwise
// fetches it and commits the result if no newer fetch started in the meantime.
// A superseded fetch never hands back its own products.
func (s *Store) LoadCatalog(ctx context.Context, sessionID string, q CatalogQuery, fetch CatalogFetcher) (CatalogPage, error) {
	page := CatalogPage{Query: q}
	var seq uint64
	_, err := s.Update(ctx, sessionID, func(st *State) error {
		if !st.Catalog.NeedsReload(q) {
			page.Products, page.Cached = st.Catalog.Products, true
			return nil
		}
		page.Products, page.Cached = nil, false
		seq = st.Catalog.Begin()
		return nil
	})
	if err != nil || page.Cached {
		return page, err
	}

	products := fetch(ctx, q)
	_, err = s.Update(ctx, sessionID, func(st *State) error {
		if st.Catalog.Complete(seq, q, products) {
			page.Products, page.Superseded = products, false
			return nil
		}
		page.Superseded = true
		page.Products = st.Catalog.Products
		if st.Catalog.Query != nil {
			page.Query = *st.Catalog.Query
		}
		return nil
	})
	return page, err
}
