// Package memory is an in-process storage backend. It implements the same
// repository contracts as the PostgreSQL backend and is used for local
// development (-m memory) and end-to-end tests.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/recipebook/internal/dbx"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
)

type txKey struct{}

// Store holds all data. mu guards the maps and is held exclusively for the
// whole of a transaction, so readers never observe uncommitted changes.
type Store struct {
	mu sync.RWMutex

	nextID  int64
	now     func() time.Time
	users   map[int64]*models.User
	tokens  map[string]*models.Token
	attrs   map[models.AttributeKind]map[int64]*models.Attribute
	recipes map[int64]*models.Recipe
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		now:     time.Now,
		users:   map[int64]*models.User{},
		tokens:  map[string]*models.Token{},
		attrs:   map[models.AttributeKind]map[int64]*models.Attribute{models.KindTag: {}, models.KindIngredient: {}},
		recipes: map[int64]*models.Recipe{},
	}
}

// DB returns nil: repositories of this backend ignore the handle.
func (s *Store) DB() dbx.DBTX {
	return nil
}

// WithTx runs fn with exclusive write access. If fn fails or panics, every
// change it made is discarded. Nested calls join the outer transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) (err error) {
	if inTx(ctx) {
		return fn(ctx, nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			panic(p)
		}
		if err != nil {
			s.restore(snap)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, true), nil)
}

func inTx(ctx context.Context) bool {
	return ctx.Value(txKey{}) != nil
}

// read and write run f under mu unless ctx belongs to a transaction, which
// already holds it exclusively.
func (s *Store) read(ctx context.Context, f func()) {
	if !inTx(ctx) {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	f()
}

func (s *Store) write(ctx context.Context, f func() error) error {
	if !inTx(ctx) {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return f()
}

func (s *Store) newID() int64 {
	s.nextID++
	return s.nextID
}

type snapshot struct {
	nextID  int64
	users   map[int64]*models.User
	tokens  map[string]*models.Token
	attrs   map[models.AttributeKind]map[int64]*models.Attribute
	recipes map[int64]*models.Recipe
}

// snapshot and restore expect mu to be held.
func (s *Store) snapshot() snapshot {
	snap := snapshot{
		nextID:  s.nextID,
		users:   make(map[int64]*models.User, len(s.users)),
		tokens:  make(map[string]*models.Token, len(s.tokens)),
		attrs:   make(map[models.AttributeKind]map[int64]*models.Attribute, len(s.attrs)),
		recipes: make(map[int64]*models.Recipe, len(s.recipes)),
	}
	for k, v := range s.users {
		u := *v
		snap.users[k] = &u
	}
	for k, v := range s.tokens {
		t := *v
		snap.tokens[k] = &t
	}
	for kind, m := range s.attrs {
		cp := make(map[int64]*models.Attribute, len(m))
		for k, v := range m {
			a := *v
			cp[k] = &a
		}
		snap.attrs[kind] = cp
	}
	for k, v := range s.recipes {
		snap.recipes[k] = copyRecipe(v)
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.nextID = snap.nextID
	s.users = snap.users
	s.tokens = snap.tokens
	s.attrs = snap.attrs
	s.recipes = snap.recipes
}

func copyRecipe(r *models.Recipe) *models.Recipe {
	c := *r
	c.TagIDs = slices.Clone(r.TagIDs)
	c.IngredientIDs = slices.Clone(r.IngredientIDs)
	if c.TagIDs == nil {
		c.TagIDs = []int64{}
	}
	if c.IngredientIDs == nil {
		c.IngredientIDs = []int64{}
	}
	c.Tags, c.Ingredients = nil, nil
	return &c
}
