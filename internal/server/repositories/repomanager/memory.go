package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/recipebook/internal/dbx"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/attributes"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/memory"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/recipes"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/users"
)

// MemoryRepositoryManager vends repositories over a shared memory.Store.
// The DBTX arguments are ignored; transactions go through Store.WithTx.
type MemoryRepositoryManager struct {
	store *memory.Store
}

// NewMemoryRepositoryManager constructs a manager over store.
func NewMemoryRepositoryManager(store *memory.Store) RepositoryManager {
	return &MemoryRepositoryManager{store: store}
}

// RunMigrations is a no-op: the store has no schema.
func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return memory.NewUserRepository(m.store)
}

func (m *MemoryRepositoryManager) Tokens(dbx.DBTX) tokens.Repository {
	return memory.NewTokenRepository(m.store)
}

func (m *MemoryRepositoryManager) Tags(dbx.DBTX) attributes.Repository {
	return memory.NewAttributeRepository(m.store, models.KindTag)
}

func (m *MemoryRepositoryManager) Ingredients(dbx.DBTX) attributes.Repository {
	return memory.NewAttributeRepository(m.store, models.KindIngredient)
}

func (m *MemoryRepositoryManager) Recipes(dbx.DBTX) recipes.Repository {
	return memory.NewRecipeRepository(m.store)
}
