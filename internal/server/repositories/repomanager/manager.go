package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/recipebook/internal/dbx"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/attributes"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/recipes"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can
// run the same code against a plain connection or a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Tokens(db dbx.DBTX) tokens.Repository
	Tags(db dbx.DBTX) attributes.Repository
	Ingredients(db dbx.DBTX) attributes.Repository
	Recipes(db dbx.DBTX) recipes.Repository
}
