package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/attributes"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/recipes"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestNewPostgresRepositoryManager_ReturnsInterface(t *testing.T) {
	var _ RepositoryManager = NewPostgresRepositoryManager()
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m := &PostgresRepositoryManager{}

	if _, ok := m.Users(db).(*users.PostgresRepository); !ok {
		t.Fatal("Users() is not a postgres repository")
	}
	if _, ok := m.Tokens(db).(*tokens.PostgresRepository); !ok {
		t.Fatal("Tokens() is not a postgres repository")
	}
	if _, ok := m.Tags(db).(*attributes.PostgresRepository); !ok {
		t.Fatal("Tags() is not a postgres repository")
	}
	if _, ok := m.Ingredients(db).(*attributes.PostgresRepository); !ok {
		t.Fatal("Ingredients() is not a postgres repository")
	}
	if _, ok := m.Recipes(db).(*recipes.PostgresRepository); !ok {
		t.Fatal("Recipes() is not a postgres repository")
	}
}

func TestRunMigrations(t *testing.T) {
	boom := errors.New("goose: dirty schema")

	tests := []struct {
		name    string
		upErr   error
		wantErr error
	}{
		{name: "applies embedded migrations"},
		{name: "propagates goose failure", upErr: boom, wantErr: boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, _ := newDB(t)
			defer db.Close()

			var gotDir string
			orig := gooseUpContext
			gooseUpContext = func(_ context.Context, _ *sql.DB, dir string, opts ...goose.OptionsFunc) error {
				gotDir = dir
				require.Empty(t, opts)
				return tt.upErr
			}
			t.Cleanup(func() { gooseUpContext = orig })

			err := NewPostgresRepositoryManager().RunMigrations(context.Background(), db)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, ".", gotDir)
		})
	}
}
