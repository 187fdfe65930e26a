package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// openTestDB returns an isolated in-memory database with a recipe_tags
// table. A fresh name per test keeps the shared cache from leaking rows.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE recipe_tags (recipe_id INTEGER NOT NULL, tag_id INTEGER NOT NULL)`)
	require.NoError(t, err)
	return db
}

func links(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM recipe_tags`).Scan(&n))
	return n
}

func insertLink(ctx context.Context, tx DBTX, tag int) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO recipe_tags (recipe_id, tag_id) VALUES (1, ?)`, tag)
	return err
}

func TestWithTx(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name      string
		fn        func(ctx context.Context, tx DBTX) error
		wantErr   error
		wantLinks int
	}{
		{
			name: "commit",
			fn: func(ctx context.Context, tx DBTX) error {
				if err := insertLink(ctx, tx, 1); err != nil {
					return err
				}
				return insertLink(ctx, tx, 2)
			},
			wantLinks: 2,
		},
		{
			name: "rollback on error",
			fn: func(ctx context.Context, tx DBTX) error {
				if err := insertLink(ctx, tx, 1); err != nil {
					return err
				}
				return boom
			},
			wantErr: boom,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := openTestDB(t)
			err := WithTx(context.Background(), db, nil, tt.fn)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tt.wantLinks, links(t, db))
		})
	}
}

func TestWithTx_PanicRollsBackAndPropagates(t *testing.T) {
	db := openTestDB(t)

	require.PanicsWithValue(t, "kaput", func() {
		_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
			require.NoError(t, insertLink(ctx, tx, 1))
			panic("kaput")
		})
	})
	require.Zero(t, links(t, db))
}

func TestWithTx_BeginFailsOnClosedDB(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Close())

	called := false
	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		called = true
		return nil
	})
	require.Error(t, err)
	require.False(t, called)
}

func TestSQLConn(t *testing.T) {
	db := openTestDB(t)
	conn := NewSQLConn(db, nil)
	ctx := context.Background()

	require.NoError(t, conn.WithTx(ctx, func(ctx context.Context, tx DBTX) error {
		return insertLink(ctx, tx, 7)
	}))
	require.Equal(t, 1, links(t, db))

	require.NoError(t, insertLink(ctx, conn.DB(), 8))
	require.Equal(t, 2, links(t, db))
}

func TestPlaceholders(t *testing.T) {
	require.Equal(t, "", Placeholders(1, 0))
	require.Equal(t, "$1", Placeholders(1, 1))
	require.Equal(t, "$2, $3, $4", Placeholders(2, 3))
}

func TestInt64Args(t *testing.T) {
	require.Equal(t, []any{int64(1), int64(5)}, Int64Args([]int64{1, 5}))
	require.Empty(t, Int64Args(nil))
}

func TestIsUniqueViolation(t *testing.T) {
	require.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	require.True(t, IsUniqueViolation(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "23505"})))
	require.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	require.False(t, IsUniqueViolation(errors.New("plain")))
	require.False(t, IsUniqueViolation(nil))
}
