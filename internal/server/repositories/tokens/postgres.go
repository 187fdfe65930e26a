package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/dmitrijs2005/recipebook/internal/dbx"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
)

// PostgresRepository implements token persistence over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a token row and fills in CreatedAt.
func (r *PostgresRepository) Create(ctx context.Context, token *models.Token) error {
	query := `
		INSERT INTO auth_tokens (key, user_id)
		VALUES ($1, $2)
		RETURNING created_at
	`
	if err := r.db.QueryRowContext(ctx, query, token.Key, token.UserID).Scan(&token.CreatedAt); err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetByUser returns the token owned by userID.
func (r *PostgresRepository) GetByUser(ctx context.Context, userID int64) (*models.Token, error) {
	query := `
		SELECT key, user_id, created_at
		FROM auth_tokens
		WHERE user_id = $1
	`
	return r.getOne(ctx, query, userID)
}

// Find returns the token row for the given key.
func (r *PostgresRepository) Find(ctx context.Context, key string) (*models.Token, error) {
	query := `
		SELECT key, user_id, created_at
		FROM auth_tokens
		WHERE key = $1
	`
	return r.getOne(ctx, query, key)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.Token, error) {
	t := &models.Token{}
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&t.Key, &t.UserID, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

// DeleteByUser removes the token owned by userID.
func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID int64) error {
	query := `
		DELETE FROM auth_tokens
		WHERE user_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
