package recipes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/dmitrijs2005/recipebook/internal/dbx"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectRecipe = `
		SELECT id, user_id, title, time_minutes, price, link, image
		FROM recipes
	`

func scanRecipe(row interface{ Scan(...any) error }) (*models.Recipe, error) {
	r := &models.Recipe{TagIDs: []int64{}, IngredientIDs: []int64{}}
	err := row.Scan(&r.ID, &r.UserID, &r.Title, &r.TimeMinutes, &r.Price, &r.Link, &r.Image)
	return r, err
}

func (r *PostgresRepository) List(ctx context.Context, userID int64) ([]*models.Recipe, error) {
	rows, err := r.db.QueryContext(ctx, selectRecipe+`WHERE user_id = $1
		ORDER BY title DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Recipe{}
	byID := map[int64]*models.Recipe{}
	for rows.Next() {
		rec, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
		byID[rec.ID] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return result, nil
	}

	err = r.loadLinks(ctx, "recipe_tags", "tag_id", userID, func(recipeID, id int64) {
		if rec, ok := byID[recipeID]; ok {
			rec.TagIDs = append(rec.TagIDs, id)
		}
	})
	if err != nil {
		return nil, err
	}

	err = r.loadLinks(ctx, "recipe_ingredients", "ingredient_id", userID, func(recipeID, id int64) {
		if rec, ok := byID[recipeID]; ok {
			rec.IngredientIDs = append(rec.IngredientIDs, id)
		}
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// loadLinks streams all (recipe_id, attr_id) pairs of the user's recipes.
func (r *PostgresRepository) loadLinks(ctx context.Context, table, col string, userID int64, add func(recipeID, id int64)) error {
	query := fmt.Sprintf(`
		SELECT j.recipe_id, j.%s
		FROM %s j
		JOIN recipes rc ON rc.id = j.recipe_id
		WHERE rc.user_id = $1
		ORDER BY j.recipe_id, j.%s`, col, table, col)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recipeID, id int64
		if err := rows.Scan(&recipeID, &id); err != nil {
			return err
		}
		add(recipeID, id)
	}
	return rows.Err()
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id int64) (*models.Recipe, error) {
	rec, err := scanRecipe(r.db.QueryRowContext(ctx, selectRecipe+`WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if rec.TagIDs, err = r.linkedIDs(ctx, "recipe_tags", "tag_id", id); err != nil {
		return nil, err
	}
	if rec.IngredientIDs, err = r.linkedIDs(ctx, "recipe_ingredients", "ingredient_id", id); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *PostgresRepository) linkedIDs(ctx context.Context, table, col string, recipeID int64) ([]int64, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE recipe_id = $1
		ORDER BY %s`, col, table, col)

	rows, err := r.db.QueryContext(ctx, query, recipeID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PostgresRepository) Create(ctx context.Context, rec *models.Recipe) (*models.Recipe, error) {
	query := `
		INSERT INTO recipes (user_id, title, time_minutes, price, link)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query, rec.UserID, rec.Title, rec.TimeMinutes, rec.Price, rec.Link).Scan(&rec.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepository) Update(ctx context.Context, rec *models.Recipe) error {
	query := `
		UPDATE recipes
		SET title = $1, time_minutes = $2, price = $3, link = $4
		WHERE id = $5 AND user_id = $6
	`
	res, err := r.db.ExecContext(ctx, query, rec.Title, rec.TimeMinutes, rec.Price, rec.Link, rec.ID, rec.UserID)
	return expectOneRow(res, err)
}

func (r *PostgresRepository) UpdateImage(ctx context.Context, userID, id int64, prev, image string) error {
	query := `
		UPDATE recipes SET image = $1
		WHERE id = $2 AND user_id = $3 AND image = $4
	`
	res, err := r.db.ExecContext(ctx, query, image, id, userID, prev)
	return expectOneRow(res, err)
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id int64) error {
	query := `
		DELETE FROM recipes
		WHERE id = $1 AND user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	return expectOneRow(res, err)
}

func expectOneRow(res sql.Result, err error) error {
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) SetTags(ctx context.Context, recipeID int64, ids []int64) error {
	return r.setLinks(ctx, "recipe_tags", "tag_id", recipeID, ids)
}

func (r *PostgresRepository) SetIngredients(ctx context.Context, recipeID int64, ids []int64) error {
	return r.setLinks(ctx, "recipe_ingredients", "ingredient_id", recipeID, ids)
}

// setLinks deletes the current links and inserts ids. Callers run it
// inside a transaction.
func (r *PostgresRepository) setLinks(ctx context.Context, table, col string, recipeID int64, ids []int64) error {
	if _, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE recipe_id = $1`, table), recipeID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil
	}

	values := make([]string, len(ids))
	for i := range ids {
		values[i] = fmt.Sprintf("($1, $%d)", i+2)
	}
	query := fmt.Sprintf(`INSERT INTO %s (recipe_id, %s) VALUES %s`, table, col, strings.Join(values, ", "))

	args := append([]any{recipeID}, dbx.Int64Args(ids)...)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
