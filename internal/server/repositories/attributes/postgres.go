package attributes

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/recipebook/internal/dbx"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
)

// Table describes where one attribute kind lives.
type Table struct {
	Name     string // attribute table
	JoinName string // recipe link table
	JoinCol  string // attribute column in the link table
}

// TableFor maps a kind to its tables.
func TableFor(kind models.AttributeKind) Table {
	switch kind {
	case models.KindIngredient:
		return Table{Name: "ingredients", JoinName: "recipe_ingredients", JoinCol: "ingredient_id"}
	default:
		return Table{Name: "tags", JoinName: "recipe_tags", JoinCol: "tag_id"}
	}
}

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
	t  Table
}

// NewPostgresRepository constructs a repository for kind bound to db.
func NewPostgresRepository(db dbx.DBTX, kind models.AttributeKind) *PostgresRepository {
	return &PostgresRepository{db: db, t: TableFor(kind)}
}

func (r *PostgresRepository) List(ctx context.Context, userID int64, assignedOnly bool) ([]*models.Attribute, error) {
	query := fmt.Sprintf(`
		SELECT a.id, a.user_id, a.name
		FROM %s a
		WHERE a.user_id = $1`, r.t.Name)

	if assignedOnly {
		query += fmt.Sprintf(`
		AND EXISTS (
			SELECT 1 FROM %s j
			JOIN recipes rc ON rc.id = j.recipe_id
			WHERE j.%s = a.id AND rc.user_id = $1
		)`, r.t.JoinName, r.t.JoinCol)
	}

	query += `
		ORDER BY a.name DESC, a.id DESC`

	return r.query(ctx, query, userID)
}

func (r *PostgresRepository) Create(ctx context.Context, attr *models.Attribute) (*models.Attribute, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, name)
		VALUES ($1, $2)
		RETURNING id`, r.t.Name)

	if err := r.db.QueryRowContext(ctx, query, attr.UserID, attr.Name).Scan(&attr.ID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return attr, nil
}

func (r *PostgresRepository) OwnedIDs(ctx context.Context, userID int64, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT id FROM %s
		WHERE user_id = $1 AND id IN (%s)`, r.t.Name, dbx.Placeholders(2, len(ids)))

	args := append([]any{userID}, dbx.Int64Args(ids)...)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var owned []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		owned = append(owned, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return owned, nil
}

func (r *PostgresRepository) ListByRecipe(ctx context.Context, recipeID int64) ([]*models.Attribute, error) {
	query := fmt.Sprintf(`
		SELECT a.id, a.user_id, a.name
		FROM %s a
		JOIN %s j ON j.%s = a.id
		WHERE j.recipe_id = $1
		ORDER BY a.id`, r.t.Name, r.t.JoinName, r.t.JoinCol)

	return r.query(ctx, query, recipeID)
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]*models.Attribute, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Attribute{}
	for rows.Next() {
		a := &models.Attribute{}
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
