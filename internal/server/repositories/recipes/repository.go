// Package recipes declares the recipe store. Every query is scoped to the
// owning user.
package recipes

import (
	"context"

	"github.com/dmitrijs2005/recipebook/internal/server/models"
)

type Repository interface {
	// List returns the user's recipes ordered by title descending, each
	// with TagIDs and IngredientIDs filled in.
	List(ctx context.Context, userID int64) ([]*models.Recipe, error)

	// Get returns one of the user's recipes with TagIDs and IngredientIDs.
	// Recipes of other users are reported as common.ErrorNotFound.
	Get(ctx context.Context, userID, id int64) (*models.Recipe, error)

	// Create inserts the scalar fields of recipe and fills in its ID.
	Create(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error)

	// Update rewrites the scalar fields (title, time, price, link).
	Update(ctx context.Context, recipe *models.Recipe) error

	// SetTags and SetIngredients replace the recipe's association set.
	SetTags(ctx context.Context, recipeID int64, ids []int64) error
	SetIngredients(ctx context.Context, recipeID int64, ids []int64) error

	// UpdateImage sets the recipe's image path to image only while it still
	// equals prev. A changed path is reported as common.ErrorNotFound.
	UpdateImage(ctx context.Context, userID, id int64, prev, image string) error

	// Delete removes the recipe and its links.
	Delete(ctx context.Context, userID, id int64) error
}
