// Package attributes stores the two user-owned recipe attributes, tags and
// ingredients. Both share one table shape and one repository implementation.
package attributes

import (
	"context"

	"github.com/dmitrijs2005/recipebook/internal/server/models"
)

// Repository is an owner-scoped store of tags or ingredients.
type Repository interface {
	// List returns the user's attributes ordered by name descending.
	// With assignedOnly set, only attributes linked to at least one of the
	// user's recipes are returned, each once.
	List(ctx context.Context, userID int64, assignedOnly bool) ([]*models.Attribute, error)

	// Create inserts attr and fills in its ID.
	Create(ctx context.Context, attr *models.Attribute) (*models.Attribute, error)

	// OwnedIDs returns the subset of ids that exist and belong to userID.
	OwnedIDs(ctx context.Context, userID int64, ids []int64) ([]int64, error)

	// ListByRecipe returns the attributes linked to recipeID, ordered by id.
	ListByRecipe(ctx context.Context, recipeID int64) ([]*models.Attribute, error)
}
