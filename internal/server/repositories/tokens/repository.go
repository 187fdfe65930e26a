// Package tokens declares the server-side repository contract for the
// token records that back issued bearer strings.
package tokens

import (
	"context"

	"github.com/dmitrijs2005/recipebook/internal/server/models"
)

// Repository defines operations for issuing, retrieving, and revoking tokens.
type Repository interface {
	// Create stores token. A user that already owns a token yields
	// common.ErrorAlreadyExists.
	Create(ctx context.Context, token *models.Token) error

	// GetByUser returns the user's token or common.ErrorNotFound.
	GetByUser(ctx context.Context, userID int64) (*models.Token, error)

	// Find looks a token up by key or returns common.ErrorNotFound.
	Find(ctx context.Context, key string) (*models.Token, error)

	// DeleteByUser removes the user's token. Deleting a non-existent
	// token is not an error.
	DeleteByUser(ctx context.Context, userID int64) error
}
