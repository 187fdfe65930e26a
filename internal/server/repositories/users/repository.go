// Package users declares the identity store: persistence of user accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/recipebook/internal/server/models"
)

// Repository defines lookups and inserts for user accounts.
type Repository interface {
	// Create inserts user and fills in its ID and CreatedAt. A taken email
	// yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByEmail looks a user up by normalized email. Missing users yield
	// common.ErrorNotFound.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByID looks a user up by id. Missing users yield common.ErrorNotFound.
	GetByID(ctx context.Context, id int64) (*models.User, error)
}
