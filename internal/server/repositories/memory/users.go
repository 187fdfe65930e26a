package memory

import (
	"context"

	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
)

// UserRepository implements users.Repository.
type UserRepository struct{ s *Store }

func NewUserRepository(s *Store) *UserRepository { return &UserRepository{s: s} }

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	err := r.s.write(ctx, func() error {
		for _, u := range r.s.users {
			if u.Email == user.Email {
				return common.ErrorAlreadyExists
			}
		}
		user.ID = r.s.newID()
		user.CreatedAt = r.s.now()
		u := *user
		r.s.users[u.ID] = &u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var found *models.User
	r.s.read(ctx, func() {
		for _, u := range r.s.users {
			if u.Email == email {
				c := *u
				found = &c
				return
			}
		}
	})
	if found == nil {
		return nil, common.ErrorNotFound
	}
	return found, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var found *models.User
	r.s.read(ctx, func() {
		if u, ok := r.s.users[id]; ok {
			c := *u
			found = &c
		}
	})
	if found == nil {
		return nil, common.ErrorNotFound
	}
	return found, nil
}
