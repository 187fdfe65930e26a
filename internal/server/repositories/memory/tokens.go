package memory

import (
	"context"

	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
)

// TokenRepository implements tokens.Repository.
type TokenRepository struct{ s *Store }

func NewTokenRepository(s *Store) *TokenRepository { return &TokenRepository{s: s} }

func (r *TokenRepository) Create(ctx context.Context, token *models.Token) error {
	return r.s.write(ctx, func() error {
		if _, ok := r.s.tokens[token.Key]; ok {
			return common.ErrorAlreadyExists
		}
		for _, t := range r.s.tokens {
			if t.UserID == token.UserID {
				return common.ErrorAlreadyExists
			}
		}
		token.CreatedAt = r.s.now()
		t := *token
		r.s.tokens[t.Key] = &t
		return nil
	})
}

func (r *TokenRepository) GetByUser(ctx context.Context, userID int64) (*models.Token, error) {
	var found *models.Token
	r.s.read(ctx, func() {
		for _, t := range r.s.tokens {
			if t.UserID == userID {
				c := *t
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

func (r *TokenRepository) Find(ctx context.Context, key string) (*models.Token, error) {
	var found *models.Token
	r.s.read(ctx, func() {
		if t, ok := r.s.tokens[key]; ok {
			c := *t
			found = &c
		}
	})
	if found == nil {
		return nil, common.ErrorNotFound
	}
	return found, nil
}

func (r *TokenRepository) DeleteByUser(ctx context.Context, userID int64) error {
	return r.s.write(ctx, func() error {
		for k, t := range r.s.tokens {
			if t.UserID == userID {
				delete(r.s.tokens, k)
			}
		}
		return nil
	})
}
