package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
)

// RecipeRepository implements recipes.Repository.
type RecipeRepository struct{ s *Store }

func NewRecipeRepository(s *Store) *RecipeRepository { return &RecipeRepository{s: s} }

func (r *RecipeRepository) List(ctx context.Context, userID int64) ([]*models.Recipe, error) {
	result := []*models.Recipe{}
	r.s.read(ctx, func() {
		for _, rec := range r.s.recipes {
			if rec.UserID == userID {
				result = append(result, copyRecipe(rec))
			}
		}
	})
	slices.SortFunc(result, func(a, b *models.Recipe) int {
		if c := cmp.Compare(b.Title, a.Title); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return result, nil
}

func (r *RecipeRepository) Get(ctx context.Context, userID, id int64) (*models.Recipe, error) {
	var found *models.Recipe
	r.s.read(ctx, func() {
		if rec, ok := r.s.recipes[id]; ok && rec.UserID == userID {
			found = copyRecipe(rec)
		}
	})
	if found == nil {
		return nil, common.ErrorNotFound
	}
	return found, nil
}

func (r *RecipeRepository) Create(ctx context.Context, rec *models.Recipe) (*models.Recipe, error) {
	err := r.s.write(ctx, func() error {
		rec.ID = r.s.newID()
		stored := copyRecipe(rec)
		stored.TagIDs, stored.IngredientIDs = []int64{}, []int64{}
		stored.Image = ""
		r.s.recipes[rec.ID] = stored
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// owned returns the stored recipe; callers hold the write lock.
func (r *RecipeRepository) owned(userID, id int64) (*models.Recipe, error) {
	rec, ok := r.s.recipes[id]
	if !ok || rec.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return rec, nil
}

func (r *RecipeRepository) Update(ctx context.Context, rec *models.Recipe) error {
	return r.s.write(ctx, func() error {
		stored, err := r.owned(rec.UserID, rec.ID)
		if err != nil {
			return err
		}
		stored.Title = rec.Title
		stored.TimeMinutes = rec.TimeMinutes
		stored.Price = rec.Price
		stored.Link = rec.Link
		return nil
	})
}

func (r *RecipeRepository) SetTags(ctx context.Context, recipeID int64, ids []int64) error {
	return r.s.write(ctx, func() error {
		stored, ok := r.s.recipes[recipeID]
		if !ok {
			return common.ErrorNotFound
		}
		stored.TagIDs = sortedUnique(ids)
		return nil
	})
}

func (r *RecipeRepository) SetIngredients(ctx context.Context, recipeID int64, ids []int64) error {
	return r.s.write(ctx, func() error {
		stored, ok := r.s.recipes[recipeID]
		if !ok {
			return common.ErrorNotFound
		}
		stored.IngredientIDs = sortedUnique(ids)
		return nil
	})
}

func (r *RecipeRepository) UpdateImage(ctx context.Context, userID, id int64, prev, image string) error {
	return r.s.write(ctx, func() error {
		stored, err := r.owned(userID, id)
		if err != nil {
			return err
		}
		if stored.Image != prev {
			return common.ErrorNotFound
		}
		stored.Image = image
		return nil
	})
}

func (r *RecipeRepository) Delete(ctx context.Context, userID, id int64) error {
	return r.s.write(ctx, func() error {
		if _, err := r.owned(userID, id); err != nil {
			return err
		}
		delete(r.s.recipes, id)
		return nil
	})
}

func sortedUnique(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	out = slices.Compact(out)
	if out == nil {
		out = []int64{}
	}
	return out
}
