package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/dmitrijs2005/recipebook/internal/server/models"
)

// AttributeRepository implements attributes.Repository for one kind.
type AttributeRepository struct {
	s    *Store
	kind models.AttributeKind
}

func NewAttributeRepository(s *Store, kind models.AttributeKind) *AttributeRepository {
	return &AttributeRepository{s: s, kind: kind}
}

func (r *AttributeRepository) linked(rec *models.Recipe) []int64 {
	if r.kind == models.KindIngredient {
		return rec.IngredientIDs
	}
	return rec.TagIDs
}

func (r *AttributeRepository) List(ctx context.Context, userID int64, assignedOnly bool) ([]*models.Attribute, error) {
	result := []*models.Attribute{}
	r.s.read(ctx, func() {
		var assigned map[int64]bool
		if assignedOnly {
			assigned = map[int64]bool{}
			for _, rec := range r.s.recipes {
				if rec.UserID != userID {
					continue
				}
				for _, id := range r.linked(rec) {
					assigned[id] = true
				}
			}
		}
		for _, a := range r.s.attrs[r.kind] {
			if a.UserID != userID || (assignedOnly && !assigned[a.ID]) {
				continue
			}
			c := *a
			result = append(result, &c)
		}
	})

	slices.SortFunc(result, func(a, b *models.Attribute) int {
		if c := cmp.Compare(b.Name, a.Name); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return result, nil
}

func (r *AttributeRepository) Create(ctx context.Context, attr *models.Attribute) (*models.Attribute, error) {
	err := r.s.write(ctx, func() error {
		attr.ID = r.s.newID()
		a := *attr
		r.s.attrs[r.kind][a.ID] = &a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return attr, nil
}

func (r *AttributeRepository) OwnedIDs(ctx context.Context, userID int64, ids []int64) ([]int64, error) {
	var owned []int64
	r.s.read(ctx, func() {
		for _, id := range ids {
			if a, ok := r.s.attrs[r.kind][id]; ok && a.UserID == userID && !slices.Contains(owned, id) {
				owned = append(owned, id)
			}
		}
	})
	return owned, nil
}

func (r *AttributeRepository) ListByRecipe(ctx context.Context, recipeID int64) ([]*models.Attribute, error) {
	result := []*models.Attribute{}
	r.s.read(ctx, func() {
		rec, ok := r.s.recipes[recipeID]
		if !ok {
			return
		}
		for _, id := range r.linked(rec) {
			if a, ok := r.s.attrs[r.kind][id]; ok {
				c := *a
				result = append(result, &c)
			}
		}
	})
	slices.SortFunc(result, func(a, b *models.Attribute) int { return cmp.Compare(a.ID, b.ID) })
	return result, nil
}
