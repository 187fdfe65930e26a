package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/dmitrijs2005/recipebook/internal/dbx"
	"github.com/dmitrijs2005/recipebook/internal/logging"
	"github.com/dmitrijs2005/recipebook/internal/server/images"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/repomanager"
)

const (
	msgTimeMinutes    = "Ensure this value is greater than or equal to 1."
	msgTimeMinutesMax = "Ensure this value is less than or equal to 2147483647."
)

// validateTimeMinutes keeps the value within the INTEGER column range.
func validateTimeMinutes(v *common.ValidationError, minutes int) {
	switch {
	case minutes < 1:
		v.Add("time_minutes", msgTimeMinutes)
	case minutes > math.MaxInt32:
		v.Add("time_minutes", msgTimeMinutesMax)
	}
}

// RecipeService implements recipe CRUD and image attachment, always scoped
// to the calling user.
type RecipeService struct {
	conn        dbx.Conn
	repomanager repomanager.RepositoryManager
	images      images.Store
	logger      logging.Logger
}

// NewRecipeService constructs a RecipeService.
func NewRecipeService(conn dbx.Conn, m repomanager.RepositoryManager, store images.Store, logger logging.Logger) *RecipeService {
	return &RecipeService{
		conn:        conn,
		repomanager: m,
		images:      store,
		logger:      logger.With("module", "recipes"),
	}
}

// List returns the caller's recipes with tag and ingredient ids.
func (s *RecipeService) List(ctx context.Context, userID int64) ([]*models.Recipe, error) {
	items, err := s.repomanager.Recipes(s.conn.DB()).List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing recipes: %w", err)
	}
	return items, nil
}

// Get returns one of the caller's recipes with nested tags and ingredients.
func (s *RecipeService) Get(ctx context.Context, userID, id int64) (*models.Recipe, error) {
	db := s.conn.DB()

	rec, err := s.repomanager.Recipes(db).Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if rec.Tags, err = s.repomanager.Tags(db).ListByRecipe(ctx, rec.ID); err != nil {
		return nil, fmt.Errorf("error loading tags: %w", err)
	}
	if rec.Ingredients, err = s.repomanager.Ingredients(db).ListByRecipe(ctx, rec.ID); err != nil {
		return nil, fmt.Errorf("error loading ingredients: %w", err)
	}
	return rec, nil
}

// Create validates in and stores a recipe with its associations in one
// transaction.
func (s *RecipeService) Create(ctx context.Context, userID int64, in models.RecipeInput) (*models.Recipe, error) {
	rec := &models.Recipe{UserID: userID}
	if err := applyInput(rec, in); err != nil {
		return nil, err
	}

	err := s.conn.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.checkOwned(ctx, tx, userID, in.Tags, in.Ingredients); err != nil {
			return err
		}

		repo := s.repomanager.Recipes(tx)
		if _, err := repo.Create(ctx, rec); err != nil {
			return err
		}
		return s.setLinks(ctx, tx, rec, &in.Tags, &in.Ingredients)
	})
	if err != nil {
		return nil, wrapStoreErr("error creating recipe", err)
	}
	return rec, nil
}

// Replace overwrites every writable field. Omitted link and associations
// are cleared.
func (s *RecipeService) Replace(ctx context.Context, userID, id int64, in models.RecipeInput) (*models.Recipe, error) {
	var out *models.Recipe

	err := s.conn.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Recipes(tx)

		rec, err := repo.Get(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := applyInput(rec, in); err != nil {
			return err
		}
		if err := s.checkOwned(ctx, tx, userID, in.Tags, in.Ingredients); err != nil {
			return err
		}
		if err := repo.Update(ctx, rec); err != nil {
			return err
		}
		if err := s.setLinks(ctx, tx, rec, &in.Tags, &in.Ingredients); err != nil {
			return err
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, wrapStoreErr("error replacing recipe", err)
	}
	return out, nil
}

// Update applies only the supplied fields. Supplied tags or ingredients
// replace the whole set.
func (s *RecipeService) Update(ctx context.Context, userID, id int64, patch models.RecipePatch) (*models.Recipe, error) {
	var out *models.Recipe

	err := s.conn.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Recipes(tx)

		rec, err := repo.Get(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := applyPatch(rec, patch); err != nil {
			return err
		}

		var tags, ingredients []int64
		if patch.Tags != nil {
			tags = *patch.Tags
		}
		if patch.Ingredients != nil {
			ingredients = *patch.Ingredients
		}
		if err := s.checkOwned(ctx, tx, userID, tags, ingredients); err != nil {
			return err
		}

		if err := repo.Update(ctx, rec); err != nil {
			return err
		}
		if err := s.setLinks(ctx, tx, rec, patch.Tags, patch.Ingredients); err != nil {
			return err
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, wrapStoreErr("error updating recipe", err)
	}
	return out, nil
}

// maxImageSwapAttempts bounds retries when concurrent uploads race for the
// same recipe.
const maxImageSwapAttempts = 3

// UploadImage validates data as an image, stores it under a fresh path and
// points the recipe at it. The path is swapped only against the image read
// before, so each replaced object is removed exactly once; if the recipe
// cannot be updated the new object is removed instead.
func (s *RecipeService) UploadImage(ctx context.Context, userID, id int64, filename string, data []byte) (*models.Recipe, error) {
	repo := s.repomanager.Recipes(s.conn.DB())

	rec, err := repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	format, err := images.Detect(data)
	if err != nil {
		return nil, common.NewValidationError("image", err.Error())
	}

	key := images.NewImagePath(filename, format)
	if err := s.images.Save(ctx, key, bytes.NewReader(data), images.ContentType(format)); err != nil {
		return nil, fmt.Errorf("error storing image: %w", err)
	}

	for attempt := 1; ; attempt++ {
		err := repo.UpdateImage(ctx, userID, id, rec.Image, key)
		if err == nil {
			break
		}
		if !errors.Is(err, common.ErrorNotFound) || attempt == maxImageSwapAttempts {
			s.removeImage(ctx, key)
			return nil, wrapStoreErr("error updating recipe image", err)
		}

		// a concurrent upload replaced the image, or the recipe is gone
		cur, err := repo.Get(ctx, userID, id)
		if err != nil {
			s.removeImage(ctx, key)
			return nil, wrapStoreErr("error updating recipe image", err)
		}
		rec = cur
	}

	if rec.Image != "" {
		s.removeImage(ctx, rec.Image)
	}

	rec.Image = key
	s.logger.Info(ctx, "recipe image uploaded", "recipe_id", id, "user_id", userID, "image", key)
	return rec, nil
}

// Delete removes one of the caller's recipes and its image.
func (s *RecipeService) Delete(ctx context.Context, userID, id int64) error {
	repo := s.repomanager.Recipes(s.conn.DB())

	rec, err := repo.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := repo.Delete(ctx, userID, id); err != nil {
		return wrapStoreErr("error deleting recipe", err)
	}
	if rec.Image != "" {
		s.removeImage(ctx, rec.Image)
	}
	return nil
}

func (s *RecipeService) removeImage(ctx context.Context, key string) {
	if err := s.images.Delete(ctx, key); err != nil {
		s.logger.Warn(ctx, "failed to remove image", "image", key, "error", err)
	}
}

// checkOwned rejects ids that do not exist or belong to someone else.
func (s *RecipeService) checkOwned(ctx context.Context, tx dbx.DBTX, userID int64, tags, ingredients []int64) error {
	v := &common.ValidationError{}

	for _, c := range []struct {
		field string
		kind  models.AttributeKind
		ids   []int64
	}{
		{"tags", models.KindTag, tags},
		{"ingredients", models.KindIngredient, ingredients},
	} {
		if len(c.ids) == 0 {
			continue
		}
		owned, err := attributeRepo(s.repomanager, c.kind, tx).OwnedIDs(ctx, userID, c.ids)
		if err != nil {
			return err
		}
		for _, id := range c.ids {
			if !slices.Contains(owned, id) {
				v.Add(c.field, fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
				break
			}
		}
	}
	return v.OrNil()
}

// setLinks replaces the associations that are non-nil and mirrors them on rec.
func (s *RecipeService) setLinks(ctx context.Context, tx dbx.DBTX, rec *models.Recipe, tags, ingredients *[]int64) error {
	repo := s.repomanager.Recipes(tx)

	if tags != nil {
		ids := uniqueSorted(*tags)
		if err := repo.SetTags(ctx, rec.ID, ids); err != nil {
			return err
		}
		rec.TagIDs = ids
	}
	if ingredients != nil {
		ids := uniqueSorted(*ingredients)
		if err := repo.SetIngredients(ctx, rec.ID, ids); err != nil {
			return err
		}
		rec.IngredientIDs = ids
	}
	if rec.TagIDs == nil {
		rec.TagIDs = []int64{}
	}
	if rec.IngredientIDs == nil {
		rec.IngredientIDs = []int64{}
	}
	return nil
}

func uniqueSorted(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	out = slices.Compact(out)
	if out == nil {
		out = []int64{}
	}
	return out
}

func applyInput(rec *models.Recipe, in models.RecipeInput) error {
	v := &common.ValidationError{}

	title := strings.TrimSpace(in.Title)
	validateName(v, "title", title)

	if in.TimeMinutes == nil {
		v.Add("time_minutes", common.MsgRequired)
	} else {
		validateTimeMinutes(v, *in.TimeMinutes)
	}

	var price models.Price
	if in.Price == nil {
		v.Add("price", common.MsgRequired)
	} else if p, err := models.ParsePrice(*in.Price); err != nil {
		v.Add("price", err.Error())
	} else {
		price = p
	}

	link := strings.TrimSpace(in.Link)
	if utf8.RuneCountInString(link) > common.MaxNameLength {
		v.Add("link", msgTooLong)
	}

	if err := v.OrNil(); err != nil {
		return err
	}

	rec.Title = title
	rec.TimeMinutes = *in.TimeMinutes
	rec.Price = price
	rec.Link = link
	return nil
}

func applyPatch(rec *models.Recipe, p models.RecipePatch) error {
	v := &common.ValidationError{}

	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		validateName(v, "title", title)
		rec.Title = title
	}
	if p.TimeMinutes != nil {
		validateTimeMinutes(v, *p.TimeMinutes)
		rec.TimeMinutes = *p.TimeMinutes
	}
	if p.Price != nil {
		price, err := models.ParsePrice(*p.Price)
		if err != nil {
			v.Add("price", err.Error())
		}
		rec.Price = price
	}
	if p.Link != nil {
		link := strings.TrimSpace(*p.Link)
		if utf8.RuneCountInString(link) > common.MaxNameLength {
			v.Add("link", msgTooLong)
		}
		rec.Link = link
	}
	return v.OrNil()
}

// wrapStoreErr passes through errors callers match on and wraps the rest.
func wrapStoreErr(msg string, err error) error {
	if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorValidation) {
		return err
	}
	return fmt.Errorf("%s: %w", msg, err)
}
