package services

import (
	"context"
	"strings"
	"testing"

	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/memory"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryServices(t *testing.T) (*AttributeService, *AttributeService, *RecipeService, *fakeImageStore) {
	t.Helper()
	store := memory.NewStore()
	rm := repomanager.NewMemoryRepositoryManager(store)
	imgs := newFakeImageStore()
	return NewAttributeService(store, rm, models.KindTag),
		NewAttributeService(store, rm, models.KindIngredient),
		NewRecipeService(store, rm, imgs, testLogger{}),
		imgs
}

func names(items []*models.Attribute) []string {
	out := make([]string, 0, len(items))
	for _, a := range items {
		out = append(out, a.Name)
	}
	return out
}

func TestAttributeService_CreateAndList(t *testing.T) {
	tags, ingredients, _, _ := newMemoryServices(t)
	ctx := context.Background()

	assert.Equal(t, models.KindTag, tags.Kind())
	assert.Equal(t, models.KindIngredient, ingredients.Kind())

	_, err := tags.Create(ctx, 1, "  Vegan ")
	require.NoError(t, err)
	_, err = tags.Create(ctx, 1, "Dessert")
	require.NoError(t, err)
	_, err = tags.Create(ctx, 2, "Fruity")
	require.NoError(t, err)
	_, err = ingredients.Create(ctx, 1, "Kale")
	require.NoError(t, err)

	list, err := tags.List(ctx, 1, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Vegan", "Dessert"}, names(list))

	list, err = ingredients.List(ctx, 1, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Kale"}, names(list))

	list, err = ingredients.List(ctx, 3, false)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAttributeService_CreateValidation(t *testing.T) {
	tags, _, _, _ := newMemoryServices(t)
	ctx := context.Background()

	_, err := tags.Create(ctx, 1, "   ")
	require.ErrorIs(t, err, common.ErrorValidation)
	assert.Equal(t, []string{common.MsgBlank}, fieldMessages(t, err, "name"))

	_, err = tags.Create(ctx, 1, strings.Repeat("x", common.MaxNameLength+1))
	assert.Equal(t, []string{msgTooLong}, fieldMessages(t, err, "name"))

	_, err = tags.Create(ctx, 1, strings.Repeat("x", common.MaxNameLength))
	require.NoError(t, err)
}

func TestAttributeService_AssignedOnly(t *testing.T) {
	tags, ingredients, recipes, _ := newMemoryServices(t)
	ctx := context.Background()

	breakfast, err := tags.Create(ctx, 1, "Breakfast")
	require.NoError(t, err)
	_, err = tags.Create(ctx, 1, "Lunch")
	require.NoError(t, err)
	eggs, err := ingredients.Create(ctx, 1, "Eggs")
	require.NoError(t, err)
	_, err = ingredients.Create(ctx, 1, "Lentils")
	require.NoError(t, err)

	in := sampleInput()
	in.Tags = []int64{breakfast.ID}
	in.Ingredients = []int64{eggs.ID}
	_, err = recipes.Create(ctx, 1, in)
	require.NoError(t, err)
	in.Title = "Herb Eggs"
	_, err = recipes.Create(ctx, 1, in)
	require.NoError(t, err)

	list, err := tags.List(ctx, 1, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Breakfast"}, names(list), "assigned tags are listed once")

	list, err = ingredients.List(ctx, 1, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Eggs"}, names(list))

	list, err = tags.List(ctx, 1, false)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
