package models

// Recipe is a user-owned recipe with its tag and ingredient associations.
// TagIDs and IngredientIDs are always populated by the stores; Tags and
// Ingredients only on single-recipe reads.
type Recipe struct {
	ID          int64
	UserID      int64
	Title       string
	TimeMinutes int
	Price       Price
	Link        string
	Image       string

	TagIDs        []int64
	IngredientIDs []int64

	Tags        []*Attribute
	Ingredients []*Attribute
}

// RecipeInput is a full set of writable recipe fields, used by create and
// replace. Price is the raw decimal text as supplied by the caller.
type RecipeInput struct {
	Title       string
	TimeMinutes *int
	Price       *string
	Link        string
	Tags        []int64
	Ingredients []int64
}

// RecipePatch carries only the fields a partial update supplies.
// A non-nil Tags or Ingredients replaces the whole association set.
type RecipePatch struct {
	Title       *string
	TimeMinutes *int
	Price       *string
	Link        *string
	Tags        *[]int64
	Ingredients *[]int64
}
