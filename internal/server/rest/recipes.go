package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/dmitrijs2005/recipebook/internal/server/images"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
	"github.com/go-chi/chi/v5"
)

// priceText accepts a price as a JSON string or number and keeps its text.
type priceText string

func (p *priceText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = priceText(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return common.NewValidationError("price", "A valid number is required.")
	}
	*p = priceText(n.String())
	return nil
}

type recipeRequest struct {
	Title       *string    `json:"title"`
	TimeMinutes *int       `json:"time_minutes"`
	Price       *priceText `json:"price"`
	Link        *string    `json:"link"`
	Tags        *[]int64   `json:"tags"`
	Ingredients *[]int64   `json:"ingredients"`
}

func (req recipeRequest) input() models.RecipeInput {
	in := models.RecipeInput{TimeMinutes: req.TimeMinutes}
	if req.Title != nil {
		in.Title = *req.Title
	}
	if req.Price != nil {
		s := string(*req.Price)
		in.Price = &s
	}
	if req.Link != nil {
		in.Link = *req.Link
	}
	if req.Tags != nil {
		in.Tags = *req.Tags
	}
	if req.Ingredients != nil {
		in.Ingredients = *req.Ingredients
	}
	return in
}

func (req recipeRequest) patch() models.RecipePatch {
	p := models.RecipePatch{
		Title:       req.Title,
		TimeMinutes: req.TimeMinutes,
		Link:        req.Link,
		Tags:        req.Tags,
		Ingredients: req.Ingredients,
	}
	if req.Price != nil {
		s := string(*req.Price)
		p.Price = &s
	}
	return p
}

type recipeView struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	TimeMinutes int          `json:"time_minutes"`
	Price       models.Price `json:"price"`
	Link        string       `json:"link"`
	Image       *string      `json:"image"`
	Tags        []int64      `json:"tags"`
	Ingredients []int64      `json:"ingredients"`
}

type recipeDetailView struct {
	ID          int64               `json:"id"`
	Title       string              `json:"title"`
	TimeMinutes int                 `json:"time_minutes"`
	Price       models.Price        `json:"price"`
	Link        string              `json:"link"`
	Image       *string             `json:"image"`
	Tags        []*models.Attribute `json:"tags"`
	Ingredients []*models.Attribute `json:"ingredients"`
}

type recipeImageView struct {
	ID    int64   `json:"id"`
	Image *string `json:"image"`
}

func (h *Handler) imageURL(key string) *string {
	if key == "" {
		return nil
	}
	u := images.URL(h.opts.MediaURL, key)
	return &u
}

func (h *Handler) newRecipeView(rec *models.Recipe) recipeView {
	v := recipeView{
		ID:          rec.ID,
		Title:       rec.Title,
		TimeMinutes: rec.TimeMinutes,
		Price:       rec.Price,
		Link:        rec.Link,
		Image:       h.imageURL(rec.Image),
		Tags:        rec.TagIDs,
		Ingredients: rec.IngredientIDs,
	}
	if v.Tags == nil {
		v.Tags = []int64{}
	}
	if v.Ingredients == nil {
		v.Ingredients = []int64{}
	}
	return v
}

func (h *Handler) newRecipeDetailView(rec *models.Recipe) recipeDetailView {
	v := recipeDetailView{
		ID:          rec.ID,
		Title:       rec.Title,
		TimeMinutes: rec.TimeMinutes,
		Price:       rec.Price,
		Link:        rec.Link,
		Image:       h.imageURL(rec.Image),
		Tags:        rec.Tags,
		Ingredients: rec.Ingredients,
	}
	if v.Tags == nil {
		v.Tags = []*models.Attribute{}
	}
	if v.Ingredients == nil {
		v.Ingredients = []*models.Attribute{}
	}
	return v
}

// recipeID parses the {id} path parameter. Ids that cannot exist are not
// found.
func recipeID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, common.ErrorNotFound
	}
	return id, nil
}

func (h *Handler) listRecipes(w http.ResponseWriter, r *http.Request) {
	items, err := h.recipes.List(r.Context(), callerFrom(r.Context()).ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]recipeView, 0, len(items))
	for _, rec := range items {
		out = append(out, h.newRecipeView(rec))
	}
	respondWithJSON(w, http.StatusOK, out)
}

func (h *Handler) createRecipe(w http.ResponseWriter, r *http.Request) {
	var req recipeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDecodeError(w, r, err)
		return
	}

	rec, err := h.recipes.Create(r.Context(), callerFrom(r.Context()).ID, req.input())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, h.newRecipeView(rec))
}

func (h *Handler) getRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := recipeID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	rec, err := h.recipes.Get(r.Context(), callerFrom(r.Context()).ID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, h.newRecipeDetailView(rec))
}

func (h *Handler) replaceRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := recipeID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req recipeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDecodeError(w, r, err)
		return
	}

	rec, err := h.recipes.Replace(r.Context(), callerFrom(r.Context()).ID, id, req.input())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, h.newRecipeView(rec))
}

func (h *Handler) updateRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := recipeID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req recipeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDecodeError(w, r, err)
		return
	}

	rec, err := h.recipes.Update(r.Context(), callerFrom(r.Context()).ID, id, req.patch())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, h.newRecipeView(rec))
}

func (h *Handler) deleteRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := recipeID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.recipes.Delete(r.Context(), callerFrom(r.Context()).ID, id); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) uploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := recipeID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if h.opts.MaxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadSize)
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondWithDetail(w, http.StatusRequestEntityTooLarge, detailRequestTooLarge)
			return
		}
		h.writeError(w, r, common.NewValidationError("image", msgNoFile))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	rec, err := h.recipes.UploadImage(r.Context(), callerFrom(r.Context()).ID, id, header.Filename, data)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, recipeImageView{ID: rec.ID, Image: h.imageURL(rec.Image)})
}
