package rest

import (
	"context"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/recipebook/internal/logging"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type UserService interface {
	Register(ctx context.Context, email, password, name string) (*models.User, error)
	IssueToken(ctx context.Context, email, password string) (string, error)
	ResolveCaller(ctx context.Context, bearer string) (*models.User, error)
	RevokeToken(ctx context.Context, userID int64) error
}

type AttributeService interface {
	List(ctx context.Context, userID int64, assignedOnly bool) ([]*models.Attribute, error)
	Create(ctx context.Context, userID int64, name string) (*models.Attribute, error)
}

type RecipeService interface {
	List(ctx context.Context, userID int64) ([]*models.Recipe, error)
	Get(ctx context.Context, userID, id int64) (*models.Recipe, error)
	Create(ctx context.Context, userID int64, in models.RecipeInput) (*models.Recipe, error)
	Replace(ctx context.Context, userID, id int64, in models.RecipeInput) (*models.Recipe, error)
	Update(ctx context.Context, userID, id int64, patch models.RecipePatch) (*models.Recipe, error)
	UploadImage(ctx context.Context, userID, id int64, filename string, data []byte) (*models.Recipe, error)
	Delete(ctx context.Context, userID, id int64) error
}

// Options configures the router.
type Options struct {
	MediaURL       string
	MediaRoot      string // served under MediaURL when non-empty
	MaxUploadSize  int64
	MaxBodySize    int64 // JSON bodies; defaults to defaultMaxBodySize
	RequestTimeout time.Duration
	AllowedOrigins []string
}

// Handler holds the services behind the HTTP endpoints.
type Handler struct {
	users       UserService
	tags        AttributeService
	ingredients AttributeService
	recipes     RecipeService
	logger      logging.Logger
	opts        Options
}

func NewHandler(us UserService, tags, ingredients AttributeService, rs RecipeService, l logging.Logger, opts Options) *Handler {
	return &Handler{
		users:       us,
		tags:        tags,
		ingredients: ingredients,
		recipes:     rs,
		logger:      l.With("module", "http"),
		opts:        opts,
	}
}

const defaultMaxBodySize = 1 << 20

// Router builds the chi route tree. Paths match with or without a
// trailing slash.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	if h.opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(h.opts.RequestTimeout))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	maxBody := h.opts.MaxBodySize
	if maxBody <= 0 {
		maxBody = defaultMaxBodySize
	}
	// upload-image applies MaxUploadSize itself
	jsonBody := middleware.RequestSize(maxBody)

	r.Route("/users", func(r chi.Router) {
		r.With(jsonBody).Post("/create", h.createUser)
		r.With(jsonBody).Post("/token", h.issueToken)
		r.With(h.authenticate).Delete("/token", h.revokeToken)
	})

	r.Route("/recipe", func(r chi.Router) {
		r.Use(h.authenticate)

		r.Get("/tags", h.listAttributes(h.tags))
		r.With(jsonBody).Post("/tags", h.createAttribute(h.tags))
		r.Get("/ingredients", h.listAttributes(h.ingredients))
		r.With(jsonBody).Post("/ingredients", h.createAttribute(h.ingredients))

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", h.listRecipes)
			r.With(jsonBody).Post("/", h.createRecipe)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getRecipe)
				r.With(jsonBody).Put("/", h.replaceRecipe)
				r.With(jsonBody).Patch("/", h.updateRecipe)
				r.Delete("/", h.deleteRecipe)
				r.Post("/upload-image", h.uploadImage)
			})
		})
	})

	if prefix := h.mediaPrefix(); prefix != "" {
		r.Handle(prefix+"*", http.StripPrefix(prefix, http.FileServer(filesOnly{http.Dir(h.opts.MediaRoot)})))
	}

	return r
}

// mediaPrefix is the path part of MediaURL, or "" when media is not served
// locally.
func (h *Handler) mediaPrefix() string {
	if h.opts.MediaRoot == "" || h.opts.MediaURL == "" {
		return ""
	}
	u, err := url.Parse(h.opts.MediaURL)
	if err != nil || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return ""
	}
	return strings.TrimRight(u.Path, "/") + "/"
}

// filesOnly hides directories so media paths cannot be listed.
type filesOnly struct{ fs http.FileSystem }

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, fs.ErrNotExist
	}
	return file, nil
}
