// Package server wires configuration, storage, services and the HTTP API
// into a runnable application.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/recipebook/internal/logging"
	"github.com/dmitrijs2005/recipebook/internal/server/config"
	"github.com/dmitrijs2005/recipebook/internal/server/images"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
	"github.com/dmitrijs2005/recipebook/internal/server/rest"
	"github.com/dmitrijs2005/recipebook/internal/server/services"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	storage *Storage
	handler http.Handler
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewSlog(os.Stdout, c.LogLevel, c.LogFormat)

	storage, err := OpenStorage(ctx, c)
	if err != nil {
		return nil, err
	}

	imageStore, err := images.New(ctx, c)
	if err != nil {
		_ = storage.Close()
		return nil, fmt.Errorf("image store init error: %w", err)
	}

	conn, rm := storage.Conn, storage.Repomanager

	us := services.NewUserService(conn, rm, c)
	tags := services.NewAttributeService(conn, rm, models.KindTag)
	ingredients := services.NewAttributeService(conn, rm, models.KindIngredient)
	recipes := services.NewRecipeService(conn, rm, imageStore, logger)

	opts := rest.Options{
		MediaURL:       c.MediaURL,
		MaxUploadSize:  c.MaxUploadSize,
		MaxBodySize:    c.MaxBodySize,
		RequestTimeout: c.RequestTimeout,
		AllowedOrigins: c.AllowedOrigins,
	}
	if local, ok := imageStore.(*images.LocalStore); ok {
		opts.MediaRoot = local.Root()
	}

	h := rest.NewHandler(us, tags, ingredients, recipes, logger, opts)

	return &App{config: c, logger: logger, storage: storage, handler: h.Router()}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves HTTP until ctx is cancelled or a termination signal arrives,
// then closes storage.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.StorageBackend, "images", app.config.ImageBackend)

	app.initSignalHandler(cancelFunc)

	srv := rest.NewServer(app.config.EndpointAddrHTTP, app.handler, app.logger, app.config.ShutdownTimeout)
	runErr := srv.Run(ctx)

	if err := app.storage.Close(); err != nil {
		app.logger.Error(ctx, "error closing storage", "error", err)
	}

	app.logger.Info(ctx, "App stopped")
	return runErr
}
