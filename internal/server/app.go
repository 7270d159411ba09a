// Package server wires the marketplace server together: it opens the
// database, applies migrations, builds the services and runs the HTTP API,
// the gRPC health endpoint and the session janitor until shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophmarket/internal/dbx"
	"github.com/dmitrijs2005/gophmarket/internal/logging"
	"github.com/dmitrijs2005/gophmarket/internal/server/auth"
	"github.com/dmitrijs2005/gophmarket/internal/server/config"
	"github.com/dmitrijs2005/gophmarket/internal/server/httpapi"
	"github.com/dmitrijs2005/gophmarket/internal/server/janitor"
	"github.com/dmitrijs2005/gophmarket/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophmarket/internal/server/services"

	gs "github.com/dmitrijs2005/gophmarket/internal/server/grpc"
)

// openDB is a seam for tests.
var openDB = func(ctx context.Context, c *config.Config) (*sql.DB, error) {
	return dbx.Open(ctx, "pgx", c.DatabaseDSN, dbx.PoolOptions{
		MaxOpenConns:    c.DBMaxOpenConns,
		MaxIdleConns:    c.DBMaxIdleConns,
		ConnMaxLifetime: c.DBConnMaxLifetime,
	})
}

type runner interface {
	Run(ctx context.Context) error
}

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	runners map[string]runner
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogFormat)
	if err != nil {
		return nil, err
	}

	db, err := openDB(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	return newApp(c, logger, db, rm), nil
}

func newApp(c *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) *App {
	hasher := auth.NewBcryptHasher()
	adapter := services.NewAuthAdapter(db, rm, hasher, logger)

	api := httpapi.NewHTTPServer(c.HTTPAddr, logger, httpapi.Services{
		Identity:      services.NewCredentialService(adapter, hasher, c, logger),
		Catalog:       services.NewCatalogService(db, rm, logger),
		Favorites:     services.NewFavoritesService(db, rm, logger),
		Conversations: services.NewConversationService(db, rm, logger),
		Media:         services.NewMediaService(c, logger),
	})

	return &App{
		config: c,
		logger: logger,
		db:     db,
		runners: map[string]runner{
			"http":    api,
			"health":  gs.NewHealthServer(c.HealthAddrGRPC, logger, db),
			"janitor": janitor.New(adapter, c.SessionSweepSchedule, c.SessionGracePeriod, logger),
		},
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run blocks until a signal arrives, ctx is cancelled or a component fails.
// The first failure stops the others.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	for name, r := range app.runners {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.Run(ctx); err != nil {
				app.logger.Error(ctx, "component failed", "component", name, "error", err)
				cancelFunc()
			}
		}()
	}

	wg.Wait()

	app.logger.Info(ctx, "App stopped")
}

// Close releases the database pool.
func (app *App) Close() error {
	return app.db.Close()
}
