package agent

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/mwantia/fabric/pkg/container"
	"github.com/mwantia/godrive/internal/auth"
	config "github.com/mwantia/godrive/internal/config/server"
	"github.com/mwantia/godrive/internal/drive"
	"github.com/mwantia/godrive/internal/server"
	"github.com/mwantia/godrive/pkg/blob"
	"github.com/mwantia/godrive/pkg/db/migrations"
	"github.com/mwantia/godrive/pkg/db/store"
	"github.com/mwantia/godrive/pkg/log"
)

// GoDriveAgent boots the storage service: metadata store, blob store, auth
// and drive services, and the HTTP API. It runs until the process receives
// an interrupt, then shuts everything down within the configured timeout.
type GoDriveAgent struct {
	mutex sync.RWMutex
	wait  sync.WaitGroup

	cfg *config.BaseServerConfig
	sc  *container.ServiceContainer
	log log.LoggerService

	metadata *store.SQLiteStore
	http     *server.Server
}

func NewAgent(cfg *config.BaseServerConfig) *GoDriveAgent {
	return &GoDriveAgent{
		cfg: cfg,
		sc:  container.NewServiceContainer(),
		log: log.NewLoggerService("godrive", cfg.Log),
	}
}

func (gda *GoDriveAgent) setupServices(ctx context.Context) error {
	metadata, err := store.NewSQLiteStore(store.SQLiteConfig{
		Path: gda.cfg.Metadata.SQLite.Path,
	})
	if err != nil {
		return fmt.Errorf("failed to create metadata store: %w", err)
	}

	if err := metadata.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect metadata store: %w", err)
	}

	if err := migrations.NewMigrator(metadata.DB()).Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	gda.metadata = metadata

	blobs, err := blob.NewLocalStore(gda.cfg.Storage.Root)
	if err != nil {
		return fmt.Errorf("failed to create blob store: %w", err)
	}
	gda.log.Info("storing uploads under %s", blobs.Root())

	authService := auth.NewService(metadata, gda.log, gda.cfg.Auth)
	driveService := drive.NewService(metadata, blobs, gda.log)
	gda.http = server.New(gda.cfg.HTTP, gda.log, authService, driveService, metadata)

	errs := container.Errors{}

	gda.log.Debug("Registering 'LoggerService'...")
	errs.Add(container.Register[log.LoggerServiceImpl](gda.sc,
		container.With[log.LoggerService](),
		container.WithInstance(gda.log)))

	gda.log.Debug("Registering 'MetadataStore'...")
	errs.Add(container.Register[store.SQLiteStore](gda.sc,
		container.With[store.MetadataStore](),
		container.WithInstance(metadata)))

	gda.log.Debug("Registering 'BlobStore'...")
	errs.Add(container.Register[blob.LocalStore](gda.sc,
		container.With[blob.Store](),
		container.WithInstance(blobs)))

	gda.log.Debug("Registering 'AuthService'...")
	errs.Add(container.Register[auth.Service](gda.sc,
		container.WithInstance(authService)))

	gda.log.Debug("Registering 'DriveService'...")
	errs.Add(container.Register[drive.Service](gda.sc,
		container.WithInstance(driveService)))

	return errs.Errors()
}

func (gda *GoDriveAgent) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	gda.mutex.Lock()

	if err := gda.setupServices(ctx); err != nil {
		gda.mutex.Unlock()
		return err
	}

	gda.mutex.Unlock()

	serveErrs := gda.http.Start()

	select {
	case <-ctx.Done():
	case err := <-serveErrs:
		if err != nil {
			return err
		}
	}

	timeout, err := time.ParseDuration(gda.cfg.ShutdownTimeout)
	if err != nil {
		// Set default of 60 seconds if error
		timeout = 60 * time.Second
	}

	shutdown, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := gda.http.Shutdown(shutdown); err != nil {
		gda.log.Error("failed to shut down http server: %v", err)
	}

	if err := gda.sc.Cleanup(shutdown); err != nil {
		return fmt.Errorf("failed to complete service container cleanup: %w", err)
	}

	if err := gda.metadata.Close(); err != nil {
		gda.log.Error("failed to close metadata store: %v", err)
	}

	gda.wait.Wait()
	return nil
}
