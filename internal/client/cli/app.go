package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/profilekeeper/internal/client/config"
	"github.com/dmitrijs2005/profilekeeper/internal/client/models"
	"github.com/dmitrijs2005/profilekeeper/internal/client/services"
	"github.com/dmitrijs2005/profilekeeper/internal/client/storage"
	"github.com/dmitrijs2005/profilekeeper/internal/cryptox"
	"github.com/dmitrijs2005/profilekeeper/internal/filex"
	"github.com/dmitrijs2005/profilekeeper/internal/logging"
)

// sessionStore is the part of services.SessionStore the CLI drives.
type sessionStore interface {
	Register(ctx context.Context, name, email string, password []byte) (*models.User, error)
	Login(ctx context.Context, email string, password []byte) (*models.User, error)
	Logout(ctx context.Context) error
	UpdateProfile(ctx context.Context, id string, patch models.ProfileUpdate) (*models.User, error)
	UpdatePassword(ctx context.Context, id string, current, next []byte) error
	Current() (models.User, bool)
	Reset(ctx context.Context) error
}

type calendarService interface {
	Add(ctx context.Context, userID, date, title, description string) (*models.Event, error)
	ForDate(ctx context.Context, userID, date string) ([]models.Event, error)
	Dates(ctx context.Context, userID string) ([]string, error)
	Count(ctx context.Context, userID string) (int, error)
}

type backupService interface {
	Enabled() bool
	Upload(ctx context.Context) (string, error)
}

type App struct {
	config   *config.Config
	store    sessionStore
	calendar calendarService
	backup   backupService
	closer   io.Closer
	logger   logging.Logger
	reader   *bufio.Reader
	out      io.Writer
}

// NewApp opens the configured storage and builds the services on top of it.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stderr, c.LogLevel)

	dsn := ""
	if c.StorageBackend != storage.BackendMemory {
		path, err := filex.FileIn(c.DataDir, c.DatabaseFile)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare data dir: %w", err)
		}
		dsn = path
	}

	kv, err := storage.Open(ctx, c.StorageBackend, dsn)
	if err != nil {
		logger.Error(ctx, "error initializing storage", "backend", c.StorageBackend, "error", err)
		return nil, err
	}

	hasher, err := cryptox.NewHasher(c.PasswordScheme)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	store, err := services.OpenSessionStore(ctx, kv,
		services.WithHasher(hasher),
		services.WithLogger(logger.With("component", "session")),
		services.WithStrictUpdates(c.StrictUpdates),
	)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	logger.Debug(ctx, "storage ready", "backend", c.StorageBackend, "dsn", dsn)

	return &App{
		config:   c,
		store:    store,
		calendar: services.NewCalendarService(kv, logger.With("component", "calendar")),
		backup:   services.NewBackupService(kv, c, logger.With("component", "backup")),
		closer:   kv,
		logger:   logger,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}, nil
}

// Run starts the REPL and closes the storage when it returns.
func (a *App) Run(ctx context.Context) {
	defer func() {
		if err := a.closer.Close(); err != nil {
			a.logger.Warn(ctx, "failed to close storage", "error", err)
		}
	}()
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	_, ok := a.store.Current()
	return ok
}

func (a *App) currentUser() (models.User, bool) {
	return a.store.Current()
}
