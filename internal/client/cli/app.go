package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/dmitrijs2005/weddingkeeper/internal/client/api"
	"github.com/dmitrijs2005/weddingkeeper/internal/client/config"
	"github.com/dmitrijs2005/weddingkeeper/internal/client/guest"
	"github.com/dmitrijs2005/weddingkeeper/internal/client/prefs"
	"github.com/dmitrijs2005/weddingkeeper/internal/client/repositories/kv"
	"github.com/dmitrijs2005/weddingkeeper/internal/client/scrape"
	"github.com/dmitrijs2005/weddingkeeper/internal/client/storage"
	"github.com/dmitrijs2005/weddingkeeper/internal/logging"
)

// Streams are the terminal handles the App talks to.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// App wires configuration, local storage and the API-backed services used by
// the commands.
type App struct {
	config *config.Config
	logger logging.Logger

	api    *api.Client
	repo   kv.Repository
	guests *guest.Store
	prefs  *prefs.Service
	theme  Theme

	reader *bufio.Reader
	out    io.Writer
	tty    bool

	closers []func() error
}

// systemDark is a test seam for terminal background detection.
var systemDark = lipgloss.HasDarkBackground

// NewApp opens local storage and builds the services for cfg. Close must be
// called when the App is no longer needed.
func NewApp(ctx context.Context, cfg *config.Config, s Streams) (*App, error) {
	logger, closeLog, err := logging.Setup(s.Err, cfg.LogFile, logging.ParseLevel(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("error initializing logging: %w", err)
	}

	a := &App{
		config:  cfg,
		logger:  logger,
		reader:  bufio.NewReader(s.In),
		out:     s.Out,
		tty:     writerIsTerminal(s.Out),
		closers: []func() error{closeLog},
	}

	if cfg.DatabasePath == "" {
		logger.Debug(ctx, "no database configured, keeping state in memory")
		a.repo = kv.NewMemoryRepository()
	} else {
		db, err := storage.InitDatabase(ctx, cfg.DatabasePath)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("error initializing database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		a.repo = kv.NewSQLiteRepository(db)
	}

	a.api = api.New(cfg.APIBaseURL, cfg.RequestTimeout, logger)
	a.guests = guest.NewStore(a.repo, a.api, logger, guest.Options{
		TTL:           cfg.SessionTTL,
		VerifyTimeout: cfg.VerifyTimeout,
	})
	a.prefs = prefs.NewService(a.repo, logger, systemDark)

	if n, err := a.guests.Prune(ctx); err != nil {
		logger.Warn(ctx, "could not prune expired guests", "error", err)
	} else if n > 0 {
		logger.Info(ctx, "forgot expired guests", "count", n)
	}

	dark, err := a.prefs.DarkMode(ctx)
	if err != nil {
		logger.Warn(ctx, "could not read dark mode preference", "error", err)
	}
	a.theme = themeFor(dark)

	return a, nil
}

// newPoller builds a poller for one import run.
func (a *App) newPoller() *scrape.Poller {
	settle := a.config.SettleDelay
	if settle == 0 {
		// the poller reads zero as "use the default"
		settle = -1
	}
	return scrape.New(a.api, a.logger, scrape.Options{
		Interval:           a.config.PollInterval,
		SettleDelay:        settle,
		LongWaitAfter:      a.config.LongWaitAfter,
		MaxNetworkFailures: a.config.MaxNetworkFailures,
	})
}

// Close releases storage and log files in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
