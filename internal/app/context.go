// Package app wires the application together. A Context owns every
// long-lived service so that call sites receive explicit dependencies
// instead of reaching for package-level singletons.
package app

import (
	"fmt"
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/burakseven/takip/internal/cloud"
	"github.com/burakseven/takip/internal/gdrive"
	"github.com/burakseven/takip/internal/gsheets"
	"github.com/burakseven/takip/internal/netcheck"
	"github.com/burakseven/takip/internal/repo"
	"github.com/burakseven/takip/internal/settings"
	"github.com/burakseven/takip/internal/store"
	"github.com/burakseven/takip/internal/tablecfg"
)

// Context holds the assembled application services. Construct one with New
// and release it with Close.
type Context struct {
	Config   Config
	Logger   *log.Logger
	Store    *store.Store
	Tables   *tablecfg.Set
	Repos    *repo.Registry
	Settings *settings.Settings
	Auth     *gsheets.AuthManager
	Names    *gsheets.NameMap
	Adapters *cloud.Cache

	logSink io.Closer
}

// New assembles the application from configuration. Every service is eagerly
// constructed except the cloud adapters, which the Cache builds on first use
// per mode.
func New(cfg Config) (*Context, error) {
	logger, sink := newLogger(cfg.LogFile)
	closeSink := func() {
		if sink != nil {
			sink.Close()
		}
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		closeSink()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	tables := tablecfg.Default()
	if cfg.TableConfigPath != "" {
		tables, err = tablecfg.LoadFile(cfg.TableConfigPath, tables)
		if err != nil {
			st.Close()
			closeSink()
			return nil, fmt.Errorf("failed to load table config: %w", err)
		}
	}

	if err := st.EnsureSchema(tables); err != nil {
		st.Close()
		closeSink()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	sets, err := settings.New(st)
	if err != nil {
		st.Close()
		closeSink()
		return nil, fmt.Errorf("failed to initialize settings: %w", err)
	}

	repos := repo.NewRegistry(st, tables,
		repo.WithSpecialization("Personel", repo.NewPersonnel))

	probe := netcheck.Prober(netcheck.Default)
	auth := gsheets.NewAuthManager(cfg.CredentialsDir, probe, logger)

	names, err := gsheets.NewNameMap(cfg.SheetMapPath, logger)
	if err != nil {
		st.Close()
		closeSink()
		return nil, fmt.Errorf("failed to load sheet map: %w", err)
	}

	adapters := cloud.NewCache(func(mode cloud.Mode) (cloud.Adapter, error) {
		switch mode {
		case cloud.ModeOnline:
			sheets := gsheets.NewGateway(auth, names, logger)
			drive := gdrive.NewGateway(auth, probe, logger)
			return cloud.NewOnline(sheets, drive, sets, probe, logger), nil
		case cloud.ModeOffline:
			return cloud.NewOffline(cfg.AttachmentsDir, sets, logger), nil
		default:
			return nil, fmt.Errorf("unknown adapter mode: %s", mode)
		}
	})

	return &Context{
		Config:   cfg,
		Logger:   logger,
		Store:    st,
		Tables:   tables,
		Repos:    repos,
		Settings: sets,
		Auth:     auth,
		Names:    names,
		Adapters: adapters,
		logSink:  sink,
	}, nil
}

// Adapter returns the adapter for the configured mode.
func (c *Context) Adapter() (cloud.Adapter, error) {
	return c.Adapters.Get(c.Config.Mode)
}

// Close releases the database and the log sink.
func (c *Context) Close() error {
	err := c.Store.Close()
	if c.logSink != nil {
		if cerr := c.logSink.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// newLogger routes to stderr, or to a size-rotated file when one is
// configured. The returned closer is nil for stderr.
func newLogger(path string) (*log.Logger, io.Closer) {
	if path == "" {
		return log.New(os.Stderr, "[takip] ", log.LstdFlags), nil
	}
	sink := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     30, // days
	}
	return log.New(sink, "[takip] ", log.LstdFlags), sink
}
