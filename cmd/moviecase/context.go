package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"moviecase/internal/barcodecache"
	"moviecase/internal/config"
	"moviecase/internal/ingest"
	"moviecase/internal/library"
	"moviecase/internal/library/sqlitestore"
	"moviecase/internal/logging"
	"moviecase/internal/lookup"
	"moviecase/internal/normalize"
	"moviecase/internal/postercache"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	jsonFlag     *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		jsonFlag:     jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil {
			if level := strings.TrimSpace(*c.logLevelFlag); level != "" {
				cfg.Logging.Level = strings.ToLower(level)
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// app bundles the collaborators a command needs for the lifetime of one
// invocation.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *sqlitestore.Store
	library  *library.Store
	posters  *postercache.Cache
	lookup   *lookup.Client
	barcodes *barcodecache.Cache
	ingest   *ingest.Service
	prefs    config.Preferences

	// seeded counts default collections created by this invocation.
	seeded int
}

// withApp opens the library and its collaborators, runs fn, and releases
// everything afterwards. Mutating commands hold the library lock for the
// whole call and seed the default collections into an empty library.
func (c *commandContext) withApp(cmd *cobra.Command, mutating bool, fn func(context.Context, *app) error) (err error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger, closeLog, err := logging.NewFromConfig(cfg, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { err = errors.Join(err, closeLog()) }()

	if mutating {
		lock := flock.New(cfg.LockPath())
		ok, lockErr := lock.TryLock()
		if lockErr != nil {
			return fmt.Errorf("acquire library lock: %w", lockErr)
		}
		if !ok {
			return fmt.Errorf("library %s is in use by another moviecase process", cfg.Paths.DataDir)
		}
		defer func() { _ = lock.Unlock() }()
	}

	db, err := sqlitestore.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open library database: %w", err)
	}
	defer func() { err = errors.Join(err, db.Close()) }()

	lib := library.New(db, library.WithLogger(logger))
	if err := lib.Load(ctx); err != nil {
		return err
	}
	var seeded int
	if mutating {
		if seeded, err = lib.SeedDefaultCollectionsIfEmpty(ctx); err != nil {
			return err
		}
	}

	durable, closeDurable, err := postercache.OpenDurable(ctx, cfg, db)
	if err != nil {
		return fmt.Errorf("open poster cache: %w", err)
	}
	defer func() { err = errors.Join(err, closeDurable()) }()

	posters, err := postercache.NewFromConfig(cfg, durable, logger)
	if err != nil {
		return fmt.Errorf("init poster cache: %w", err)
	}

	client, err := lookup.NewFromConfig(cfg, logger)
	if err != nil {
		return fmt.Errorf("init lookup client: %w", err)
	}

	var barcodes *barcodecache.Cache
	if cfg.Barcode.CacheEnabled {
		barcodes = barcodecache.NewCache(cfg.Barcode.CachePath, logger)
	}

	prefs, err := config.LoadPreferences(ctx, db, cfg.Preferences)
	if err != nil {
		logging.WarnWithContext(logger, "ignoring stored preferences", "preferences_load_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "config.toml preference values are used"))
		prefs = cfg.Preferences
	}

	service := ingest.New(client, lib,
		ingest.WithPosters(posters),
		ingest.WithBarcodeCache(barcodes),
		ingest.WithNormalizer(normalize.Normalizer{ImageBaseURL: cfg.TMDB.ImageBaseURL}),
		ingest.WithLogger(logger))

	return fn(ctx, &app{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		library:  lib,
		posters:  posters,
		lookup:   client,
		barcodes: barcodes,
		ingest:   service,
		prefs:    prefs,
		seeded:   seeded,
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
