package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/avelot/recyclerie/internal/config"
	"github.com/avelot/recyclerie/internal/database"
	"github.com/avelot/recyclerie/internal/database/repository"
	"github.com/avelot/recyclerie/internal/llm"
	"github.com/avelot/recyclerie/internal/service"
)

// app bundles the wired collaborators every subcommand needs.
type app struct {
	cfg      config.Config
	db       *sql.DB
	log      *logrus.Logger
	catRepo  *repository.CategoryRepo
	cache    *repository.MappingCacheRepo
	analyzer *service.Analyzer
	executor *service.Executor
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if os.Getenv("RECYCLERIE_DEBUG") != "" {
		log.SetLevel(logrus.DebugLevel)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	if err := database.RunMigrations(cfg.Database.Path); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := repository.SeedDefaults(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("seed defaults: %w", err)
	}

	catRepo := repository.NewCategoryRepo(db)
	cache := repository.NewMappingCacheRepo(db)

	mapper := llm.NewOpenRouterMapper(config.ResolveAPIKey(cfg), cfg.LLM.Model, cfg.LLM.BaseURL, log)

	return &app{
		cfg:     cfg,
		db:      db,
		log:     log,
		catRepo: catRepo,
		cache:   cache,
		analyzer: &service.Analyzer{
			Categories: catRepo,
			Cache:      cache,
			Mapper:     mapper,
			Model:      cfg.LLM.Model,
			BatchSize:  cfg.LLM.BatchSize,
			Log:        log,
		},
		executor: &service.Executor{
			Categories: catRepo,
			Reception:  repository.NewReceptionRepo(db),
			Log:        log,
		},
	}, nil
}

func (a *app) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}
