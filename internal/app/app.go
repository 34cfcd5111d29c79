package app

import (
	"context"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/orio/graphbook-backend/internal/db"
	"github.com/orio/graphbook-backend/internal/graph"
	httpx "github.com/orio/graphbook-backend/internal/http"
	"github.com/orio/graphbook-backend/internal/http/handlers"
	"github.com/orio/graphbook-backend/internal/platform/logger"
	"github.com/orio/graphbook-backend/internal/platform/neo4jdb"
	"github.com/orio/graphbook-backend/internal/platform/ollama"
	"github.com/orio/graphbook-backend/internal/repos"
	"github.com/orio/graphbook-backend/internal/services"
)

type App struct {
	Log    *logger.Logger
	DB     *gorm.DB
	Graph  *neo4jdb.Client
	Server *httpx.Server
	Cfg    Config
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	neo, err := neo4jdb.NewFromEnv(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init neo4j: %w", err)
	}

	oracle, err := ollama.NewClient(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init ollama: %w", err)
	}

	// Repos
	fileRepo := repos.NewDocumentFileRepo(theDB, log)
	chartRepo := repos.NewChartSnapshotRepo(theDB, log)

	// Services
	store := graph.NewStore(neo, log, cfg.MergeStrategy)
	textProc := services.NewTextProcessor(log)
	documentSvc := services.NewDocumentService(theDB, log, fileRepo, textProc)
	scorer := services.NewSimilarityScorer(log, oracle, cfg.ScoreWorkers)
	conceptSvc := services.NewConceptService(log, store, scorer, documentSvc)
	chartSvc := services.NewChartService(theDB, log, scorer, documentSvc, chartRepo)

	// Handlers
	server := httpx.NewServer(httpx.RouterConfig{
		Log:             log,
		DocumentHandler: handlers.NewDocumentHandler(log, documentSvc),
		TextHandler:     handlers.NewTextHandler(log, conceptSvc),
		ConceptHandler:  handlers.NewConceptHandler(log, conceptSvc),
		ChartHandler:    handlers.NewChartHandler(log, chartSvc),
		HealthHandler:   handlers.NewHealthHandler(),
	})

	return &App{
		Log:    log,
		DB:     theDB,
		Graph:  neo,
		Server: server,
		Cfg:    cfg,
	}, nil
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Server listening", "port", a.Cfg.Port)
	return a.Server.Run(":" + a.Cfg.Port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Graph != nil {
		if err := a.Graph.Close(context.Background()); err != nil {
			a.Log.Warn("Neo4j close failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
