package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/GyroZepelix/thesis-archive/internal/catalog"
	"github.com/GyroZepelix/thesis-archive/internal/database"
	"github.com/GyroZepelix/thesis-archive/internal/schema"
	"github.com/GyroZepelix/thesis-archive/internal/searchlog"
	"github.com/GyroZepelix/thesis-archive/internal/server"
	"github.com/GyroZepelix/thesis-archive/internal/thesis"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP search API",
	Long: `serve applies pending migrations, loads the storage layouts and serves
POST /api/books/search (thesis_tbl layout) and POST /api/thesis/search
(tblthesis layout) until SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		skipMigrations, _ := cmd.Flags().GetBool("skip-migrations")
		return runServe(skipMigrations)
	},
}

func init() {
	serveCmd.Flags().Bool("skip-migrations", false, "do not apply migrations on startup")
	rootCmd.AddCommand(serveCmd)
}

// catalogSpec binds a URL segment to a storage layout and its empty-search policy.
type catalogSpec struct {
	name            string
	layout          string
	requireCriteria bool
}

func runServe(skipMigrations bool) error {
	slog.Info("starting thesis archive",
		"port", cfg.Port,
		"layout_dir", cfg.LayoutDir,
		"dev_mode", cfg.DevMode,
	)

	if cfg.DatabaseURL == "" {
		return errors.New("THESIS_DATABASE_URL is required")
	}

	// --- Connect to database ---
	dbCtx, dbCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer dbCancel()

	db, err := database.New(dbCtx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()
	slog.Info("database connected")

	if !skipMigrations {
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("migrations applied")
	}

	// --- Load storage layouts ---
	layouts, err := schema.LoadLayouts(cfg.LayoutDir)
	if err != nil {
		return fmt.Errorf("loading layouts: %w", err)
	}
	slog.Info("layouts loaded", "count", len(layouts))

	// --- Search log ---
	var recorder thesis.Recorder
	if cfg.SearchLog {
		logService := searchlog.NewService(searchlog.NewRepository(db.Pool()))
		logService.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			logService.Shutdown(ctx)
		}()
		recorder = logService
	}

	catalogs := []catalogSpec{
		{name: "books", layout: schema.LayoutFlat, requireCriteria: cfg.BooksRequireCriteria},
		{name: "thesis", layout: schema.LayoutJoined, requireCriteria: cfg.ThesisRequireCriteria},
	}

	handlers := make(map[string]server.CatalogHandler, len(catalogs))
	index := make([]catalog.Catalog, 0, len(catalogs))
	for _, c := range catalogs {
		layout, ok := layouts[c.layout]
		if !ok {
			return fmt.Errorf("catalog %s: layout %q not found", c.name, c.layout)
		}
		repo := thesis.NewRepository(db.Pool(), layout)
		svc := thesis.NewService(repo, thesis.Options{
			RequireCriteria:  c.requireCriteria,
			CoverPlaceholder: cfg.CoverPlaceholder,
		})
		handlers[c.name] = thesis.NewHandler(c.name, svc, recorder)
		index = append(index, catalog.Catalog{Name: c.name, Layout: layout, Counter: repo})
		slog.Info("catalog ready",
			"catalog", c.name,
			"layout", layout.Name,
			"require_criteria", c.requireCriteria,
		)
	}

	// --- Build router and start server ---
	router := server.NewRouter(server.Dependencies{
		DB:           db,
		DevMode:      cfg.DevMode,
		CORSOrigins:  cfg.CORSOrigins,
		Catalogs:     handlers,
		CatalogIndex: catalog.NewHandler(index).List,
	})
	srv := server.New(fmt.Sprintf(":%d", cfg.Port), router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// --- Graceful shutdown on SIGINT/SIGTERM ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	slog.Info("shutting down server (30s timeout)...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("thesis archive stopped")
	return nil
}
