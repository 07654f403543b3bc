package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"marginalia/internal/config"
	"marginalia/internal/domain/models"
	"marginalia/internal/extract"
	"marginalia/internal/handler"
	"marginalia/internal/middleware"
	"marginalia/internal/repository/postgres"
	"marginalia/internal/service/annotation"
	"marginalia/internal/service/outline"
	"marginalia/internal/service/reader"
	"marginalia/internal/service/registry"
	"marginalia/internal/service/spanindex"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected")

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	documentRepo := postgres.NewDocumentRepository(repoConfig)
	outlineRepo := postgres.NewOutlineRepository(repoConfig)
	selectedTextRepo := postgres.NewSelectedTextRepository(repoConfig)
	locationRepo := postgres.NewLocationRepository(repoConfig)
	annotationRepo := postgres.NewAnnotationRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Create services
	spans := spanindex.New(locationRepo, logger)
	texts := registry.New(selectedTextRepo, annotationRepo, locationRepo, logger)
	trees := outline.NewService(outlineRepo, logger)
	annotations := annotation.NewStore(annotationRepo, selectedTextRepo, logger)
	extractors := extract.NewRegistry(logger)
	documents := reader.NewService(
		documentRepo,
		outlineRepo,
		locationRepo,
		txManager,
		spans,
		texts,
		trees,
		extractors,
		logger,
	)

	// Create handlers
	documentHandler := handler.NewDocumentHandler(documents, texts, logger)
	selectedTextHandler := handler.NewSelectedTextHandler(documents, texts, logger)
	annotationHandler := handler.NewAnnotationHandler(annotations, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", documentHandler.HealthCheck)

	// Document routes
	mux.HandleFunc("POST /api/documents", documentHandler.Create)
	mux.HandleFunc("GET /api/documents", documentHandler.List)
	mux.HandleFunc("GET /api/documents/{id}", documentHandler.Get)
	mux.HandleFunc("PATCH /api/documents/{id}", documentHandler.Update)
	mux.HandleFunc("DELETE /api/documents/{id}", documentHandler.Delete)
	mux.HandleFunc("GET /api/documents/{id}/outline", documentHandler.Outline)
	mux.HandleFunc("GET /api/documents/{id}/pages/{page}", documentHandler.Page)

	// Selection routes
	mux.HandleFunc("POST /api/documents/{id}/selected_texts", selectedTextHandler.Select)
	mux.HandleFunc("GET /api/selected_texts/{id}", selectedTextHandler.Get)
	mux.HandleFunc("PATCH /api/selected_texts/{id}", selectedTextHandler.Update)
	mux.HandleFunc("DELETE /api/selected_texts/{id}", selectedTextHandler.Delete)

	// Annotation routes, one set per kind
	kinds := []struct {
		kind models.AnnotationKind
		path string
	}{
		{models.KindDefinition, "definitions"},
		{models.KindLink, "links"},
		{models.KindNote, "notes"},
		{models.KindSynonym, "synonyms"},
	}
	for _, k := range kinds {
		mux.HandleFunc("POST /api/selected_texts/{id}/"+k.path, annotationHandler.Create(k.kind))
		mux.HandleFunc("PATCH /api/"+k.path+"/{id}", annotationHandler.Update(k.kind))
		mux.HandleFunc("DELETE /api/"+k.path+"/{id}", annotationHandler.Delete(k.kind))
	}

	// Build middleware chain
	var root http.Handler = mux
	root = middleware.Recovery(logger)(root)

	// CORS wraps everything so OPTIONS pre-flight is answered first
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Serve until interrupted, then drain in-flight requests
	go func() {
		logger.Info("listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
