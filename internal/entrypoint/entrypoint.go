package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"readingroom/internal/config"
	"readingroom/internal/covers"
	"readingroom/internal/database"
	"readingroom/internal/database/books"
	"readingroom/internal/database/notes"
	"readingroom/internal/dedup"
	http_controllers "readingroom/internal/http"
	"readingroom/internal/importers"
	"readingroom/internal/scheduler"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting readingroom v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	if err := db.SeedIfEmpty(); err != nil {
		log.Fatalf("Failed to seed catalog: %v", err)
	}

	localizer, err := covers.NewLocalizer(cfg.Uploads.Dir,
		covers.WithTimeout(cfg.Covers.FetchTimeout),
		covers.WithMaxRedirects(cfg.Covers.MaxRedirects),
		covers.WithReferer(cfg.Covers.Referer),
	)
	if err != nil {
		log.Fatalf("Failed to initialize cover localizer: %v", err)
	}
	log.Printf("Cover uploads directory: %s", localizer.UploadsDir())

	bookRepo := books.NewRepository(db.DB)
	noteRepo := notes.NewRepository(db.DB)
	resolver := dedup.NewResolver(bookRepo)
	importer := importers.NewImporter(resolver, localizer, bookRepo)

	var sweep *scheduler.CoverSweep
	if cfg.CoverSweep.Enabled {
		sweep = scheduler.NewCoverSweep(bookRepo, localizer, cfg.CoverSweep.Schedule)
		if err := sweep.Start(); err != nil {
			log.Fatalf("Failed to start cover sweep: %v", err)
		}
	}

	routerCfg := http_controllers.RouterConfig{
		Database:   db,
		BookStore:  bookRepo,
		NoteStore:  noteRepo,
		Resolver:   resolver,
		Localizer:  localizer,
		Importer:   importer,
		StaticPath: cfg.UI.StaticPath,
		IndexPath:  cfg.UI.IndexPath,
		Version:    version,
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if sweep != nil {
			sweep.Stop()
		}
	}

	Serve(router, cfg, onShutdown)
}
