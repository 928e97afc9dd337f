package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Localized cover images, read-only
	if cfg.Localizer != nil {
		router.Static("/uploads", cfg.Localizer.UploadsDir())
	}
	if cfg.StaticPath != "" {
		router.Static("/static", cfg.StaticPath)
	}

	health := NewHealthController(cfg.Database, cfg.Version)
	booksController := NewBooksController(cfg.BookStore, cfg.Resolver, cfg.Localizer)
	notesController := NewNotesController(cfg.NoteStore, cfg.BookStore)
	importController := NewImportController(cfg.Importer)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Books API endpoints
	router.GET("/api/books", booksController.ListBooks)
	router.POST("/api/books", booksController.CreateBook)
	router.GET("/api/books/:id", booksController.GetBook)
	router.PUT("/api/books/:id", booksController.UpdateBook)
	router.DELETE("/api/books/:id", booksController.DeleteBook)

	// Batch import lives outside /api/books: the router rejects a static
	// segment next to the :id wildcard.
	router.POST("/api/import/books", importController.ImportBooks)

	// Notes API endpoints
	router.GET("/api/books/:id/notes", notesController.ListNotes)
	router.POST("/api/books/:id/notes", notesController.CreateNote)
	router.POST("/api/books/:id/notes/import", notesController.ImportNotes)
	router.PUT("/api/notes/:id", notesController.UpdateNote)
	router.DELETE("/api/notes/:id", notesController.DeleteNote)

	// SPA entry, cached after the first read
	if cfg.IndexPath != "" {
		index := NewIndexCache(cfg.IndexPath)
		router.GET("/", index.Serve)
		router.NoRoute(index.SPAFallback)
	}

	return router
}
