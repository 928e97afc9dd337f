package http

import (
	"readingroom/internal/database"
	"readingroom/internal/dedup"
	"readingroom/internal/importers"
)

// RouterConfig contains all dependencies and configuration needed to
// create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database  *database.Database
	BookStore BookStore
	NoteStore NoteStore
	Resolver  *dedup.Resolver
	Localizer CoverLocalizer
	Importer  *importers.Importer

	// UI paths
	StaticPath string
	IndexPath  string

	// Application info
	Version string
}
