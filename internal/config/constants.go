package config

// Default filesystem locations
const (
	// DefaultDatabasePath is the default path for the catalog database
	DefaultDatabasePath = "./data/library.db"

	// DefaultUploadsDir is where localized cover images are written
	DefaultUploadsDir = "./uploads"
)
