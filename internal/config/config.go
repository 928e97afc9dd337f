package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Uploads
		Covers
		CoverSweep
		UI
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Uploads struct {
		Dir string
	}
	Covers struct {
		FetchTimeout time.Duration
		MaxRedirects int
		Referer      string
	}
	CoverSweep struct {
		Enabled  bool
		Schedule string // Cron format: "0 4 * * *" = daily at 04:00
	}
	UI struct {
		StaticPath string
		IndexPath  string
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 3001)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("uploads_dir", DefaultUploadsDir)
	v.SetDefault("cover_fetch_timeout", "15s")
	v.SetDefault("cover_max_redirects", 5)
	v.SetDefault("cover_referer", "https://book.douban.com/")
	v.SetDefault("cover_sweep_enabled", false)
	v.SetDefault("cover_sweep_schedule", "0 4 * * *") // Daily at 04:00
	v.SetDefault("static_path", "./static")
	v.SetDefault("index_path", "./static/index.html")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Uploads: Uploads{
			Dir: v.GetString("UPLOADS_DIR"),
		},
		Covers: Covers{
			FetchTimeout: v.GetDuration("COVER_FETCH_TIMEOUT"),
			MaxRedirects: v.GetInt("COVER_MAX_REDIRECTS"),
			Referer:      v.GetString("COVER_REFERER"),
		},
		CoverSweep: CoverSweep{
			Enabled:  v.GetBool("COVER_SWEEP_ENABLED"),
			Schedule: v.GetString("COVER_SWEEP_SCHEDULE"),
		},
		UI: UI{
			StaticPath: v.GetString("STATIC_PATH"),
			IndexPath:  v.GetString("INDEX_PATH"),
		},
	}
}
