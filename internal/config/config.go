// file: internal/config/config.go
// version: 2.0.0
// guid: 7b8c9d0e-1f2a-3b4c-5d6e-7f8a9b0c1d2e

package config

import (
	"runtime"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	DatabasePath string
	DatabaseType string // "sqlite" (default) or "pebble"

	// Search tuning
	MaxResults   int // Hard cap on candidates fetched per search
	ScoreWorkers int // Goroutines used to score candidates

	// HTTP
	RateLimitPerMinute int
	RateLimitBurst     int
	MaxBodyBytes       int64
	TagCacheTTL        time.Duration
}

var AppConfig Config

// SetDefaults registers default values with viper
func SetDefaults() {
	viper.SetDefault("database_type", "sqlite")
	viper.SetDefault("database_path", "voters.db")
	viper.SetDefault("max_results", 100)
	viper.SetDefault("score_workers", 0)
	viper.SetDefault("rate_limit_per_minute", 600)
	viper.SetDefault("rate_limit_burst", 60)
	viper.SetDefault("max_body_bytes", 1<<20)
	viper.SetDefault("tag_cache_ttl", "30s")
}

// InitConfig initializes the application configuration
func InitConfig() {
	SetDefaults()

	AppConfig = Config{
		DatabasePath:       viper.GetString("database_path"),
		DatabaseType:       viper.GetString("database_type"),
		MaxResults:         viper.GetInt("max_results"),
		ScoreWorkers:       viper.GetInt("score_workers"),
		RateLimitPerMinute: viper.GetInt("rate_limit_per_minute"),
		RateLimitBurst:     viper.GetInt("rate_limit_burst"),
		MaxBodyBytes:       viper.GetInt64("max_body_bytes"),
		TagCacheTTL:        viper.GetDuration("tag_cache_ttl"),
	}

	// Normalize database type
	if AppConfig.DatabaseType == "sqlite3" || AppConfig.DatabaseType == "" {
		AppConfig.DatabaseType = "sqlite"
	}
	if AppConfig.MaxResults < 1 {
		AppConfig.MaxResults = 100
	}
	if AppConfig.ScoreWorkers < 1 {
		AppConfig.ScoreWorkers = runtime.NumCPU()
	}
}
