package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Uploads   UploadsConfig
	Benchmark BenchmarkConfig
	HMIS      HMISConfig
	Reports   ReportsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// UploadsConfig bounds dataset uploads and how long snapshots live.
type UploadsConfig struct {
	MaxFileSizeBytes int64
	TTL              time.Duration
	AllowedExts      []string
}

// BenchmarkConfig carries the day-count rules and result caching.
type BenchmarkConfig struct {
	WindowDays                  int
	TouchGraceDays              int
	IdentificationResetDays     int
	NewlyIdentifiedLookbackDays int
	OfferWindowDays             int
	RecentPHDays                int
	ChronicDurationDays         int
	CacheEnabled                bool
	CacheTTL                    time.Duration
}

// HMISConfig enables importing enrollments from the warehouse.
type HMISConfig struct {
	Enabled        bool
	EnrollmentView string
	MaxRows        int
	QueryTimeout   time.Duration
}

// ReportsConfig configures asynchronous report generation.
type ReportsConfig struct {
	Enabled           bool
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	CleanupInterval   time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	maxUploadSize := v.GetInt64("UPLOAD_MAX_FILE_SIZE")
	if maxUploadSize <= 0 {
		maxUploadSize = 25 * 1024 * 1024
	}
	cfg.Uploads = UploadsConfig{
		MaxFileSizeBytes: maxUploadSize,
		TTL:              parseDuration(v.GetString("UPLOAD_TTL"), 2*time.Hour),
		AllowedExts:      splitAndTrim(v.GetString("UPLOAD_ALLOWED_EXTENSIONS")),
	}

	cfg.Benchmark = BenchmarkConfig{
		WindowDays:                  v.GetInt("BENCHMARK_WINDOW_DAYS"),
		TouchGraceDays:              v.GetInt("BENCHMARK_TOUCH_GRACE_DAYS"),
		IdentificationResetDays:     v.GetInt("BENCHMARK_IDENTIFICATION_RESET_DAYS"),
		NewlyIdentifiedLookbackDays: v.GetInt("BENCHMARK_NEWLY_IDENTIFIED_LOOKBACK_DAYS"),
		OfferWindowDays:             v.GetInt("BENCHMARK_OFFER_WINDOW_DAYS"),
		RecentPHDays:                v.GetInt("BENCHMARK_RECENT_PH_DAYS"),
		ChronicDurationDays:         v.GetInt("BENCHMARK_CHRONIC_DURATION_DAYS"),
		CacheEnabled:                v.GetBool("BENCHMARK_CACHE_ENABLED"),
		CacheTTL:                    parseDuration(v.GetString("BENCHMARK_CACHE_TTL"), 30*time.Minute),
	}
	if cfg.Benchmark.CacheTTL > cfg.Uploads.TTL {
		cfg.Benchmark.CacheTTL = cfg.Uploads.TTL
	}

	cfg.HMIS = HMISConfig{
		Enabled:        v.GetBool("ENABLE_HMIS_SOURCE"),
		EnrollmentView: v.GetString("HMIS_ENROLLMENT_VIEW"),
		MaxRows:        v.GetInt("HMIS_MAX_ROWS"),
		QueryTimeout:   parseDuration(v.GetString("HMIS_QUERY_TIMEOUT"), 30*time.Second),
	}

	cfg.Reports = ReportsConfig{
		Enabled:           v.GetBool("ENABLE_REPORTS"),
		StorageDir:        v.GetString("REPORTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("REPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("REPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval:   parseDuration(v.GetString("REPORTS_CLEANUP_INTERVAL"), time.Hour),
		WorkerConcurrency: v.GetInt("REPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("REPORTS_WORKER_RETRIES"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "hmis_warehouse")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("UPLOAD_MAX_FILE_SIZE", 25*1024*1024)
	v.SetDefault("UPLOAD_TTL", "2h")
	v.SetDefault("UPLOAD_ALLOWED_EXTENSIONS", ".csv,.xlsx")

	v.SetDefault("BENCHMARK_WINDOW_DAYS", 90)
	v.SetDefault("BENCHMARK_TOUCH_GRACE_DAYS", 1)
	v.SetDefault("BENCHMARK_IDENTIFICATION_RESET_DAYS", 90)
	v.SetDefault("BENCHMARK_NEWLY_IDENTIFIED_LOOKBACK_DAYS", 90)
	v.SetDefault("BENCHMARK_OFFER_WINDOW_DAYS", 14)
	v.SetDefault("BENCHMARK_RECENT_PH_DAYS", 90)
	v.SetDefault("BENCHMARK_CHRONIC_DURATION_DAYS", 365)
	v.SetDefault("BENCHMARK_CACHE_ENABLED", true)
	v.SetDefault("BENCHMARK_CACHE_TTL", "30m")

	v.SetDefault("ENABLE_HMIS_SOURCE", false)
	v.SetDefault("HMIS_ENROLLMENT_VIEW", "veteran_enrollments_v")
	v.SetDefault("HMIS_MAX_ROWS", 200000)
	v.SetDefault("HMIS_QUERY_TIMEOUT", "30s")

	v.SetDefault("ENABLE_REPORTS", false)
	v.SetDefault("REPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("REPORTS_SIGNED_URL_SECRET", "dev_reports_secret")
	v.SetDefault("REPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("REPORTS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("REPORTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("REPORTS_WORKER_RETRIES", 3)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
