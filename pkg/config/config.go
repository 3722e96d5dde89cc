package config

import (
	"errors"
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
	Env  string
	Port int

	Database   DatabaseConfig
	Redis      RedisConfig
	CORS       CORSConfig
	Log        LogConfig
	Campus     CampusConfig
	Attendance AttendanceConfig
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
	Migrate      bool
}

type RedisConfig struct {
	Enabled  bool
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

// CampusConfig holds the trusted in-campus network prefixes used by the
// trust classifier. Prefixes are matched literally against the client IP.
type CampusConfig struct {
	Prefixes []string
}

// AttendanceConfig tunes code issuing and list pagination.
type AttendanceConfig struct {
	CodeLength          int
	DefaultMinutesValid int
	ActiveCodesPageSize int
	PastCodesPageSize   int
	RecordsPageSize     int
	SessionCacheTTL     time.Duration
	// ReviewFlagExclude lists trust statuses excluded from the needs-review
	// roster. The default excludes NORMAL only, so DEV submissions are
	// flagged alongside WARNING and SUSPICIOUS ones.
	ReviewFlagExclude []string
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
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		Migrate:      v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
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

	cfg.Campus = CampusConfig{
		Prefixes: splitAndTrim(v.GetString("CAMPUS_PREFIXES")),
	}

	cfg.Attendance = AttendanceConfig{
		CodeLength:          v.GetInt("CODE_LENGTH"),
		DefaultMinutesValid: v.GetInt("CODE_DEFAULT_MINUTES"),
		ActiveCodesPageSize: v.GetInt("ACTIVE_CODES_PAGE_SIZE"),
		PastCodesPageSize:   v.GetInt("PAST_CODES_PAGE_SIZE"),
		RecordsPageSize:     v.GetInt("ATTENDANCE_PAGE_SIZE"),
		SessionCacheTTL:     parseDuration(v.GetString("SESSION_CACHE_TTL"), 30*time.Second),
		ReviewFlagExclude:   splitAndTrim(v.GetString("REVIEW_FLAG_EXCLUDE")),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "smart_attendance")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CAMPUS_PREFIXES", "210.108.18.")

	v.SetDefault("CODE_LENGTH", 6)
	v.SetDefault("CODE_DEFAULT_MINUTES", 10)
	v.SetDefault("ACTIVE_CODES_PAGE_SIZE", 100)
	v.SetDefault("PAST_CODES_PAGE_SIZE", 30)
	v.SetDefault("ATTENDANCE_PAGE_SIZE", 200)
	v.SetDefault("SESSION_CACHE_TTL", "30s")
	v.SetDefault("REVIEW_FLAG_EXCLUDE", "NORMAL")
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
