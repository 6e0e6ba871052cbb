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

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Stripe   StripeConfig
	Catalog  CatalogConfig
	CORS     CORSConfig
	Log      LogConfig
}

type DatabaseConfig struct {
	Host             string
	Port             int
	User             string
	Password         string
	Name             string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	StatementTimeout time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

// StripeConfig holds credentials for the payment gateway.
type StripeConfig struct {
	SecretKey string
	Currency  string
}

// CatalogConfig tunes the approved-class catalog cache.
type CatalogConfig struct {
	CacheTTL time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
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
		Host:             v.GetString("DB_HOST"),
		Port:             v.GetInt("DB_PORT"),
		User:             v.GetString("DB_USER"),
		Password:         v.GetString("DB_PASSWORD"),
		Name:             v.GetString("DB_NAME"),
		SSLMode:          v.GetString("DB_SSL_MODE"),
		MaxOpenConns:     v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:     v.GetInt("DB_MAX_IDLE_CONNS"),
		StatementTimeout: parseDuration(v.GetString("DB_STATEMENT_TIMEOUT"), 5*time.Second),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("ACCESS_TOKEN_SECRET"),
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 3*time.Hour),
	}

	cfg.Stripe = StripeConfig{
		SecretKey: v.GetString("STRIPE_SECRET_KEY"),
		Currency:  v.GetString("STRIPE_CURRENCY"),
	}

	cfg.Catalog = CatalogConfig{
		CacheTTL: parseDuration(v.GetString("CATALOG_CACHE_TTL"), 5*time.Minute),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 5000)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "music_school")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_STATEMENT_TIMEOUT", "5s")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ACCESS_TOKEN_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "music-school-api")
	v.SetDefault("JWT_EXPIRATION", "3h")

	v.SetDefault("STRIPE_SECRET_KEY", "")
	v.SetDefault("STRIPE_CURRENCY", "usd")

	v.SetDefault("CATALOG_CACHE_TTL", "5m")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
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
