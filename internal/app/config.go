package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/yungbote/coursecast-backend/internal/data/db"
	"github.com/yungbote/coursecast-backend/internal/observability"
	"github.com/yungbote/coursecast-backend/internal/platform/assemblyai"
	"github.com/yungbote/coursecast-backend/internal/platform/gcp"
	"github.com/yungbote/coursecast-backend/internal/services"
)

const serviceName = "coursecast-backend"

type Config struct {
	Port            string
	LogMode         string
	ShutdownTimeout time.Duration

	JWTSecret    string
	JWTTTL       time.Duration
	CookieTTL    time.Duration
	CookieSecure bool

	AllowedOrigins []string

	Postgres db.PostgresConfig

	RedisAddr      string
	RedisChannel   string
	CourseCacheTTL time.Duration

	Transcription services.TranscriptionConfig

	Bucket         gcp.BucketConfig
	MaxUploadBytes int64

	Otel    observability.OtelConfig
	Metrics observability.MetricsConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_MODE", "development")
	v.SetDefault("SHUTDOWN_TIMEOUT", "15s")

	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("COOKIE_TTL", "72h")
	v.SetDefault("COOKIE_SECURE", true)

	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_NAME", "coursecast")
	v.SetDefault("POSTGRES_SSLMODE", "disable")

	v.SetDefault("REDIS_CHANNEL", "chat")
	v.SetDefault("COURSE_CACHE_TTL", "1h")

	v.SetDefault("TRANSCRIPTION_PROVIDER", services.TranscriptionProviderAssemblyAI)
	v.SetDefault("TRANSCRIPTION_LANGUAGE", "en-US")
	v.SetDefault("TRANSCRIPTION_MAX_RETRIES", 0)
	v.SetDefault("TRANSCRIPTION_TIMEOUT", "10m")

	v.SetDefault("MEDIA_MAX_UPLOAD_BYTES", int64(2<<30))

	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SAMPLER_RATIO", 1.0)
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("METRICS_SCRAPE_INTERVAL", "15s")
	v.SetDefault("APP_ENV", "development")
}

// LoadConfig reads .env (when present) into the process environment, then resolves
// every setting from the environment with defaults.
func LoadConfig() (Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return Config{}, fmt.Errorf("load .env: %w", err)
		}
	}
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return configFrom(v)
}

func configFrom(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:            strings.TrimSpace(v.GetString("PORT")),
		LogMode:         v.GetString("LOG_MODE"),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),

		JWTSecret:    strings.TrimSpace(v.GetString("JWT_SECRET")),
		JWTTTL:       v.GetDuration("JWT_TTL"),
		CookieTTL:    v.GetDuration("COOKIE_TTL"),
		CookieSecure: v.GetBool("COOKIE_SECURE"),

		AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),

		Postgres: db.PostgresConfig{
			DSN:      v.GetString("POSTGRES_DSN"),
			Host:     v.GetString("POSTGRES_HOST"),
			Port:     v.GetString("POSTGRES_PORT"),
			User:     v.GetString("POSTGRES_USER"),
			Password: v.GetString("POSTGRES_PASSWORD"),
			Name:     v.GetString("POSTGRES_NAME"),
			SSLMode:  v.GetString("POSTGRES_SSLMODE"),
		},

		RedisAddr:      strings.TrimSpace(v.GetString("REDIS_ADDR")),
		RedisChannel:   v.GetString("REDIS_CHANNEL"),
		CourseCacheTTL: v.GetDuration("COURSE_CACHE_TTL"),

		Transcription: services.TranscriptionConfig{
			Provider:     v.GetString("TRANSCRIPTION_PROVIDER"),
			LanguageCode: v.GetString("TRANSCRIPTION_LANGUAGE"),
			MaxRetries:   v.GetInt("TRANSCRIPTION_MAX_RETRIES"),
			Timeout:      v.GetDuration("TRANSCRIPTION_TIMEOUT"),
			AssemblyAI: assemblyai.Config{
				APIKey:  v.GetString("ASSEMBLYAI_API_KEY"),
				BaseURL: v.GetString("ASSEMBLYAI_BASE_URL"),
			},
			GCPCredentials: v.GetString("GCP_CREDENTIALS"),
		},

		Bucket: gcp.BucketConfig{
			Name:          strings.TrimSpace(v.GetString("MEDIA_GCS_BUCKET")),
			CDNDomain:     v.GetString("MEDIA_CDN_DOMAIN"),
			EmulatorHost:  v.GetString("STORAGE_EMULATOR_HOST"),
			PublicBaseURL: v.GetString("MEDIA_PUBLIC_BASE_URL"),
			Credentials:   v.GetString("GCP_CREDENTIALS"),
		},
		MaxUploadBytes: v.GetInt64("MEDIA_MAX_UPLOAD_BYTES"),

		Otel: observability.OtelConfig{
			Enabled:     v.GetBool("OTEL_ENABLED"),
			ServiceName: serviceName,
			Environment: v.GetString("APP_ENV"),
			Version:     v.GetString("APP_VERSION"),
			Endpoint:    v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			Headers:     v.GetString("OTEL_EXPORTER_OTLP_HEADERS"),
			Insecure:    v.GetBool("OTEL_EXPORTER_OTLP_INSECURE"),
			SampleRatio: v.GetFloat64("OTEL_SAMPLER_RATIO"),
		},
		Metrics: observability.MetricsConfig{
			Enabled:        v.GetBool("METRICS_ENABLED"),
			ScrapeInterval: v.GetDuration("METRICS_SCRAPE_INTERVAL"),
		},
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.CookieTTL <= 0 {
		errs = append(errs, errors.New("COOKIE_TTL must be positive"))
	}
	if c.Transcription.MaxRetries < 0 {
		errs = append(errs, errors.New("TRANSCRIPTION_MAX_RETRIES must not be negative"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MEDIA_MAX_UPLOAD_BYTES must be positive"))
	}
	return errors.Join(errs...)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
