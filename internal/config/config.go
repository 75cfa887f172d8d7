// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds every setting the server, worker and seeder read from the
// environment.
type Config struct {
	AppEnv    string `env:"APP_ENV" envDefault:"development"`
	Port      string `env:"PORT" envDefault:"8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	AMQPURL     string `env:"AMQP_URL"`

	JWTSecret string `env:"SUPABASE_JWT_SECRET"`

	OpenAIAPIKey     string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string `env:"OPENAI_BASE_URL"`
	OpenAIModel      string `env:"OPENAI_MODEL" envDefault:"gpt-4o"`
	OpenAIMaxRetries int    `env:"OPENAI_MAX_RETRIES" envDefault:"2"`

	FalKey      string `env:"FAL_KEY"`
	FalEndpoint string `env:"FAL_ENDPOINT" envDefault:"https://fal.run/fal-ai/stable-diffusion-v15"`

	DispatchDriver    string `env:"DISPATCH_DRIVER" envDefault:"log"`
	DispatchRecipient string `env:"DISPATCH_RECIPIENT"`
	PicaSecretKey     string `env:"PICA_SECRET_KEY"`
	PicaEndpoint      string `env:"PICA_ENDPOINT" envDefault:"https://api.picakages.com"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM"`

	StorageDriver      string `env:"STORAGE_DRIVER" envDefault:"local"`
	SupabaseURL        string `env:"SUPABASE_URL"`
	SupabaseServiceKey string `env:"SUPABASE_SERVICE_KEY"`
	StorageBucket      string `env:"STORAGE_BUCKET" envDefault:"campaign-assets"`
	LocalStorageDir    string `env:"LOCAL_STORAGE_DIR" envDefault:"./uploads"`
	PublicBaseURL      string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	MaxUploadBytes     int64  `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`

	VariantTTL            time.Duration `env:"VARIANT_TTL" envDefault:"24h"`
	SchedulerInterval     time.Duration `env:"SCHEDULER_INTERVAL" envDefault:"1m"`
	GenerateRatePerMinute int           `env:"GENERATE_RATE_PER_MINUTE" envDefault:"6"`
}

// Load reads an optional .env file, then parses and validates the process
// environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found, relying on OS environment variables")
	}

	cfg, err := Parse()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse reads the environment without validating it. The seeder only needs
// DATABASE_URL and uses this directly.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// Validate checks required settings and the settings each selected driver
// depends on.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return errors.New("SUPABASE_JWT_SECRET is required")
	}

	switch c.DispatchDriver {
	case "log":
		if c.IsProduction() {
			return errors.New("DISPATCH_DRIVER=log does not send anything and is not allowed in production")
		}
	case "pica":
		if c.PicaSecretKey == "" {
			return errors.New("PICA_SECRET_KEY is required when DISPATCH_DRIVER=pica")
		}
		if c.DispatchRecipient == "" {
			return errors.New("DISPATCH_RECIPIENT is required when DISPATCH_DRIVER=pica")
		}
	case "smtp":
		if c.SMTPHost == "" || c.SMTPFrom == "" {
			return errors.New("SMTP_HOST and SMTP_FROM are required when DISPATCH_DRIVER=smtp")
		}
		if c.DispatchRecipient == "" {
			return errors.New("DISPATCH_RECIPIENT is required when DISPATCH_DRIVER=smtp")
		}
	default:
		return fmt.Errorf("unknown DISPATCH_DRIVER %q", c.DispatchDriver)
	}

	switch c.StorageDriver {
	case "local":
	case "supabase":
		if c.SupabaseURL == "" || c.SupabaseServiceKey == "" {
			return errors.New("SUPABASE_URL and SUPABASE_SERVICE_KEY are required when STORAGE_DRIVER=supabase")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	if c.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}
	if c.GenerateRatePerMinute <= 0 {
		return errors.New("GENERATE_RATE_PER_MINUTE must be positive")
	}
	if c.SchedulerInterval <= 0 {
		return errors.New("SCHEDULER_INTERVAL must be positive")
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
