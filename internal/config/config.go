// Package config loads application settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// DefaultJWTSecret is used when JWT_SECRET is unset. It is only fit for
// local development.
const DefaultJWTSecret = "change-me"

// Config holds the application settings.
type Config struct {
	AppPort        string
	DatabaseDriver string
	DatabaseDSN    string
	JWTSecret      string
	TokenTTL       time.Duration
	MediaRoot      string
	MaxUploadBytes int
	RabbitMQURL    string
	LogLevel       string
	TokenRateLimit int
}

// Load reads an optional .env file and then the environment. Values set in
// the environment win over the .env file.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	// A missing .env file is normal outside local development.
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "recipe.db")
	v.SetDefault("JWT_SECRET", DefaultJWTSecret)
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("MEDIA_ROOT", "./media")
	v.SetDefault("MAX_UPLOAD_BYTES", 5<<20)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("TOKEN_RATE_LIMIT", 20)
	v.AutomaticEnv()

	cfg := &Config{
		AppPort:        v.GetString("APP_PORT"),
		DatabaseDriver: v.GetString("DATABASE_DRIVER"),
		DatabaseDSN:    v.GetString("DATABASE_DSN"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		TokenTTL:       v.GetDuration("TOKEN_TTL"),
		MediaRoot:      v.GetString("MEDIA_ROOT"),
		MaxUploadBytes: v.GetInt("MAX_UPLOAD_BYTES"),
		RabbitMQURL:    v.GetString("RABBITMQ_URL"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		TokenRateLimit: v.GetInt("TOKEN_RATE_LIMIT"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must not be empty")
	}
	if cfg.JWTSecret == DefaultJWTSecret {
		log.Warn("JWT_SECRET is not set; tokens are signed with the development default")
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive, got %s", cfg.TokenTTL)
	}
	return cfg, nil
}
