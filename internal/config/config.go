package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port               string        `mapstructure:"PORT"`
	Env                string        `mapstructure:"ENV"`
	DatabaseURL        string        `mapstructure:"DATABASE_URL"`
	DBMaxConns         int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns         int32         `mapstructure:"DB_MIN_CONNS"`
	JWTSecret          string        `mapstructure:"JWT_SECRET"`
	AccessTokenTTL     time.Duration `mapstructure:"ACCESS_TOKEN_TTL"`
	RefreshTokenTTL    time.Duration `mapstructure:"REFRESH_TOKEN_TTL"`
	CORSOrigins        []string      `mapstructure:"CORS_ORIGINS"`
	MediaDir           string        `mapstructure:"MEDIA_DIR"`
	InferenceURL       string        `mapstructure:"INFERENCE_URL"`
	InferenceTimeout   time.Duration `mapstructure:"INFERENCE_TIMEOUT"`
	PneumoniaThreshold float64       `mapstructure:"PNEUMONIA_THRESHOLD"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("ACCESS_TOKEN_TTL", "30m")
	v.SetDefault("REFRESH_TOKEN_TTL", "168h")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("MEDIA_DIR", "media/scans")
	v.SetDefault("INFERENCE_TIMEOUT", "30s")
	v.SetDefault("PNEUMONIA_THRESHOLD", 0.75)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("ACCESS_TOKEN_TTL")
	v.BindEnv("REFRESH_TOKEN_TTL")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("MEDIA_DIR")
	v.BindEnv("INFERENCE_URL")
	v.BindEnv("INFERENCE_TIMEOUT")
	v.BindEnv("PNEUMONIA_THRESHOLD")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() && cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-insecure-signing-key"
		log.Println("WARNING: JWT_SECRET not set, using insecure development key")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Outside development
// a real JWT signing secret and an inference endpoint are required so the
// server never starts half-configured.
func (c *Config) Validate() error {
	if !c.IsDev() {
		if c.JWTSecret == "" || c.JWTSecret == "dev-insecure-signing-key" {
			return fmt.Errorf("JWT_SECRET must be set when ENV=%q", c.Env)
		}
		if c.InferenceURL == "" {
			return fmt.Errorf("INFERENCE_URL is required when ENV=%q", c.Env)
		}
	}
	if c.PneumoniaThreshold < 0 || c.PneumoniaThreshold > 1 {
		return fmt.Errorf("PNEUMONIA_THRESHOLD must be between 0 and 1, got %v", c.PneumoniaThreshold)
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive")
	}
	if c.RefreshTokenTTL <= c.AccessTokenTTL {
		return fmt.Errorf("REFRESH_TOKEN_TTL must be longer than ACCESS_TOKEN_TTL")
	}
	return nil
}
