package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/riskcare/risk-server/internal/ensemble"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	GinMode        string   `mapstructure:"GIN_MODE"`
	LogLevel       string   `mapstructure:"LOG_LEVEL"`
	LogFormat      string   `mapstructure:"LOG_FORMAT"`
	EnableDB       bool     `mapstructure:"ENABLE_DB"`
	DatabaseURL    string   `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int      `mapstructure:"RATE_LIMIT_BURST"`
	MaxBodyBytes   int64    `mapstructure:"MAX_BODY_BYTES"`

	EnsembleSeed           int64  `mapstructure:"ENSEMBLE_SEED"`
	EnsembleSamples        int    `mapstructure:"ENSEMBLE_TRAINING_SAMPLES"`
	EnsembleValidationMode string `mapstructure:"ENSEMBLE_VALIDATION_MODE"`
}

var keys = []string{
	"PORT", "GIN_MODE", "LOG_LEVEL", "LOG_FORMAT",
	"ENABLE_DB", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "MAX_BODY_BYTES",
	"ENSEMBLE_SEED", "ENSEMBLE_TRAINING_SAMPLES", "ENSEMBLE_VALIDATION_MODE",
}

// Load reads .env (if present) into the process environment and then
// resolves every setting from the environment with defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("ENABLE_DB", false)
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("MAX_BODY_BYTES", 1<<20)
	v.SetDefault("ENSEMBLE_SEED", 42)
	v.SetDefault("ENSEMBLE_TRAINING_SAMPLES", 3000)
	v.SetDefault("ENSEMBLE_VALIDATION_MODE", string(ensemble.Lenient))

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// viper leaves comma lists from the environment as one string
	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.EnableDB && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required when ENABLE_DB=true")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.EnsembleSamples < 100 {
		return fmt.Errorf("ENSEMBLE_TRAINING_SAMPLES must be at least 100, got %d", c.EnsembleSamples)
	}
	if _, err := ensemble.ParseValidationMode(c.EnsembleValidationMode); err != nil {
		return fmt.Errorf("ENSEMBLE_VALIDATION_MODE: %w", err)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative")
	}
	return nil
}

// Training returns the ensemble settings. Call after Validate.
func (c *Config) Training() ensemble.TrainingConfig {
	mode, _ := ensemble.ParseValidationMode(c.EnsembleValidationMode)
	return ensemble.TrainingConfig{
		Seed:    c.EnsembleSeed,
		Samples: c.EnsembleSamples,
		Mode:    mode,
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
