package config

import (
	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration.
type Config struct {
	ServerPort int    `env:"PORT" envDefault:"8080"`
	AppEnv     string `env:"APP_ENV" envDefault:"development"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	DatabasePath string `env:"DATABASE_PATH" envDefault:"./whisperbox.db"`

	// Secret used to sign session tokens.
	JWTSecret string `env:"JWT_SECRET,required,notEmpty"`

	// Public base URL used to build shareable profile links.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	SMTPHost  string `env:"SMTP_HOST"`
	SMTPPort  string `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser  string `env:"SMTP_USER"`
	SMTPPass  string `env:"SMTP_PASS"`
	EmailFrom string `env:"EMAIL_FROM"`

	// Cadence for clearing expired verification codes.
	CodePruneSchedule string `env:"CODE_PRUNE_SCHEDULE" envDefault:"@every 15m"`
}

// Load parses configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether the app runs with production settings.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
