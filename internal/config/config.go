package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`

	SheetWebhookURL     string `env:"SHEET_WEBHOOK_URL"`
	SheetTimeoutSeconds int    `env:"SHEET_TIMEOUT_SECONDS" envDefault:"10"`
	FallbackMemoryLimit int    `env:"FALLBACK_MEMORY_LIMIT" envDefault:"1000"`

	AutosaveIntervalSeconds  int    `env:"AUTOSAVE_INTERVAL_SECONDS" envDefault:"30"`
	SessionTTLMinutes        int    `env:"SESSION_TTL_MINUTES" envDefault:"120"`
	SessionSecret            string `env:"SESSION_SECRET"`
	SessionRateLimit         int    `env:"SESSION_RATE_LIMIT" envDefault:"20"`
	SessionRateWindowMinutes int    `env:"SESSION_RATE_WINDOW_MINUTES" envDefault:"10"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPass     string `env:"SMTP_PASS"`
	SMTPFrom     string `env:"SMTP_FROM"`
	SMTPFromName string `env:"SMTP_FROM_NAME" envDefault:"BLUM"`
	SMTPUseTLS   bool   `env:"SMTP_USE_TLS" envDefault:"false"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// AutosaveInterval devuelve el intervalo del autosave; nunca menor a un segundo.
func (c *Config) AutosaveInterval() time.Duration {
	if c.AutosaveIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.AutosaveIntervalSeconds) * time.Second
}

func (c *Config) SessionTTL() time.Duration {
	if c.SessionTTLMinutes <= 0 {
		return 2 * time.Hour
	}
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func (c *Config) SheetTimeout() time.Duration {
	if c.SheetTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.SheetTimeoutSeconds) * time.Second
}

func (c *Config) SessionRateWindow() time.Duration {
	if c.SessionRateWindowMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(c.SessionRateWindowMinutes) * time.Minute
}
