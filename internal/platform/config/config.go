package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config junta todos los knobs de entorno del servicio.
// Precedencia de source: DB_DSN (lectura directa) > FMCS_API_BASE_URL
// (API del core) > memoria (dev).
type Config struct {
	Port      string `envconfig:"PORT" default:"8080"`
	AppName   string `envconfig:"APP_NAME" default:"fmcs-audit-history"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	DBDSN string `envconfig:"DB_DSN"`

	APIBaseURL   string        `envconfig:"FMCS_API_BASE_URL"`
	APIKey       string        `envconfig:"FMCS_API_KEY"`
	APIKeyHeader string        `envconfig:"FMCS_API_KEY_HEADER"`
	APITimeout   time.Duration `envconfig:"FMCS_API_TIMEOUT" default:"10s"`
	APIRetries   uint64        `envconfig:"FMCS_API_RETRIES" default:"3"`

	// Tope de la ventana de registros para derivar parents distintos.
	WindowSize int `envconfig:"HISTORY_WINDOW_SIZE" default:"5000"`
}

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
