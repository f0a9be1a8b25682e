package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio de identidad.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	// PublicBaseURL es la URL externa del API; se usa para el redirect de OAuth.
	PublicBaseURL string   `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	CORSOrigins   []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	RunMigrations bool     `env:"RUN_MIGRATIONS" envDefault:"true"`

	JWTSecret            string `env:"JWT_SECRET"`
	JWTAccessTTLMinutes  int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"15"`
	JWTRefreshTTLMinutes int    `env:"JWT_REFRESH_TTL_MINUTES" envDefault:"10080"`

	GoogleClientID     string        `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string        `env:"GOOGLE_CLIENT_SECRET"`
	OAuthStateTTL      time.Duration `env:"OAUTH_STATE_TTL" envDefault:"10m"`
	OAuthHandoffTTL    time.Duration `env:"OAUTH_HANDOFF_TTL" envDefault:"2m"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPass     string `env:"SMTP_PASS"`
	SMTPFrom     string `env:"SMTP_FROM"`
	SMTPFromName string `env:"SMTP_FROM_NAME" envDefault:"Majji"`
	SMTPUseTLS   bool   `env:"SMTP_USE_TLS" envDefault:"false"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

// OAuthRedirectURL arma la URL de callback registrada en el proveedor.
func (c *Config) OAuthRedirectURL(provider string) string {
	return strings.TrimRight(c.PublicBaseURL, "/") + "/auth/oauth/" + provider + "/callback"
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ClientConfig es la configuración del cliente de la tienda (cmd/storefront).
type ClientConfig struct {
	APIURL              string        `env:"STOREFRONT_API_URL" envDefault:"http://localhost:8080"`
	HTTPTimeout         time.Duration `env:"STOREFRONT_HTTP_TIMEOUT" envDefault:"10s"`
	OAuthPollInterval   time.Duration `env:"STOREFRONT_OAUTH_POLL_INTERVAL" envDefault:"2s"`
	OAuthHandoffTimeout time.Duration `env:"STOREFRONT_OAUTH_TIMEOUT" envDefault:"5m"`
	Demo                bool          `env:"STOREFRONT_DEMO" envDefault:"false"`
}

// LoadClientConfig carga la configuración del cliente desde variables de entorno.
func LoadClientConfig() (*ClientConfig, error) {
	var cfg ClientConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
