package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// App holds runtime configuration derived from env vars.
type App struct {
	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"mysql"`
	DatabaseURL    string `env:"DATABASE_URL"`

	KafkaBrokers List   `env:"KAFKA_BROKERS"`
	KafkaTopic   string `env:"KAFKA_TOPIC" envDefault:"audit-events"`

	APIPort        string `env:"API_PORT" envDefault:"8080"`
	Environment    string `env:"ENVIRONMENT" envDefault:"production"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	CORSOrigins    List   `env:"CORS_ORIGINS" envDefault:"*"`
	TrustedProxies List   `env:"TRUSTED_PROXIES"`

	JWTSecret string `env:"JWT_SECRET"`
	JWTIssuer string `env:"JWT_ISSUER" envDefault:"audittrail"`

	AuditWriteTimeout time.Duration `env:"AUDIT_WRITE_TIMEOUT" envDefault:"5s"`

	RetentionDays     int    `env:"RETENTION_DAYS" envDefault:"0"`
	RetentionSchedule string `env:"RETENTION_SCHEDULE" envDefault:"@daily"`
}

// List is a comma separated env value. Entries are trimmed and blanks dropped.
type List []string

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *List) UnmarshalText(text []byte) error {
	*l = splitList(string(text))
	return nil
}

// String joins the list back with commas.
func (l List) String() string {
	return strings.Join(l, ",")
}

// KafkaEnabled reports whether audit events are mirrored to Kafka.
func (a App) KafkaEnabled() bool {
	return len(a.KafkaBrokers) > 0
}

// AuthEnabled reports whether bearer tokens are validated.
func (a App) AuthEnabled() bool {
	return a.JWTSecret != ""
}

// Validate checks values env parsing cannot.
func (a App) Validate() error {
	if a.AuditWriteTimeout <= 0 {
		return fmt.Errorf("AUDIT_WRITE_TIMEOUT must be positive, got %s", a.AuditWriteTimeout)
	}
	if a.RetentionDays < 0 {
		return fmt.Errorf("RETENTION_DAYS must not be negative, got %d", a.RetentionDays)
	}
	return nil
}

// Load parses the process environment.
func Load() (App, error) {
	return parse(env.Options{})
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (App, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (App, error) {
	var cfg App
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return App{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return App{}, err
	}
	return cfg, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
