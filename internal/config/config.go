package config // package config loads application configuration from environment variables

import (
    "errors"
    "fmt"
    "time"

    "github.com/caarlos0/env/v11"
    "github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Nested structs group
// the settings of one collaborator; every field maps to one environment
// variable.
type Config struct {
    Env          string        `env:"APP_ENV" envDefault:"dev"`                            // application environment (dev, prod)
    Port         string        `env:"APP_PORT" envDefault:"8080"`                          // HTTP port to listen on
    JWTSecret    string        `env:"JWT_SECRET"`                                          // secret used to verify JWTs
    RabbitMQURL  string        `env:"RABBITMQ_URL"`                                        // broker for lounger events; empty disables
    AuditLogPath string        `env:"AUDIT_LOG_PATH" envDefault:"logs/lounger-events.log"` // audit consumer output
    ShutdownWait time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`                   // graceful HTTP shutdown budget

    DB        DBConfig
    Booking   BookingConfig
    Redis     RedisConfig
    Cache     CacheConfig
    RateLimit RateLimitConfig
}

// DBConfig points at the MySQL database holding loungers and reservations.
type DBConfig struct {
    User            string        `env:"DB_USER" envDefault:"root"`
    Pass            string        `env:"DB_PASS"`
    Host            string        `env:"DB_HOST" envDefault:"localhost"`
    Port            string        `env:"DB_PORT" envDefault:"3306"`
    Name            string        `env:"DB_NAME" envDefault:"beach"`
    MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
    ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// BookingConfig tunes the booking rules.
type BookingConfig struct {
    OpenHour     int           `env:"BEACH_OPEN_HOUR" envDefault:"8"`
    CloseHour    int           `env:"BEACH_CLOSE_HOUR" envDefault:"20"`
    CancelCutoff time.Duration `env:"CANCEL_CUTOFF" envDefault:"2h"`
    Timeout      time.Duration `env:"BOOKING_TIMEOUT" envDefault:"5s"`
}

// Load reads an optional .env file and then the environment.  Values
// already present in the environment win over the file.
func Load() (Config, error) {
    _ = godotenv.Load() // a missing .env is fine

    cfg, err := env.ParseAs[Config]()
    if err != nil {
        return Config{}, fmt.Errorf("parse env: %w", err)
    }
    cfg.RateLimit = cfg.RateLimit.normalize()
    if err := cfg.Booking.validate(); err != nil {
        return Config{}, err
    }
    return cfg, nil
}

// RequireJWTSecret reports a missing secret.  Only the HTTP server needs
// one, so Load does not enforce it.
func (c Config) RequireJWTSecret() error {
    if c.JWTSecret == "" {
        return errors.New("missing required env var: JWT_SECRET")
    }
    return nil
}

func (b BookingConfig) validate() error {
    if b.OpenHour < 0 || b.CloseHour > 24 || b.CloseHour <= b.OpenHour {
        return fmt.Errorf("invalid operating window %d..%d", b.OpenHour, b.CloseHour)
    }
    if b.CancelCutoff < 0 {
        return fmt.Errorf("invalid CANCEL_CUTOFF %s", b.CancelCutoff)
    }
    return nil
}
