// Package config loads the identity service settings from the environment.
package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
)

// EnvPrefix is prepended to every variable name.
const EnvPrefix = "IDENTITY_"

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the service settings.
type Config struct {
	HTTPAddr             string        `env:"HTTP_ADDR"              envDefault:":8572"`
	MetricsAddr          string        `env:"METRICS_ADDR"`
	DBDriver             string        `env:"DB_DRIVER"              envDefault:"sqlite"`
	DBDSN                string        `env:"DB_DSN"                 envDefault:"file:identity.db?cache=shared"`
	DBDebug              bool          `env:"DB_DEBUG"`
	DBAutoMigrate        bool          `env:"DB_AUTO_MIGRATE"        envDefault:"true"`
	DBPingTimeout        time.Duration `env:"DB_PING_TIMEOUT"        envDefault:"5s"`
	BcryptCost           int           `env:"BCRYPT_COST"            envDefault:"10"`
	RefreshProfile       bool          `env:"REFRESH_PROFILE"`
	RequireEmailVerified bool          `env:"REQUIRE_EMAIL_VERIFIED" envDefault:"true"`
	Debug                bool          `env:"DEBUG"`
}

// Load parses the IDENTITY_ prefixed environment.
func Load() (Config, error) {
	return LoadWith(env.Options{})
}

// LoadWith parses the environment using opts. Prefix defaults to EnvPrefix.
func LoadWith(opts env.Options) (Config, error) {
	if opts.Prefix == "" {
		opts.Prefix = EnvPrefix
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, errors.Wrap(err, errors.CategoryValidation, "failed to parse environment")
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))

	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrap(err, errors.CategoryValidation, "invalid configuration")
	}
	return cfg, nil
}

// Validate implements validation.Validatable.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.HTTPAddr, validation.Required),
		validation.Field(&c.DBDriver, validation.Required, validation.In(DriverSQLite, DriverPostgres)),
		validation.Field(&c.DBDSN, validation.Required),
		validation.Field(&c.DBPingTimeout, validation.Min(time.Millisecond)),
		validation.Field(&c.BcryptCost, validation.Min(4), validation.Max(31)),
	)
}

// Persistence exposes the database settings through the getters the
// persistence client reads. Query logging stays under DBDebug.
func (c Config) Persistence() Persistence {
	return Persistence{
		Debug:       c.Debug,
		Driver:      c.DBDriver,
		DSN:         c.DBDSN,
		PingTimeout: c.DBPingTimeout,
	}
}

// Persistence is the database section of Config.
type Persistence struct {
	Debug       bool
	Driver      string
	DSN         string
	PingTimeout time.Duration
}

func (p Persistence) GetDebug() bool {
	return p.Debug
}

func (p Persistence) GetDriver() string {
	return p.Driver
}

func (p Persistence) GetServer() string {
	return p.DSN
}

func (p Persistence) GetPingTimeout() time.Duration {
	return p.PingTimeout
}

func (p Persistence) GetOtelIdentifier() string {
	return ""
}
