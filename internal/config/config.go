// Package config loads daemon configuration from SUBSLEUTH_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/subsleuth/subsleuth/common"
	"github.com/subsleuth/subsleuth/internal/reminder"
	"github.com/subsleuth/subsleuth/internal/scheduler"
	"github.com/subsleuth/subsleuth/internal/store"
	"github.com/subsleuth/subsleuth/pkg/sublib"
)

// AppDirName is the directory created under the user config dir.
const AppDirName = "subsleuth"

// Config holds application configuration loaded from environment variables.
type Config struct {
	ConfigDir  string `envconfig:"CONFIG_DIR"`
	Store      string `envconfig:"STORE" default:"sqlite"` // sqlite|file|memory
	Port       int    `envconfig:"PORT" default:"9476"`
	ListenAll  bool   `envconfig:"LISTEN_ALL"`
	Secret     string `envconfig:"RPC_SECRET"`
	RemindAt   string `envconfig:"REMIND_AT" default:"09:00"`
	TZ         string `envconfig:"TZ"` // empty means the host zone
	ResyncCron string `envconfig:"RESYNC_CRON" default:"0 3 * * *"`
	Currency   string `envconfig:"CURRENCY" default:"INR"`
	Locale     string `envconfig:"LOCALE" default:"en-IN"`
	Debug      bool   `envconfig:"DEBUG"`

	TestDelay       time.Duration `envconfig:"TEST_DELAY" default:"1m"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Load reads environment variables into Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(common.EnvPrefix, &cfg); err != nil {
		return cfg, err
	}
	if cfg.ConfigDir == "" {
		cfg.ConfigDir = DefaultConfigDir()
	}
	abs, err := filepath.Abs(cfg.ConfigDir)
	if err != nil {
		return cfg, fmt.Errorf("config dir: %w", err)
	}
	cfg.ConfigDir = abs
	return cfg, cfg.Validate()
}

// DefaultConfigDir is <user config dir>/subsleuth, or ./.subsleuth when the
// platform has no user config dir.
func DefaultConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "." + AppDirName
	}
	return filepath.Join(dir, AppDirName)
}

// Validate checks every field that the daemon would otherwise reject later.
func (c Config) Validate() error {
	var errs []error
	switch c.Store {
	case store.DriverSQLite, store.DriverFile, store.DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE: unknown driver %q", c.Store))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT: %d out of range", c.Port))
	}
	if _, err := reminder.ParseTimeOfDay(c.RemindAt); err != nil {
		errs = append(errs, fmt.Errorf("REMIND_AT: %w", err))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("TZ: %w", err))
	}
	if c.ResyncCron != "" {
		if err := scheduler.ValidateCron(c.ResyncCron, time.Now()); err != nil {
			errs = append(errs, fmt.Errorf("RESYNC_CRON: %w", err))
		}
	}
	if _, err := c.Formatter(); err != nil {
		errs = append(errs, err)
	}
	if c.TestDelay <= 0 {
		errs = append(errs, errors.New("TEST_DELAY: must be positive"))
	}
	return errors.Join(errs...)
}

// Location resolves TZ, defaulting to the host zone.
func (c Config) Location() (*time.Location, error) {
	if c.TZ == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.TZ)
}

// Formatter builds the money formatter for LOCALE and CURRENCY.
func (c Config) Formatter() (*sublib.Formatter, error) {
	return sublib.NewFormatter(c.Locale, c.Currency)
}

// ListenHost is the interface the daemon binds.
func (c Config) ListenHost() string {
	if c.ListenAll {
		return "0.0.0.0"
	}
	return "127.0.0.1"
}

// Addr is the daemon listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.ListenHost(), strconv.Itoa(c.Port))
}

// ClientAddr is the address clients dial.
func (c Config) ClientAddr() string {
	return net.JoinHostPort("127.0.0.1", strconv.Itoa(c.Port))
}

// ReminderOptions maps the config onto reminder.Options. Call Validate first.
func (c Config) ReminderOptions() (reminder.Options, error) {
	loc, err := c.Location()
	if err != nil {
		return reminder.Options{}, err
	}
	at, err := reminder.ParseTimeOfDay(c.RemindAt)
	if err != nil {
		return reminder.Options{}, err
	}
	f, err := c.Formatter()
	if err != nil {
		return reminder.Options{}, err
	}
	return reminder.Options{
		Formatter:  f,
		Location:   loc,
		RemindAt:   at,
		TestDelay:  c.TestDelay,
		ResyncCron: c.ResyncCron,
	}, nil
}
