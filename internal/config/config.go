// Package config loads the runtime configuration from an optional YAML
// file, CARDCRAFTER_* environment variables, and command-line flags, in
// that order of increasing precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	flag "github.com/spf13/pflag"
)

// Config is the runtime configuration for the server.
type Config struct {
	// DB is the path to the SQLite database file.
	DB string `koanf:"db" validate:"required"`
	// Addr is the HTTP listen address.
	Addr string `koanf:"addr" validate:"required,hostname_port"`
	// ReposDir is where git card sources are checked out.
	ReposDir string `koanf:"repos-dir" validate:"required"`
	// Timezone is an optional IANA zone name for day-boundary
	// statistics; empty means the system's local zone.
	Timezone string `koanf:"timezone"`

	// Location is the resolved Timezone.
	Location *time.Location `koanf:"-" validate:"-"`
}

// Load builds the configuration from the given command-line arguments
// (without the program name).
func Load(args []string) (*Config, error) {
	f := flag.NewFlagSet("cardcrafter", flag.ContinueOnError)
	f.String("config", "", "path to a YAML config file")
	f.String("db", "cardcrafter.db", "path to the SQLite database file")
	f.String("addr", "127.0.0.1:8484", "HTTP listen address")
	f.String("repos-dir", "repos", "checkout directory for git card sources")
	f.String("timezone", "", "IANA time zone for day boundaries (default: system local)")
	if err := f.Parse(args); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if cfgFile, _ := f.GetString("config"); cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", cfgFile, err)
		}
	}

	// CARDCRAFTER_REPOS_DIR maps onto the repos-dir key.
	err := k.Load(env.Provider("CARDCRAFTER_", ".", func(name string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(name, "CARDCRAFTER_")), "_", "-")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg.Location = time.Local
	if cfg.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
		}
		cfg.Location = loc
	}
	return &cfg, nil
}
