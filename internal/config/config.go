// Package config resolves connection and quoting settings.
//
// Precedence, highest first: command-line flags, MEDOO_* environment
// variables, the .medoo.yaml config file, defaults. A .env file (and a
// .env.local override) in the working directory is loaded into the
// environment before anything is read.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/maihuoche/Medoo/internal/quote"
	"github.com/maihuoche/Medoo/internal/store"
)

// AppFs is the filesystem config files and .env files are read from.
var AppFs = afero.NewOsFs()

// Config keys. Flag names match.
const (
	KeyDriver  = "driver"
	KeyDSN     = "dsn"
	KeyPrefix  = "prefix"
	KeyQuote   = "quote"
	KeyVerbose = "verbose"
)

// EnvPrefix prefixes environment variables: MEDOO_DSN, MEDOO_PREFIX, ...
const EnvPrefix = "MEDOO"

// Config holds resolved settings.
type Config struct {
	Driver  string
	DSN     string
	Prefix  string
	Quote   quote.Style
	Verbose bool

	// File is the config file that was read, or "" when none was found.
	File string
}

// Options controls where Load looks.
type Options struct {
	// Fs defaults to AppFs.
	Fs afero.Fs

	// Home defaults to the user's home directory.
	Home string

	// File is an explicit config file. It must exist when set.
	File string

	// Flags, when set, are bound to the config keys of the same name.
	// Only flags the user changed override other sources.
	Flags *pflag.FlagSet

	// SkipDotEnv disables .env / .env.local loading.
	SkipDotEnv bool
}

// Load resolves configuration from flags, environment, config file and
// defaults.
func Load(opts Options) (*Config, error) {
	fs := opts.Fs
	if fs == nil {
		fs = AppFs
	}

	home := opts.Home
	if home == "" {
		h, err := homedir.Dir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}
		home = h
	}

	if !opts.SkipDotEnv {
		if err := loadDotEnv(fs); err != nil {
			return nil, err
		}
	}

	v := viper.New()
	v.SetFs(fs)

	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		v.SetConfigName(".medoo")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "medoo"))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault(KeyDriver, store.DriverSQLite)
	v.SetDefault(KeyDSN, "")
	v.SetDefault(KeyPrefix, "")
	v.SetDefault(KeyQuote, string(quote.Backtick))
	v.SetDefault(KeyVerbose, false)

	if opts.Flags != nil {
		for _, key := range []string{KeyDriver, KeyDSN, KeyPrefix, KeyQuote, KeyVerbose} {
			if f := opts.Flags.Lookup(key); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %q: %w", key, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.File != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	style, err := quote.ParseStyle(v.GetString(KeyQuote))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Driver:  v.GetString(KeyDriver),
		DSN:     v.GetString(KeyDSN),
		Prefix:  v.GetString(KeyPrefix),
		Quote:   style,
		Verbose: v.GetBool(KeyVerbose),
		File:    v.ConfigFileUsed(),
	}
	if cfg.DSN == "" {
		cfg.DSN = os.Getenv("DATABASE_URL")
	}
	return cfg, nil
}

// Store returns the connection settings for store.Open.
func (c *Config) Store() store.Config {
	return store.Config{
		Driver: c.Driver,
		DSN:    c.DSN,
		Prefix: c.Prefix,
		Quote:  c.Quote,
	}
}

// Quoter returns the identifier quoter these settings describe.
func (c *Config) Quoter() quote.Quoter {
	return quote.New(c.Quote, c.Prefix)
}
