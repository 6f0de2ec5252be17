// Package config resolves command settings from flags, the environment and
// an optional config file, in that order of priority.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"sigdb/pkg/logging"
	"sigdb/pkg/primitives"
)

// EnvPrefix prefixes every environment variable that sets a flag:
// --log-level is read from SIGDB_LOG_LEVEL.
const EnvPrefix = "SIGDB"

// Global flag names.
const (
	FlagConfig    = "config"
	FlagDataDir   = "data-dir"
	FlagLogLevel  = "log-level"
	FlagLogFormat = "log-format"
	FlagLogFile   = "log-file"
)

// Config holds the settings shared by every command.
type Config struct {
	File      string
	DataDir   string
	LogLevel  string
	LogFormat string
	LogFile   string
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	return &Config{
		DataDir:   ".",
		LogLevel:  string(logging.LevelWarn),
		LogFormat: "console",
	}
}

// RegisterFlags binds c's fields to flags on fs. Flag defaults are the
// current field values.
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.File, FlagConfig, "c", c.File, "Configuration file to read from (toml, yaml or json).")
	fs.StringVarP(&c.DataDir, FlagDataDir, "d", c.DataDir, "Directory holding relation files.")
	fs.StringVar(&c.LogLevel, FlagLogLevel, c.LogLevel, "Log level: debug, info, warn or error.")
	fs.StringVar(&c.LogFormat, FlagLogFormat, c.LogFormat, "Log format: console or json.")
	fs.StringVar(&c.LogFile, FlagLogFile, c.LogFile, "Append logs to this file instead of stderr.")
}

// Logging converts the log settings for logging.Init.
func (c *Config) Logging() logging.Config {
	return logging.Config{
		Level:      logging.ParseLevel(c.LogLevel),
		OutputPath: c.LogFile,
		Format:     strings.ToLower(c.LogFormat),
	}
}

// Relation resolves a relation name against the data directory. Names that
// are already paths are left alone.
func (c *Config) Relation(name string) primitives.Filepath {
	if filepath.IsAbs(name) || strings.ContainsRune(name, filepath.Separator) || c.DataDir == "" {
		return primitives.Filepath(name)
	}
	return primitives.Filepath(filepath.Join(c.DataDir, name))
}

// Apply takes flags as the definition of every option and their defaults,
// then fills each flag not set on the command line from the environment or,
// failing that, from the config file named by the "config" flag.
//
// Environment variables are the flag names upper-cased, with dashes replaced
// by underscores and prefixed with EnvPrefix. Config file keys are the flag
// names; keys matching no flag of the running command are ignored so one file
// can serve every command.
func Apply(v *viper.Viper, flags *pflag.FlagSet) error {
	if err := v.BindPFlags(flags); err != nil {
		return err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if c := v.GetString(FlagConfig); c != "" {
		v.SetConfigFile(c)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading configuration file '%s': %v", c, err)
		}
	}

	var flagErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if flagErr != nil || f.Changed {
			return
		}
		var value string
		if f.Value.Type() == "stringSlice" {
			value = strings.Join(v.GetStringSlice(f.Name), ",")
		} else {
			value = v.GetString(f.Name)
		}
		if err := f.Value.Set(value); err != nil {
			flagErr = fmt.Errorf("invalid value %q for %s: %v", value, f.Name, err)
		}
	})
	return flagErr
}
