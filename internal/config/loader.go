package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/KDT2006/roguelobby/internal/protocol"
)

const (
	DefaultBindAddress = "0.0.0.0:7777"
	EnvPrefix          = "ROGUELOBBY"
)

// flag name -> config key
var flagKeys = map[string]string{
	"bind":      "server.bind_address",
	"log-level": "log.level",
	"dungeons":  "dungeons.dir",
}

// NewFlagSet declares the command line flags understood by LoadConfig.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringP("config", "c", "", "config file or directory containing server.yaml")
	fs.StringP("bind", "b", DefaultBindAddress, "address to listen on")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("dungeons", "", "directory of dungeon template files")
	return fs
}

// LoadConfig reads the server configuration. configPath may name a file or a
// directory to search for server.{yaml,toml,json}; a missing file is fine and
// leaves the defaults in place. Flags that were set explicitly win over the
// file and the ROGUELOBBY_* environment.
func LoadConfig(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.bind_address", DefaultBindAddress)
	v.SetDefault("server.max_frame_size", protocol.DefaultMaxFrameSize)
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.max_malformed", 3)
	v.SetDefault("dungeons.dir", "")
	v.SetDefault("dungeons.allow_default", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if configPath == "" {
			configPath, _ = flags.GetString("config")
		}
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if info, err := os.Stat(configPath); err == nil && !info.IsDir() {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("server")
		if configPath != "" {
			v.AddConfigPath(configPath)
		}
		// default config path
		v.AddConfigPath(".")
		v.AddConfigPath("config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// A relative dungeon dir in a config file is relative to that file.
	fromFlag := flags != nil && flags.Changed("dungeons")
	if dir := config.Dungeons.Dir; dir != "" && !filepath.IsAbs(dir) && !fromFlag && v.ConfigFileUsed() != "" {
		config.Dungeons.Dir = filepath.Join(filepath.Dir(v.ConfigFileUsed()), dir)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validateConfig(config *Config) error {
	if _, _, err := net.SplitHostPort(config.Server.BindAddress); err != nil {
		return fmt.Errorf("invalid bind address '%s': %w", config.Server.BindAddress, err)
	}

	if config.Server.MaxFrameSize == 0 {
		return fmt.Errorf("max_frame_size must be positive")
	}

	if config.Server.WriteTimeout < 0 {
		return fmt.Errorf("write_timeout must not be negative")
	}

	if config.Server.MaxMalformed < 1 {
		return fmt.Errorf("max_malformed must be at least 1")
	}

	switch strings.ToLower(config.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format '%s'", config.Log.Format)
	}

	return nil
}
