package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/samcharles93/harmony/internal/logger"
)

// Config is the harmony configuration file
// ($XDG_CONFIG_HOME/harmony/config.yaml). Flags given on the command line
// take precedence over every field.
type Config struct {
	Encoding         string `yaml:"encoding"`
	RanksPath        string `yaml:"ranks_path"`
	AutoDropAnalysis *bool  `yaml:"auto_drop_analysis"`
	ServerAddress    string `yaml:"server_address"`
	LogLevel         string `yaml:"log_level"`
	LogFormat        string `yaml:"log_format"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "harmony", "config.yaml")
}

// LoadConfig reads the config file at path. A missing file yields a zero
// Config; a malformed one is an error.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// applyConfig copies config values into the global flag variables when the
// corresponding flag was not set explicitly.
func applyConfig(cmd *cli.Command, cfg Config) {
	if cfg.Encoding != "" && !cmd.IsSet("encoding") {
		encodingName = cfg.Encoding
	}
	if cfg.RanksPath != "" && !cmd.IsSet("ranks") {
		ranksPath = cfg.RanksPath
	}
	if cfg.LogLevel != "" && !cmd.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !cmd.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
	if cfg.AutoDropAnalysis != nil {
		autoDropAnalysis = *cfg.AutoDropAnalysis
	}
	if cfg.ServerAddress != "" {
		serverAddress = cfg.ServerAddress
	}
}

// setup loads the config file and installs the logger in the context.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := configFile
	if path == "" {
		path = configPath()
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return ctx, err
	}
	applyConfig(cmd, cfg)

	level := logLevel
	if debug {
		level = "debug"
	}
	format, err := logger.ParseFormat(logFormat)
	if err != nil {
		return ctx, err
	}
	log, err := logger.NewFormat(format, cmd.Root().ErrWriter, logger.ParseLevel(level))
	if err != nil {
		return ctx, err
	}
	if path != "" {
		log.Debug("config resolved", "path", path, "encoding", encodingName)
	}
	return logger.WithContext(ctx, log), nil
}
