package main

import (
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/harmony/pkg/harmony"
)

var (
	encodingName     string
	ranksPath        string
	configFile       string
	logLevel         string
	logFormat        string
	debug            bool
	autoDropAnalysis = true
	serverAddress    = "127.0.0.1:8080"
)

func globalFlags() []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{
			Name:        "encoding",
			Aliases:     []string{"e"},
			Usage:       "encoding name (" + string(harmony.HarmonyGptOss) + ", " + string(harmony.HarmonyGptOssBytes) + ")",
			Value:       string(harmony.HarmonyGptOss),
			Destination: &encodingName,
		},
		&cli.StringFlag{
			Name:        "ranks",
			Usage:       "path or URL of the o200k .tiktoken rank file",
			Sources:     cli.EnvVars("HARMONY_RANKS"),
			Destination: &ranksPath,
		},
		&cli.StringFlag{
			Name:        "config",
			Usage:       "config file (default $XDG_CONFIG_HOME/harmony/config.yaml)",
			Destination: &configFile,
		},
	}, loggingFlags()...)
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func inputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "input",
		Aliases: []string{"i"},
		Usage:   "input file (default stdin)",
		Value:   "-",
	}
}

func roleFlag(usage string) cli.Flag {
	return &cli.StringFlag{
		Name:  "role",
		Usage: usage,
	}
}
