package main

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/harmony/internal/logger"
	"github.com/samcharles93/harmony/internal/openaiconv"
	"github.com/samcharles93/harmony/pkg/harmony"
)

func parseCmd() *cli.Command {
	var (
		pretty bool
		format string
	)

	return &cli.Command{
		Name:  "parse",
		Usage: "Parse completion tokens into messages",
		Flags: []cli.Flag{
			inputFlag(),
			roleFlag("role of the first message when its header omits it"),
			&cli.BoolFlag{
				Name:        "pretty",
				Aliases:     []string{"p"},
				Usage:       "print messages for reading instead of JSON",
				Destination: &pretty,
			},
			&cli.StringFlag{
				Name:        "format",
				Usage:       "harmony or openai (JSON output only)",
				Value:       "harmony",
				Destination: &format,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			enc, err := loadEncoding(ctx)
			if err != nil {
				return err
			}
			role, err := parseRole(cmd.String("role"))
			if err != nil {
				return err
			}
			data, err := readInput(cmd)
			if err != nil {
				return err
			}
			tokens, err := parseTokens(data)
			if err != nil {
				return err
			}

			msgs, err := enc.ParseMessagesFromCompletionTokens(tokens, role)
			if err != nil {
				return err
			}
			logger.FromContext(ctx).Debug("parsed tokens", "tokens", len(tokens), "messages", len(msgs))

			if msgs == nil {
				msgs = []harmony.Message{}
			}
			w := cmd.Root().Writer
			if pretty {
				return newPrinter(w).messages(msgs)
			}
			switch format {
			case "harmony", "":
				return writeJSON(w, map[string]any{"messages": msgs}, true)
			case "openai":
				return writeJSON(w, []openai.ChatCompletionChoice{openaiconv.ToChoice(msgs)}, true)
			default:
				return fmt.Errorf("unknown format %q", format)
			}
		},
	}
}
