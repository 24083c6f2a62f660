package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/harmony/internal/logger"
	"github.com/samcharles93/harmony/pkg/harmony"
)

func renderCmd() *cli.Command {
	var (
		mode           string
		nextRole       string
		noDropAnalysis bool
		output         string
	)

	return &cli.Command{
		Name:      "render",
		Usage:     "Render a conversation (JSON) to tokens",
		ArgsUsage: "[--input conversation.json]",
		Flags: []cli.Flag{
			inputFlag(),
			&cli.StringFlag{
				Name:        "mode",
				Usage:       "conversation, completion or training",
				Value:       "conversation",
				Destination: &mode,
			},
			&cli.StringFlag{
				Name:        "next-role",
				Usage:       "role of the turn to prompt in completion mode",
				Value:       string(harmony.RoleAssistant),
				Destination: &nextRole,
			},
			&cli.BoolFlag{
				Name:        "no-drop-analysis",
				Usage:       "keep analysis messages before the final turn",
				Destination: &noDropAnalysis,
			},
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "ids (JSON array), text or table",
				Value:       "ids",
				Destination: &output,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			enc, err := loadEncoding(ctx)
			if err != nil {
				return err
			}
			data, err := readInput(cmd)
			if err != nil {
				return err
			}
			conv, err := parseConversation(data)
			if err != nil {
				return err
			}

			cfg := harmony.RenderConversationConfig{AutoDropAnalysis: autoDropAnalysis && !noDropAnalysis}
			var tokens []uint32
			switch mode {
			case "conversation":
				tokens, err = enc.RenderConversation(conv, &cfg)
			case "completion":
				tokens, err = enc.RenderConversationForCompletion(conv, harmony.Role(nextRole), &cfg)
			case "training":
				tokens, err = enc.RenderConversationForTraining(conv, &cfg)
			default:
				return fmt.Errorf("unknown render mode %q", mode)
			}
			if err != nil {
				return err
			}
			log.Debug("rendered conversation", "mode", mode, "messages", len(conv.Messages), "tokens", len(tokens))

			return writeTokens(cmd, enc, tokens, output)
		},
	}
}

func writeTokens(cmd *cli.Command, enc *harmony.Encoding, tokens []uint32, output string) error {
	w := cmd.Root().Writer
	switch output {
	case "ids", "":
		if tokens == nil {
			tokens = []uint32{}
		}
		return writeJSON(w, tokens, false)
	case "text":
		text, err := enc.DecodeUTF8(tokens)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, text)
		return err
	case "table":
		return newPrinter(w).tokens(enc, tokens)
	default:
		return fmt.Errorf("unknown output %q", output)
	}
}
