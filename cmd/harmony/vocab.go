package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/harmony/pkg/harmony"
)

func encodeCmd() *cli.Command {
	var (
		allowSpecial bool
		output       string
	)
	return &cli.Command{
		Name:      "encode",
		Usage:     "Encode text to token ids",
		ArgsUsage: "[text]",
		Flags: []cli.Flag{
			inputFlag(),
			&cli.BoolFlag{
				Name:        "allow-special",
				Usage:       "encode special token text as control tokens",
				Destination: &allowSpecial,
			},
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "ids (JSON array) or table",
				Value:       "ids",
				Destination: &output,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			enc, err := loadEncoding(ctx)
			if err != nil {
				return err
			}
			text := cmd.Args().First()
			if !cmd.Args().Present() {
				data, err := readInput(cmd)
				if err != nil {
					return err
				}
				text = string(data)
			}
			var allowed []string
			if allowSpecial {
				allowed = enc.SpecialTokens()
			}
			return writeTokens(cmd, enc, enc.EncodeWithSpecial(text, allowed), output)
		},
	}
}

func decodeCmd() *cli.Command {
	var lossy bool
	return &cli.Command{
		Name:  "decode",
		Usage: "Decode token ids to text",
		Flags: []cli.Flag{
			inputFlag(),
			&cli.BoolFlag{
				Name:        "lossy",
				Usage:       "replace invalid UTF-8 instead of failing",
				Destination: &lossy,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			enc, err := loadEncoding(ctx)
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
			var text string
			if lossy {
				b, err := enc.DecodeBytes(tokens)
				if err != nil {
					return err
				}
				text = strings.ToValidUTF8(string(b), "\uFFFD")
			} else if text, err = enc.DecodeUTF8(tokens); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.Root().Writer, text)
			return err
		},
	}
}

func tokensCmd() *cli.Command {
	return &cli.Command{
		Name:  "tokens",
		Usage: "List the special tokens and stop tokens of the encoding",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			enc, err := loadEncoding(ctx)
			if err != nil {
				return err
			}
			stop, err := enc.StopTokens()
			if err != nil {
				return err
			}
			actions, err := enc.StopTokensForAssistantActions()
			if err != nil {
				return err
			}

			pr := newPrinter(cmd.Root().Writer)
			ids := make([]uint32, 0, len(enc.SpecialTokens()))
			for _, name := range enc.SpecialTokens() {
				if id, ok := enc.Vocabulary().SpecialTokenID(name); ok && !isReserved(name) {
					ids = append(ids, id)
				}
			}
			slices.Sort(ids)
			if _, err := fmt.Fprintln(pr.w, pr.role.Render("special tokens")); err != nil {
				return err
			}
			if err := pr.tokens(enc, ids); err != nil {
				return err
			}
			_, err = fmt.Fprintf(pr.w, "%s %v\n%s %v\n",
				pr.role.Render("stop:"), stop,
				pr.role.Render("stop (assistant actions):"), actions)
			return err
		},
	}
}

func isReserved(name string) bool {
	return strings.HasPrefix(name, "<|reserved_")
}

func toolsCmd() *cli.Command {
	return &cli.Command{
		Name:      "tools",
		Usage:     "Print a built-in tool namespace (browser, python) as JSON",
		ArgsUsage: "<namespace>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if !cmd.Args().Present() {
				return fmt.Errorf("tools: namespace is required")
			}
			ns, err := harmony.ToolNamespace(cmd.Args().First())
			if err != nil {
				return err
			}
			return writeJSON(cmd.Root().Writer, ns, true)
		},
	}
}
