package main

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/harmony/internal/logger"
	"github.com/samcharles93/harmony/internal/reasoning"
	"github.com/samcharles93/harmony/internal/snapshot"
	"github.com/samcharles93/harmony/pkg/harmony"
)

func streamCmd() *cli.Command {
	var (
		saveState   string
		resumeState string
		noEOS       bool
		events      bool
	)

	return &cli.Command{
		Name:  "stream",
		Usage: "Feed tokens one at a time and print content as it is decoded",
		Flags: []cli.Flag{
			inputFlag(),
			roleFlag("role of the first message when its header omits it"),
			&cli.StringFlag{
				Name:        "save-state",
				Usage:       "write the parser state to this file when done (zstd)",
				Destination: &saveState,
			},
			&cli.StringFlag{
				Name:        "resume-state",
				Usage:       "continue from a state file written by --save-state",
				Destination: &resumeState,
			},
			&cli.BoolFlag{
				Name:        "no-eos",
				Usage:       "do not signal end of stream; an open message stays open",
				Destination: &noEOS,
			},
			&cli.BoolFlag{
				Name:        "events",
				Usage:       "print one JSON event per token instead of text",
				Destination: &events,
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
			tokens, err := parseTokens(data)
			if err != nil {
				return err
			}

			var p *harmony.StreamableParser
			if resumeState != "" {
				p, err = snapshot.Resume(enc, resumeState)
				if err != nil {
					return fmt.Errorf("resume %s: %w", resumeState, err)
				}
				log.Debug("parser resumed", "path", resumeState, "state", p.State().String())
			} else {
				role, err := parseRole(cmd.String("role"))
				if err != nil {
					return err
				}
				p = harmony.NewStreamableParser(enc, role)
			}

			out := &streamOutput{
				w:      cmd.Root().Writer,
				events: events,
				pr:     newPrinter(cmd.Root().Writer),
				seen:   p.MessageCount(),
			}
			for i, tok := range tokens {
				if err := p.Process(tok); err != nil {
					return fmt.Errorf("token %d: %w", i, err)
				}
				if err := out.step(p, tok); err != nil {
					return err
				}
			}
			if !noEOS {
				if err := p.ProcessEOS(); err != nil {
					return err
				}
				if err := out.step(p, 0); err != nil {
					return err
				}
			}
			if err := out.finish(); err != nil {
				return err
			}

			if saveState != "" {
				snap := p.Snapshot()
				if err := snapshot.SaveFile(saveState, snap); err != nil {
					return err
				}
				log.Info("parser state saved", "path", saveState, "snapshot", snap.String())
			}
			return nil
		},
	}
}

// streamOutput prints parser progress. In text mode each message gets a
// header line followed by its content as it arrives.
type streamOutput struct {
	w        io.Writer
	events   bool
	pr       *printer
	splitter reasoning.Splitter
	inBody   bool
	seen     int
}

type streamEvent struct {
	Token     uint32                   `json:"token"`
	State     string                   `json:"state"`
	Content   string                   `json:"content,omitempty"`
	Reasoning string                   `json:"reasoning,omitempty"`
	ToolCall  *reasoning.ToolCallDelta `json:"tool_call,omitempty"`
	Delta     string                   `json:"delta,omitempty"`
	Completed *harmony.Message         `json:"completed,omitempty"`
}

func (o *streamOutput) step(p *harmony.StreamableParser, tok uint32) error {
	d := o.splitter.Push(p)
	var completed *harmony.Message
	if n := p.MessageCount(); n > o.seen {
		if last, ok := p.LastMessage(); ok {
			completed = &last
		}
		o.seen = n
	}

	if o.events {
		return writeJSON(o.w, streamEvent{
			Token:     tok,
			State:     p.State().String(),
			Content:   d.Content,
			Reasoning: d.Reasoning,
			ToolCall:  d.ToolCall,
			Delta:     p.LastContentDelta(),
			Completed: completed,
		}, false)
	}

	if p.State() == harmony.StateContent && !o.inBody {
		author, _ := p.CurrentAuthor()
		if _, err := fmt.Fprintln(o.w, o.pr.header(author, p.CurrentRecipient(), p.CurrentChannel(), p.CurrentContentType())); err != nil {
			return err
		}
		o.inBody = true
	}
	if delta := p.LastContentDelta(); delta != "" {
		if _, err := io.WriteString(o.w, delta); err != nil {
			return err
		}
	}
	if completed != nil && o.inBody {
		if _, err := fmt.Fprintln(o.w); err != nil {
			return err
		}
		o.inBody = false
	}
	return nil
}

func (o *streamOutput) finish() error {
	if o.inBody && !o.events {
		_, err := fmt.Fprintln(o.w)
		return err
	}
	return nil
}
