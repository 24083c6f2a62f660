package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/samcharles93/harmony/pkg/harmony"
)

// printer renders messages and tokens for terminals. Styles degrade to
// plain text when w is not a terminal.
type printer struct {
	w         io.Writer
	role      lipgloss.Style
	channel   lipgloss.Style
	recipient lipgloss.Style
	meta      lipgloss.Style
	special   lipgloss.Style
	body      lipgloss.Style
}

func newPrinter(w io.Writer) *printer {
	r := lipgloss.NewRenderer(w)
	return &printer{
		w:         w,
		role:      r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		channel:   r.NewStyle().Foreground(lipgloss.Color("13")),
		recipient: r.NewStyle().Foreground(lipgloss.Color("11")),
		meta:      r.NewStyle().Foreground(lipgloss.Color("8")),
		special:   r.NewStyle().Foreground(lipgloss.Color("10")),
		body:      r.NewStyle().PaddingLeft(2),
	}
}

func (p *printer) header(author harmony.Author, recipient, channel, contentType string) string {
	var b strings.Builder
	b.WriteString(p.role.Render(author.Role.String()))
	if author.Name != "" {
		b.WriteString(p.meta.Render(":" + author.Name))
	}
	if recipient != "" {
		b.WriteString(" " + p.recipient.Render("→ "+recipient))
	}
	if channel != "" {
		b.WriteString(" " + p.channel.Render("["+channel+"]"))
	}
	if contentType != "" {
		b.WriteString(" " + p.meta.Render(contentType))
	}
	return b.String()
}

func (p *printer) messages(msgs []harmony.Message) error {
	for i, m := range msgs {
		if i > 0 {
			if _, err := fmt.Fprintln(p.w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(p.w, p.header(m.Author, m.Recipient, m.Channel, m.ContentType)); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(p.w, p.body.Render(m.Text())); err != nil {
			return err
		}
	}
	return nil
}

// tokens prints one line per token with its id and text; special tokens
// are highlighted.
func (p *printer) tokens(enc *harmony.Encoding, tokens []uint32) error {
	for i, t := range tokens {
		var text string
		if b, err := enc.DecodeBytes([]uint32{t}); err != nil {
			text = p.meta.Render("<invalid>")
		} else if enc.IsSpecialToken(t) {
			text = p.special.Render(string(b))
		} else {
			text = fmt.Sprintf("%q", b)
		}
		if _, err := fmt.Fprintf(p.w, "%s %7d  %s\n", p.meta.Render(fmt.Sprintf("%5d", i)), t, text); err != nil {
			return err
		}
	}
	return nil
}
