package harmony

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// messageHeader is the decoded form of the tokens between <|start|> and
// <|message|>.
type messageHeader struct {
	Author      Author
	Recipient   string
	Channel     string
	ContentType string
}

// parseHeader decodes header tokens and splits them into author, recipient,
// channel and content type. When role is non-nil the header need not start
// with a role.
//
// Accepted layouts include
//
//	assistant<|channel|>final
//	assistant to=functions.f<|channel|>commentary <|constrain|>json
//	assistant<|channel|>commentary to=functions.f<|constrain|>json
//	functions.f to=assistant<|channel|>commentary
//	user:alice
func (e *Encoding) parseHeader(tokens []uint32, role *Role) (messageHeader, error) {
	var h messageHeader

	text, err := e.vocab.DecodeUTF8(tokens)
	if err != nil {
		return h, err
	}

	if marker := e.TokenText(FormattingChannel); marker != "" {
		if idx := strings.Index(text, marker); idx >= 0 {
			after := text[idx+len(marker):]
			end := strings.IndexFunc(after, func(r rune) bool {
				return unicode.IsSpace(r) || r == '<'
			})
			if end < 0 {
				end = len(after)
			}
			if end == 0 {
				return h, errors.New("channel marker without a channel name")
			}
			h.Channel = after[:end]
			text = text[:idx] + after[end:]
		}
	}

	text = strings.TrimSpace(text)
	if marker := e.TokenText(FormattingConstrainedFormat); marker != "" && strings.Contains(text, marker) {
		text = strings.TrimSpace(strings.ReplaceAll(text, marker, " "+marker))
	}

	parts := strings.Fields(text)

	if role != nil {
		if !role.Valid() {
			return h, fmt.Errorf("%w: %q", ErrUnknownRole, string(*role))
		}
		h.Author.Role = *role
		if len(parts) > 0 && parts[0] == role.String() {
			parts = parts[1:]
		}
	} else {
		if len(parts) == 0 {
			return h, errors.New("message header has no role")
		}
		first := parts[0]
		switch {
		case Role(first).Valid():
			h.Author.Role = Role(first)
		case isNamedRole(first):
			r, name, _ := strings.Cut(first, ":")
			h.Author = Author{Role: Role(r), Name: name}
		case len(parts) > 1 || strings.HasPrefix(first, "to="):
			h.Author = Author{Role: RoleTool, Name: first}
		default:
			return h, fmt.Errorf("%w: %q", ErrUnknownRole, first)
		}
		parts = parts[1:]
	}

	if n := len(parts); n > 0 {
		last := parts[n-1]
		parts = parts[:n-1]
		switch {
		case strings.HasPrefix(last, "to="):
			h.Recipient = strings.TrimPrefix(last, "to=")
		case n == 1:
			h.ContentType = last
		default:
			h.ContentType = last
			h.Recipient = strings.TrimPrefix(parts[len(parts)-1], "to=")
			parts = parts[:len(parts)-1]
		}
	}

	if len(parts) > 0 {
		return h, fmt.Errorf("unexpected text in message header: %q", parts)
	}
	if marker := e.TokenText(FormattingConstrainedFormat); marker != "" && h.ContentType == marker {
		return h, errors.New("constrained format marker without a format")
	}
	return h, nil
}

// isNamedRole reports whether s has the "role:name" form.
func isNamedRole(s string) bool {
	r, name, ok := strings.Cut(s, ":")
	return ok && name != "" && Role(r).Valid()
}
