package harmony

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"
)

// SnapshotVersion is the version written by StreamableParser.Snapshot.
const SnapshotVersion = 1

// Snapshot is the complete state of a StreamableParser. Restoring it with
// RestoreStreamableParser yields a parser that behaves exactly like the
// original for every following token.
type Snapshot struct {
	Version      int         `json:"version"`
	State        ParserState `json:"state"`
	NextRole     *Role       `json:"next_role,omitempty"`
	HeaderTokens []uint32    `json:"header_tokens,omitempty"`
	Header       *Message    `json:"header,omitempty"`
	Parts        []string    `json:"parts,omitempty"`
	Content      string      `json:"content,omitempty"`
	Pending      []byte      `json:"pending,omitempty"`
	Messages     []Message   `json:"messages"`
	Tokens       []uint32    `json:"tokens"`
	LastDelta    string      `json:"last_delta,omitempty"`
}

// Snapshot captures the parser state. Header carries the parsed header of
// the message in its content, with no content parts.
func (p *StreamableParser) Snapshot() Snapshot {
	s := Snapshot{
		Version:      SnapshotVersion,
		State:        p.state,
		HeaderTokens: cloneOrNil(p.headerTokens),
		Parts:        cloneOrNil(p.parts),
		Content:      p.current.String(),
		Pending:      cloneOrNil(p.pending),
		Messages:     cloneMessages(p.messages),
		Tokens:       slices.Clone(p.tokens),
		LastDelta:    p.lastDelta,
	}
	if s.Messages == nil {
		s.Messages = []Message{}
	}
	if s.Tokens == nil {
		s.Tokens = []uint32{}
	}
	if p.nextRole != nil {
		r := *p.nextRole
		s.NextRole = &r
	}
	if p.state == StateContent {
		s.Header = &Message{
			Author:      p.header.Author,
			Recipient:   p.header.Recipient,
			Channel:     p.header.Channel,
			ContentType: p.header.ContentType,
		}
	}
	return s
}

func cloneOrNil[S ~[]E, E any](s S) S {
	if len(s) == 0 {
		return nil
	}
	return slices.Clone(s)
}

// StateJSON returns the snapshot as JSON.
func (p *StreamableParser) StateJSON() ([]byte, error) {
	return json.Marshal(p.Snapshot())
}

// RestoreStreamableParser rebuilds a parser from a snapshot taken with the
// same encoding.
func RestoreStreamableParser(enc *Encoding, s Snapshot) (*StreamableParser, error) {
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported parser snapshot version %d", s.Version)
	}
	if s.State < StateExpectStart || s.State > StateFinished {
		return nil, fmt.Errorf("invalid parser state %d in snapshot", int(s.State))
	}
	if len(s.Pending) >= utf8.UTFMax {
		return nil, fmt.Errorf("snapshot holds %d pending bytes", len(s.Pending))
	}
	if n, ok := completeUTF8Prefix(s.Pending); !ok || n != 0 {
		return nil, fmt.Errorf("snapshot pending bytes are not an incomplete UTF-8 sequence")
	}
	if !utf8.ValidString(s.Content) {
		return nil, fmt.Errorf("snapshot content is not valid UTF-8")
	}

	p := &StreamableParser{
		enc:          enc,
		state:        s.State,
		headerTokens: slices.Clone(s.HeaderTokens),
		parts:        slices.Clone(s.Parts),
		pending:      slices.Clone(s.Pending),
		messages:     cloneMessages(s.Messages),
		tokens:       slices.Clone(s.Tokens),
		lastDelta:    s.LastDelta,
	}
	p.current.WriteString(s.Content)
	if s.NextRole != nil {
		r := *s.NextRole
		p.nextRole = &r
	}
	if s.State == StateContent {
		if s.Header == nil {
			return nil, fmt.Errorf("snapshot in content state has no header")
		}
		p.header = messageHeader{
			Author:      s.Header.Author,
			Recipient:   s.Header.Recipient,
			Channel:     s.Header.Channel,
			ContentType: s.Header.ContentType,
		}
	} else if len(s.Parts) > 0 || s.Content != "" || len(s.Pending) > 0 {
		return nil, fmt.Errorf("snapshot in %s state holds message content", s.State)
	}
	return p, nil
}

// String renders a short description of the snapshot for logs.
func (s Snapshot) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "state=%s messages=%d tokens=%d", s.State, len(s.Messages), len(s.Tokens))
	if s.Header != nil {
		fmt.Fprintf(&b, " role=%s", s.Header.Author.Role)
		if s.Header.Channel != "" {
			fmt.Fprintf(&b, " channel=%s", s.Header.Channel)
		}
	}
	return b.String()
}
