package harmony

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

// ParserState is the position of a StreamableParser in the message grammar.
type ParserState int

const (
	// StateExpectStart waits for <|start|>.
	StateExpectStart ParserState = iota
	// StateHeader collects role, recipient, channel and content type up to <|message|>.
	StateHeader
	// StateContent collects content until a stop token.
	StateContent
	// StateFinished is reached only through ProcessEOS.
	StateFinished
)

var parserStateNames = [...]string{"ExpectStart", "Header", "Content", "Finished"}

func (s ParserState) String() string {
	if s < 0 || int(s) >= len(parserStateNames) {
		return fmt.Sprintf("ParserState(%d)", int(s))
	}
	return parserStateNames[s]
}

func (s ParserState) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(parserStateNames) {
		return nil, fmt.Errorf("invalid parser state %d", int(s))
	}
	return []byte(parserStateNames[s]), nil
}

func (s *ParserState) UnmarshalText(b []byte) error {
	i := slices.Index(parserStateNames[:], string(b))
	if i < 0 {
		return fmt.Errorf("invalid parser state %q", b)
	}
	*s = ParserState(i)
	return nil
}

// StreamableParser rebuilds messages from tokens fed one at a time.
//
// A StreamableParser is not safe for concurrent use. A Process call that
// returns an error leaves the parser as it was before the call, so callers
// may keep feeding tokens.
type StreamableParser struct {
	enc      *Encoding
	nextRole *Role
	state    ParserState

	headerTokens []uint32
	header       messageHeader

	// parts holds the closed content parts of the current message, current
	// the decoded text of the open part and pending the bytes of a UTF-8
	// sequence not yet complete.
	parts   []string
	current strings.Builder
	pending []byte

	messages  []Message
	tokens    []uint32
	lastDelta string
}

// NewStreamableParser returns a parser expecting <|start|>. With a non-nil
// role the parser starts inside the header of a message from that role, as
// when parsing the output of a completion prompt.
func NewStreamableParser(enc *Encoding, role *Role) *StreamableParser {
	p := &StreamableParser{enc: enc, state: StateExpectStart}
	if role != nil {
		r := *role
		p.nextRole = &r
		p.state = StateHeader
	}
	return p
}

// Process feeds one token.
func (p *StreamableParser) Process(token uint32) error {
	var (
		delta string
		err   error
	)
	switch p.state {
	case StateFinished:
		return ErrParserFinished
	case StateExpectStart:
		err = p.processStart(token)
	case StateHeader:
		err = p.processHeader(token)
	case StateContent:
		delta, err = p.processContent(token)
	}
	if err != nil {
		return err
	}
	p.tokens = append(p.tokens, token)
	p.lastDelta = delta
	return nil
}

func (p *StreamableParser) processStart(token uint32) error {
	start, err := p.enc.TokenID(FormattingStart)
	if err != nil {
		return err
	}
	if token != start {
		return &GrammarError{
			Index:    len(p.tokens),
			Token:    token,
			Expected: p.enc.TokenText(FormattingStart),
			Reason:   "token outside of a message",
		}
	}
	p.headerTokens = p.headerTokens[:0]
	p.state = StateHeader
	return nil
}

func (p *StreamableParser) processHeader(token uint32) error {
	idx := len(p.tokens)
	ft, structural := p.enc.formattingToken(token)
	switch {
	case structural && ft == FormattingMessage:
		h, err := p.enc.parseHeader(p.headerTokens, p.nextRole)
		if err != nil {
			return &GrammarError{Index: idx, Token: token, Reason: "invalid message header", Err: err}
		}
		p.header = h
		p.headerTokens = p.headerTokens[:0]
		p.parts = p.parts[:0]
		p.current.Reset()
		p.pending = p.pending[:0]
		p.state = StateContent
		return nil
	case structural && (ft == FormattingChannel || ft == FormattingConstrainedFormat):
	case p.enc.IsSpecialToken(token):
		return &GrammarError{
			Index:    idx,
			Token:    token,
			Expected: p.enc.TokenText(FormattingMessage),
			Reason:   "unexpected special token in message header",
		}
	default:
		if _, err := p.enc.DecodeBytes([]uint32{token}); err != nil {
			return &EncodingError{Index: idx, Token: token, Reason: err.Error()}
		}
	}
	p.headerTokens = append(p.headerTokens, token)
	return nil
}

func (p *StreamableParser) processContent(token uint32) (string, error) {
	idx := len(p.tokens)
	ft, structural := p.enc.formattingToken(token)
	switch {
	case p.enc.isStopToken(token):
		if len(p.pending) > 0 {
			return "", &EncodingError{Index: idx, Token: token, Reason: "message ended inside a UTF-8 sequence"}
		}
		p.finishMessage(p.current.String())
		return "", nil
	case structural && ft == FormattingMessage:
		if len(p.pending) > 0 {
			return "", &EncodingError{Index: idx, Token: token, Reason: "content part ended inside a UTF-8 sequence"}
		}
		p.parts = append(p.parts, p.current.String())
		p.current.Reset()
		return "", nil
	case p.enc.IsSpecialToken(token):
		return "", &GrammarError{
			Index:    idx,
			Token:    token,
			Expected: "content or a stop token",
			Reason:   "unexpected special token in message content",
		}
	}

	b, err := p.enc.DecodeBytes([]uint32{token})
	if err != nil {
		return "", &EncodingError{Index: idx, Token: token, Reason: err.Error()}
	}
	buf := append(slices.Clone(p.pending), b...)
	n, ok := completeUTF8Prefix(buf)
	if !ok {
		return "", &EncodingError{Index: idx, Token: token, Reason: "invalid UTF-8 in message content"}
	}
	delta := string(buf[:n])
	p.current.WriteString(delta)
	p.pending = buf[n:]
	return delta, nil
}

// finishMessage closes the open part with text and appends the message.
func (p *StreamableParser) finishMessage(text string) {
	parts := append(p.parts, text)
	content := make([]Content, len(parts))
	for i, s := range parts {
		content[i] = TextContent{Text: s}
	}
	p.messages = append(p.messages, Message{
		Author:      p.header.Author,
		Recipient:   p.header.Recipient,
		Channel:     p.header.Channel,
		ContentType: p.header.ContentType,
		Content:     content,
	})
	p.header = messageHeader{}
	p.parts = nil
	p.current.Reset()
	p.pending = nil
	p.nextRole = nil
	p.state = StateExpectStart
}

// ProcessEOS signals the end of the token stream. A message in its content
// is closed with whatever text has arrived; an undecodable byte tail becomes
// U+FFFD. A message still in its header is discarded.
func (p *StreamableParser) ProcessEOS() error {
	switch p.state {
	case StateFinished:
		return ErrParserFinished
	case StateContent:
		tail := strings.ToValidUTF8(string(p.pending), string(utf8.RuneError))
		p.finishMessage(p.current.String() + tail)
		p.lastDelta = tail
	default:
		p.headerTokens = nil
		p.lastDelta = ""
	}
	p.state = StateFinished
	return nil
}

// completeUTF8Prefix returns the length of the longest prefix of b made of
// whole UTF-8 characters. ok is false when b holds bytes that can never be
// valid UTF-8; an incomplete but possibly valid tail is not an error.
func completeUTF8Prefix(b []byte) (n int, ok bool) {
	for n < len(b) {
		r, size := utf8.DecodeRune(b[n:])
		if r == utf8.RuneError && size <= 1 {
			if !utf8.FullRune(b[n:]) {
				return n, true
			}
			return n, false
		}
		n += size
	}
	return n, true
}

func (p *StreamableParser) State() ParserState {
	return p.state
}

// Messages returns the completed messages.
func (p *StreamableParser) Messages() []Message {
	return cloneMessages(p.messages)
}

// MessageCount returns the number of completed messages without copying
// them.
func (p *StreamableParser) MessageCount() int {
	return len(p.messages)
}

// LastMessage returns a copy of the most recently completed message.
func (p *StreamableParser) LastMessage() (Message, bool) {
	if len(p.messages) == 0 {
		return Message{}, false
	}
	return p.messages[len(p.messages)-1].clone(), true
}

// Tokens returns every token accepted so far.
func (p *StreamableParser) Tokens() []uint32 {
	return slices.Clone(p.tokens)
}

// CurrentRole returns the role of the message being parsed, if known.
func (p *StreamableParser) CurrentRole() (Role, bool) {
	switch {
	case p.state == StateContent:
		return p.header.Author.Role, true
	case p.state == StateHeader && p.nextRole != nil:
		return *p.nextRole, true
	}
	return "", false
}

// CurrentAuthor returns the author of the message in its content.
func (p *StreamableParser) CurrentAuthor() (Author, bool) {
	if p.state != StateContent {
		return Author{}, false
	}
	return p.header.Author, true
}

func (p *StreamableParser) CurrentRecipient() string {
	if p.state != StateContent {
		return ""
	}
	return p.header.Recipient
}

func (p *StreamableParser) CurrentChannel() string {
	if p.state != StateContent {
		return ""
	}
	return p.header.Channel
}

func (p *StreamableParser) CurrentContentType() string {
	if p.state != StateContent {
		return ""
	}
	return p.header.ContentType
}

// CurrentContent returns the decoded text of the message being parsed,
// every part concatenated. Bytes of an incomplete character are excluded.
func (p *StreamableParser) CurrentContent() string {
	if p.state != StateContent {
		return ""
	}
	return strings.Join(p.parts, "") + p.current.String()
}

// LastContentDelta returns the text decoded by the most recent successful
// Process or ProcessEOS call, or "" when that call produced none. A failed
// Process call leaves the parser unchanged, so it does not reset the delta.
func (p *StreamableParser) LastContentDelta() string {
	return p.lastDelta
}

// ParseMessagesFromCompletionTokens parses a whole token sequence. role
// is the author of the first message when its header omits the role.
func (e *Encoding) ParseMessagesFromCompletionTokens(tokens []uint32, role *Role) ([]Message, error) {
	p := NewStreamableParser(e, role)
	for _, t := range tokens {
		if err := p.Process(t); err != nil {
			return nil, err
		}
	}
	if err := p.ProcessEOS(); err != nil {
		return nil, err
	}
	return p.messages, nil
}
