package harmony

import (
	"errors"
	"fmt"
)

var (
	ErrGrammar                = errors.New("grammar error")
	ErrUnknownRole            = errors.New("unknown role")
	ErrEncoding               = errors.New("encoding error")
	ErrConfig                 = errors.New("config error")
	ErrMissingStructuralToken = errors.New("missing structural token")
	ErrRender                 = errors.New("render error")
	ErrEmptyNextTurnRole      = errors.New("next turn role is empty")
	ErrParserFinished         = errors.New("parser already received end of stream")
)

// GrammarError reports a malformed or out-of-order token. Index is the
// position the token would have had in the parser's token history.
type GrammarError struct {
	Index    int
	Token    uint32
	Expected string
	Reason   string
	Err      error
}

func (e *GrammarError) Error() string {
	msg := fmt.Sprintf("grammar error at token %d (id %d)", e.Index, e.Token)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Expected != "" {
		msg += "; expected " + e.Expected
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is lets errors.Is match both ErrGrammar and the wrapped cause.
func (e *GrammarError) Is(target error) bool {
	return target == ErrGrammar
}

func (e *GrammarError) Unwrap() error {
	return e.Err
}

// EncodingError reports a token the vocabulary cannot decode, or bytes that
// are not valid UTF-8 text.
type EncodingError struct {
	Index  int
	Token  uint32
	Reason string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding error at token %d (id %d): %s", e.Index, e.Token, e.Reason)
}

func (e *EncodingError) Unwrap() error {
	return ErrEncoding
}

// ConfigError reports a vocabulary that does not define a structural token
// the grammar requires.
type ConfigError struct {
	Token string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: vocabulary does not define %s", e.Token)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

func (e *ConfigError) Unwrap() error {
	return ErrMissingStructuralToken
}

// RenderError reports a message that cannot be rendered. MessageIndex is -1
// when the failure is not tied to a message.
type RenderError struct {
	MessageIndex int
	Reason       string
	Err          error
}

func (e *RenderError) Error() string {
	msg := "render error"
	if e.MessageIndex >= 0 {
		msg += fmt.Sprintf(" in message %d", e.MessageIndex)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RenderError) Is(target error) bool {
	return target == ErrRender
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
