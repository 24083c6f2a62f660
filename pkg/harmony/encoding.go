package harmony

import (
	"fmt"

	"github.com/samcharles93/harmony/internal/tokenizer"
)

// EncodingName selects a built-in encoding for LoadEncoding.
type EncodingName string

const (
	// HarmonyGptOss is the gpt-oss encoding over the o200k_harmony vocabulary.
	HarmonyGptOss EncodingName = "HarmonyGptOss"
	// HarmonyGptOssBytes uses the same special tokens over a byte-level
	// vocabulary that needs no rank file.
	HarmonyGptOssBytes EncodingName = "HarmonyGptOssBytes"
)

// ParseEncodingName resolves s to a built-in encoding name.
func ParseEncodingName(s string) (EncodingName, error) {
	switch EncodingName(s) {
	case HarmonyGptOss, HarmonyGptOssBytes:
		return EncodingName(s), nil
	}
	return "", fmt.Errorf("unknown encoding name %q", s)
}

type loadOptions struct {
	ranksPath string
}

type LoadOption func(*loadOptions)

// WithRanksPath points HarmonyGptOss at a .tiktoken rank file or URL
// instead of the public o200k_base download.
func WithRanksPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.ranksPath = path
	}
}

// LoadEncoding builds a built-in encoding.
func LoadEncoding(name EncodingName, opts ...LoadOption) (*Encoding, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}
	switch name {
	case HarmonyGptOss:
		vocab, err := tokenizer.LoadO200kHarmony(o.ranksPath)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		return NewEncoding(string(name), vocab), nil
	case HarmonyGptOssBytes:
		vocab, err := tokenizer.NewByteLevel()
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		return NewEncoding(string(name), vocab), nil
	default:
		return nil, fmt.Errorf("unknown encoding name %q", name)
	}
}

// Encoding renders and parses conversations for one vocabulary. It is
// immutable and safe for concurrent use.
type Encoding struct {
	name  string
	vocab Vocabulary

	tokenText map[FormattingToken]string
	tokenIDs  map[FormattingToken]uint32
	byID      map[uint32]FormattingToken

	stopTokens        []FormattingToken
	stopTokensActions []FormattingToken
}

// NewEncoding wraps vocab with the gpt-oss harmony formatting tokens.
// Formatting tokens missing from vocab are reported when first needed.
func NewEncoding(name string, vocab Vocabulary) *Encoding {
	e := &Encoding{
		name:      name,
		vocab:     vocab,
		tokenText: gptOssFormattingTokens,
		tokenIDs:  make(map[FormattingToken]uint32, len(gptOssFormattingTokens)),
		byID:      make(map[uint32]FormattingToken, len(gptOssFormattingTokens)),
		stopTokens: []FormattingToken{
			FormattingEndMessageDoneSampling,
			FormattingEndMessageAssistantToTool,
			FormattingEndMessage,
		},
		stopTokensActions: []FormattingToken{
			FormattingEndMessageDoneSampling,
			FormattingEndMessageAssistantToTool,
		},
	}
	for tok, text := range e.tokenText {
		if id, ok := vocab.SpecialTokenID(text); ok {
			e.tokenIDs[tok] = id
			e.byID[id] = tok
		}
	}
	return e
}

func (e *Encoding) Name() string {
	return e.name
}

func (e *Encoding) Vocabulary() Vocabulary {
	return e.vocab
}

// TokenID returns the vocabulary id of a formatting token.
func (e *Encoding) TokenID(t FormattingToken) (uint32, error) {
	id, ok := e.tokenIDs[t]
	if !ok {
		text := e.tokenText[t]
		if text == "" {
			text = t.String()
		}
		return 0, &ConfigError{Token: text}
	}
	return id, nil
}

// TokenText returns the vocabulary text of a formatting token.
func (e *Encoding) TokenText(t FormattingToken) string {
	return e.tokenText[t]
}

func (e *Encoding) formattingToken(id uint32) (FormattingToken, bool) {
	t, ok := e.byID[id]
	return t, ok
}

// Encode tokenizes text with no special tokens allowed.
func (e *Encoding) Encode(text string) []uint32 {
	return e.vocab.Encode(text, nil)
}

// EncodeWithSpecial tokenizes text, emitting the listed special tokens as control tokens.
func (e *Encoding) EncodeWithSpecial(text string, allowedSpecial []string) []uint32 {
	return e.vocab.Encode(text, allowedSpecial)
}

func (e *Encoding) DecodeUTF8(tokens []uint32) (string, error) {
	return e.vocab.DecodeUTF8(tokens)
}

func (e *Encoding) DecodeBytes(tokens []uint32) ([]byte, error) {
	return e.vocab.DecodeBytes(tokens)
}

func (e *Encoding) SpecialTokens() []string {
	return e.vocab.SpecialTokens()
}

func (e *Encoding) IsSpecialToken(token uint32) bool {
	return e.vocab.IsSpecialToken(token)
}
