package tokenizer

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

var (
	ErrUnknownToken = errors.New("unknown token id")
	ErrInvalidUTF8  = errors.New("decoded bytes are not valid UTF-8")
)

// Tokenizer is a byte-pair vocabulary with a special-token registry. It is
// immutable after construction and safe for concurrent use.
type Tokenizer struct {
	name string
	bpe  *tiktoken.Tiktoken

	decoder      map[uint32]string
	special      map[string]uint32
	specialByID  map[uint32]string
	specialNames []string
}

// New builds a tokenizer from mergeable ranks, special tokens and the
// pre-tokenization pattern.
func New(name string, ranks map[string]int, special map[string]int, pattern string) (*Tokenizer, error) {
	if len(ranks) == 0 {
		return nil, fmt.Errorf("tokenizer %s: empty rank table", name)
	}
	core, err := tiktoken.NewCoreBPE(ranks, special, pattern)
	if err != nil {
		return nil, fmt.Errorf("tokenizer %s: %w", name, err)
	}
	specialSet := make(map[string]any, len(special))
	for text := range special {
		specialSet[text] = true
	}
	bpe := tiktoken.NewTiktoken(core, &tiktoken.Encoding{
		Name:           name,
		PatStr:         pattern,
		MergeableRanks: ranks,
		SpecialTokens:  special,
	}, specialSet)

	t := &Tokenizer{
		name:        name,
		bpe:         bpe,
		decoder:     make(map[uint32]string, len(ranks)),
		special:     make(map[string]uint32, len(special)),
		specialByID: make(map[uint32]string, len(special)),
	}
	for piece, rank := range ranks {
		t.decoder[uint32(rank)] = piece
	}
	for text, id := range special {
		if _, clash := t.decoder[uint32(id)]; clash {
			return nil, fmt.Errorf("tokenizer %s: special token %s reuses rank %d", name, text, id)
		}
		t.special[text] = uint32(id)
		t.specialByID[uint32(id)] = text
	}
	t.specialNames = slices.Sorted(maps.Keys(t.special))
	return t, nil
}

func (t *Tokenizer) Name() string {
	return t.name
}

// Encode tokenizes text. Special-token text is emitted as a special token
// only when listed in allowedSpecial; otherwise it is encoded as ordinary
// text.
func (t *Tokenizer) Encode(text string, allowedSpecial []string) []uint32 {
	ids := t.bpe.Encode(text, allowedSpecial, nil)
	out := make([]uint32, len(ids))
	for i, id := range ids {
		out[i] = uint32(id)
	}
	return out
}

// DecodeBytes returns the bytes of tokens. Special tokens decode to their text.
func (t *Tokenizer) DecodeBytes(tokens []uint32) ([]byte, error) {
	out := make([]byte, 0, len(tokens)*4)
	for _, id := range tokens {
		if piece, ok := t.decoder[id]; ok {
			out = append(out, piece...)
			continue
		}
		if text, ok := t.specialByID[id]; ok {
			out = append(out, text...)
			continue
		}
		return nil, fmt.Errorf("%w: %d", ErrUnknownToken, id)
	}
	return out, nil
}

func (t *Tokenizer) DecodeUTF8(tokens []uint32) (string, error) {
	b, err := t.DecodeBytes(tokens)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", ErrInvalidUTF8
	}
	return string(b), nil
}

// SpecialTokens returns the special token texts in sorted order.
func (t *Tokenizer) SpecialTokens() []string {
	return slices.Clone(t.specialNames)
}

func (t *Tokenizer) IsSpecialToken(token uint32) bool {
	_, ok := t.specialByID[token]
	return ok
}

func (t *Tokenizer) SpecialTokenID(text string) (uint32, bool) {
	id, ok := t.special[text]
	return id, ok
}

// TokenString returns the text of a token for display. Pieces that are not
// valid UTF-8 on their own are quoted.
func (t *Tokenizer) TokenString(token uint32) (string, bool) {
	if text, ok := t.specialByID[token]; ok {
		return text, true
	}
	piece, ok := t.decoder[token]
	if !ok {
		return "", false
	}
	if !utf8.ValidString(piece) {
		return fmt.Sprintf("%q", piece), true
	}
	return piece, true
}

// VocabSize is the number of ordinary plus special tokens.
func (t *Tokenizer) VocabSize() int {
	return len(t.decoder) + len(t.specialByID)
}
