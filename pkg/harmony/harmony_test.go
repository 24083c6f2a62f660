package harmony

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestEncoding(t *testing.T) *Encoding {
	t.Helper()
	enc, err := LoadEncoding(HarmonyGptOssBytes)
	require.NoError(t, err)
	return enc
}

// special encodes text with every special token allowed, for writing token
// fixtures as strings.
func special(enc *Encoding, text string) []uint32 {
	return enc.EncodeWithSpecial(text, enc.SpecialTokens())
}

func mustToken(t *testing.T, enc *Encoding, ft FormattingToken) uint32 {
	t.Helper()
	id, err := enc.TokenID(ft)
	require.NoError(t, err)
	return id
}

func decode(t *testing.T, enc *Encoding, tokens []uint32) string {
	t.Helper()
	text, err := enc.DecodeUTF8(tokens)
	require.NoError(t, err)
	return text
}

// fakeVocab is a vocabulary with a configurable special-token table and no
// ordinary tokens beyond single bytes.
type fakeVocab struct {
	specials map[string]uint32
}

func (f fakeVocab) Encode(text string, _ []string) []uint32 {
	out := make([]uint32, len(text))
	for i := range len(text) {
		out[i] = uint32(text[i])
	}
	return out
}

func (f fakeVocab) DecodeBytes(tokens []uint32) ([]byte, error) {
	out := make([]byte, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, byte(t))
	}
	return out, nil
}

func (f fakeVocab) DecodeUTF8(tokens []uint32) (string, error) {
	b, err := f.DecodeBytes(tokens)
	return string(b), err
}

func (f fakeVocab) SpecialTokens() []string {
	out := make([]string, 0, len(f.specials))
	for k := range f.specials {
		out = append(out, k)
	}
	return out
}

func (f fakeVocab) IsSpecialToken(token uint32) bool {
	for _, id := range f.specials {
		if id == token {
			return true
		}
	}
	return false
}

func (f fakeVocab) SpecialTokenID(text string) (uint32, bool) {
	id, ok := f.specials[text]
	return id, ok
}
