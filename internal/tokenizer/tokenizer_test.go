package tokenizer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newByteLevel(t *testing.T) *Tokenizer {
	t.Helper()
	tok, err := NewByteLevel()
	require.NoError(t, err)
	return tok
}

func TestByteLevelRoundTrip(t *testing.T) {
	t.Parallel()
	tok := newByteLevel(t)

	tests := []string{
		"",
		"hello world",
		"user: héllo · 日本語 🙂",
		"line one\nline two\r\n\ttabbed",
	}
	for _, text := range tests {
		ids := tok.Encode(text, nil)
		got, err := tok.DecodeUTF8(ids)
		require.NoError(t, err)
		assert.Equal(t, text, got)
	}
}

func TestByteLevelUsesMerges(t *testing.T) {
	t.Parallel()
	tok := newByteLevel(t)

	ids := tok.Encode("hello", nil)
	assert.Less(t, len(ids), len("hello"))
	for _, id := range ids {
		assert.False(t, tok.IsSpecialToken(id))
	}
}

func TestEncodeSpecialTokens(t *testing.T) {
	t.Parallel()
	tok := newByteLevel(t)

	end, ok := tok.SpecialTokenID("<|end|>")
	require.True(t, ok)
	assert.Equal(t, uint32(200007), end)

	plain := tok.Encode("a<|end|>b", nil)
	assert.NotContains(t, plain, end)

	allowed := tok.Encode("a<|end|>b", []string{"<|end|>"})
	assert.Contains(t, allowed, end)

	text, err := tok.DecodeUTF8(allowed)
	require.NoError(t, err)
	assert.Equal(t, "a<|end|>b", text)
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()
	tok := newByteLevel(t)

	_, err := tok.DecodeBytes([]uint32{150000})
	require.ErrorIs(t, err, ErrUnknownToken)

	// 0xE6 alone is the first byte of a three-byte sequence.
	b, err := tok.DecodeBytes([]uint32{0xE6})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xE6}, b)

	_, err = tok.DecodeUTF8([]uint32{0xE6})
	require.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestSpecialTokensSorted(t *testing.T) {
	t.Parallel()
	tok := newByteLevel(t)

	specials := tok.SpecialTokens()
	assert.IsNonDecreasing(t, specials)
	assert.Contains(t, specials, "<|start|>")
	assert.Contains(t, specials, "<|call|>")

	id, ok := tok.SpecialTokenID("<|call|>")
	require.True(t, ok)
	assert.True(t, tok.IsSpecialToken(id))
	s, ok := tok.TokenString(id)
	require.True(t, ok)
	assert.Equal(t, "<|call|>", s)
}

func TestHarmonySpecialTokens(t *testing.T) {
	t.Parallel()

	specials := HarmonySpecialTokens()
	assert.Len(t, specials, lastHarmonySpecial-firstHarmonySpecial+1)
	assert.Equal(t, 200006, specials["<|start|>"])
	assert.Equal(t, 200018, specials["<|endofprompt|>"])
	assert.Equal(t, 200004, specials["<|reserved_200004|>"])
	assert.Equal(t, 201087, specials["<|reserved_201087|>"])
}

func TestParseRanks(t *testing.T) {
	t.Parallel()

	ranks, err := ParseRanks([]byte("YQ== 0\r\nYg== 1\n\nYWI= 2"))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 0, "b": 1, "ab": 2}, ranks)

	_, err = ParseRanks([]byte("YQ==\n"))
	require.Error(t, err)
	_, err = ParseRanks([]byte("!!! 0\n"))
	require.Error(t, err)
	_, err = ParseRanks([]byte("YQ== x\n"))
	require.Error(t, err)
}

func TestLoadFromRanksFile(t *testing.T) {
	t.Parallel()

	ranks := make(map[string]int, 258)
	for b := range 256 {
		ranks[string([]byte{byte(b)})] = b
	}
	ranks["hi"] = 256
	ranks["hi!"] = 257

	path := filepath.Join(t.TempDir(), "tiny.tiktoken")
	require.NoError(t, os.WriteFile(path, WriteRanks(ranks), 0o644))

	read, err := ReadRanksFile(path)
	require.NoError(t, err)
	assert.Equal(t, ranks, read)

	tok, err := Load(Config{
		Name:          "tiny",
		RanksPath:     path,
		Pattern:       O200kPattern,
		SpecialTokens: map[string]int{"<|end|>": 300},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint32{256, '!'}, tok.Encode("hi!", nil))
	assert.Equal(t, 259, tok.VocabSize())
}

func TestNewRejectsClashingSpecial(t *testing.T) {
	t.Parallel()

	_, err := New("clash", map[string]int{"a": 0}, map[string]int{"<|x|>": 0}, O200kPattern)
	require.Error(t, err)

	_, err = Load(Config{Name: "missing"})
	require.Error(t, err)
}
