package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/harmony/pkg/harmony"
)

func testEncoding(t *testing.T) *harmony.Encoding {
	t.Helper()
	enc, err := harmony.LoadEncoding(harmony.HarmonyGptOssBytes)
	require.NoError(t, err)
	return enc
}

func TestCompressRoundTrip(t *testing.T) {
	src := []byte(`{"state":"Content","tokens":[1,2,3]}`)
	out, err := Decompress(Compress(src))
	require.NoError(t, err)
	assert.Equal(t, src, out)
}

func TestSaveAndResume(t *testing.T) {
	enc := testEncoding(t)
	conv := harmony.NewConversation(
		harmony.NewTextMessage(harmony.RoleUser, "héllo"),
		harmony.NewTextMessage(harmony.RoleAssistant, "wörld").WithChannel(harmony.ChannelFinal),
	)
	tokens, err := enc.RenderConversation(conv, nil)
	require.NoError(t, err)
	want, err := enc.ParseMessagesFromCompletionTokens(tokens, nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "state", "parser.zst")
	cut := len(tokens) - 4

	p := harmony.NewStreamableParser(enc, nil)
	for _, tok := range tokens[:cut] {
		require.NoError(t, p.Process(tok))
	}
	require.NoError(t, SaveFile(path, p.Snapshot()))

	resumed, err := Resume(enc, path)
	require.NoError(t, err)
	assert.Equal(t, p.Snapshot(), resumed.Snapshot())
	for _, tok := range tokens[cut:] {
		require.NoError(t, resumed.Process(tok))
	}
	require.NoError(t, resumed.ProcessEOS())
	assert.Equal(t, want, resumed.Messages())
}

func TestDecodePlainJSON(t *testing.T) {
	enc := testEncoding(t)
	p := harmony.NewStreamableParser(enc, nil)
	data, err := p.StateJSON()
	require.NoError(t, err)

	s, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, harmony.StateExpectStart, s.State)
	assert.Equal(t, harmony.SnapshotVersion, s.Version)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode(nil)
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Decode([]byte("not zstd"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "missing.zst")
	_, err = LoadFile(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
