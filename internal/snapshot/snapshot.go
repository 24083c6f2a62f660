// Package snapshot stores streaming parser state as zstd-compressed JSON so
// a token stream can be resumed in a later process.
package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"

	"github.com/samcharles93/harmony/pkg/harmony"
)

var (
	encoder, _ = zstd.NewWriter(nil)
	decoder, _ = zstd.NewReader(nil)
)

// ErrEmpty is returned when a state file holds no data.
var ErrEmpty = errors.New("snapshot: empty state")

func Compress(src []byte) []byte {
	return encoder.EncodeAll(src, make([]byte, 0, len(src)))
}

func Decompress(src []byte) ([]byte, error) {
	return decoder.DecodeAll(src, nil)
}

// Encode serializes s as compressed JSON.
func Encode(s harmony.Snapshot) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("snapshot: marshal: %w", err)
	}
	return Compress(raw), nil
}

// Decode reverses Encode. Uncompressed JSON is accepted as well so state
// written by hand or by StateJSON can be loaded.
func Decode(data []byte) (harmony.Snapshot, error) {
	var s harmony.Snapshot
	if len(data) == 0 {
		return s, ErrEmpty
	}
	raw := data
	if data[0] != '{' {
		var err error
		raw, err = Decompress(data)
		if err != nil {
			return s, fmt.Errorf("snapshot: decompress: %w", err)
		}
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return s, fmt.Errorf("snapshot: unmarshal: %w", err)
	}
	return s, nil
}

// SaveFile writes s to path, replacing any previous file atomically.
func SaveFile(path string, s harmony.Snapshot) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("snapshot: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("snapshot: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("snapshot: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("snapshot: close: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

func LoadFile(path string) (harmony.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return harmony.Snapshot{}, err
	}
	return Decode(data)
}

// Resume loads the state at path and rebuilds the parser from it.
func Resume(enc *harmony.Encoding, path string) (*harmony.StreamableParser, error) {
	s, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return harmony.RestoreStreamableParser(enc, s)
}
