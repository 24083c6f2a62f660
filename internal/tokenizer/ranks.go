package tokenizer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// ReadRanksFile reads a .tiktoken rank file. The file is memory-mapped when
// possible and read normally otherwise.
func ReadRanksFile(path string) (map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := int(stat.Size())
	if size == 0 {
		return nil, fmt.Errorf("%s: empty rank file", path)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		defer func() { _ = unix.Munmap(data) }()
		return ParseRanks(data)
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRanks(data)
}

// ParseRanks parses "base64(piece) rank" lines. Piece bytes are copied out
// of data, so data may be released afterwards.
func ParseRanks(data []byte) (map[string]int, error) {
	ranks := make(map[string]int, bytes.Count(data, []byte{'\n'})+1)
	buf := make([]byte, 0, 64)
	line := 0
	for len(data) > 0 {
		line++
		var row []byte
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			row, data = data[:i], data[i+1:]
		} else {
			row, data = data, nil
		}
		row = bytes.TrimRight(row, "\r")
		if len(row) == 0 {
			continue
		}
		enc, num, ok := bytes.Cut(row, []byte{' '})
		if !ok {
			return nil, fmt.Errorf("rank line %d: missing rank", line)
		}
		n := base64.StdEncoding.DecodedLen(len(enc))
		if cap(buf) < n {
			buf = make([]byte, n)
		}
		m, err := base64.StdEncoding.Decode(buf[:n], enc)
		if err != nil {
			return nil, fmt.Errorf("rank line %d: %w", line, err)
		}
		rank, err := strconv.Atoi(string(num))
		if err != nil {
			return nil, fmt.Errorf("rank line %d: %w", line, err)
		}
		ranks[string(buf[:m])] = rank
	}
	return ranks, nil
}

// WriteRanks renders ranks in .tiktoken format ordered by rank.
func WriteRanks(ranks map[string]int) []byte {
	pieces := make([]string, len(ranks))
	for piece, rank := range ranks {
		if rank >= 0 && rank < len(pieces) {
			pieces[rank] = piece
		}
	}
	var out bytes.Buffer
	for rank, piece := range pieces {
		if piece == "" {
			continue
		}
		out.WriteString(base64.StdEncoding.EncodeToString([]byte(piece)))
		out.WriteByte(' ')
		out.WriteString(strconv.Itoa(rank))
		out.WriteByte('\n')
	}
	return out.Bytes()
}
