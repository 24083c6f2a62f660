package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/harmony/internal/logger"
	"github.com/samcharles93/harmony/pkg/harmony"
)

func loadEncoding(ctx context.Context) (*harmony.Encoding, error) {
	name, err := harmony.ParseEncodingName(encodingName)
	if err != nil {
		return nil, err
	}
	var opts []harmony.LoadOption
	if ranksPath != "" {
		opts = append(opts, harmony.WithRanksPath(ranksPath))
	}
	enc, err := harmony.LoadEncoding(name, opts...)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Debug("encoding loaded", "name", enc.Name(), "special_tokens", len(enc.SpecialTokens()))
	return enc, nil
}

// readInput reads the --input file, or stdin for "-".
func readInput(cmd *cli.Command) ([]byte, error) {
	path := cmd.String("input")
	if path == "" || path == "-" {
		r := cmd.Root().Reader
		if r == nil {
			r = os.Stdin
		}
		return io.ReadAll(r)
	}
	return os.ReadFile(path)
}

// parseTokens accepts a JSON array of ids, an object with a "tokens"
// array, or whitespace/comma separated integers.
func parseTokens(data []byte) ([]uint32, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, nil
	}
	if gjson.Valid(trimmed) {
		res := gjson.Parse(trimmed)
		if res.IsObject() {
			res = res.Get("tokens")
		}
		if !res.IsArray() {
			return nil, fmt.Errorf("expected a JSON array of token ids")
		}
		var (
			out    []uint32
			bad    error
			offset int
		)
		res.ForEach(func(_, v gjson.Result) bool {
			if v.Type != gjson.Number || v.Num < 0 || v.Num != float64(uint32(v.Num)) {
				bad = fmt.Errorf("token %d: %s is not a token id", offset, v.Raw)
				return false
			}
			out = append(out, uint32(v.Num))
			offset++
			return true
		})
		return out, bad
	}

	fields := strings.FieldsFunc(trimmed, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t' || r == '\r'
	})
	out := make([]uint32, 0, len(fields))
	for i, f := range fields {
		n, err := strconv.ParseUint(f, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("token %d: %w", i, err)
		}
		out = append(out, uint32(n))
	}
	return out, nil
}

// parseConversation accepts {"messages": [...]} or a bare message array.
func parseConversation(data []byte) (harmony.Conversation, error) {
	var conv harmony.Conversation
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &conv.Messages); err != nil {
			return conv, fmt.Errorf("parse conversation: %w", err)
		}
		return conv, nil
	}
	if err := json.Unmarshal([]byte(trimmed), &conv); err != nil {
		return conv, fmt.Errorf("parse conversation: %w", err)
	}
	return conv, nil
}

func parseRole(s string) (*harmony.Role, error) {
	if s == "" {
		return nil, nil
	}
	r, err := harmony.ParseRole(s)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func writeJSON(w io.Writer, v any, indent bool) error {
	var (
		b   []byte
		err error
	)
	if indent {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", b)
	return err
}
