package tokenizer

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Config describes where a vocabulary comes from.
type Config struct {
	Name string
	// RanksPath is a local .tiktoken file or an http(s) URL.
	RanksPath     string
	Pattern       string
	SpecialTokens map[string]int
}

// Load reads the rank table named by cfg and builds the tokenizer. Local
// files are memory-mapped; URLs go through the tiktoken loader and its
// on-disk cache.
func Load(cfg Config) (*Tokenizer, error) {
	if cfg.RanksPath == "" {
		return nil, fmt.Errorf("tokenizer %s: no rank file", cfg.Name)
	}
	var (
		ranks map[string]int
		err   error
	)
	if isURL(cfg.RanksPath) {
		ranks, err = tiktoken.NewDefaultBpeLoader().LoadTiktokenBpe(cfg.RanksPath)
	} else {
		ranks, err = ReadRanksFile(cfg.RanksPath)
	}
	if err != nil {
		return nil, fmt.Errorf("tokenizer %s: load ranks from %s: %w", cfg.Name, cfg.RanksPath, err)
	}
	return New(cfg.Name, ranks, cfg.SpecialTokens, cfg.Pattern)
}

func isURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}
