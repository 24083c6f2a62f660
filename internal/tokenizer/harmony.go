package tokenizer

import (
	"fmt"
	"strings"
)

const (
	// O200kBaseURL is the public rank file the harmony vocabulary extends.
	O200kBaseURL = "https://openaipublic.blob.core.windows.net/encodings/o200k_base.tiktoken"

	O200kHarmonyName = "o200k_harmony"

	firstHarmonySpecial = 199998
	lastHarmonySpecial  = 201087
)

// O200kPattern is the o200k pre-tokenization regex.
var O200kPattern = strings.Join([]string{
	`[^\r\n\p{L}\p{N}]?[\p{Lu}\p{Lt}\p{Lm}\p{Lo}\p{M}]*[\p{Ll}\p{Lm}\p{Lo}\p{M}]+(?i:'s|'t|'re|'ve|'m|'ll|'d)?`,
	`[^\r\n\p{L}\p{N}]?[\p{Lu}\p{Lt}\p{Lm}\p{Lo}\p{M}]+[\p{Ll}\p{Lm}\p{Lo}\p{M}]*(?i:'s|'t|'re|'ve|'m|'ll|'d)?`,
	`\p{N}{1,3}`,
	` ?[^\s\p{L}\p{N}]+[\r\n/]*`,
	`\s*[\r\n]+`,
	`\s+(?!\S)`,
	`\s+`,
}, "|")

// harmonyNamed are the special tokens of o200k_harmony that carry a name.
var harmonyNamed = map[int]string{
	199998: "<|startoftext|>",
	199999: "<|endoftext|>",
	200002: "<|return|>",
	200003: "<|constrain|>",
	200005: "<|channel|>",
	200006: "<|start|>",
	200007: "<|end|>",
	200008: "<|message|>",
	200012: "<|call|>",
	200018: "<|endofprompt|>",
}

// HarmonySpecialTokens returns the full o200k_harmony special-token table:
// the named tokens plus every reserved slot up to 201087.
func HarmonySpecialTokens() map[string]int {
	out := make(map[string]int, lastHarmonySpecial-firstHarmonySpecial+1)
	for id := firstHarmonySpecial; id <= lastHarmonySpecial; id++ {
		if name, ok := harmonyNamed[id]; ok {
			out[name] = id
			continue
		}
		out[fmt.Sprintf("<|reserved_%d|>", id)] = id
	}
	return out
}

// O200kHarmonyConfig returns the config for o200k_harmony. An empty
// ranksPath selects the public download.
func O200kHarmonyConfig(ranksPath string) Config {
	if ranksPath == "" {
		ranksPath = O200kBaseURL
	}
	return Config{
		Name:          O200kHarmonyName,
		RanksPath:     ranksPath,
		Pattern:       O200kPattern,
		SpecialTokens: HarmonySpecialTokens(),
	}
}

// LoadO200kHarmony loads the o200k_harmony vocabulary.
func LoadO200kHarmony(ranksPath string) (*Tokenizer, error) {
	return Load(O200kHarmonyConfig(ranksPath))
}
