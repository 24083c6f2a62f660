package tokenizer

// ByteLevelName names the offline harmony vocabulary.
const ByteLevelName = "harmony_bytes"

// byteLevelMerges are the multi-byte pieces of the byte-level vocabulary,
// ranked from 256 in order.
var byteLevelMerges = []string{
	"he", "ll", "lo", "in", "er", "th", "an", "on", "re", " t",
	"ou", "st", "hel", "hell", "hello", "us", "use", "user",
	"as", "ss", "ist", "ant", "assist", "assistant", "sy", "sys", "tem", "system",
	"fin", "al", "final", "is", "ys", "analysis", "com", "ment", "ary", "commentary",
	"to", "to=", "fun", "ction", "functions", "json", " the", " a", "ing", "ed",
}

// NewByteLevel returns a vocabulary with every byte as its own token, a
// small merge table and the named o200k_harmony special tokens at their
// real ids. It needs no rank file.
func NewByteLevel() (*Tokenizer, error) {
	ranks := make(map[string]int, 256+len(byteLevelMerges))
	for b := range 256 {
		ranks[string([]byte{byte(b)})] = b
	}
	next := 256
	for _, piece := range byteLevelMerges {
		if _, dup := ranks[piece]; dup {
			continue
		}
		ranks[piece] = next
		next++
	}

	special := make(map[string]int, len(harmonyNamed))
	for id, name := range harmonyNamed {
		special[name] = id
	}
	return New(ByteLevelName, ranks, special, O200kPattern)
}
