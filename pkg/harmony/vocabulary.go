package harmony

// Vocabulary is the byte-pair tokenizer the grammar is built on. It must be
// safe for concurrent use once constructed.
type Vocabulary interface {
	// Encode tokenizes text. Special-token text is only emitted as a special
	// token when listed in allowedSpecial; otherwise it is encoded as plain text.
	Encode(text string, allowedSpecial []string) []uint32
	// DecodeBytes returns the raw bytes of tokens. Unknown ids are an error.
	DecodeBytes(tokens []uint32) ([]byte, error)
	// DecodeUTF8 is DecodeBytes followed by UTF-8 validation.
	DecodeUTF8(tokens []uint32) (string, error)
	// SpecialTokens lists the text of every special token.
	SpecialTokens() []string
	IsSpecialToken(token uint32) bool
	// SpecialTokenID resolves the id of a special token by its text.
	SpecialTokenID(text string) (uint32, bool)
}

// FormattingToken is a structural slot of the chat grammar. The vocabulary
// text for each slot comes from the encoding's token mapping.
type FormattingToken int

const (
	FormattingStart FormattingToken = iota
	FormattingMessage
	FormattingEndMessage
	FormattingEndMessageDoneSampling
	FormattingEndMessageAssistantToTool
	FormattingConstrainedFormat
	FormattingChannel
)

func (t FormattingToken) String() string {
	switch t {
	case FormattingStart:
		return "Start"
	case FormattingMessage:
		return "Message"
	case FormattingEndMessage:
		return "EndMessage"
	case FormattingEndMessageDoneSampling:
		return "EndMessageDoneSampling"
	case FormattingEndMessageAssistantToTool:
		return "EndMessageAssistantToTool"
	case FormattingConstrainedFormat:
		return "ConstrainedFormat"
	case FormattingChannel:
		return "Channel"
	default:
		return "FormattingToken(?)"
	}
}

// gptOssFormattingTokens is the harmony mapping used by gpt-oss vocabularies.
var gptOssFormattingTokens = map[FormattingToken]string{
	FormattingStart:                     "<|start|>",
	FormattingMessage:                   "<|message|>",
	FormattingEndMessage:                "<|end|>",
	FormattingEndMessageDoneSampling:    "<|return|>",
	FormattingEndMessageAssistantToTool: "<|call|>",
	FormattingConstrainedFormat:         "<|constrain|>",
	FormattingChannel:                   "<|channel|>",
}
