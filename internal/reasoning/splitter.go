package reasoning

import (
	"strings"

	"github.com/samcharles93/harmony/pkg/harmony"
)

// ToolCall is an assistant message addressed to a tool.
type ToolCall struct {
	// Recipient is the full header recipient, e.g. "functions.get_weather".
	Recipient string
	// Name drops the "functions." namespace; other namespaces are kept.
	Name        string
	ContentType string
	Arguments   string
}

type SplitResult struct {
	Content   string
	Reasoning string
	ToolCalls []ToolCall
}

// SplitMessages separates parsed assistant messages into user-visible
// content, reasoning (the analysis channel) and tool calls. Messages from
// other roles are ignored.
func SplitMessages(msgs []harmony.Message) SplitResult {
	var (
		content   strings.Builder
		reasoning strings.Builder
		calls     []ToolCall
	)
	for _, m := range msgs {
		if m.Author.Role != harmony.RoleAssistant {
			continue
		}
		switch routeOf(m.Channel, m.Recipient) {
		case routeToolCall:
			calls = append(calls, ToolCall{
				Recipient:   m.Recipient,
				Name:        FunctionName(m.Recipient),
				ContentType: m.ContentType,
				Arguments:   m.Text(),
			})
		case routeReasoning:
			reasoning.WriteString(m.Text())
		default:
			content.WriteString(m.Text())
		}
	}
	return SplitResult{
		Content:   content.String(),
		Reasoning: reasoning.String(),
		ToolCalls: calls,
	}
}

// FunctionName strips the functions namespace from a recipient.
func FunctionName(recipient string) string {
	if name, ok := strings.CutPrefix(recipient, harmony.FunctionsNamespace+"."); ok {
		return name
	}
	return recipient
}

type route int

const (
	routeNone route = iota
	routeContent
	routeReasoning
	routeToolCall
)

func routeOf(channel, recipient string) route {
	switch {
	case recipient != "" && recipient != "all":
		return routeToolCall
	case channel == harmony.ChannelAnalysis:
		return routeReasoning
	default:
		return routeContent
	}
}

// ToolCallDelta is a fragment of a streamed tool call. Recipient and Name
// are set only on the first fragment of each call.
type ToolCallDelta struct {
	Index     int    `json:"index"`
	Recipient string `json:"recipient,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// Delta is what one parser step contributed to each stream.
type Delta struct {
	Content   string
	Reasoning string
	ToolCall  *ToolCallDelta
}

func (d Delta) Empty() bool {
	return d.Content == "" && d.Reasoning == "" && d.ToolCall == nil
}

// Splitter routes the content deltas of a StreamableParser to the content,
// reasoning and tool call streams. Call Push after every Process and after
// ProcessEOS.
type Splitter struct {
	open  bool
	route route
	calls int
}

func (s *Splitter) Push(p *harmony.StreamableParser) Delta {
	delta := p.LastContentDelta()
	if p.State() != harmony.StateContent {
		// Only ProcessEOS yields a delta outside of content; it belongs to
		// the message that was open.
		var d Delta
		if delta != "" && s.open {
			d = s.emit(s.route, delta)
		}
		s.open = false
		return d
	}

	author, _ := p.CurrentAuthor()
	if author.Role != harmony.RoleAssistant {
		s.open, s.route = true, routeNone
		return Delta{}
	}

	first := !s.open
	s.open = true
	s.route = routeOf(p.CurrentChannel(), p.CurrentRecipient())
	if first && s.route == routeToolCall {
		s.calls++
		d := s.emit(s.route, delta)
		d.ToolCall.Recipient = p.CurrentRecipient()
		d.ToolCall.Name = FunctionName(d.ToolCall.Recipient)
		return d
	}
	if delta == "" {
		return Delta{}
	}
	return s.emit(s.route, delta)
}

func (s *Splitter) emit(r route, delta string) Delta {
	switch r {
	case routeToolCall:
		return Delta{ToolCall: &ToolCallDelta{Index: s.calls - 1, Arguments: delta}}
	case routeReasoning:
		return Delta{Reasoning: delta}
	case routeContent:
		return Delta{Content: delta}
	default:
		return Delta{}
	}
}
