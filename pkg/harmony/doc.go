// Package harmony renders conversations into harmony-format token sequences
// and parses token streams back into messages.
//
// A message is laid out as
//
//	<|start|>{author}[ to={recipient}][<|channel|>{channel}][ {content type}]<|message|>{content}<|end|>
//
// where an assistant message addressed to a tool ends with <|call|> and the
// final assistant message of a training sample ends with <|return|>.
//
// Rendering and batch parsing are methods on *Encoding, which is safe for
// concurrent use. StreamableParser consumes one token at a time and exposes
// the decoded content as it arrives; it is owned by a single goroutine.
package harmony
