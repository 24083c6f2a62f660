package harmony

import "slices"

// StopTokens returns the tokens that end a turn for any role, sorted ascending.
func (e *Encoding) StopTokens() ([]uint32, error) {
	return e.resolveTokens(e.stopTokens)
}

// StopTokensForAssistantActions returns the tokens that end an assistant
// sample: the done-sampling token and the tool-call token.
func (e *Encoding) StopTokensForAssistantActions() ([]uint32, error) {
	return e.resolveTokens(e.stopTokensActions)
}

func (e *Encoding) resolveTokens(toks []FormattingToken) ([]uint32, error) {
	out := make([]uint32, 0, len(toks))
	for _, t := range toks {
		id, err := e.TokenID(t)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

func (e *Encoding) isStopToken(id uint32) bool {
	t, ok := e.formattingToken(id)
	return ok && slices.Contains(e.stopTokens, t)
}
