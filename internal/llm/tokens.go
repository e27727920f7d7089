package llm

import "encoding/json"

// Rough sizing for request logs: about four characters per token, plus a
// fixed framing cost per message and per offered tool.
const (
	charsPerToken   = 4
	messageOverhead = 4
	toolOverhead    = 10
)

// EstimateRequestTokens approximates the prompt size of req.
func EstimateRequestTokens(req Request) int {
	chars, overhead := 0, 0
	for _, m := range req.Messages {
		overhead += messageOverhead
		chars += len(m.Role) + len(m.Content) + len(m.ToolCallID)
		for _, tc := range m.ToolCalls {
			chars += len(tc.ID) + len(tc.Name) + len(tc.RawArguments())
		}
	}
	for _, t := range req.Tools {
		overhead += toolOverhead
		chars += len(t.Name) + len(t.Description)
		if schema, err := json.Marshal(t.Parameters); err == nil {
			chars += len(schema)
		}
	}
	return overhead + (chars+charsPerToken-1)/charsPerToken
}
