package provider

import (
	"strings"

	"kichat/model"
)

// SplitSystemPrompt hoists system-role messages out of a conversation.
//
// Anthropic and Gemini take the system prompt as a dedicated request slot
// rather than as a chat turn. This returns the combined system text (turns
// joined with a blank line) and the remaining messages with their original
// order preserved.
func SplitSystemPrompt(messages []model.Message) (string, []model.Message) {
	var system []string
	rest := make([]model.Message, 0, len(messages))

	for _, msg := range messages {
		if msg.Role == model.RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		rest = append(rest, msg)
	}

	return strings.Join(system, "\n\n"), rest
}
