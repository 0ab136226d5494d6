package llm

import "strings"

// CleanJSONBlock removes a markdown code fence wrapped around a JSON reply.
// LLMs often wrap JSON in ```json ... ``` blocks even when instructed not to.
// Anything else, including prose around the JSON, is left for the caller's parser to reject.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	// Drop the language tag on the opening fence line ("json", "JSON", "javascript"...)
	if idx := strings.Index(text, "\n"); idx >= 0 {
		firstLine := strings.TrimSpace(text[:idx])
		if !strings.ContainsAny(firstLine, " {[") {
			text = text[idx+1:]
		}
	} else {
		text = strings.TrimLeft(text, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
	}

	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
