package chat

import "strings"

// CountTokens returns the number of whitespace-delimited tokens in text.
func CountTokens(text string) int {
	return len(strings.Fields(text))
}

// Truncate bounds text to at most maxTokens whitespace-delimited tokens,
// keeping the most recent ones and rejoining with single spaces. Oldest
// context is dropped first. Text that already fits is returned unchanged.
func Truncate(text string, maxTokens int) string {
	tokens := strings.Fields(text)
	if len(tokens) <= maxTokens {
		return text
	}
	return strings.Join(tokens[len(tokens)-maxTokens:], " ")
}
