package slack

import (
	"fmt"
	"strings"
	"unicode"
)

// NormalizeChannelName normalizes a string to be a valid Slack channel
// name: lowercase letters, numbers, hyphens and underscores, maximum 80
// characters.
func NormalizeChannelName(name string) string {
	name = strings.ReplaceAll(name, " ", "-")

	var result strings.Builder
	result.Grow(len(name))

	for _, r := range name {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_':
			result.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			result.WriteRune(unicode.ToLower(r))
		}
	}

	normalized := result.String()
	if len(normalized) > 80 {
		normalized = normalized[:80]
	}
	return strings.TrimRight(normalized, "-")
}

// ticketChannelName builds the channel name for a new ticket:
// {container}-{ticketID}.
func ticketChannelName(container, ticketID string) string {
	return NormalizeChannelName(fmt.Sprintf("%s-%s", container, ticketID))
}

// retagChannelName swaps the container prefix of an existing channel
// name, keeping the trailing ticket token.
func retagChannelName(container, current string) string {
	suffix := current
	if idx := strings.LastIndex(current, "-"); idx >= 0 {
		suffix = current[idx+1:]
	}
	return NormalizeChannelName(fmt.Sprintf("%s-%s", container, suffix))
}
