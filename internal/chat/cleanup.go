package chat

import (
	"strings"
	"unicode/utf8"
)

// Fixed replies.
const (
	ReplyNoBackend = "Sorry, no LLM service is configured. Please add your API keys."
	ReplyFailure   = "Sorry, I encountered an error while processing your question. Please try again."
	ReplyTooShort  = "I'd be happy to help you understand this paper better. " +
		"Could you please ask a more specific question about the research methodology, findings, or implications?"
)

// MinReplyLength is the shortest cleaned reply returned as-is, in characters.
const MinReplyLength = 50

// Markers that signal the model echoed prompt scaffolding.
const (
	leakMarkerInstructions = "Instructions for high-quality responses"
	leakMarkerGuidelines   = "Response Guidelines"
)

// CleanResponse strips echoed prompt scaffolding from a model reply and
// replaces replies that end up too short with ReplyTooShort.
//
// Stripping is line based. A line mentioning "Instructions", "Guidelines" or
// the response header is dropped and starts a skip; while skipping, bullet
// lines (starting with '-' or '*') and blank lines are dropped too, and the
// first other non-empty line ends the skip. Ordinary prose that happens to use
// those words is dropped as well.
func CleanResponse(reply string) string {
	reply = strings.TrimSpace(reply)

	if strings.Contains(reply, leakMarkerInstructions) || strings.Contains(reply, leakMarkerGuidelines) {
		reply = stripScaffolding(reply)
	}

	if utf8.RuneCountInString(reply) < MinReplyLength {
		return ReplyTooShort
	}
	return reply
}

func stripScaffolding(reply string) string {
	lines := strings.Split(reply, "\n")
	kept := make([]string, 0, len(lines))
	skipping := false

	for _, line := range lines {
		if strings.Contains(line, "Instructions") ||
			strings.Contains(line, "Guidelines") ||
			strings.Contains(line, HeaderResponse) {
			skipping = true
			continue
		}
		if skipping && strings.TrimSpace(line) != "" &&
			!strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "*") {
			skipping = false
		}
		if !skipping {
			kept = append(kept, line)
		}
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}
