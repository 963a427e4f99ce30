package domain

import "strings"

// MaxMessageLength is the longest user message accepted by chat, in characters.
const MaxMessageLength = 1000

// ChatTurn is one question about one paper and the synthesized answer.
// Turns are built per request and dropped once the response is written;
// there is no conversation history.
type ChatTurn struct {
	PaperID  string
	Message  string
	Response string
}

// NewChatTurn trims and validates a chat request. The length limit applies to
// the message as received; emptiness is checked after trimming.
func NewChatTurn(paperID, message string) (*ChatTurn, error) {
	if err := validateInput(chatInput{Message: message, PaperID: paperID}); err != nil {
		return nil, err
	}
	return &ChatTurn{
		PaperID: strings.TrimSpace(paperID),
		Message: strings.TrimSpace(message),
	}, nil
}
