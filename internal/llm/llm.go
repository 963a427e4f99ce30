// Package llm provides single-shot text completion against hosted language
// model backends.
//
// Two backends are supported: Google Gemini through the genai SDK and Groq
// through its OpenAI-compatible Chat Completions endpoint. SelectCompleter picks
// one at startup from the configured API keys, preferring Gemini.
//
// Example usage:
//
//	completer := llm.SelectCompleter(ctx, factoryCfg, logger)
//	if completer == nil {
//		// no backend configured
//	}
//	out, err := completer.Complete(ctx, prompt)
package llm

import "context"

// Provider names.
const (
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
)

// Completion is the text produced for one prompt.
type Completion struct {
	// Text is the raw model output.
	Text string

	// Model is the model identifier that produced the text.
	Model string

	// InputTokens is the number of prompt tokens billed, if reported.
	InputTokens int

	// OutputTokens is the number of completion tokens billed, if reported.
	OutputTokens int
}

// Completer sends a single prompt to a language model and returns its text.
type Completer interface {
	// Complete sends prompt as a single user message.
	Complete(ctx context.Context, prompt string) (*Completion, error)

	// Provider returns the backend name.
	Provider() string

	// Model returns the model identifier being used.
	Model() string
}
