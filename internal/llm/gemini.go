package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no Gemini model is configured.
const DefaultGeminiModel = "gemma-3n-e4b-it"

// GeminiConfig holds the parameters needed to create a Gemini provider.
type GeminiConfig struct {
	// APIKey is the Google AI Studio API key.
	APIKey string
	// Model is the model identifier (e.g., "gemma-3n-e4b-it").
	Model string
	// BaseURL overrides the API endpoint (empty means SDK default).
	BaseURL string
}

// GeminiProvider implements Completer using the Gemini API.
type GeminiProvider struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGeminiProvider creates a Gemini client. It fails if the SDK rejects the
// configuration; no network call is made.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig, temperature float64, timeout time.Duration) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create client: %w", err)
	}

	return &GeminiProvider{
		client:      client,
		model:       model,
		temperature: float32(temperature),
	}, nil
}

// Complete sends prompt as a single user turn and returns the concatenated
// text parts of the first candidate, which may be empty.
func (p *GeminiProvider) Complete(ctx context.Context, prompt string) (*Completion, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(p.temperature),
	})
	if err != nil {
		return nil, wrapGeminiError(err)
	}

	// A blocked prompt comes back without candidates. A candidate with no
	// text is a real, empty answer and is left to response cleanup.
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("gemini: no candidates in response: %w", ErrEmptyCompletion)
	}

	out := &Completion{Text: resp.Text(), Model: p.model}
	if resp.UsageMetadata != nil {
		out.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}

// Provider returns the name of the LLM provider.
func (p *GeminiProvider) Provider() string {
	return ProviderGemini
}

// Model returns the model identifier being used.
func (p *GeminiProvider) Model() string {
	return p.model
}

// wrapGeminiError converts SDK errors into APIError so callers classify both
// backends the same way.
func wrapGeminiError(err error) error {
	var sdkErr genai.APIError
	if errors.As(err, &sdkErr) {
		return &APIError{Provider: ProviderGemini, StatusCode: sdkErr.Code, Message: sdkErr.Message, Type: sdkErr.Status}
	}
	var sdkErrPtr *genai.APIError
	if errors.As(err, &sdkErrPtr) && sdkErrPtr != nil {
		return &APIError{Provider: ProviderGemini, StatusCode: sdkErrPtr.Code, Message: sdkErrPtr.Message, Type: sdkErrPtr.Status}
	}
	return fmt.Errorf("gemini: request failed: %w", err)
}
