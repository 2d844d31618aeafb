package interfaces

import (
	"context"
)

// Message represents a single message in a chat conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// LLMService defines the interface for language model operations including
// embeddings generation and chat completions. Implementations wrap cloud
// APIs (Anthropic Claude, Google Gemini) behind a provider-neutral surface.
type LLMService interface {
	// Embed generates an embedding vector for the given text. The embedding
	// is used for semantic chunk boundaries and claim clustering.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - text: Input text to generate embedding for
	//
	// Returns:
	//   - []float32: Embedding vector
	//   - error: Error if embedding generation fails
	Embed(ctx context.Context, text string) ([]float32, error)

	// Chat generates a completion response based on the conversation history.
	// The messages slice should contain the full conversation context
	// including system prompts, user messages, and previous responses.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - messages: Conversation history in chronological order
	//
	// Returns:
	//   - string: Generated assistant response
	//   - error: Error if chat completion fails
	Chat(ctx context.Context, messages []Message) (string, error)

	// ChatWithOptions generates a completion with explicit sampling options.
	// Used where a component needs a temperature or token budget different
	// from the provider default (course structure generation).
	ChatWithOptions(ctx context.Context, messages []Message, opts ChatOptions) (string, error)

	// HealthCheck verifies the LLM service is operational and can handle
	// requests, checking API connectivity and authentication.
	HealthCheck(ctx context.Context) error

	// ModelName returns the configured model identifier for provenance fields
	ModelName() string

	// Close releases resources and performs cleanup operations
	Close() error
}

// ChatOptions carries per-call sampling overrides. Zero values mean
// "use the provider default".
type ChatOptions struct {
	Temperature float32
	MaxTokens   int
}
