package port

import "context"

// Message is one role-tagged turn of a chat request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UserMessage wraps a plain prompt as a single user turn.
func UserMessage(prompt string) []Message {
	return []Message{{Role: "user", Content: prompt}}
}

// CompletionOptions tune a single completion call. Zero values fall back to
// the gateway's configured defaults.
type CompletionOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// ChatModel represents a language model for text generation.
type ChatModel interface {
	// Complete generates text for the given messages and returns the full reply.
	Complete(ctx context.Context, messages []Message, opts CompletionOptions) (string, error)

	// Stream generates text incrementally. The returned channel carries text
	// chunks and is closed when the model signals completion or ctx is done.
	Stream(ctx context.Context, messages []Message, opts CompletionOptions) (<-chan string, error)

	// ModelName returns the name of the default model.
	ModelName() string
}
