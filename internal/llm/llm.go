// Package llm is the provider-neutral layer between the HTTP API and the
// chat-completion backends: request types, the provider catalog, prompt
// building, context-size limits and failure classification.
package llm

import "context"

// Roles used in chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a single chat completion. Nil sampling parameters are left to
// the provider's defaults.
type Request struct {
	Messages         []Message
	Temperature      *float64
	MaxTokens        int
	TopP             *float64
	FrequencyPenalty *float64
	PresencePenalty  *float64
}

// Usage reports token accounting when the provider returns it.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is the first choice of a completion.
type Response struct {
	Content string
	Model   string
	Usage   *Usage
}

// Client completes chat requests against one resolved provider target.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req Request) (Response, error)

func (f ClientFunc) Complete(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// Factory builds a Client for a resolved target.
type Factory interface {
	NewClient(target Target) (Client, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(target Target) (Client, error)

func (f FactoryFunc) NewClient(target Target) (Client, error) {
	return f(target)
}

// Float returns a pointer to v, for optional sampling parameters.
func Float(v float64) *float64 {
	return &v
}
