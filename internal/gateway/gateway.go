// Package gateway defines the model-gateway interface the SDK consumes
// for chat completion. The storage engine never calls a model directly;
// agent loops built on the SDK implement or inject this interface and
// persist the resulting messages through the session store.
package gateway

import (
	"context"

	"github.com/wavehq/wave/internal/message"
)

// Request is the unified chat-completion request.
type Request struct {
	Model        string
	Messages     []message.Message
	SystemPrompt string
	MaxTokens    int
}

// EventType classifies a streaming event.
type EventType int

const (
	// EventTextDelta is incremental text output.
	EventTextDelta EventType = iota
	// EventDone ends the turn and carries final usage.
	EventDone
	// EventError aborts the turn.
	EventError
)

// Event is one element of a streaming response.
type Event struct {
	Type      EventType
	TextDelta string
	Usage     *message.Usage
	Error     error
}

// Gateway is the chat-completion surface of a model provider.
type Gateway interface {
	// Chat initiates a streaming completion. The returned channel emits
	// events until EventDone or EventError, then closes. Callers must
	// drain the channel; cancellation flows through ctx.
	Chat(ctx context.Context, req *Request) (<-chan Event, error)

	// Complete performs a non-streaming completion, returning the full
	// assistant message.
	Complete(ctx context.Context, req *Request) (*message.Message, error)

	// Name identifies the provider, e.g. "anthropic".
	Name() string
}
