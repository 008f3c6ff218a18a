package llm

import (
	"context"
	"errors"

	"cardforge/internal/schema"
)

// ErrCancelled marks an intentionally aborted generation. Callers treat
// it as silent: state is rolled back but no user-facing error is raised.
var ErrCancelled = errors.New("llm: generation cancelled")

// ErrEmptyResponse is returned when the provider answers with no usable
// candidate text.
var ErrEmptyResponse = errors.New("llm: empty response from model")

// Request is one completion call: the literal prompt plus an optional
// validated structured-output schema.
type Request struct {
	Prompt string
	Schema *schema.OutputSchema
}

// Response carries the raw text and whether it parsed as the requested
// structured payload.
type Response struct {
	Text       string
	Structured bool
}

// Client is the completion-service boundary. Cancellation flows through
// ctx; implementations map context cancellation onto ErrCancelled.
type Client interface {
	Name() string
	Connected() bool
	Generate(ctx context.Context, req Request) (Response, error)
	Close() error
}
