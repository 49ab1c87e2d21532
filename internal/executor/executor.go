package executor

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Executor sends one rendered prompt to a completion backend.
type Executor interface {
	Execute(ctx context.Context, req *Request) (*Result, error)
}

// Request carries a single completion call.
type Request struct {
	Model  string
	Prompt string
	// JSON asks the backend to answer with a JSON object when it supports it.
	JSON bool
}

// Result holds the output of a completion call.
type Result struct {
	Output    string
	Cost      float64
	Duration  time.Duration
	TokensIn  int
	TokensOut int
}

// StatusError is a non-200 answer from the provider.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API returned %d: %s", e.Code, e.Body)
}

// Temporary reports whether the status is a rate limit or server-side failure.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}
