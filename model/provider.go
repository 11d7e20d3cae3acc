// Package model holds kichat's provider-agnostic types and the Provider
// contract every vendor integration satisfies.
//
// The Provider interface lives here (not in the provider package) to avoid
// import cycles: provider implementations import model, and the manager can
// depend on the contract without importing any implementation.
package model

import "context"

// StreamCallback is called for each chunk of a streamed response.
// Returning an error stops the stream.
type StreamCallback func(chunk string) error

// Provider abstracts one vendor's LLM capability behind a uniform contract.
//
// Implementations are registered by name with the provider package and
// instantiated from plugin manifests, so the core never references a
// concrete vendor type.
type Provider interface {
	// Initialize makes the provider usable: reads credentials, constructs
	// the vendor client. Setup failures are recorded on Config().InitError
	// (and returned for logging) rather than escaping to the caller.
	// Initialize may be called repeatedly; re-running with updated
	// credentials fully supersedes prior state.
	Initialize(ctx context.Context) error

	// CheckHealth is a cheap, non-network liveness check: "do we have a
	// client and a credential".
	CheckHealth() bool

	// Models performs a real remote capability query and returns the
	// models the current credentials can actually use. It returns an
	// error, never a partial list, on remote failure, so callers can tell
	// "no models because broken" apart from "legitimately empty".
	Models(ctx context.Context) ([]ModelInfo, error)

	// StreamChat produces the response to req as an in-order, finite,
	// non-restartable sequence of text chunks delivered to callback.
	// It fails immediately when called before a successful Initialize.
	// Cancelling ctx terminates the stream.
	StreamChat(ctx context.Context, req ChatRequest, callback StreamCallback) error

	// Config returns the provider's identity and health state.
	Config() *ProviderConfig
}
