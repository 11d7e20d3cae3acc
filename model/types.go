package model

import "time"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents one turn in a conversation. Ordering of a message
// slice is chronological and must be preserved end-to-end, including
// across the system-prompt extraction some providers perform.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// ModelInfo describes one model offered by a provider.
//
// Instances are produced fresh on every listing call; callers must not
// assume the returned set is stable across calls.
type ModelInfo struct {
	ID                string // Vendor-specific identifier, opaque
	Name              string // Display name
	Provider          string // Display name of the owning provider
	ContextLength     int    // Max input+output tokens
	SupportsStreaming bool
}

// ProviderStatus is the coarse lifecycle state of a provider instance.
type ProviderStatus string

const (
	StatusActive      ProviderStatus = "active"
	StatusSetupNeeded ProviderStatus = "setup_needed"
	StatusDisabled    ProviderStatus = "disabled"
	StatusError       ProviderStatus = "error"
	StatusOffline     ProviderStatus = "offline"
)

// ProviderConfig carries the identity and mutable health state of one
// provider instance. Exactly one ProviderConfig is owned per instance.
// It is mutated by the provider's own Initialize and by the manager when
// it converts a listing failure into a recorded error.
type ProviderConfig struct {
	Name      string
	Status    ProviderStatus
	InitError error // nil when healthy
}

// NewProviderConfig returns a config in the setup_needed state.
func NewProviderConfig(name string) *ProviderConfig {
	return &ProviderConfig{
		Name:   name,
		Status: StatusSetupNeeded,
	}
}

// SetInitError records err and moves the provider into the error state.
// A nil err clears the error and marks the provider active.
func (c *ProviderConfig) SetInitError(err error) {
	c.InitError = err
	if err != nil {
		c.Status = StatusError
	} else {
		c.Status = StatusActive
	}
}

// ChatRequest bundles the arguments of a streaming chat call.
type ChatRequest struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int64
}
