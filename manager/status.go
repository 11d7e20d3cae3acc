package manager

import (
	"context"
	"strings"

	"kichat/model"
)

// State is the discrete UI-facing health indicator.
type State string

const (
	StateCritical      State = "critical"
	StateNoProvider    State = "no_provider"
	StateAuthFailed    State = "auth_failed"
	StateQuotaExceeded State = "quota_exceeded"
	StateNoConnection  State = "no_connection"
	StateError         State = "error"
	StateSetupNeeded   State = "setup_needed"
	StateNoModels      State = "no_models"
	StateHealthy       State = "healthy"
	StateUnknown       State = "unknown"
)

// Display is what the presentation layer renders for the current status.
type Display struct {
	State State
	Label string
	Hint  string // short actionable followup, may be empty
}

// Reconcile derives the display status from the registry size, the active
// provider's config, and its current model list. Pure function.
//
// The checks form a priority cascade, first match wins: hard failures
// (empty registry) outrank soft ones (no models), and explicit error text
// outranks generic state, so the most actionable message is always the
// one shown. Recorded errors are classified by substring into auth,
// quota, and connectivity buckets.
func Reconcile(registrySize int, active *model.ProviderConfig, models []model.ModelInfo) Display {
	if registrySize == 0 {
		return Display{StateCritical, "Critical Failure", "check the plugins directory"}
	}
	if active == nil {
		return Display{StateNoProvider, "No Provider", "select a provider"}
	}

	name := active.Name

	if active.InitError != nil {
		errText := strings.ToLower(active.InitError.Error())
		switch {
		case strings.Contains(errText, "401") || strings.Contains(errText, "key"):
			return Display{StateAuthFailed, name + ": Auth Failed", "check API key"}
		case strings.Contains(errText, "429") || strings.Contains(errText, "quota"):
			return Display{StateQuotaExceeded, name + ": Quota Exceeded", "check plan and billing"}
		case strings.Contains(errText, "connect"):
			return Display{StateNoConnection, name + ": No Connection", "retry"}
		default:
			return Display{StateError, name + ": Error", "retry"}
		}
	}

	switch active.Status {
	case model.StatusSetupNeeded:
		return Display{StateSetupNeeded, name + ": Configure", "open provider settings"}
	case model.StatusActive:
		if len(models) == 0 {
			return Display{StateNoModels, name + ": No Models", "refresh"}
		}
		return Display{StateHealthy, "Active: " + name, ""}
	}

	return Display{StateUnknown, name + ": Unknown", ""}
}

// Status is the convenience wrapper over Reconcile: it gathers registry
// size, active config, and a fresh model listing. A listing failure is
// converted into the provider's recorded error first, per the error
// handling contract, so it classifies like any other init failure.
func (m *Manager) Status(ctx context.Context) Display {
	_, p := m.ActiveProvider()
	if p == nil {
		return Reconcile(m.Size(), nil, nil)
	}

	cfg := p.Config()
	models, err := p.Models(ctx)
	if err != nil && cfg.InitError == nil && cfg.Status != model.StatusSetupNeeded {
		cfg.SetInitError(err)
	}

	return Reconcile(m.Size(), cfg, models)
}
