package common

import "strings"

// ErrModulePaused is returned when an operator has switched off a flow.
var ErrModulePaused = NewError(KindPreconditionFailed, "module paused")

// PauseView reports whether a flow is currently switched off. Flows are named
// "<module>" or "<module>.<action>", e.g. "trove" or "stability.withdraw".
type PauseView interface {
	IsPaused(flow string) bool
}

// Guard fails with ErrModulePaused when either the module or the specific
// action is paused.
func Guard(p PauseView, module, action string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	if action != "" && p.IsPaused(module+"."+action) {
		return ErrModulePaused
	}
	return nil
}

// PauseSet is a static PauseView built from configuration.
type PauseSet map[string]bool

// NewPauseSet normalises the configured flow names.
func NewPauseSet(flows []string) PauseSet {
	set := make(PauseSet, len(flows))
	for _, flow := range flows {
		flow = strings.ToLower(strings.TrimSpace(flow))
		if flow != "" {
			set[flow] = true
		}
	}
	return set
}

// IsPaused implements PauseView.
func (s PauseSet) IsPaused(flow string) bool {
	if s == nil {
		return false
	}
	return s[strings.ToLower(flow)]
}
