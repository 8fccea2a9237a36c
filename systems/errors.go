package systems

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/colony/components"
)

// Gameplay rule violations. These are ordinary command outcomes, never crashes.
var (
	ErrInsufficientResource = errors.New("insufficient resource")
	ErrInsufficientPower    = errors.New("insufficient power")
	ErrAlreadyActive        = errors.New("process already active")
	ErrAlreadyDeployed      = errors.New("mission already deployed")
	ErrAlreadyUpgraded      = errors.New("upgrade already installed")
)

// ErrPrecondition marks a structural misuse by the caller (bad setup, unknown names).
// It is never returned for a gameplay rule violation.
var ErrPrecondition = errors.New("precondition violated")

// InsufficientResourceError reports the first resource that could not be debited.
type InsufficientResourceError struct {
	Resource  components.Resource
	Required  float64
	Available float64
}

func (e *InsufficientResourceError) Error() string {
	return fmt.Sprintf("insufficient %s: need %g, have %g", e.Resource, e.Required, e.Available)
}

// Is makes errors.Is(err, ErrInsufficientResource) match.
func (e *InsufficientResourceError) Is(target error) bool {
	return target == ErrInsufficientResource
}

// InsufficientPowerError reports the charge needed to perform an action.
type InsufficientPowerError struct {
	Required  float64
	Available float64
}

func (e *InsufficientPowerError) Error() string {
	return fmt.Sprintf("insufficient power: need %g, have %g", e.Required, e.Available)
}

func (e *InsufficientPowerError) Is(target error) bool {
	return target == ErrInsufficientPower
}

// IsRuleViolation reports whether err is an expected gameplay outcome
// rather than a caller bug.
func IsRuleViolation(err error) bool {
	if err == nil || errors.Is(err, ErrPrecondition) {
		return false
	}
	return errors.Is(err, ErrInsufficientResource) ||
		errors.Is(err, ErrInsufficientPower) ||
		errors.Is(err, ErrAlreadyActive) ||
		errors.Is(err, ErrAlreadyDeployed) ||
		errors.Is(err, ErrAlreadyUpgraded)
}

func preconditionf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPrecondition, fmt.Sprintf(format, args...))
}
