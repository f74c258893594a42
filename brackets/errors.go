package brackets

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrInvalidLayout      = errors.New("invalid tournament layout")
	ErrInvalidState       = errors.New("invalid tournament state")
	ErrStructural         = errors.New("invalid bracket structure")
	ErrReferential        = errors.New("competitor is not specified in competitor list")
	ErrCompetitorNotFound = errors.New("competitor not found")
	ErrIllegalTransition  = errors.New("illegal tournament transition")
	ErrPersistence        = errors.New("failed to persist tournament")
)

// InvalidLayoutError carries the offending layout for diagnostics.
type InvalidLayoutError struct {
	Layout LayoutInit
	Reason string
}

func (e *InvalidLayoutError) Error() string {
	js, err := json.MarshalIndent(e.Layout, "", "   ")
	if err != nil {
		return fmt.Sprintf("this tournament layout is invalid (%s)", e.Reason)
	}
	return fmt.Sprintf("this tournament layout is invalid (%s):\n%s", e.Reason, js)
}

func (e *InvalidLayoutError) Unwrap() error { return ErrInvalidLayout }

func invalidState(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}
