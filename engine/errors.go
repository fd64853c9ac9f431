// ABOUTME: Error kinds surfaced by deal pipeline operations
// ABOUTME: Sentinels are matched with errors.Is; ItemError carries per-deal batch failures
package engine

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownDeal     = errors.New("unknown deal")
	ErrUnknownPipeline = errors.New("unknown pipeline")
	ErrInvalidStage    = errors.New("invalid stage")
	ErrValidation      = errors.New("validation error")
	ErrTransport       = errors.New("transport error")
	ErrUnknownAction   = errors.New("unknown bulk action")
	ErrViewNotFound    = errors.New("saved view not found")
)

// ItemError ties a failure to the deal it happened on.
type ItemError struct {
	ID  string `json:"id"`
	Err error  `json:"-"`
}

func (e ItemError) Error() string {
	return fmt.Sprintf("deal %s: %v", e.ID, e.Err)
}

func (e ItemError) Unwrap() error {
	return e.Err
}

// Kind names the error category for reporting over the wire.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnknownDeal):
		return "unknown_deal"
	case errors.Is(err, ErrUnknownPipeline):
		return "unknown_pipeline"
	case errors.Is(err, ErrInvalidStage):
		return "invalid_stage"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrUnknownAction):
		return "unknown_action"
	}
	return "internal"
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
