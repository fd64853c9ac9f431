// ABOUTME: Deal validation using struct tags plus stage history invariants
// ABOUTME: Shared by the store and engine before any deal is committed
package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateDeal checks field constraints and the stage history invariants.
func ValidateDeal(d Deal) error {
	if err := validatorInstance().Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describeFieldError(fe))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return ValidateHistory(d)
}

// durationTolerance absorbs float rounding in stored durations, in hours.
const durationTolerance = 1e-3

// ValidateHistory enforces ordering, the single open entry rule and duration consistency.
func ValidateHistory(d Deal) error {
	if len(d.StageHistory) == 0 {
		return fmt.Errorf("deal %s has no stage history", d.ID)
	}

	open := 0
	for i, h := range d.StageHistory {
		if h.ToStageID == "" {
			return fmt.Errorf("history entry %d has no target stage", i)
		}
		if i > 0 && !h.EnteredAt.After(d.StageHistory[i-1].EnteredAt) {
			return fmt.Errorf("history entry %d is not after entry %d", i, i-1)
		}
		if h.ExitedAt == nil {
			open++
			if h.DurationHours != nil {
				return fmt.Errorf("history entry %d has a duration but no exit time", i)
			}
			continue
		}
		if h.ExitedAt.Before(h.EnteredAt) {
			return fmt.Errorf("history entry %d exits before it enters", i)
		}
		if h.DurationHours != nil {
			want := h.ExitedAt.Sub(h.EnteredAt).Hours()
			if *h.DurationHours < 0 || math.Abs(*h.DurationHours-want) > durationTolerance {
				return fmt.Errorf("history entry %d duration %.4fh does not match its %.4fh stay", i, *h.DurationHours, want)
			}
		}
	}

	if open > 1 {
		return fmt.Errorf("deal %s has %d open history entries", d.ID, open)
	}
	if open == 1 {
		last := d.StageHistory[len(d.StageHistory)-1]
		if last.ExitedAt != nil || last.ToStageID != d.StageID {
			return fmt.Errorf("open history entry does not match current stage %s", d.StageID)
		}
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", fe.Field(), fe.Param(), fe.Value())
	case "min":
		return fmt.Sprintf("%s needs at least %s entries", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}
