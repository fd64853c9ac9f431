// ABOUTME: Deterministic deal score from probability, health, priority and activity
// ABOUTME: Same deal and clock always give the same 0-100 score
package engine

import (
	"time"

	"github.com/harperreed/dealflow/models"
)

var (
	healthPoints = map[string]int{
		models.HealthHealthy: 20,
		models.HealthAtRisk:  8,
		models.HealthStalled: 0,
	}
	priorityPoints = map[string]int{
		models.PriorityUrgent: 15,
		models.PriorityHigh:   10,
		models.PriorityMedium: 5,
		models.PriorityLow:    0,
	}
)

// Score rates how promising a deal looks at now. Archived deals score 0.
func Score(d models.Deal, now time.Time) int {
	if d.Health == models.HealthArchived {
		return 0
	}

	score := d.Probability / 2
	score += healthPoints[d.Health]
	score += priorityPoints[d.Priority]

	if d.LastActivityAt != nil {
		switch since := now.Sub(*d.LastActivityAt); {
		case since <= 7*24*time.Hour:
			score += 15
		case since <= 30*24*time.Hour:
			score += 8
		}
	}

	// slipped past the expected close without closing
	if d.ExpectedCloseDate != nil && d.ActualCloseDate == nil && d.ExpectedCloseDate.Before(now) {
		score -= 10
	}

	return min(max(score, 0), 100)
}
