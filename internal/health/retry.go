package health

import (
	"time"

	"github.com/cenkalti/backoff"
)

// RetryPlan is an advisory backoff schedule for re-invoking a transiently
// failed engine. The gate core never sleeps; the orchestrator that owns the
// engines consumes this.
type RetryPlan struct {
	EngineID string          `json:"engine_id"`
	Delays   []time.Duration `json:"delays"`
}

// PlanRetries returns the backoff schedule for the engine's remaining
// retries, or nil when ShouldRetry says no. The schedule is exponential
// without jitter so repeated planning is deterministic.
func PlanRetries(h EngineHealth, initial, max time.Duration) *RetryPlan {
	if !ShouldRetry(h) {
		return nil
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initial
	bo.MaxInterval = max
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0
	bo.Reset()

	remaining := h.MaxRetries - h.RetryCount
	plan := &RetryPlan{EngineID: h.EngineID, Delays: make([]time.Duration, 0, remaining)}
	for i := 0; i < remaining; i++ {
		plan.Delays = append(plan.Delays, bo.NextBackOff())
	}
	return plan
}
