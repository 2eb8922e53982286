package batch

import (
	"sync"
	"time"
)

// Report accumulates item outcomes during a run. Record is safe for
// concurrent use; read accessors are meant for after the run settles.
type Report struct {
	mu       sync.Mutex
	items    []Item
	outcomes map[int]Outcome
	started  time.Time
}

// NewReport creates a report covering the discovered items.
func NewReport(items []Item) *Report {
	return &Report{
		items:    items,
		outcomes: make(map[int]Outcome, len(items)),
		started:  time.Now(),
	}
}

// Record stores the outcome for its item. The first outcome recorded for an
// item wins; a late result for an item already abandoned as interrupted is
// dropped so every item keeps exactly one outcome.
func (r *Report) Record(outcome Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.outcomes[outcome.Item.Index]; exists {
		return
	}
	r.outcomes[outcome.Item.Index] = outcome
}

// Recorded reports whether the item already has an outcome.
func (r *Report) Recorded(item Item) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.outcomes[item.Index]
	return exists
}

// Outcomes returns recorded outcomes in discovery order.
func (r *Report) Outcomes() []Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	outcomes := make([]Outcome, 0, len(r.outcomes))
	for _, item := range r.items {
		if outcome, ok := r.outcomes[item.Index]; ok {
			outcomes = append(outcomes, outcome)
		}
	}
	return outcomes
}

// Failure is one entry of the summary's failure list.
type Failure struct {
	Item  Item
	Stage Stage
	Cause error
}

// Summary is the aggregate view of a finished run.
type Summary struct {
	Total     int
	Processed int
	Skipped   int
	Failed    int
	Duration  time.Duration
	Failures  []Failure
}

// Ok reports whether the run should exit successfully: skips are successes,
// any failure is not.
func (s Summary) Ok() bool {
	return s.Failed == 0
}

// Summarize folds the recorded outcomes into counts and the failure list,
// both in discovery order.
func (r *Report) Summarize() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	summary := Summary{
		Total:    len(r.items),
		Duration: time.Since(r.started).Round(time.Second),
	}
	for _, item := range r.items {
		outcome, ok := r.outcomes[item.Index]
		if !ok {
			continue
		}
		switch outcome.Status {
		case StatusProcessed:
			summary.Processed++
		case StatusSkipped:
			summary.Skipped++
		case StatusFailed:
			summary.Failed++
			summary.Failures = append(summary.Failures, Failure{
				Item:  outcome.Item,
				Stage: outcome.Stage,
				Cause: outcome.Err,
			})
		}
	}
	return summary
}
