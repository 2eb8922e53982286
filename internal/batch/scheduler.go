package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"stemstrip/internal/logging"
	"stemstrip/internal/services"
)

// Processor turns one item into its terminal outcome. Implementations must
// confine failures to the returned outcome; the pool treats anything that
// escapes (a panic) as a defect and records it against the item.
type Processor interface {
	Process(ctx context.Context, item Item) Outcome
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx context.Context, item Item) Outcome

func (f ProcessorFunc) Process(ctx context.Context, item Item) Outcome {
	return f(ctx, item)
}

// DefaultShutdownGrace bounds how long Run waits for in-flight items after
// cancellation before abandoning them.
const DefaultShutdownGrace = 10 * time.Second

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithWorkers sets the worker pool size. Zero or negative selects the CPU
// core count.
func WithWorkers(n int) SchedulerOption {
	return func(s *Scheduler) {
		s.workers = n
	}
}

// WithForce bypasses the freshness check so every item is reprocessed.
func WithForce(force bool) SchedulerOption {
	return func(s *Scheduler) {
		s.force = force
	}
}

// WithShutdownGrace sets how long Run waits for in-flight items after
// cancellation.
func WithShutdownGrace(grace time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if grace > 0 {
			s.grace = grace
		}
	}
}

// WithLogger attaches the run logger.
func WithLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFreshness replaces the output freshness probe (primarily for tests).
func WithFreshness(fresh func(Item) bool) SchedulerOption {
	return func(s *Scheduler) {
		if fresh != nil {
			s.fresh = fresh
		}
	}
}

// Scheduler dispatches items across a bounded worker pool and guarantees
// exactly one outcome per item, cancellation included. Its configuration is
// immutable once Run starts.
type Scheduler struct {
	processor Processor
	workers   int
	force     bool
	grace     time.Duration
	fresh     func(Item) bool
	logger    *slog.Logger
}

// NewScheduler constructs a scheduler around the given processor.
func NewScheduler(processor Processor, opts ...SchedulerOption) (*Scheduler, error) {
	if processor == nil {
		return nil, errors.New("processor required")
	}
	s := &Scheduler{
		processor: processor,
		grace:     DefaultShutdownGrace,
		fresh:     UpToDate,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run drives every item to a terminal outcome. Fresh outputs are recorded
// as skipped without entering the pool; the rest are dispatched to at most
// the configured number of workers. On cancellation Run stops dispatching,
// waits out the grace period for in-flight items, and records whatever did
// not finish as interrupted.
func (s *Scheduler) Run(ctx context.Context, items []Item) *Report {
	report := NewReport(items)
	if len(items) == 0 {
		return report
	}

	logger := logging.NewComponentLogger(s.logger, "scheduler")

	pending := make([]Item, 0, len(items))
	for _, item := range items {
		if !s.force && s.fresh(item) {
			report.Record(Skipped(item, "output up to date"))
			logger.Info("skipping item, output up to date",
				logging.String(logging.FieldItem, item.Title),
				logging.String("output", item.OutputPath))
			continue
		}
		pending = append(pending, item)
	}
	if len(pending) == 0 {
		return report
	}

	workers := s.workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(pending) {
		workers = len(pending)
	}
	logger.Info("dispatching items",
		logging.Int("items", len(pending)),
		logging.Int("skipped", len(items)-len(pending)),
		logging.Int("workers", workers))

	queue := make(chan Item)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for item := range queue {
				// No item starts once the run is cancelled, even if it
				// already slipped past the dispatch select.
				if ctx.Err() != nil {
					report.Record(Failed(item, StageInterrupted, cancelCause(ctx)))
					continue
				}
				report.Record(s.processItem(ctx, logger, item))
			}
		}()
	}

dispatch:
	for _, item := range pending {
		select {
		case <-ctx.Done():
			break dispatch
		case queue <- item:
		}
	}
	close(queue)

	drained := make(chan struct{})
	go func() {
		wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-ctx.Done():
		timer := time.NewTimer(s.grace)
		defer timer.Stop()
		select {
		case <-drained:
		case <-timer.C:
			logger.Warn("shutdown grace period expired, abandoning in-flight items",
				logging.Duration("grace", s.grace))
		}
	}

	// Anything still unrecorded was cut short by cancellation: either never
	// dispatched or abandoned mid-stage. First record wins over any late
	// result from an abandoned worker.
	if ctx.Err() != nil {
		for _, item := range pending {
			report.Record(Failed(item, StageInterrupted, cancelCause(ctx)))
		}
	}

	return report
}

func cancelCause(ctx context.Context) error {
	if cause := context.Cause(ctx); cause != nil {
		return cause
	}
	return errors.New("run interrupted")
}

// processItem shields the pool from a panicking processor: the fault is
// logged and recorded against the item instead of tearing down the run.
func (s *Scheduler) processItem(ctx context.Context, logger *slog.Logger, item Item) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("worker panic recovered",
				logging.String(logging.FieldItem, item.Title),
				logging.Any("panic", r))
			outcome = Failed(item, StageUnexpected, fmt.Errorf("worker panic: %v", r))
		}
	}()

	itemCtx := services.WithItem(ctx, item.Title)
	itemCtx = services.WithRunID(itemCtx, uuid.NewString())
	return s.processor.Process(itemCtx, item)
}
