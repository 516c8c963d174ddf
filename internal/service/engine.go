package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/parcelworks/landscout/internal/core"
	"github.com/parcelworks/landscout/internal/data"
	"github.com/parcelworks/landscout/internal/domain/model"
	obserrors "github.com/parcelworks/landscout/internal/observability/errors"
	"github.com/parcelworks/landscout/internal/observability/metrics"
	"github.com/parcelworks/landscout/internal/observability/notify"
	"github.com/parcelworks/landscout/internal/observability/statsd"
)

const (
	// DefaultMaxConcurrent is the number of tasks allowed to run at once.
	DefaultMaxConcurrent = 2

	// DefaultPollInterval is how often the engine sweeps for pending tasks
	// that were not promoted through a submit or completion event.
	DefaultPollInterval = 15 * time.Second

	orphanedTaskMessage = "Interrupted by engine restart"
)

// ProgressFunc reports workflow progress. It returns core.ErrTaskCancelled
// when the task has been cancelled; workflows must stop when they see it.
type ProgressFunc func(ctx context.Context, progress int, message string) error

// Workflow executes one task type. Run returns the JSON result to persist on
// completion, or an error to record as a failure.
type Workflow interface {
	Run(ctx context.Context, task *model.Task, report ProgressFunc) (json.RawMessage, error)
}

// EngineServiceOptions holds the dependencies for creating an EngineService.
type EngineServiceOptions struct {
	Store         core.TaskStore              // Required: task persistence
	Workflows     map[model.TaskType]Workflow // Required: one runner per task type
	MaxConcurrent int                         // Optional: concurrency limit, default 2
	PollInterval  time.Duration               // Optional: pending sweep interval
	TimeProvider  data.TimeProvider           // Optional: clock, default real time
	Logger        *slog.Logger                // Optional: structured logger
	Metrics       statsd.Sink                 // Optional: metrics sink (StatsD-compatible)
	Notifier      notify.Sink                 // Optional: task failure notifications
}

// EngineService accepts task submissions and executes them through registered
// workflows. At most MaxConcurrent tasks run at once; the rest wait in pending
// status and are promoted oldest-first as slots free up.
type EngineService struct {
	store        core.TaskStore
	workflows    map[model.TaskType]Workflow
	sem          *semaphore.Weighted
	pollInterval time.Duration
	timeProvider data.TimeProvider
	logger       *slog.Logger
	metrics      statsd.Sink
	notifier     notify.Sink

	started atomic.Bool
	stopped atomic.Bool
	runCtx  context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewEngineService constructs a new EngineService.
func NewEngineService(opts EngineServiceOptions) (*EngineService, error) {
	if opts.Store == nil {
		return nil, errors.New("TaskStore is required")
	}
	if len(opts.Workflows) == 0 {
		return nil, errors.New("at least one workflow is required")
	}

	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if opts.TimeProvider == nil {
		opts.TimeProvider = &data.RealTimeProvider{}
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "engine_service")
	}

	return &EngineService{
		store:        opts.Store,
		workflows:    opts.Workflows,
		sem:          semaphore.NewWeighted(int64(maxConcurrent)),
		pollInterval: pollInterval,
		timeProvider: opts.TimeProvider,
		logger:       logger,
		metrics:      opts.Metrics,
		notifier:     opts.Notifier,
	}, nil
}

// Start begins task execution. It fails tasks orphaned in running status by a
// previous process, promotes any backlog, and starts the pending sweep loop.
func (s *EngineService) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return errors.New("engine already started")
	}
	s.runCtx, s.cancel = context.WithCancel(ctx)

	orphaned, err := s.store.FailOrphanedRunning(s.runCtx, orphanedTaskMessage)
	if err != nil {
		return fmt.Errorf("sweep orphaned tasks: %w", err)
	}
	if orphaned > 0 && s.logger != nil {
		s.logger.WarnContext(ctx, "failed orphaned running tasks from previous process", "count", orphaned)
	}

	s.promote()

	s.wg.Add(1)
	go s.sweepLoop()

	if s.logger != nil {
		s.logger.InfoContext(ctx, "engine started", "poll_interval", s.pollInterval)
	}
	return nil
}

// Stop prevents new submissions, cancels the run context, and waits for
// in-flight tasks to finish or the context to expire.
func (s *EngineService) Stop(ctx context.Context) error {
	if !s.started.Load() || !s.stopped.CompareAndSwap(false, true) {
		return nil
	}
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("engine stop: %w", ctx.Err())
	}
}

// Submit validates and persists a new task in pending status, then tries to
// promote it immediately.
func (s *EngineService) Submit(ctx context.Context, req *model.CreateTaskRequest) (*model.Task, error) {
	if s.stopped.Load() {
		return nil, core.ErrEngineStopped
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validate task request: %w", err)
	}
	if _, ok := s.workflows[req.Type]; !ok {
		return nil, fmt.Errorf("no workflow registered for task type %q", req.Type)
	}

	task := &model.Task{
		ID:            uuid.NewString(),
		Type:          req.Type,
		Status:        model.TaskStatusPending,
		Owner:         req.Owner,
		StatusMessage: "Queued",
		Params:        req.Params,
		CreatedAt:     s.timeProvider.Now(),
	}
	if err := s.store.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.emitTransition(task.Type, "submitted", metrics.ResultSuccess, 0, nil)
	if s.started.Load() {
		s.promote()
	}
	return task, nil
}

// Get returns a task by ID.
func (s *EngineService) Get(ctx context.Context, id string) (*model.Task, error) {
	return s.store.GetByID(ctx, id)
}

// List returns the owner's tasks ordered newest-first.
func (s *EngineService) List(ctx context.Context, owner string, limit int) ([]*model.Task, error) {
	return s.store.ListByOwner(ctx, owner, limit)
}

// Stats returns counts of tasks per status.
func (s *EngineService) Stats(ctx context.Context) (*model.TaskStats, error) {
	return s.store.Stats(ctx)
}

// Cancel requests cancellation of a pending or running task on behalf of its
// owner. A pending task never starts; a running task stops at its next
// progress report. Another owner's task reads as not found.
func (s *EngineService) Cancel(ctx context.Context, id, owner string) error {
	task, err := s.store.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("cancel task: %w", err)
	}
	if task.Owner != owner {
		return fmt.Errorf("cancel task: %w", model.ErrTaskNotFound)
	}

	cancelled, err := s.store.Cancel(ctx, id)
	if err != nil {
		return fmt.Errorf("cancel task: %w", err)
	}
	if !cancelled {
		return core.ErrTaskNotCancellable
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "task cancellation requested", "task_id", id)
	}
	return nil
}

// sweepLoop periodically promotes pending tasks so work submitted by another
// process (or missed during a promote race) still gets picked up.
func (s *EngineService) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.runCtx.Done():
			return
		case <-ticker.C:
			s.promote()
		}
	}
}

// promote moves pending tasks into execution while concurrency slots are
// free. Tasks cancelled while pending are skipped: MarkRunning refuses them.
func (s *EngineService) promote() {
	for {
		if s.runCtx == nil || s.runCtx.Err() != nil {
			return
		}
		if !s.sem.TryAcquire(1) {
			return
		}

		task, err := s.store.NextPending(s.runCtx)
		if err != nil {
			s.sem.Release(1)
			if s.logger != nil && !isContextCancellation(err) {
				s.logger.Error("fetch next pending task failed", "error", err)
			}
			return
		}
		if task == nil {
			s.sem.Release(1)
			return
		}

		started, err := s.store.MarkRunning(s.runCtx, task.ID, s.timeProvider.Now())
		if err != nil {
			s.sem.Release(1)
			if s.logger != nil && !isContextCancellation(err) {
				s.logger.Error("mark task running failed", "task_id", task.ID, "error", err)
			}
			return
		}
		if !started {
			s.sem.Release(1)
			continue
		}

		s.wg.Add(1)
		go s.execute(task)
	}
}

// execute runs one task to a terminal state and then frees its slot.
func (s *EngineService) execute(task *model.Task) {
	defer s.wg.Done()
	defer func() {
		s.sem.Release(1)
		s.promote()
	}()

	startedAt := s.timeProvider.Now()

	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("workflow panic: %v", r)
			if s.logger != nil {
				s.logger.Error("workflow panicked", "task_id", task.ID, "task_type", task.Type, "panic", r)
			}
			s.finishFailed(task, msg, startedAt)
		}
	}()

	workflow, ok := s.workflows[task.Type]
	if !ok {
		s.finishFailed(task, fmt.Sprintf("no workflow registered for task type %q", task.Type), startedAt)
		return
	}

	if s.logger != nil {
		s.logger.Info("task started", "task_id", task.ID, "task_type", task.Type, "owner", task.Owner)
	}

	result, err := workflow.Run(s.runCtx, task, s.progressReporter(task.ID))
	switch {
	case errors.Is(err, core.ErrTaskCancelled):
		if s.logger != nil {
			s.logger.Info("task cancelled", "task_id", task.ID, "task_type", task.Type)
		}
		s.emitTransition(task.Type, "cancelled", metrics.ResultNoop, s.timeProvider.Now().Sub(startedAt), nil)

	case err != nil:
		s.finishFailed(task, err.Error(), startedAt)
		s.notifyFailure(task, err)

	default:
		s.finishCompleted(task, result, startedAt)
	}
}

// progressReporter builds the callback workflows use to publish progress and
// observe cancellation.
func (s *EngineService) progressReporter(taskID string) ProgressFunc {
	return func(ctx context.Context, progress int, message string) error {
		status, err := s.store.UpdateProgress(ctx, taskID, core.ProgressUpdate{
			Progress: progress,
			Message:  message,
		})
		if err != nil {
			return fmt.Errorf("update progress: %w", err)
		}
		if status == model.TaskStatusCancelled {
			return core.ErrTaskCancelled
		}
		return nil
	}
}

func (s *EngineService) finishCompleted(task *model.Task, result json.RawMessage, startedAt time.Time) {
	// Final status writes survive engine shutdown so a finished workflow is
	// never recorded as orphaned.
	ctx := context.WithoutCancel(s.runCtx)
	completed, err := s.store.Complete(ctx, task.ID, result)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("persist task completion failed", "task_id", task.ID, "error", err)
		}
		return
	}
	if !completed {
		// The guarded update matched nothing: the task left running status
		// behind our back, which only cancellation can do.
		if s.logger != nil {
			s.logger.Info("task result discarded after cancellation", "task_id", task.ID, "task_type", task.Type)
		}
		s.emitTransition(task.Type, "cancelled", metrics.ResultNoop, s.timeProvider.Now().Sub(startedAt), nil)
		return
	}
	if s.logger != nil {
		s.logger.Info("task completed", "task_id", task.ID, "task_type", task.Type)
	}
	s.emitTransition(task.Type, "completed", metrics.ResultSuccess, s.timeProvider.Now().Sub(startedAt), nil)
}

func (s *EngineService) finishFailed(task *model.Task, msg string, startedAt time.Time) {
	ctx := context.WithoutCancel(s.runCtx)
	failed, err := s.store.Fail(ctx, task.ID, msg)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("persist task failure failed", "task_id", task.ID, "error", err)
		}
		return
	}
	if !failed {
		if s.logger != nil {
			s.logger.Info("task failure discarded after cancellation", "task_id", task.ID, "task_type", task.Type)
		}
		s.emitTransition(task.Type, "cancelled", metrics.ResultNoop, s.timeProvider.Now().Sub(startedAt), nil)
		return
	}
	if s.logger != nil {
		s.logger.Error("task failed", "task_id", task.ID, "task_type", task.Type, "error", msg)
	}
	s.emitTransition(task.Type, "failed", metrics.ResultError, s.timeProvider.Now().Sub(startedAt), errors.New(msg))
}

func (s *EngineService) notifyFailure(task *model.Task, cause error) {
	if s.notifier == nil {
		return
	}
	ctx := context.WithoutCancel(s.runCtx)
	payload := notify.TaskFailurePayload{
		TaskID:     task.ID,
		TaskType:   string(task.Type),
		Owner:      task.Owner,
		Error:      cause.Error(),
		ErrorClass: obserrors.Classify(cause),
		Severity:   notify.SeverityCritical,
		OccurredAt: s.timeProvider.Now(),
	}
	if err := s.notifier.SendTaskFailure(ctx, payload); err != nil && s.logger != nil {
		s.logger.Warn("task failure notification failed", "task_id", task.ID, "error", err)
	}
}

func (s *EngineService) emitTransition(
	taskType model.TaskType,
	transition, result string,
	duration time.Duration,
	err error,
) {
	metrics.EmitTaskLifecycle(s.metrics, metrics.TaskMetric{
		TaskType:   string(taskType),
		Transition: transition,
		Result:     result,
		Duration:   duration,
		Err:        err,
	})
}
