package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// SinkRegistration pairs a sink implementation with a human-readable name for logging.
type SinkRegistration struct {
	Name string
	Sink Sink
}

// FanoutOptions configures the fan-out sink.
type FanoutOptions struct {
	Logger *slog.Logger
	Sinks  []SinkRegistration
}

// Fanout dispatches each task failure to every registered sink concurrently.
// A slow or failing sink never blocks the others.
type Fanout struct {
	logger *slog.Logger
	sinks  []SinkRegistration
}

// NewFanout constructs a fan-out over the given sinks. Nil sinks are dropped.
func NewFanout(opts FanoutOptions) *Fanout {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "failure_notifier")
	}

	var sinks []SinkRegistration
	for _, entry := range opts.Sinks {
		if entry.Sink == nil {
			continue
		}
		name := entry.Name
		if name == "" {
			name = "sink"
		}
		sinks = append(sinks, SinkRegistration{Name: name, Sink: entry.Sink})
	}

	return &Fanout{logger: logger, sinks: sinks}
}

// SinkCount returns the number of registered sinks.
func (f *Fanout) SinkCount() int {
	return len(f.sinks)
}

// SendTaskFailure implements Sink. Sink errors are logged per sink and joined
// into the returned error; one sink failing does not stop delivery to the rest.
func (f *Fanout) SendTaskFailure(ctx context.Context, payload TaskFailurePayload) error {
	if len(f.sinks) == 0 {
		return nil
	}

	if payload.Severity == "" {
		payload.Severity = SeverityCritical
	}

	errs := make([]error, len(f.sinks))
	var wg sync.WaitGroup
	for i, entry := range f.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := entry.Sink.SendTaskFailure(ctx, payload); err != nil {
				errs[i] = fmt.Errorf("%s: %w", entry.Name, err)
				if f.logger != nil {
					f.logger.WarnContext(ctx, "task failure notification sink failed",
						"sink", entry.Name,
						"task_id", payload.TaskID,
						"error", err,
					)
				}
			}
		}()
	}
	wg.Wait()

	return errors.Join(errs...)
}
