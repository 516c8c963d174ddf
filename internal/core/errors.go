package core

import "errors"

var (
	// ErrVendorNotConfigured is returned when vendor credentials are absent.
	// It is reported distinctly and never silently retried.
	ErrVendorNotConfigured = errors.New("property vendor credentials not configured")

	// ErrTaskNotCancellable is returned when cancelling a task that already
	// reached a terminal state.
	ErrTaskNotCancellable = errors.New("task is already terminal and cannot be cancelled")

	// ErrEngineStopped is returned when submitting to an engine that is
	// shutting down.
	ErrEngineStopped = errors.New("task engine is stopped")

	// ErrTaskCancelled signals that a workflow observed a cancel request and
	// stopped cooperatively. The task record is already in cancelled status
	// when this surfaces.
	ErrTaskCancelled = errors.New("task cancelled")
)
