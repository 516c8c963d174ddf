// Package model defines the core data types and structures used throughout the landscout task engine.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// TaskType represents the kind of background workflow a task executes.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type TaskType string

// TaskStatus represents the current status of a task.
type TaskStatus string

const (
	// TaskTypeRegionScan partitions a bounding box into fetchable grid cells.
	TaskTypeRegionScan TaskType = "region_scan"
	// TaskTypeBatchEnrichment resolves a list of coordinates to owner records.
	TaskTypeBatchEnrichment TaskType = "batch_enrichment"
	// TaskTypeDemographicLoad fetches demographic tracts for a bounding box.
	TaskTypeDemographicLoad TaskType = "demographic_load"
	// TaskTypeCombinedAnalysis runs region partitioning and demographic load together.
	TaskTypeCombinedAnalysis TaskType = "combined_analysis"

	// TaskStatusPending indicates a task is waiting for a concurrency slot.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusRunning indicates a task is currently executing.
	TaskStatusRunning TaskStatus = "running"
	// TaskStatusCompleted indicates a task finished successfully.
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusFailed indicates a task terminated with an error.
	TaskStatusFailed TaskStatus = "failed"
	// TaskStatusCancelled indicates a task was cancelled before or during execution.
	TaskStatusCancelled TaskStatus = "cancelled"
)

// CancelledMessage is the terminal status message recorded when a task is cancelled.
const CancelledMessage = "Cancelled by user"

// ErrTaskNotFound is returned when a task lookup misses.
var ErrTaskNotFound = errors.New("task not found")

// UnmarshalText implements encoding.TextUnmarshaler for TaskType to allow env parsing.
func (t *TaskType) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	tt := TaskType(v)
	if tt.Valid() {
		*t = tt
		return nil
	}
	return fmt.Errorf("invalid TaskType: %q", v)
}

// Valid returns true if the TaskType is valid.
func (t TaskType) Valid() bool {
	return t == TaskTypeRegionScan || t == TaskTypeBatchEnrichment ||
		t == TaskTypeDemographicLoad || t == TaskTypeCombinedAnalysis
}

// Valid returns true if the TaskStatus is valid.
func (s TaskStatus) Valid() bool {
	return s == TaskStatusPending || s == TaskStatusRunning || s == TaskStatusCompleted ||
		s == TaskStatusFailed || s == TaskStatusCancelled
}

// Terminal returns true if the status is one a task can never leave.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed || s == TaskStatusCancelled
}

// Task represents a unit of scheduled background work with its progress state.
type Task struct {
	ID            string          `json:"id"                       db:"id"`
	Type          TaskType        `json:"type"                     db:"type"`
	Status        TaskStatus      `json:"status"                   db:"status"`
	Owner         string          `json:"owner"                    db:"owner"`
	Progress      int             `json:"progress"                 db:"progress"`
	StatusMessage string          `json:"status_message"           db:"status_message"`
	Params        json.RawMessage `json:"params"                   db:"params"`
	Result        json.RawMessage `json:"result,omitempty"         db:"result"`
	Error         *string         `json:"error,omitempty"          db:"error"`
	CreatedAt     time.Time       `json:"created_at"               db:"created_at"`
	StartedAt     *time.Time      `json:"started_at,omitempty"     db:"started_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"   db:"completed_at"`
}

// CreateTaskRequest represents a request to create a new task.
type CreateTaskRequest struct {
	Type   TaskType        `json:"type"`
	Params json.RawMessage `json:"params"`
	Owner  string          `json:"owner"`
}

// Validate validates the CreateTaskRequest fields.
func (r *CreateTaskRequest) Validate() error {
	if !r.Type.Valid() {
		return errors.New("invalid task type")
	}
	if len(r.Params) == 0 {
		return errors.New("params is required")
	}
	if strings.TrimSpace(r.Owner) == "" {
		return errors.New("owner is required")
	}
	return nil
}

// TaskStats represents counts of tasks in each state.
type TaskStats struct {
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
}
