package testutil

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/parcelworks/landscout/internal/domain/model"
)

// TaskRequestBuilder provides a fluent interface for building CreateTaskRequest objects for testing.
type TaskRequestBuilder struct {
	req *model.CreateTaskRequest
}

// NewTaskRequest creates a new TaskRequestBuilder with sensible defaults.
func NewTaskRequest() *TaskRequestBuilder {
	return &TaskRequestBuilder{
		req: &model.CreateTaskRequest{
			Type:   model.TaskTypeRegionScan,
			Owner:  "analyst",
			Params: json.RawMessage(`{"box":{"min_lat":40.0,"min_lng":-74.2,"max_lat":40.2,"max_lng":-74.0}}`),
		},
	}
}

// WithType sets the task type.
func (b *TaskRequestBuilder) WithType(taskType model.TaskType) *TaskRequestBuilder {
	b.req.Type = taskType
	return b
}

// WithOwner sets the submitting owner.
func (b *TaskRequestBuilder) WithOwner(owner string) *TaskRequestBuilder {
	b.req.Owner = owner
	return b
}

// WithParams sets the task parameters.
func (b *TaskRequestBuilder) WithParams(params json.RawMessage) *TaskRequestBuilder {
	b.req.Params = params
	return b
}

// WithParamsString sets the task parameters from a string.
func (b *TaskRequestBuilder) WithParamsString(params string) *TaskRequestBuilder {
	b.req.Params = json.RawMessage(params)
	return b
}

// Build returns the constructed request.
func (b *TaskRequestBuilder) Build() *model.CreateTaskRequest {
	return b.req
}

// TaskBuilder provides a fluent interface for building persisted Task rows for testing.
type TaskBuilder struct {
	task *model.Task
}

// NewTask creates a new TaskBuilder with sensible defaults: a pending
// region-scan task created now.
func NewTask() *TaskBuilder {
	return &TaskBuilder{
		task: &model.Task{
			ID:            uuid.NewString(),
			Type:          model.TaskTypeRegionScan,
			Status:        model.TaskStatusPending,
			Owner:         "analyst",
			StatusMessage: "Queued",
			Params:        json.RawMessage(`{}`),
			CreatedAt:     time.Now().UTC().Truncate(time.Second),
		},
	}
}

// WithID sets the task ID.
func (b *TaskBuilder) WithID(id string) *TaskBuilder {
	b.task.ID = id
	return b
}

// WithType sets the task type.
func (b *TaskBuilder) WithType(taskType model.TaskType) *TaskBuilder {
	b.task.Type = taskType
	return b
}

// WithStatus sets the task status.
func (b *TaskBuilder) WithStatus(status model.TaskStatus) *TaskBuilder {
	b.task.Status = status
	return b
}

// WithOwner sets the owning submitter.
func (b *TaskBuilder) WithOwner(owner string) *TaskBuilder {
	b.task.Owner = owner
	return b
}

// WithCreatedAt sets the creation timestamp.
func (b *TaskBuilder) WithCreatedAt(at time.Time) *TaskBuilder {
	b.task.CreatedAt = at
	return b
}

// WithCompletedAt marks the task finished at the given time.
func (b *TaskBuilder) WithCompletedAt(at time.Time) *TaskBuilder {
	b.task.CompletedAt = &at
	return b
}

// Build returns the constructed task.
func (b *TaskBuilder) Build() *model.Task {
	return b.task
}
