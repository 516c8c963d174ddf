// Package core defines the interfaces and business contracts for the
// landscout background engine. The core defines interfaces and the data and
// vendor layers provide implementations.
package core

import (
	"context"
	"time"

	"github.com/parcelworks/landscout/internal/domain/model"
)

// CacheRepository defines the interface for caching operations shared by
// every remote-fetch path. Implementations must tolerate concurrent use.
type CacheRepository interface {
	// Set stores a value in the cache with the given key and TTL.
	// If TTL is 0, the implementation's default TTL applies.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get retrieves a value from the cache by key.
	// Returns nil if the key doesn't exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes a key from the cache.
	// Returns true if the key was deleted, false if it didn't exist.
	Delete(ctx context.Context, key string) (bool, error)

	// Exists checks if a key exists in the cache.
	Exists(ctx context.Context, key string) (bool, error)
}

// TaskStore persists task records so that Get/List/Cancel stay consistent
// across requests even though execution happens in one process.
type TaskStore interface {
	// Create inserts a new task in pending status.
	Create(ctx context.Context, task *model.Task) error

	// GetByID returns a task or model.ErrTaskNotFound.
	GetByID(ctx context.Context, id string) (*model.Task, error)

	// ListByOwner returns the owner's tasks ordered newest-first. A limit of
	// zero or less means no limit.
	ListByOwner(ctx context.Context, owner string, limit int) ([]*model.Task, error)

	// MarkRunning transitions a pending task to running. Returns false if the
	// task was not pending (already started, cancelled, or gone).
	MarkRunning(ctx context.Context, id string, startedAt time.Time) (bool, error)

	// UpdateProgress persists progress/message for a running task. Returns the
	// task's current status so workflows can observe cancellation; the update
	// is a no-op unless the task is still running.
	UpdateProgress(ctx context.Context, id string, update ProgressUpdate) (model.TaskStatus, error)

	// Complete transitions a running task to completed with its result.
	Complete(ctx context.Context, id string, result []byte) (bool, error)

	// Fail transitions a running task to failed with an error message.
	Fail(ctx context.Context, id, errMsg string) (bool, error)

	// Cancel transitions a pending or running task to cancelled. Returns false
	// if the task was already terminal.
	Cancel(ctx context.Context, id string) (bool, error)

	// NextPending returns the oldest pending task, or nil if none.
	NextPending(ctx context.Context) (*model.Task, error)

	// Stats returns counts of tasks per status.
	Stats(ctx context.Context) (*model.TaskStats, error)

	// DeleteTerminalBefore removes terminal tasks that completed before the
	// cutoff. Returns the number of rows removed.
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// FailOrphanedRunning marks every running task as failed with the given
	// message. Called once at startup: a task running at process crash is
	// otherwise silently orphaned.
	FailOrphanedRunning(ctx context.Context, errMsg string) (int64, error)
}

// ProgressUpdate carries one workflow progress report.
type ProgressUpdate struct {
	Progress int
	Message  string
}

// Geocoder is the reverse-geocode and address-validation vendor surface.
type Geocoder interface {
	// ReverseGeocode returns candidate addresses for a coordinate. An empty
	// slice means "no address here" and is not an error.
	ReverseGeocode(ctx context.Context, coord model.Coordinate) ([]model.Address, error)

	// ValidateAddress standardizes an address and returns its geocode.
	ValidateAddress(ctx context.Context, addr model.Address) (*model.StandardizedAddress, error)
}

// Enricher fetches the owner/parcel attribute bag for a standardized address.
type Enricher interface {
	Enrich(ctx context.Context, addr model.StandardizedAddress) (*model.OwnerRecord, error)
}

// DemographicsClient fetches tract-level demographic records for a bounding box.
type DemographicsClient interface {
	FetchTracts(ctx context.Context, box model.BoundingBox) ([]model.TractRecord, error)
}

// VendorCredentials holds per-call vendor auth material.
type VendorCredentials struct {
	GeocoderKey   string
	EnrichmentKey string
}

// Configured reports whether both vendor keys are present.
func (c VendorCredentials) Configured() bool {
	return c.GeocoderKey != "" && c.EnrichmentKey != ""
}

// CredentialSource supplies vendor credentials per call. An absent credential
// makes the resolver report ErrVendorNotConfigured instead of attempting calls.
type CredentialSource interface {
	VendorCredentials(ctx context.Context) (VendorCredentials, error)
}
