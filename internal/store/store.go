// Package store abstracts the backing system that persists applied
// policy settings. The runner drives a Store; concrete backings decide
// durability and visibility of the mutated container.
package store

import (
	"context"
	"time"

	"github.com/hardenctl/hardenctl/internal/models"
)

// Container is the named object settings are applied into.
type Container struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// BackupHandle identifies a container snapshot taken before mutation.
type BackupHandle struct {
	ID          string    `json:"id"`
	ContainerID string    `json:"containerId"`
	Destination string    `json:"destination"`
	TakenAt     time.Time `json:"takenAt"`
}

// Store is the backing-system contract the runner depends on.
//
// EnsureContainer and LinkContainer are idempotent: repeating a call
// with the same arguments never creates a duplicate and never errors.
// ApplySetting writes one setting's value; a rejection is reported as a
// *SettingError so the caller can continue with the rest of the run.
type Store interface {
	EnsureContainer(ctx context.Context, id, description string) (Container, error)
	LinkContainer(ctx context.Context, id, targetScope string) error
	BackupContainer(ctx context.Context, id, destination string) (BackupHandle, error)
	ApplySetting(ctx context.Context, containerID string, setting models.Setting) error
}
