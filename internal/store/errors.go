package store

import (
	"errors"
	"fmt"
)

// ErrStoreUnavailable means the backing system cannot be reached.
// Fatal: the runner aborts before applying anything.
var ErrStoreUnavailable = errors.New("policy store unavailable")

// ErrPermissionDenied means the caller lacks rights to create or modify
// the container. Fatal: the runner aborts before applying anything.
var ErrPermissionDenied = errors.New("permission denied")

// ErrUnknownContainer for lookups against a container that was never
// ensured.
var ErrUnknownContainer = errors.New("unknown container")

// BackupError wraps a failed container snapshot. Recoverable: the
// runner logs a warning and proceeds unless strict backup is requested.
type BackupError struct {
	ContainerID string
	Err         error
}

func (e *BackupError) Error() string {
	return fmt.Sprintf("backup of container %q failed: %v", e.ContainerID, e.Err)
}

func (e *BackupError) Unwrap() error { return e.Err }

// SettingError reports that the backing system refused one setting's
// value. Recoverable: recorded per setting, the run still completes.
type SettingError struct {
	Name   string
	Key    string
	Reason string
}

func (e *SettingError) Error() string {
	return fmt.Sprintf("setting %q rejected: %s", e.Name, e.Reason)
}
