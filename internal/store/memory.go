package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hardenctl/hardenctl/internal/models"
)

// Memory is an in-process Store. It backs tests and throwaway runs; it
// honors the same idempotency and rejection rules as the SQLite store.
type Memory struct {
	mu         sync.Mutex
	containers map[string]Container
	links      map[string]map[string]bool
	settings   map[string]Snapshot
	backups    map[string]Snapshot
	handles    []BackupHandle
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		containers: map[string]Container{},
		links:      map[string]map[string]bool{},
		settings:   map[string]Snapshot{},
		backups:    map[string]Snapshot{},
	}
}

// EnsureContainer creates the container if absent and returns it.
func (m *Memory) EnsureContainer(ctx context.Context, id, description string) (Container, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.containers[id]; ok {
		return c, nil
	}
	c := Container{ID: id, Description: description, CreatedAt: time.Now().UTC()}
	m.containers[id] = c
	m.links[id] = map[string]bool{}
	m.settings[id] = Snapshot{}
	return c, nil
}

// LinkContainer records the scope; repeat links are no-ops.
func (m *Memory) LinkContainer(ctx context.Context, id, targetScope string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.containers[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownContainer, id)
	}
	m.links[id][targetScope] = true
	return nil
}

// Links returns the container's target scopes.
func (m *Memory) Links(id string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	scopes := make([]string, 0, len(m.links[id]))
	for scope := range m.links[id] {
		scopes = append(scopes, scope)
	}
	return scopes
}

// BackupContainer snapshots current settings.
func (m *Memory) BackupContainer(ctx context.Context, id, destination string) (BackupHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.settings[id]
	if !ok {
		return BackupHandle{}, &BackupError{
			ContainerID: id,
			Err:         fmt.Errorf("%w: %s", ErrUnknownContainer, id),
		}
	}

	snapshot := Snapshot{}
	for k, v := range state {
		snapshot[k] = v
	}

	h := BackupHandle{
		ID:          uuid.NewString(),
		ContainerID: id,
		Destination: destination,
		TakenAt:     time.Now().UTC(),
	}
	m.backups[h.ID] = snapshot
	m.handles = append(m.handles, h)
	return h, nil
}

// ApplySetting writes one setting; last write per key wins.
func (m *Memory) ApplySetting(ctx context.Context, containerID string, setting models.Setting) error {
	if err := rejectValue(setting); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.settings[containerID]
	if !ok {
		return &SettingError{
			Name:   setting.Name,
			Key:    setting.Key,
			Reason: fmt.Sprintf("container %q does not exist", containerID),
		}
	}

	state[setting.Key] = SnapshotEntry{
		Name:  setting.Name,
		Kind:  string(setting.Value.Kind),
		Value: setting.Value.String(),
	}
	return nil
}

// ContainerState returns a copy of the container's settings.
func (m *Memory) ContainerState(id string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.settings[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownContainer, id)
	}
	snapshot := Snapshot{}
	for k, v := range state {
		snapshot[k] = v
	}
	return snapshot, nil
}

// LoadBackup returns a backup snapshot by id.
func (m *Memory) LoadBackup(backupID string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot, ok := m.backups[backupID]
	if !ok {
		return nil, fmt.Errorf("no backup %q", backupID)
	}
	return snapshot, nil
}
