package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hardenctl/hardenctl/internal/models"
	sqlite3 "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// SQLite is a Store backed by a local SQLite database. Containers,
// links, settings, and backup snapshots live in four tables; ensure and
// link use ON CONFLICT DO NOTHING for idempotency.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite creates or opens the database at path and applies the
// schema. Safe to call repeatedly against the same file.
//
// The connection is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//   - foreign key enforcement
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, translate(err, "failed to connect to policy store")
	}

	// SQLite allows one writer at a time; a single connection avoids
	// SQLITE_BUSY during a run.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, translate(err, "failed to apply pragma")
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, translate(err, "failed to apply schema")
	}

	return &SQLite{db: db}, nil
}

// Close the underlying database.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// EnsureContainer fetches the container by id, creating it with the
// given description if absent. Calling twice with the same id returns
// the original row unchanged.
func (s *SQLite) EnsureContainer(ctx context.Context, id, description string) (Container, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO containers (id, description, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, description, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return Container{}, translate(err, "ensure container")
	}

	return s.getContainer(ctx, id)
}

// getContainer by id
func (s *SQLite) getContainer(ctx context.Context, id string) (Container, error) {
	var c Container
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, description, created_at FROM containers WHERE id = ?
	`, id).Scan(&c.ID, &c.Description, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Container{}, fmt.Errorf("%w: %s", ErrUnknownContainer, id)
	}
	if err != nil {
		return Container{}, translate(err, "get container")
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return c, nil
}

// LinkContainer associates the container with a target scope. Linking
// twice to the same scope is a no-op, not an error.
func (s *SQLite) LinkContainer(ctx context.Context, id, targetScope string) error {
	if _, err := s.getContainer(ctx, id); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO links (container_id, target_scope, linked_at)
		VALUES (?, ?, ?)
		ON CONFLICT(container_id, target_scope) DO NOTHING
	`, id, targetScope, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return translate(err, "link container")
	}
	return nil
}

// Links returns the container's target scopes.
func (s *SQLite) Links(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT target_scope FROM links WHERE container_id = ? ORDER BY target_scope
	`, id)
	if err != nil {
		return nil, translate(err, "list links")
	}
	defer rows.Close()

	var scopes []string
	for rows.Next() {
		var scope string
		if err := rows.Scan(&scope); err != nil {
			return nil, translate(err, "list links")
		}
		scopes = append(scopes, scope)
	}
	return scopes, rows.Err()
}

// BackupContainer snapshots the container's current settings into the
// backups table. The destination is an opaque label recorded with the
// snapshot.
func (s *SQLite) BackupContainer(ctx context.Context, id, destination string) (BackupHandle, error) {
	snapshot, err := s.ContainerState(ctx, id)
	if err != nil {
		return BackupHandle{}, &BackupError{ContainerID: id, Err: err}
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return BackupHandle{}, &BackupError{ContainerID: id, Err: err}
	}

	h := BackupHandle{
		ID:          uuid.NewString(),
		ContainerID: id,
		Destination: destination,
		TakenAt:     time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO backups (id, container_id, destination, taken_at, snapshot)
		VALUES (?, ?, ?, ?, ?)
	`, h.ID, h.ContainerID, h.Destination, h.TakenAt.Format(time.RFC3339Nano), string(data))
	if err != nil {
		return BackupHandle{}, &BackupError{ContainerID: id, Err: err}
	}

	return h, nil
}

// ApplySetting writes one setting's value into the container. A repeat
// write to the same key overwrites the previous value (last write
// wins). Value problems surface as *SettingError so the run continues.
func (s *SQLite) ApplySetting(ctx context.Context, containerID string, setting models.Setting) error {
	if err := rejectValue(setting); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (container_id, key, name, kind, value, updated_at)
		SELECT id, ?, ?, ?, ?, ? FROM containers WHERE id = ?
		ON CONFLICT(container_id, key) DO UPDATE SET
			name = excluded.name,
			kind = excluded.kind,
			value = excluded.value,
			updated_at = excluded.updated_at
	`, setting.Key, setting.Name, string(setting.Value.Kind), setting.Value.String(),
		time.Now().UTC().Format(time.RFC3339Nano), containerID)
	if err != nil {
		return translate(err, "apply setting")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return translate(err, "apply setting")
	}
	if n == 0 {
		return &SettingError{
			Name:   setting.Name,
			Key:    setting.Key,
			Reason: fmt.Sprintf("container %q does not exist", containerID),
		}
	}
	return nil
}

// ContainerState returns the container's current settings as a
// snapshot. Used by backups and by the diff command.
func (s *SQLite) ContainerState(ctx context.Context, id string) (Snapshot, error) {
	if _, err := s.getContainer(ctx, id); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT key, name, kind, value FROM settings WHERE container_id = ?
	`, id)
	if err != nil {
		return nil, translate(err, "read container state")
	}
	defer rows.Close()

	snapshot := Snapshot{}
	for rows.Next() {
		var key string
		var e SnapshotEntry
		if err := rows.Scan(&key, &e.Name, &e.Kind, &e.Value); err != nil {
			return nil, translate(err, "read container state")
		}
		snapshot[key] = e
	}
	return snapshot, rows.Err()
}

// LoadBackup returns a snapshot by backup id, or the most recent backup
// for the container when backupID is empty.
func (s *SQLite) LoadBackup(ctx context.Context, containerID, backupID string) (BackupHandle, Snapshot, error) {
	var h BackupHandle
	var takenAt, data string

	var err error
	if backupID != "" {
		err = s.db.QueryRowContext(ctx, `
			SELECT id, container_id, destination, taken_at, snapshot
			FROM backups WHERE id = ?
		`, backupID).Scan(&h.ID, &h.ContainerID, &h.Destination, &takenAt, &data)
	} else {
		err = s.db.QueryRowContext(ctx, `
			SELECT id, container_id, destination, taken_at, snapshot
			FROM backups WHERE container_id = ?
			ORDER BY taken_at DESC LIMIT 1
		`, containerID).Scan(&h.ID, &h.ContainerID, &h.Destination, &takenAt, &data)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return BackupHandle{}, nil, fmt.Errorf("no backup found for container %q", containerID)
	}
	if err != nil {
		return BackupHandle{}, nil, translate(err, "load backup")
	}

	h.TakenAt, _ = time.Parse(time.RFC3339Nano, takenAt)

	var snapshot Snapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return BackupHandle{}, nil, fmt.Errorf("load backup: corrupt snapshot: %w", err)
	}
	return h, snapshot, nil
}

// rejectValue enforces the store's value rules.
func rejectValue(setting models.Setting) error {
	switch setting.Value.Kind {
	case models.ValueString, models.ValueInt:
		return nil
	case models.ValueEnum:
		if setting.Value.Str == "" {
			return &SettingError{Name: setting.Name, Key: setting.Key, Reason: "empty enum tag"}
		}
		return nil
	default:
		return &SettingError{
			Name:   setting.Name,
			Key:    setting.Key,
			Reason: fmt.Sprintf("unsupported value kind %q", setting.Value.Kind),
		}
	}
}

// translate maps driver errors onto the store taxonomy.
func translate(err error, op string) error {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		switch serr.Code {
		case sqlite3.ErrPerm, sqlite3.ErrAuth, sqlite3.ErrReadonly:
			return fmt.Errorf("%w: %s: %v", ErrPermissionDenied, op, err)
		case sqlite3.ErrCantOpen, sqlite3.ErrBusy, sqlite3.ErrLocked:
			return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
		}
	}
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}
