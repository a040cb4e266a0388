package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hardenctl/hardenctl/internal/models"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenSQLite_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpenSQLite_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("first OpenSQLite() failed: %v", err)
	}
	s1.Close()

	s2, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("second OpenSQLite() failed: %v", err)
	}
	defer s2.Close()
}

func TestEnsureContainer_Idempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.EnsureContainer(ctx, "baseline", "workstation baseline")
	if err != nil {
		t.Fatalf("first EnsureContainer() failed: %v", err)
	}

	second, err := s.EnsureContainer(ctx, "baseline", "different description")
	if err != nil {
		t.Fatalf("second EnsureContainer() failed: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("second ensure returned id %q, want %q", second.ID, first.ID)
	}
	// The original row survives: a repeat ensure never rewrites it.
	if second.Description != "workstation baseline" {
		t.Errorf("description = %q, want original preserved", second.Description)
	}
}

func TestLinkContainer_Idempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.EnsureContainer(ctx, "baseline", ""); err != nil {
		t.Fatalf("EnsureContainer() failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := s.LinkContainer(ctx, "baseline", "ou=workstations"); err != nil {
			t.Fatalf("LinkContainer() attempt %d failed: %v", i+1, err)
		}
	}

	links, err := s.Links(ctx, "baseline")
	if err != nil {
		t.Fatalf("Links() failed: %v", err)
	}
	if len(links) != 1 {
		t.Errorf("got %d links, want 1", len(links))
	}
}

func TestLinkContainer_UnknownContainer(t *testing.T) {
	s := openTestStore(t)

	err := s.LinkContainer(context.Background(), "ghost", "ou=x")
	if !errors.Is(err, ErrUnknownContainer) {
		t.Errorf("LinkContainer() error = %v, want ErrUnknownContainer", err)
	}
}

func TestApplySetting_LastWriteWins(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.EnsureContainer(ctx, "c", ""); err != nil {
		t.Fatalf("EnsureContainer() failed: %v", err)
	}

	first := models.Setting{Key: "a/b", Name: "default", Value: models.IntValue(0)}
	second := models.Setting{Key: "a/b", Name: "override", Value: models.IntValue(1)}

	if err := s.ApplySetting(ctx, "c", first); err != nil {
		t.Fatalf("first ApplySetting() failed: %v", err)
	}
	if err := s.ApplySetting(ctx, "c", second); err != nil {
		t.Fatalf("second ApplySetting() failed: %v", err)
	}

	state, err := s.ContainerState(ctx, "c")
	if err != nil {
		t.Fatalf("ContainerState() failed: %v", err)
	}
	if len(state) != 1 {
		t.Fatalf("got %d settings, want 1", len(state))
	}
	if got := state["a/b"]; got.Name != "override" || got.Value != "1" {
		t.Errorf("state[a/b] = %+v, want override=1", got)
	}
}

func TestApplySetting_UnknownContainerRejected(t *testing.T) {
	s := openTestStore(t)

	err := s.ApplySetting(context.Background(), "ghost",
		models.Setting{Key: "a/b", Name: "x", Value: models.IntValue(1)})

	var serr *SettingError
	if !errors.As(err, &serr) {
		t.Fatalf("ApplySetting() error = %v, want *SettingError", err)
	}
}

func TestApplySetting_RejectsEmptyEnum(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.EnsureContainer(ctx, "c", ""); err != nil {
		t.Fatalf("EnsureContainer() failed: %v", err)
	}

	err := s.ApplySetting(ctx, "c",
		models.Setting{Key: "a/b", Name: "x", Value: models.Value{Kind: models.ValueEnum}})

	var serr *SettingError
	if !errors.As(err, &serr) {
		t.Fatalf("ApplySetting() error = %v, want *SettingError", err)
	}
}

func TestBackupAndLoad(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.EnsureContainer(ctx, "c", ""); err != nil {
		t.Fatalf("EnsureContainer() failed: %v", err)
	}
	if err := s.ApplySetting(ctx, "c",
		models.Setting{Key: "a/b", Name: "x", Value: models.IntValue(7)}); err != nil {
		t.Fatalf("ApplySetting() failed: %v", err)
	}

	h, err := s.BackupContainer(ctx, "c", "pre-change")
	if err != nil {
		t.Fatalf("BackupContainer() failed: %v", err)
	}
	if h.ID == "" {
		t.Fatal("backup handle has no id")
	}

	// Mutate after the backup.
	if err := s.ApplySetting(ctx, "c",
		models.Setting{Key: "a/b", Name: "x", Value: models.IntValue(9)}); err != nil {
		t.Fatalf("ApplySetting() failed: %v", err)
	}

	loaded, snapshot, err := s.LoadBackup(ctx, "c", "")
	if err != nil {
		t.Fatalf("LoadBackup() failed: %v", err)
	}
	if loaded.ID != h.ID {
		t.Errorf("LoadBackup() returned backup %q, want most recent %q", loaded.ID, h.ID)
	}
	if snapshot["a/b"].Value != "7" {
		t.Errorf("snapshot value = %q, want pre-mutation value 7", snapshot["a/b"].Value)
	}
}

func TestBackupUnknownContainer(t *testing.T) {
	s := openTestStore(t)

	_, err := s.BackupContainer(context.Background(), "ghost", "")
	var berr *BackupError
	if !errors.As(err, &berr) {
		t.Fatalf("BackupContainer() error = %v, want *BackupError", err)
	}
}
