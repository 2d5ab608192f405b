package store

import (
	"testing"
	"time"

	"github.com/dukerupert/calmchores/internal/database"
	"github.com/dukerupert/calmchores/internal/model"
)

func setupBackupTestDB(t *testing.T) *BackupStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewBackupStore(db)
}

func TestBackupCreate(t *testing.T) {
	bs := setupBackupTestDB(t)

	b, err := bs.Create("calmchores-20260101T000000Z.db.enc", "backups/calmchores-20260101T000000Z.db.enc")
	if err != nil {
		t.Fatalf("create backup: %v", err)
	}
	if b.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if b.Status != model.BackupStatusPending {
		t.Errorf("status = %q, want %q", b.Status, model.BackupStatusPending)
	}
	if b.StartedAt.IsZero() {
		t.Error("expected started_at")
	}
}

func TestBackupUpdateStatus(t *testing.T) {
	bs := setupBackupTestDB(t)
	b, _ := bs.Create("f.db.enc", "backups/f.db.enc")

	if err := bs.UpdateStatus(b.ID, model.BackupStatusFailed, "upload refused"); err != nil {
		t.Fatalf("update status: %v", err)
	}
	got, _ := bs.GetByID(b.ID)
	if got.Status != model.BackupStatusFailed || got.ErrorMessage != "upload refused" {
		t.Errorf("backup = %+v", got)
	}
}

func TestBackupUpdateCompleted(t *testing.T) {
	bs := setupBackupTestDB(t)
	b, _ := bs.Create("f.db.enc", "backups/f.db.enc")

	if err := bs.UpdateCompleted(b.ID, 4096); err != nil {
		t.Fatalf("update completed: %v", err)
	}
	got, _ := bs.GetByID(b.ID)
	if got.Status != model.BackupStatusCompleted || got.SizeBytes != 4096 || got.CompletedAt == nil {
		t.Errorf("backup = %+v", got)
	}

	latest, err := bs.LatestCompleted()
	if err != nil {
		t.Fatalf("latest completed: %v", err)
	}
	if latest == nil || latest.ID != b.ID {
		t.Errorf("latest = %v, want %d", latest, b.ID)
	}
}

func TestBackupLatestCompletedNone(t *testing.T) {
	bs := setupBackupTestDB(t)
	bs.Create("f.db.enc", "backups/f.db.enc")

	latest, err := bs.LatestCompleted()
	if err != nil {
		t.Fatalf("latest completed: %v", err)
	}
	if latest != nil {
		t.Errorf("latest = %+v, want nil", latest)
	}
}

func TestBackupListAndPrune(t *testing.T) {
	bs := setupBackupTestDB(t)
	bs.Create("a.db.enc", "backups/a.db.enc")
	bs.Create("b.db.enc", "backups/b.db.enc")

	list, err := bs.List(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Filename != "b.db.enc" {
		t.Errorf("list = %+v, want newest first", list)
	}

	keys, err := bs.DeleteOlderThan(time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("delete older than: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("keys = %v, want 2", keys)
	}
	list, _ = bs.List(10)
	if len(list) != 0 {
		t.Errorf("list after prune = %d, want 0", len(list))
	}
}
