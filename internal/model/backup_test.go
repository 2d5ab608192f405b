package model

import "testing"

func TestBackupRestorableAndSummary(t *testing.T) {
	tests := []struct {
		name       string
		b          *Backup
		restorable bool
		summary    string
	}{
		{"completed", &Backup{Status: BackupStatusCompleted}, true, "completed"},
		{"uploading", &Backup{Status: BackupStatusUploading}, false, "uploading"},
		{"failed", &Backup{Status: BackupStatusFailed, ErrorMessage: "access denied"}, false, "failed: access denied"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.b.Restorable(); got != tt.restorable {
				t.Errorf("Restorable() = %v, want %v", got, tt.restorable)
			}
			if got := tt.b.Summary(); got != tt.summary {
				t.Errorf("Summary() = %q, want %q", got, tt.summary)
			}
		})
	}

	var missing *Backup
	if missing.Restorable() {
		t.Error("nil backup is restorable")
	}
}
