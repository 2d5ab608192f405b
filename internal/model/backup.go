package model

import "time"

// BackupStatus tracks a snapshot from the row insert through the S3 upload.
type BackupStatus string

const (
	BackupStatusPending   BackupStatus = "pending"
	BackupStatusUploading BackupStatus = "uploading"
	BackupStatusCompleted BackupStatus = "completed"
	BackupStatusFailed    BackupStatus = "failed"
)

// Backup is one sealed copy of the chores database. Only completed backups
// can be restored; failed ones keep the upload error for `backup list`.
type Backup struct {
	ID           int64        `json:"id"`
	Filename     string       `json:"filename"`
	S3Key        string       `json:"s3_key"`
	SizeBytes    int64        `json:"size_bytes"`
	Status       BackupStatus `json:"status"`
	ErrorMessage string       `json:"error_message,omitempty"`
	StartedAt    time.Time    `json:"started_at"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
}

func (b *Backup) Restorable() bool {
	return b != nil && b.Status == BackupStatusCompleted
}

// Summary is the status column of `backup list`: the status, or the error
// for a failed upload.
func (b *Backup) Summary() string {
	if b.Status == BackupStatusFailed && b.ErrorMessage != "" {
		return string(b.Status) + ": " + b.ErrorMessage
	}
	return string(b.Status)
}
