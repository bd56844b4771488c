package models

import "time"

// SubmissionFile kinds, derived from the upload's extension.
const (
	FileKindImage    = "image"
	FileKindDocument = "document"
	FileKindText     = "text"
)

// SubmissionFile references one uploaded blob belonging to a submission.
// Rows and their blobs are deleted together whenever the parent submission is
// replaced or removed.
type SubmissionFile struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubmissionID uint      `gorm:"not null;index" json:"submission_id"`
	BlobRef      string    `gorm:"size:512;not null" json:"blob_ref"`
	OriginalName string    `gorm:"size:255;not null" json:"original_name"`
	Kind         string    `gorm:"size:16;not null" json:"kind"`
	Position     int       `gorm:"not null;default:0" json:"position"`
	CreatedAt    time.Time `json:"created_at"`
}
