package service

import "errors"

// Sentinel errors shared across pipeline services. Handlers map these onto
// HTTP status codes; everything else is treated as an internal failure.
var (
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrSubmissionNotFound = errors.New("submission not found")

	// Policy denials. The deadline gate applies to every category; the
	// attempt quota is skipped for project assignments.
	ErrDeadlinePassed = errors.New("assignment deadline has passed")
	ErrQuotaExhausted = errors.New("attempt quota exhausted")

	ErrNoFiles         = errors.New("at least one file is required")
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrInvalidScore    = errors.New("score is outside the assignment's range")
	ErrInvalidStage    = errors.New("operation is not valid in the submission's current stage")

	// ErrConflict surfaces a concurrent modification that survived the
	// automatic retry. The client should re-read and resubmit.
	ErrConflict = errors.New("submission was modified concurrently")

	// ErrDuplicateRequest marks an upload already in flight for the same
	// assignment and student.
	ErrDuplicateRequest = errors.New("an upload for this assignment is already in progress")

	ErrStorageUnavailable = errors.New("blob storage is unavailable")
)
