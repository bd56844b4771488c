package service

import (
	"context"
	"io"
)

// BlobStore abstracts the external blob storage used for submission files
// and assignment attachments. Put returns an opaque reference that Fetch and
// Delete accept back.
type BlobStore interface {
	Put(ctx context.Context, name string, reader io.Reader) (string, error)
	Fetch(ctx context.Context, ref string) ([]byte, error)
	Delete(ctx context.Context, ref string) error
}

// ProgressInvalidator drops a student's cached progress overview after a
// pipeline mutation. A nil invalidator is a no-op.
type ProgressInvalidator interface {
	Invalidate(ctx context.Context, studentID uint)
}
