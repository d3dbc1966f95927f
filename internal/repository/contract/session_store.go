package contract

import (
	"context"

	"pdf-rag-be/internal/entity"
)

// SessionStore is the keyed state service coordinating the session
// lifecycle. All mutation happens through these operations; callers never
// read-modify-write the underlying keys, so two workers racing on the same
// session cannot lose an increment.
type SessionStore interface {
	// Exists reports whether the session existence marker is present.
	Exists(ctx context.Context, sessionId string) (bool, error)

	// Touch creates the existence marker or refreshes its TTL.
	Touch(ctx context.Context, sessionId string) error

	// GetStatus returns the stored status. The second return is false when
	// no status key is present (never uploaded, or expired).
	GetStatus(ctx context.Context, sessionId string) (entity.SessionStatus, bool, error)

	// SetStatus overwrites the status key with a fresh TTL.
	SetStatus(ctx context.Context, sessionId string, status entity.SessionStatus) error

	// SeedUpload overwrites status=ingesting, jobsTotal and jobsCompleted=0
	// together, each with a fresh TTL. Only the upload path calls this, and
	// always before any job for the batch exists.
	SeedUpload(ctx context.Context, sessionId string, jobsTotal int) error

	// IncrCompleted atomically increments the completed-job counter,
	// refreshes its TTL and returns the new count.
	IncrCompleted(ctx context.Context, sessionId string) (int, error)

	// GetJobsTotal returns the jobs total for the current batch, 0 when the
	// key is gone.
	GetJobsTotal(ctx context.Context, sessionId string) (int, error)
}
