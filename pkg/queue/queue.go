package queue

import "context"

// Job is one unit of ingestion work: a single uploaded file owned by a
// session. Jobs are delivered at least once; handlers must tolerate
// redelivery.
type Job struct {
	JobId     string `json:"job_id"`
	SessionId string `json:"session_id"`
	FilePath  string `json:"file_path"`
}

// Handler processes one delivery attempt. A non-nil error asks the queue to
// retry under its backoff policy; nil acknowledges the job.
type Handler func(ctx context.Context, job Job) error

// Queue carries ingestion jobs from the upload path to the worker pool.
// Implementations retry failed deliveries a bounded number of times with
// exponential backoff and then drop the job.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Consume(ctx context.Context, handler Handler) error
	Close()
}
