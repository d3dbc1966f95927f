package jetstream

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"pdf-rag-be/pkg/queue"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"golang.org/x/sync/semaphore"
)

const (
	streamName  = "INGESTION"
	subjectName = "ingestion.jobs"
	durableName = "ingestion-worker"
)

// Queue is the durable ingestion queue on NATS JetStream. Each enqueued job
// is delivered to exactly one worker attempt sequence and retried up to
// maxAttempts times before it is dropped.
type Queue struct {
	nc          *nats.Conn
	js          jetstream.JetStream
	maxAttempts int
	baseBackoff time.Duration
	concurrency int64
	consumeCtx  jetstream.ConsumeContext
}

// NewQueue connects to NATS and ensures the ingestion work-queue stream
// exists.
func NewQueue(url string, maxAttempts int, baseBackoff time.Duration, concurrency int) (*Queue, error) {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if baseBackoff <= 0 {
		baseBackoff = 2 * time.Second
	}
	if concurrency <= 0 {
		concurrency = 5
	}

	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      streamName,
		Subjects:  []string{subjectName},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.WorkQueuePolicy,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream %q: %w", streamName, err)
	}

	return &Queue{
		nc:          nc,
		js:          js,
		maxAttempts: maxAttempts,
		baseBackoff: baseBackoff,
		concurrency: int64(concurrency),
	}, nil
}

// Enqueue publishes one job to the stream.
func (q *Queue) Enqueue(ctx context.Context, job queue.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if _, err := q.js.Publish(ctx, subjectName, data); err != nil {
		return fmt.Errorf("failed to publish job %s: %w", job.JobId, err)
	}
	return nil
}

// consumerConfig is the durable work-queue consumer. AckWait must stay the
// only server-side redelivery trigger: setting BackOff would override it and
// redeliver jobs that are still being worked on. Retry delay after a failed
// attempt is applied client-side via NakWithDelay instead.
func consumerConfig(maxAttempts int) jetstream.ConsumerConfig {
	return jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: subjectName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    maxAttempts,
		// Embedding and indexing a large PDF can take a while; do not let
		// the server redeliver a job that is still being worked on.
		AckWait: 5 * time.Minute,
	}
}

// Consume registers a durable consumer and processes deliveries with a
// bounded worker pool. The attempt cap lives in the consumer configuration
// so it survives process restarts.
func (q *Queue) Consume(ctx context.Context, handler queue.Handler) error {
	consumer, err := q.js.CreateOrUpdateConsumer(ctx, streamName, consumerConfig(q.maxAttempts))
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	sem := semaphore.NewWeighted(q.concurrency)

	consumeCtx, err := consumer.Consume(func(msg jetstream.Msg) {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Shutting down; leave the message for redelivery.
			return
		}
		go func() {
			defer sem.Release(1)
			q.processMessage(ctx, msg, handler)
		}()
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	q.consumeCtx = consumeCtx

	log.Printf("Consuming %s with durable %s (concurrency %d)", subjectName, durableName, q.concurrency)
	return nil
}

func (q *Queue) processMessage(ctx context.Context, msg jetstream.Msg, handler queue.Handler) {
	var job queue.Job
	if err := json.Unmarshal(msg.Data(), &job); err != nil {
		log.Printf("Error unmarshalling job payload: %v", err)
		_ = msg.Ack() // poison message, retrying cannot help
		return
	}

	if err := handler(ctx, job); err != nil {
		delivered := 1
		if meta, metaErr := msg.Metadata(); metaErr == nil {
			delivered = int(meta.NumDelivered)
		}
		if delivered >= q.maxAttempts {
			log.Printf("Job %s abandoned after %d attempts: %v", job.JobId, delivered, err)
			_ = msg.Nak() // MaxDeliver stops any further delivery
			return
		}
		delay := retryDelay(q.baseBackoff, delivered)
		log.Printf("Job %s attempt %d failed, retrying in %s: %v", job.JobId, delivered, delay, err)
		_ = msg.NakWithDelay(delay)
		return
	}

	_ = msg.Ack()
}

// Close drains the consumer and closes the connection.
func (q *Queue) Close() {
	if q.consumeCtx != nil {
		q.consumeCtx.Drain()
	}
	if q.nc != nil {
		q.nc.Close()
	}
}

// retryDelay doubles per failed delivery, starting at base after the first.
func retryDelay(base time.Duration, delivered int) time.Duration {
	if delivered < 1 {
		delivered = 1
	}
	return base << (delivered - 1)
}
