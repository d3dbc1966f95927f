package channel

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"pdf-rag-be/pkg/queue"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"golang.org/x/sync/semaphore"
)

const topicName = "ingestion-jobs"

// Queue is an in-process ingestion queue on watermill's gochannel pub/sub.
// It keeps the same at-least-once contract as the JetStream queue (bounded
// attempts, exponential backoff) but loses jobs on process exit, so it is
// only suitable for development and tests.
type Queue struct {
	pubSub      *gochannel.GoChannel
	maxAttempts int
	baseBackoff time.Duration
	concurrency int64
}

func NewQueue(maxAttempts int, baseBackoff time.Duration, concurrency int) *Queue {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if baseBackoff <= 0 {
		baseBackoff = 2 * time.Second
	}
	if concurrency <= 0 {
		concurrency = 5
	}

	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewStdLogger(false, false),
	)

	return &Queue{
		pubSub:      pubSub,
		maxAttempts: maxAttempts,
		baseBackoff: baseBackoff,
		concurrency: int64(concurrency),
	}
}

func (q *Queue) Enqueue(ctx context.Context, job queue.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.pubSub.Publish(topicName, message.NewMessage(watermill.NewUUID(), data))
}

func (q *Queue) Consume(ctx context.Context, handler queue.Handler) error {
	messages, err := q.pubSub.Subscribe(ctx, topicName)
	if err != nil {
		return err
	}

	sem := semaphore.NewWeighted(q.concurrency)

	go func() {
		for msg := range messages {
			if err := sem.Acquire(ctx, 1); err != nil {
				msg.Ack()
				return
			}
			go func(msg *message.Message) {
				defer sem.Release(1)
				q.processMessage(ctx, msg, handler)
			}(msg)
		}
	}()

	return nil
}

// processMessage runs the bounded retry loop locally; gochannel has no
// server-side redelivery schedule to lean on.
func (q *Queue) processMessage(ctx context.Context, msg *message.Message, handler queue.Handler) {
	defer msg.Ack()

	var job queue.Job
	if err := json.Unmarshal(msg.Payload, &job); err != nil {
		log.Printf("Error unmarshalling job payload: %v", err)
		return
	}

	delay := q.baseBackoff
	for attempt := 1; attempt <= q.maxAttempts; attempt++ {
		err := handler(ctx, job)
		if err == nil {
			return
		}
		if attempt == q.maxAttempts {
			log.Printf("Job %s abandoned after %d attempts: %v", job.JobId, attempt, err)
			return
		}
		log.Printf("Job %s attempt %d failed, retrying in %s: %v", job.JobId, attempt, delay, err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		}
		delay *= 2
	}
}

func (q *Queue) Close() {
	_ = q.pubSub.Close()
}
