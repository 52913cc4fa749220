// Package worker drains the transcript queue into the archive database.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
	"github.com/suPer8Hu/mockai/internal/chat"
)

type TranscriptStore interface {
	InsertTranscript(ctx context.Context, t *chat.Transcript) error
}

type Retrier interface {
	PublishRetry(ctx context.Context, job chat.ArchiveJob, delay time.Duration) error
}

type Outcome int

const (
	Ack Outcome = iota
	// Retried means a copy went to the retry queue; the original is acked.
	Retried
	// Dead means the message is nacked without requeue and lands in the DLQ.
	Dead
	// Requeue hands the message back to the broker, used on shutdown.
	Requeue
)

type Worker struct {
	store       TranscriptStore
	retry       Retrier
	concurrency int
	retryDelay  time.Duration
}

func New(store TranscriptStore, retry Retrier, concurrency int) *Worker {
	if concurrency <= 0 {
		concurrency = 2
	}
	if concurrency > 50 {
		concurrency = 50
	}
	return &Worker{store: store, retry: retry, concurrency: concurrency, retryDelay: 5 * time.Second}
}

func (w *Worker) Concurrency() int { return w.concurrency }

// Handle processes one message body and reports what to do with the delivery.
func (w *Worker) Handle(ctx context.Context, body []byte) Outcome {
	job, err := chat.DecodeJob(body)
	if err != nil {
		log.Warn().Err(err).Msg("bad archive message")
		return Dead
	}

	start := time.Now()
	err = w.store.InsertTranscript(ctx, &job.Transcript)
	if err == nil {
		if cost := time.Since(start); cost > 500*time.Millisecond {
			log.Info().Str("transcript_id", job.Transcript.ID).Dur("cost", cost).Msg("slow archive insert")
		}
		return Ack
	}

	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return Requeue
	}
	l := log.Warn().Err(err).Str("transcript_id", job.Transcript.ID).Int("attempt", job.Attempt)
	if w.retry == nil || !job.Retryable() {
		l.Msg("archive failed, dead-lettering")
		return Dead
	}
	job.Attempt++
	if rerr := w.retry.PublishRetry(ctx, job, w.retryDelay*time.Duration(job.Attempt)); rerr != nil {
		l.AnErr("retry_err", rerr).Msg("archive failed, retry publish failed")
		return Dead
	}
	l.Msg("archive failed, scheduled retry")
	return Retried
}

// Run consumes deliveries with a fixed pool until ctx ends or the delivery
// channel closes.
func (w *Worker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	jobs := make(chan amqp.Delivery, w.concurrency*2)

	var wg sync.WaitGroup
	wg.Add(w.concurrency)
	for i := 0; i < w.concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				w.settle(workerID, d, w.Handle(ctx, d.Body))
			}
		}(i)
	}

	defer func() {
		close(jobs)
		wg.Wait()
	}()

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("worker shutting down")
			return
		case d, ok := <-deliveries:
			if !ok {
				log.Warn().Msg("delivery channel closed")
				return
			}
			jobs <- d
		}
	}
}

func (w *Worker) settle(workerID int, d amqp.Delivery, out Outcome) {
	var err error
	switch out {
	case Ack, Retried:
		err = d.Ack(false)
	case Dead:
		err = d.Nack(false, false)
	case Requeue:
		err = d.Nack(false, true)
	}
	if err != nil {
		log.Error().Err(err).Int("worker", workerID).Str("message_id", d.MessageId).Msg("settle delivery failed")
	}
}
