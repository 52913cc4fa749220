package rabbitmq

import (
	"context"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/suPer8Hu/mockai/internal/chat"
)

// Publisher queues transcripts for the worker. It satisfies chat.Archiver.
type Publisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func NewPublisher(url, queue string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := DeclareTopology(ch, queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &Publisher{conn: conn, ch: ch, queue: queue}, nil
}

func RetryQueue(queue string) string { return queue + ".retry" }
func DeadQueue(queue string) string  { return queue + ".dlq" }

// DeclareTopology declares the main queue plus its retry and dead-letter
// queues. Publisher and worker both call it so either may start first.
func DeclareTopology(ch *amqp.Channel, queue string) error {
	// DLQ
	if _, err := ch.QueueDeclare(
		DeadQueue(queue),
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false,
		nil,
	); err != nil {
		return err
	}

	// Retry queue: message TTL -> dead-letter back to main queue
	if _, err := ch.QueueDeclare(
		RetryQueue(queue),
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": queue,
		},
	); err != nil {
		return err
	}

	// Main queue: dead-letter to DLQ on reject/nack(requeue=false)
	_, err := ch.QueueDeclare(
		queue,
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": DeadQueue(queue),
		},
	)
	return err
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

func (p *Publisher) Archive(ctx context.Context, t *chat.Transcript) error {
	return p.PublishJob(ctx, chat.ArchiveJob{Transcript: *t})
}

func (p *Publisher) PublishJob(ctx context.Context, job chat.ArchiveJob) error {
	return publish(ctx, p.ch, p.queue, job, 0)
}

// PublishRetry parks job on the retry queue; it returns to the main queue
// once delay elapses.
func (p *Publisher) PublishRetry(ctx context.Context, job chat.ArchiveJob, delay time.Duration) error {
	return publish(ctx, p.ch, RetryQueue(p.queue), job, delay)
}

func publish(ctx context.Context, ch *amqp.Channel, routingKey string, job chat.ArchiveJob, ttl time.Duration) error {
	body, err := chat.EncodeJob(job)
	if err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.Transcript.ID,
		Body:         body,
		Timestamp:    time.Now(),
	}
	if ttl > 0 {
		msg.Expiration = strconv.FormatInt(ttl.Milliseconds(), 10)
	}
	return ch.PublishWithContext(cctx,
		"",         // default exchange
		routingKey, // routing key = queue
		false,
		false,
		msg,
	)
}
