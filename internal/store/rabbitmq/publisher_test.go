package rabbitmq

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suPer8Hu/mockai/internal/chat"
)

func TestQueueNames(t *testing.T) {
	assert.Equal(t, "mockai_transcripts.retry", RetryQueue("mockai_transcripts"))
	assert.Equal(t, "mockai_transcripts.dlq", DeadQueue("mockai_transcripts"))
}

// Runs against a real broker when RABBIT_URL is set.
func openTestPublisher(t *testing.T) (*Publisher, string) {
	t.Helper()
	url := os.Getenv("RABBIT_URL")
	if url == "" {
		t.Skip("RABBIT_URL not set")
	}
	queue := "mockai_test_" + uuid.NewString()[:8]
	p, err := NewPublisher(url, queue)
	if err != nil {
		t.Skipf("rabbitmq unavailable: %v", err)
	}
	t.Cleanup(func() {
		for _, q := range []string{queue, RetryQueue(queue), DeadQueue(queue)} {
			_, _ = p.ch.QueueDelete(q, false, false, false)
		}
		_ = p.Close()
	})
	return p, queue
}

func getOne(t *testing.T, ch *amqp.Channel, queue string, within time.Duration) amqp.Delivery {
	t.Helper()
	deadline := time.Now().Add(within)
	for time.Now().Before(deadline) {
		d, ok, err := ch.Get(queue, true)
		require.NoError(t, err)
		if ok {
			return d
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("no message on %s within %s", queue, within)
	return amqp.Delivery{}
}

func TestPublisher_Archive(t *testing.T) {
	p, queue := openTestPublisher(t)
	tr := &chat.Transcript{ID: "01J0000000000000000000TEST", SessionKey: "k", Model: "gpt-5", UserText: "hi"}

	require.NoError(t, p.Archive(context.Background(), tr))

	d := getOne(t, p.ch, queue, 2*time.Second)
	assert.Equal(t, tr.ID, d.MessageId)
	job, err := chat.DecodeJob(d.Body)
	require.NoError(t, err)
	assert.Equal(t, 0, job.Attempt)
	assert.Equal(t, "hi", job.Transcript.UserText)
}

func TestPublisher_RetryReturnsToMainQueue(t *testing.T) {
	p, queue := openTestPublisher(t)
	job := chat.ArchiveJob{
		Transcript: chat.Transcript{ID: "01J0000000000000000000RTRY", SessionKey: "k"},
		Attempt:    1,
	}

	require.NoError(t, p.PublishRetry(context.Background(), job, 100*time.Millisecond))

	d := getOne(t, p.ch, queue, 3*time.Second)
	got, err := chat.DecodeJob(d.Body)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Attempt)
}
