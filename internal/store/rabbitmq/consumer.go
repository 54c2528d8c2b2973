package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer reads analysis jobs with a prefetch window equal to the worker
// pool size.
type Consumer struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	queues Queues
}

func NewConsumer(url, queue string, prefetch int) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbit dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbit channel: %w", err)
	}
	q := QueuesFor(queue)
	if err := Declare(ch, q); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("qos: %w", err)
	}
	return &Consumer{conn: conn, ch: ch, queues: q}, nil
}

func (c *Consumer) Queues() Queues { return c.queues }

func (c *Consumer) Deliveries() (<-chan amqp.Delivery, error) {
	return c.ch.Consume(c.queues.Main, "", false, false, false, false, nil)
}

func (c *Consumer) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

var ErrBadMessage = errors.New("rabbitmq: malformed job message")

func DecodeJob(body []byte) (string, error) {
	var m JobMessage
	if err := json.Unmarshal(body, &m); err != nil || m.JobID == "" {
		return "", ErrBadMessage
	}
	return m.JobID, nil
}

// Retrier returns the retry policy bound to this consumer's channel.
func (c *Consumer) Retrier() *Retrier {
	return NewRetrier(c.ch, c.queues)
}

// Retrier moves failed deliveries to the retry queue or the DLQ.
type Retrier struct {
	ch     Channel
	queues Queues
}

func NewRetrier(ch Channel, q Queues) *Retrier {
	return &Retrier{ch: ch, queues: q}
}

// Retry acks d and republishes it to the retry queue, or rejects it into the
// DLQ once MaxAttempts is reached. It reports whether a retry was scheduled.
// If the republish fails, d is requeued so the job is not lost.
func (r *Retrier) Retry(ctx context.Context, d amqp.Delivery, jobID string) (bool, error) {
	attempt := Attempt(d.Headers)
	if attempt >= MaxAttempts {
		return false, d.Nack(false, false)
	}
	if err := publish(ctx, r.ch, r.queues.Retry, jobID, attempt+1, RetryDelay(attempt)); err != nil {
		if nerr := d.Nack(false, true); nerr != nil {
			return false, errors.Join(err, nerr)
		}
		return false, err
	}
	return true, d.Ack(false)
}
