package rabbitmq

import (
	"fmt"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Queues names the three queues behind one logical job queue:
// main dead-letters into DLQ, Retry dead-letters back into main after TTL.
type Queues struct {
	Main  string
	Retry string
	DLQ   string
}

func QueuesFor(queue string) Queues {
	return Queues{Main: queue, Retry: queue + ".retry", DLQ: queue + ".dlq"}
}

// Declare creates the queues idempotently. Publisher and consumer must agree
// on the arguments or RabbitMQ rejects the second declaration.
func Declare(ch *amqp.Channel, q Queues) error {
	if _, err := ch.QueueDeclare(q.DLQ, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", q.DLQ, err)
	}
	if _, err := ch.QueueDeclare(q.Retry, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": q.Main,
	}); err != nil {
		return fmt.Errorf("declare %s: %w", q.Retry, err)
	}
	if _, err := ch.QueueDeclare(q.Main, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": q.DLQ,
	}); err != nil {
		return fmt.Errorf("declare %s: %w", q.Main, err)
	}
	return nil
}

const (
	AttemptHeader = "x-attempt"
	MaxAttempts   = 3
)

// Attempt reads the delivery attempt counter; first deliveries are 1.
func Attempt(headers amqp.Table) int {
	switch v := headers[AttemptHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 1
}

// RetryDelay grows linearly: 5s, 10s, 15s...
func RetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(attempt) * 5 * time.Second
}
