// Package worker turns RabbitMQ deliveries into analysis runs and settles each
// delivery: ack, retry, requeue or dead-letter.
package worker

import (
	"context"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/notsoai/dashboard/internal/analysis"
	"github.com/notsoai/dashboard/internal/logging"
	"github.com/notsoai/dashboard/internal/store"
	"github.com/notsoai/dashboard/internal/store/rabbitmq"
)

const DefaultJobTimeout = 2 * time.Minute

type Processor interface {
	Process(ctx context.Context, jobID string) error
}

// Retrier is implemented by *rabbitmq.Retrier.
type Retrier interface {
	Retry(ctx context.Context, d amqp.Delivery, jobID string) (bool, error)
}

type Outcome int

const (
	Acked Outcome = iota
	Retried
	Requeued
	DeadLettered
)

func (o Outcome) String() string {
	switch o {
	case Acked:
		return "acked"
	case Retried:
		return "retried"
	case Requeued:
		return "requeued"
	case DeadLettered:
		return "dead_lettered"
	default:
		return "unknown"
	}
}

type Handler struct {
	proc       Processor
	retrier    Retrier
	jobTimeout time.Duration
}

func NewHandler(proc Processor, retrier Retrier, jobTimeout time.Duration) *Handler {
	if jobTimeout <= 0 {
		jobTimeout = DefaultJobTimeout
	}
	return &Handler{proc: proc, retrier: retrier, jobTimeout: jobTimeout}
}

// permanent reports errors that no retry can fix.
func permanent(err error) bool {
	return errors.Is(err, store.ErrNotFound) || errors.Is(err, analysis.ErrUnparseable)
}

// Handle processes one delivery. ctx is the worker's lifetime: once it is
// done, deliveries not yet started go back to the queue, while a started job
// runs to completion on its own timeout and is settled normally.
func (h *Handler) Handle(ctx context.Context, workerID int, d amqp.Delivery) Outcome {
	log := logging.Logger().With().Int("worker", workerID).Logger()

	jobID, err := rabbitmq.DecodeJob(d.Body)
	if err != nil {
		log.Warn().Err(err).Msg("bad message")
		_ = d.Nack(false, false)
		return DeadLettered
	}
	log = log.With().Str("job_id", jobID).Logger()

	if ctx.Err() != nil {
		if err := d.Nack(false, true); err != nil {
			log.Error().Err(err).Msg("requeue failed")
		}
		return Requeued
	}

	jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.jobTimeout)
	defer cancel()

	start := time.Now()
	err = h.proc.Process(jobCtx, jobID)
	if err == nil {
		if err := d.Ack(false); err != nil {
			log.Error().Err(err).Msg("ack failed")
		}
		return Acked
	}

	ev := log.Warn().Dur("cost", time.Since(start)).Err(err)
	if permanent(err) {
		ev.Msg("job failed permanently")
		_ = d.Nack(false, false)
		return DeadLettered
	}

	attempt := rabbitmq.Attempt(d.Headers)
	retried, rerr := h.retrier.Retry(context.WithoutCancel(ctx), d, jobID)
	if rerr != nil {
		log.Error().Err(rerr).Msg("retry publish failed")
	}
	ev.Bool("retry", retried).Int("attempt", attempt).Msg("job failed")
	switch {
	case retried:
		return Retried
	case attempt < rabbitmq.MaxAttempts:
		return Requeued
	default:
		return DeadLettered
	}
}
