package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notsoai/dashboard/internal/analysis"
	"github.com/notsoai/dashboard/internal/store"
	"github.com/notsoai/dashboard/internal/store/rabbitmq"
)

type processFunc func(ctx context.Context, jobID string) error

func (f processFunc) Process(ctx context.Context, jobID string) error { return f(ctx, jobID) }

type fakeChannel struct {
	err  error
	sent []amqp.Publishing
	keys []string
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f.keys = append(f.keys, key)
	f.sent = append(f.sent, msg)
	return nil
}

type ackRecorder struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (a *ackRecorder) Ack(uint64, bool) error { a.acked = true; return nil }
func (a *ackRecorder) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked, a.requeue = true, requeue
	return nil
}
func (a *ackRecorder) Reject(_ uint64, requeue bool) error {
	a.nacked, a.requeue = true, requeue
	return nil
}

func jobDelivery(ack *ackRecorder, body string, attempt int) amqp.Delivery {
	d := amqp.Delivery{Acknowledger: ack, DeliveryTag: 7, Body: []byte(body)}
	if attempt > 0 {
		d.Headers = amqp.Table{rabbitmq.AttemptHeader: int32(attempt)}
	}
	return d
}

const jobBody = `{"job_id":"01JOB0000000000000000000000"}`

func TestHandle(t *testing.T) {
	transient := errors.New("provider: 503")
	tests := []struct {
		name       string
		body       string
		attempt    int
		procErr    error
		publishErr error

		want        Outcome
		wantCalled  bool
		wantAcked   bool
		wantNacked  bool
		wantRequeue bool
		wantTTL     string
	}{
		{name: "success", body: jobBody, want: Acked, wantCalled: true, wantAcked: true},
		{name: "malformed message", body: `{}`, want: DeadLettered, wantNacked: true},
		{name: "missing job", body: jobBody, procErr: fmt.Errorf("get job: %w", store.ErrNotFound), want: DeadLettered, wantCalled: true, wantNacked: true},
		{name: "unparseable answer", body: jobBody, procErr: fmt.Errorf("%w: eof", analysis.ErrUnparseable), want: DeadLettered, wantCalled: true, wantNacked: true},
		{name: "first transient failure", body: jobBody, procErr: transient, want: Retried, wantCalled: true, wantAcked: true, wantTTL: "5000"},
		{name: "second transient failure", body: jobBody, attempt: 2, procErr: transient, want: Retried, wantCalled: true, wantAcked: true, wantTTL: "10000"},
		{name: "third transient failure", body: jobBody, attempt: 3, procErr: transient, want: DeadLettered, wantCalled: true, wantNacked: true},
		{name: "retry publish fails", body: jobBody, procErr: transient, publishErr: errors.New("channel closed"), want: Requeued, wantCalled: true, wantNacked: true, wantRequeue: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			proc := processFunc(func(context.Context, string) error {
				called = true
				return tt.procErr
			})
			ch := &fakeChannel{err: tt.publishErr}
			ack := &ackRecorder{}
			h := NewHandler(proc, rabbitmq.NewRetrier(ch, rabbitmq.QueuesFor("analysis_jobs")), 0)

			got := h.Handle(context.Background(), 1, jobDelivery(ack, tt.body, tt.attempt))

			assert.Equal(t, tt.want, got, got.String())
			assert.Equal(t, tt.wantCalled, called)
			assert.Equal(t, tt.wantAcked, ack.acked)
			assert.Equal(t, tt.wantNacked, ack.nacked)
			assert.Equal(t, tt.wantRequeue, ack.requeue)
			if tt.wantTTL == "" {
				assert.Empty(t, ch.sent)
				return
			}
			require.Len(t, ch.sent, 1)
			assert.Equal(t, "analysis_jobs.retry", ch.keys[0])
			assert.Equal(t, tt.wantTTL, ch.sent[0].Expiration)
		})
	}
}

func TestHandle_ShutdownBeforeStartRequeues(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	proc := processFunc(func(context.Context, string) error { called = true; return nil })
	ack := &ackRecorder{}
	h := NewHandler(proc, rabbitmq.NewRetrier(&fakeChannel{}, rabbitmq.QueuesFor("q")), 0)

	assert.Equal(t, Requeued, h.Handle(ctx, 1, jobDelivery(ack, jobBody, 0)))
	assert.False(t, called)
	assert.True(t, ack.nacked)
	assert.True(t, ack.requeue)
}

func TestHandle_ShutdownMidJobSettlesNormally(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var jobErr error
	proc := processFunc(func(jobCtx context.Context, _ string) error {
		cancel()
		jobErr = jobCtx.Err()
		return errors.New("provider: 503")
	})
	ch := &fakeChannel{}
	ack := &ackRecorder{}
	h := NewHandler(proc, rabbitmq.NewRetrier(ch, rabbitmq.QueuesFor("q")), 0)

	assert.Equal(t, Retried, h.Handle(ctx, 1, jobDelivery(ack, jobBody, 0)))
	assert.NoError(t, jobErr)
	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)
	require.Len(t, ch.sent, 1)
}
