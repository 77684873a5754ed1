// Package jobs runs reminder, report, export and email jobs.  Jobs go to
// RabbitMQ when a broker is configured and run inline otherwise; either way
// the outcome is recorded under a task id for later lookup.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/Swati9798/Vehicle-Parking/internal/queue"
)

// Publisher hands a job to the broker.
type Publisher interface {
	Publish(ctx context.Context, msg queue.JobMessage) error
}

// Result is what a submission produced: either a queued task (Async) or
// the output of a job that already ran.
type Result struct {
	Async  bool
	TaskID string
	Output any
}

// Dispatcher submits jobs and records their status.
type Dispatcher struct {
	pub    Publisher
	status StatusStore
	runner *Runner
	now    func() time.Time
}

// NewDispatcher wires a dispatcher.  A nil pub makes every job synchronous.
func NewDispatcher(pub Publisher, status StatusStore, runner *Runner) *Dispatcher {
	return &Dispatcher{pub: pub, status: status, runner: runner, now: func() time.Time { return time.Now().UTC() }}
}

// Submit queues the job, falling back to running it inline when there is no
// broker or publishing fails.  An error is returned only for bad input or a
// failed synchronous run.
func (d *Dispatcher) Submit(ctx context.Context, kind string, userID uint64, payload any) (Result, error) {
	if !Known(kind) {
		return Result{}, fmt.Errorf("unknown job kind %q", kind)
	}
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return Result{}, fmt.Errorf("encode payload: %w", err)
		}
		raw = b
	}
	msg := queue.JobMessage{ID: uuid.NewString(), Kind: kind, UserID: userID, Payload: raw, SubmittedAt: d.now()}

	if d.pub != nil {
		d.record(ctx, msg, StateProcessing, nil, nil)
		if err := d.pub.Publish(ctx, msg); err == nil {
			return Result{Async: true, TaskID: msg.ID}, nil
		}
		log.Printf("job-dispatch: publish %s failed, running inline", kind)
	}

	out, err := d.runner.Run(ctx, kind, userID, raw)
	d.record(ctx, msg, "", out, err)
	if err != nil {
		return Result{TaskID: msg.ID}, err
	}
	return Result{TaskID: msg.ID, Output: out}, nil
}

// Handle runs a consumed message and records the outcome.  Failures are
// logged and reported to the consumer so the delivery is rejected.
func (d *Dispatcher) Handle(ctx context.Context, msg queue.JobMessage) error {
	out, err := d.runner.Run(ctx, msg.Kind, msg.UserID, msg.Payload)
	d.record(ctx, msg, "", out, err)
	if err != nil {
		log.Printf("job-worker: %s %s failed: %v", msg.Kind, msg.ID, err)
		return err
	}
	log.Printf("job-worker: %s %s completed", msg.Kind, msg.ID)
	return nil
}

// Status looks up a task.
func (d *Dispatcher) Status(ctx context.Context, id string) (Status, error) {
	return d.status.Get(ctx, id)
}

func (d *Dispatcher) record(ctx context.Context, msg queue.JobMessage, state string, out any, runErr error) {
	st := Status{ID: msg.ID, Kind: msg.Kind, UserID: msg.UserID, State: state, UpdatedAt: d.now()}
	switch {
	case state != "":
	case runErr != nil:
		st.State, st.Error = StateFailed, runErr.Error()
	default:
		st.State = StateCompleted
		if out != nil {
			if b, err := json.Marshal(out); err == nil {
				st.Result = b
			}
		}
	}
	if err := d.status.Put(ctx, st); err != nil {
		log.Printf("job-dispatch: store status %s: %v", msg.ID, err)
	}
}
