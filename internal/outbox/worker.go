package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"project-tracker/internal/log"
	"project-tracker/internal/models"
	"project-tracker/internal/remote"
)

// Sender delivers a mutation to the remote source.
type Sender interface {
	Mutate(ctx context.Context, m remote.Mutation) error
}

// Result reports the outcome of one delivery attempt.
type Result struct {
	Op models.Operation
	// Err is nil when the operation was delivered.
	Err error
	// GaveUp is set when the operation ran out of attempts.
	GaveUp bool
}

// WorkerConfig is the configuration of Worker.
type WorkerConfig struct {
	Queue       *Queue
	Sender      Sender
	Interval    time.Duration
	MaxAttempts int
	// OnResult is called after every attempt, from the worker goroutine.
	OnResult func(Result)
	Logger   log.Logger
}

func (c *WorkerConfig) defaults() error {
	if c.Queue == nil {
		return fmt.Errorf("queue is required")
	}
	if c.Sender == nil {
		return fmt.Errorf("sender is required")
	}
	if c.Interval <= 0 {
		c.Interval = 5 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.OnResult == nil {
		c.OnResult = func(Result) {}
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "outbox.Worker"})
	return nil
}

// Worker flushes the queue periodically and whenever it is kicked.
type Worker struct {
	queue       *Queue
	sender      Sender
	interval    time.Duration
	maxAttempts int
	onResult    func(Result)
	logger      log.Logger
	kick        chan struct{}
}

// NewWorker returns a Worker.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid outbox worker config: %w", err)
	}
	return &Worker{
		queue:       cfg.Queue,
		sender:      cfg.Sender,
		interval:    cfg.Interval,
		maxAttempts: cfg.MaxAttempts,
		onResult:    cfg.OnResult,
		logger:      cfg.Logger,
		kick:        make(chan struct{}, 1),
	}, nil
}

// Kick asks for a flush without waiting for the next tick.
func (w *Worker) Kick() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

// Run flushes until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Infof("outbox worker started, flushing every %s", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if _, err := w.Flush(ctx); err != nil && ctx.Err() == nil {
			w.logger.Errorf("outbox flush failed: %s", err)
		}
		select {
		case <-ctx.Done():
			w.logger.Infof("outbox worker stopped")
			return nil
		case <-ticker.C:
		case <-w.kick:
		}
	}
}

// Flush delivers pending operations in order. A failure blocks the later
// operations of the same task until the next flush; other tasks continue.
func (w *Worker) Flush(ctx context.Context) (int, error) {
	ops, err := w.queue.Pending(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	blocked := map[string]bool{}
	for i := range ops {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		op := ops[i]
		if blocked[op.TaskID] {
			continue
		}

		err := w.sender.Mutate(ctx, remote.Mutation{
			Action: remote.Action(op.Action),
			Data:   json.RawMessage(op.Payload),
			OpID:   op.ID,
		})
		if err == nil {
			if err := w.queue.Complete(ctx, op.ID); err != nil {
				return sent, err
			}
			sent++
			w.onResult(Result{Op: op})
			continue
		}

		blocked[op.TaskID] = true
		gaveUp, qerr := w.queue.RecordFailure(ctx, &op, err, w.maxAttempts)
		if qerr != nil {
			return sent, qerr
		}
		logger := w.logger.WithValues(log.Kv{"op": op.ID, "task": op.TaskID, "attempt": op.Attempts})
		if gaveUp {
			logger.Errorf("%s gave up: %s", op.Action, err)
		} else {
			logger.Warningf("%s failed, will retry: %s", op.Action, err)
		}
		w.onResult(Result{Op: op, Err: err, GaveUp: gaveUp})
	}
	return sent, nil
}
