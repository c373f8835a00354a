// Package dispatch serializes viewer events and runs their deferred stages in order.
package dispatch

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/kagami/pkg/utils"
)

// Task is a deferred stage. It runs after the event that scheduled it, on the
// same execution slot.
type Task func(ctx context.Context)

type namedTask struct {
	name string
	fn   Task
}

// Queue has a single execution slot. Do runs one event at a time, then drains
// every task deferred while it ran, first in first out, including tasks deferred
// by those tasks.
type Queue struct {
	slot   chan struct{}
	logger *zap.Logger

	mu       sync.Mutex
	deferred []namedTask
}

// NewQueue returns an idle queue.
func NewQueue(logger *zap.Logger) *Queue {
	return &Queue{slot: make(chan struct{}, 1), logger: utils.OrNop(logger)}
}

// Do waits for the execution slot, runs fn and drains deferred tasks. It fails
// with the context error if ctx ends before the slot is free. Deferred tasks run
// even when fn fails, and they are not cancelled with ctx.
func (q *Queue) Do(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	select {
	case q.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-q.slot }()

	q.logger.Debug("dispatch", zap.String("event", name))
	err := fn(ctx)
	q.drain(context.WithoutCancel(ctx))
	return err
}

// Defer schedules fn to run after the current event. Called outside Do, the task
// waits for the next Do.
func (q *Queue) Defer(name string, fn Task) {
	q.mu.Lock()
	q.deferred = append(q.deferred, namedTask{name: name, fn: fn})
	q.mu.Unlock()
}

// Pending returns the number of tasks waiting to run.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.deferred)
}

func (q *Queue) drain(ctx context.Context) {
	for {
		q.mu.Lock()
		if len(q.deferred) == 0 {
			q.mu.Unlock()
			return
		}
		t := q.deferred[0]
		q.deferred[0] = namedTask{}
		q.deferred = q.deferred[1:]
		q.mu.Unlock()

		q.logger.Debug("run deferred", zap.String("task", t.name))
		t.fn(ctx)
	}
}
