// internal/pkg/async/writebehind.go
package async

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Task is a named unit of persistence work. Tasks sharing a Name supersede
// each other: only the most recently submitted one runs.
type Task struct {
	Name    string
	Execute func() error
}

// WriteBehind runs submitted tasks on a single background worker, after a
// trailing delay, keeping only the latest task per name.
type WriteBehind struct {
	delay  time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]Task
	order   []string
	closed  bool

	wake  chan struct{}
	flush chan chan struct{}
	stop  chan struct{}
	done  chan struct{}
}

// NewWriteBehind starts the worker. A zero delay persists as soon as the
// worker is woken.
func NewWriteBehind(delay time.Duration, logger *slog.Logger) *WriteBehind {
	if logger == nil {
		logger = slog.Default()
	}
	w := &WriteBehind{
		delay:   delay,
		logger:  logger,
		pending: make(map[string]Task),
		wake:    make(chan struct{}, 1),
		flush:   make(chan chan struct{}),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

// Submit schedules task, replacing any pending task with the same name.
// After Close the task runs inline on the caller's goroutine.
func (w *WriteBehind) Submit(task Task) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.execute(task)
		return
	}
	if _, exists := w.pending[task.Name]; !exists {
		w.order = append(w.order, task.Name)
	}
	w.pending[task.Name] = task
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of tasks waiting to run.
func (w *WriteBehind) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// Flush runs every pending task now and returns once they have completed.
func (w *WriteBehind) Flush(ctx context.Context) error {
	reply := make(chan struct{})
	select {
	case w.flush <- reply:
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains pending tasks and stops the worker.
func (w *WriteBehind) Close(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.stop)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *WriteBehind) run() {
	defer close(w.done)

	var timer *time.Timer
	var fire <-chan time.Time
	disarm := func() {
		if timer != nil {
			timer.Stop()
		}
		timer, fire = nil, nil
	}

	for {
		select {
		case <-w.wake:
			if w.delay <= 0 {
				w.drain()
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.delay)
				fire = timer.C
			}
		case <-fire:
			disarm()
			w.drain()
		case reply := <-w.flush:
			disarm()
			w.drain()
			close(reply)
		case <-w.stop:
			disarm()
			w.drain()
			return
		}
	}
}

func (w *WriteBehind) drain() {
	for {
		w.mu.Lock()
		if len(w.order) == 0 {
			w.mu.Unlock()
			return
		}
		name := w.order[0]
		w.order = w.order[1:]
		task := w.pending[name]
		delete(w.pending, name)
		w.mu.Unlock()

		w.execute(task)
	}
}

func (w *WriteBehind) execute(task Task) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Panic recovered in write-behind task",
				slog.String("task", task.Name),
				slog.String("panic", fmt.Sprint(r)))
		}
	}()

	if err := task.Execute(); err != nil {
		w.logger.Error("Write-behind task failed", slog.String("task", task.Name), slog.Any("error", err))
	}
}
