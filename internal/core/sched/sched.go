// Package sched runs cooperative tasks on the game loop's timeline.
//
// A task is a goroutine, but it only runs while it holds the baton: Spawn and
// Tick hand the baton to a task and block until the task parks in WaitTick or
// returns. At any instant exactly one of {caller, task} is running, so tasks
// may mutate game-loop state without locks.
package sched

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrStopped is returned by WaitTick once the scheduler has been closed.
var ErrStopped = errors.New("scheduler stopped")

// Yielder suspends the calling task until the next Tick of its scheduler.
type Yielder interface {
	WaitTick(ctx context.Context) error
}

// Task is the body of a cooperative task.
type Task func(ctx context.Context, y Yielder) error

type task struct {
	name   string
	resume chan bool // false = scheduler closing
	parked chan bool // true = task finished
}

// Scheduler owns a set of parked tasks. Not safe for concurrent use; only the
// goroutine currently holding the baton may call it.
type Scheduler struct {
	name    string
	ctx     context.Context
	cancel  context.CancelFunc
	parked  []*task
	stopped bool
	log     *zap.Logger
}

func New(name string, log *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		name:   name,
		ctx:    ctx,
		cancel: cancel,
		log:    log.With(zap.String("scheduler", name)),
	}
}

// Spawn starts fn and runs it synchronously until its first WaitTick or return.
func (s *Scheduler) Spawn(name string, fn Task) error {
	if s.stopped {
		return ErrStopped
	}
	t := &task{
		name:   name,
		resume: make(chan bool),
		parked: make(chan bool),
	}
	go s.run(t, fn)
	s.step(t)
	return nil
}

func (s *Scheduler) run(t *task, fn Task) {
	if !<-t.resume {
		t.parked <- true
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error("任務 panic 已恢復", zap.String("task", t.name), zap.Any("panic", rec))
		}
		t.parked <- true
	}()
	if err := fn(s.ctx, &yielder{t: t}); err != nil && !errors.Is(err, ErrStopped) {
		s.log.Warn("任務失敗", zap.String("task", t.name), zap.Error(err))
	}
}

// step hands the baton to t and waits for it to come back.
func (s *Scheduler) step(t *task) {
	t.resume <- true
	if done := <-t.parked; !done {
		s.parked = append(s.parked, t)
	}
}

// Tick resumes every task parked before this call exactly once, in the order
// they parked. Tasks that park during this Tick run on the next one.
func (s *Scheduler) Tick() {
	if s.stopped || len(s.parked) == 0 {
		return
	}
	ready := s.parked
	s.parked = make([]*task, 0, len(ready))
	for _, t := range ready {
		s.step(t)
	}
}

// Pending returns the number of parked tasks.
func (s *Scheduler) Pending() int {
	return len(s.parked)
}

// Close stops the scheduler. Parked tasks observe ErrStopped from WaitTick
// and are driven to completion before Close returns.
func (s *Scheduler) Close() {
	if s.stopped {
		return
	}
	s.stopped = true
	s.cancel()
	for _, t := range s.parked {
		for {
			t.resume <- false
			if <-t.parked {
				break
			}
		}
	}
	s.parked = nil
}

func (s *Scheduler) String() string {
	return fmt.Sprintf("%s(%d parked)", s.name, len(s.parked))
}

type yielder struct {
	t *task
}

func (y *yielder) WaitTick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	y.t.parked <- false
	if ok := <-y.t.resume; !ok {
		return ErrStopped
	}
	return ctx.Err()
}

// Immediate is a Yielder that never suspends. Used where a caller must finish
// its work inside the current tick, such as shutdown.
type Immediate struct{}

func (Immediate) WaitTick(ctx context.Context) error { return ctx.Err() }
