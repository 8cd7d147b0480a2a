package minimap

import (
	"context"
	"log"
	"runtime/debug"
	"time"
)

// DefaultFrame is the tick interval of a Loop
const DefaultFrame = time.Second / 60

// Loop owns a Controller and serializes every access to it: posted tasks,
// async completions and frame ticks all run on the loop goroutine.
type Loop struct {
	ctrl  *Controller
	tasks chan func(*Controller)
	frame time.Duration
	done  chan struct{}
}

// NewLoop attaches a loop to ctrl. Floor loads started by the controller
// run in their own goroutines and complete on the loop.
func NewLoop(ctrl *Controller, frame time.Duration) *Loop {
	if frame <= 0 {
		frame = DefaultFrame
	}
	l := &Loop{
		ctrl:  ctrl,
		tasks: make(chan func(*Controller), 64),
		frame: frame,
		done:  make(chan struct{}),
	}
	ctrl.dispatch = func(work func() func()) {
		go func() {
			complete := work()
			l.Post(func(*Controller) { complete() })
		}()
	}
	return l
}

// Run processes tasks and ticks until ctx is cancelled
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)

	ticker := time.NewTicker(l.frame)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case task := <-l.tasks:
			l.exec(task)

		case now := <-ticker.C:
			l.exec(func(c *Controller) { c.Tick(now) })
		}
	}
}

// Post queues fn to run on the loop. It returns false once the loop has
// stopped.
func (l *Loop) Post(fn func(*Controller)) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop and waits for it to finish
func (l *Loop) Do(ctx context.Context, fn func(*Controller)) error {
	finished := make(chan struct{})
	if !l.Post(func(c *Controller) {
		defer close(finished)
		fn(c)
	}) {
		return context.Canceled
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return context.Canceled
	}
}

// Done is closed when Run returns
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) exec(fn func(*Controller)) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("minimap: recovered from panic: %v\n%s", r, debug.Stack())
		}
	}()
	fn(l.ctrl)
}
