package chat

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

const commandBuffer = 256

// Loop runs every controller callback on one goroutine.
type Loop struct {
	clock    clock.Clock
	commands chan func()
	closing  chan struct{}
	done     chan struct{}
	once     sync.Once
}

func NewLoop(clk clock.Clock) *Loop {
	if clk == nil {
		clk = clock.New()
	}
	return &Loop{
		clock:    clk,
		commands: make(chan func(), commandBuffer),
		closing:  make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run executes queued commands until Close is called.
func (l *Loop) Run() {
	defer close(l.done)
	for {
		select {
		case fn := <-l.commands:
			fn()
		case <-l.closing:
			return
		}
	}
}

// Enqueue schedules fn on the loop. It reports false once the loop is closed.
// It must not be called from the loop goroutine while the buffer is full.
func (l *Loop) Enqueue(fn func()) bool {
	select {
	case <-l.closing:
		return false
	default:
	}
	select {
	case l.commands <- fn:
		return true
	case <-l.closing:
		return false
	}
}

// Call runs fn on the loop and waits for it to finish.
func (l *Loop) Call(fn func()) bool {
	finished := make(chan struct{})
	if !l.Enqueue(func() {
		defer close(finished)
		fn()
	}) {
		return false
	}
	select {
	case <-finished:
		return true
	case <-l.closing:
		return false
	}
}

// After runs fn on the loop once d has elapsed.
func (l *Loop) After(d time.Duration, fn func()) {
	l.Timer(d, fn)
}

// Timer is After with a handle that can stop the timer before it fires.
func (l *Loop) Timer(d time.Duration, fn func()) *clock.Timer {
	return l.clock.AfterFunc(d, func() { l.Enqueue(fn) })
}

// Now returns the loop clock's current time.
func (l *Loop) Now() time.Time {
	return l.clock.Now()
}

func (l *Loop) Close() {
	l.once.Do(func() { close(l.closing) })
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
