package graph

import "sync"

// Executor runs listener callbacks.
type Executor interface {
	Execute(fn func())
}

// DirectExecutor runs callbacks inline on the calling goroutine.
type DirectExecutor struct{}

func (DirectExecutor) Execute(fn func()) { fn() }

// SerialExecutor runs callbacks one at a time, in submission order, on a
// single goroutine it owns. Execute never blocks.
type SerialExecutor struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
}

// NewSerialExecutor starts the executor goroutine.
func NewSerialExecutor() *SerialExecutor {
	e := &SerialExecutor{done: make(chan struct{})}
	e.cond = sync.NewCond(&e.mu)
	go e.run()
	return e
}

// Execute enqueues fn. Calls after Close are discarded.
func (e *SerialExecutor) Execute(fn func()) {
	if fn == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.queue = append(e.queue, fn)
	e.cond.Signal()
}

// Close runs the callbacks already queued, then stops the goroutine. It must
// not be called from inside a callback.
func (e *SerialExecutor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		<-e.done
		return
	}
	e.closed = true
	e.cond.Broadcast()
	e.mu.Unlock()
	<-e.done
}

func (e *SerialExecutor) run() {
	defer close(e.done)
	for {
		e.mu.Lock()
		for len(e.queue) == 0 && !e.closed {
			e.cond.Wait()
		}
		if len(e.queue) == 0 {
			e.mu.Unlock()
			return
		}
		fn := e.queue[0]
		e.queue[0] = nil
		e.queue = e.queue[1:]
		e.mu.Unlock()
		fn()
	}
}
