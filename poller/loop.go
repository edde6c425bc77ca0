package poller

import "sync"

// Loop runs submitted work one closure at a time on a single goroutine.
// Every mutation of the reconciled stores goes through it, so views and
// subscribers never observe two reconciliations interleaved.
type Loop struct {
	work     chan func()
	stopChan chan struct{}
	done     chan struct{}
	once     sync.Once
}

func NewLoop() *Loop {
	l := &Loop{
		work:     make(chan func(), 64),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		select {
		case <-l.stopChan:
			return
		case fn := <-l.work:
			fn()
		}
	}
}

// Do runs fn on the loop and waits for it to finish. It reports false
// without running fn once the loop is stopped. Do must not be called from
// inside a closure already running on the loop.
func (l *Loop) Do(fn func()) bool {
	ran := make(chan struct{})
	select {
	case l.work <- func() { defer close(ran); fn() }:
	case <-l.stopChan:
		return false
	}
	select {
	case <-ran:
		return true
	case <-l.done:
		// Stopped before reaching fn.
		select {
		case <-ran:
			return true
		default:
			return false
		}
	}
}

// Post queues fn without waiting.
func (l *Loop) Post(fn func()) bool {
	select {
	case l.work <- fn:
		return true
	case <-l.stopChan:
		return false
	}
}

// Stop ends the loop after the closure in progress, if any. Queued work
// that has not started is dropped.
func (l *Loop) Stop() {
	l.once.Do(func() { close(l.stopChan) })
	<-l.done
}
