package snapshot

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Putter is the storage side of a Writer.
type Putter interface {
	Put(ctx context.Context, kind string, data []byte, at time.Time) error
}

// Writer pushes snapshots to storage off the caller's goroutine. Items are
// encoded in Submit, so the caller controls when entity fields are read;
// only the newest pending snapshot per kind is written.
type Writer struct {
	store   Putter
	timeout time.Duration
	LogFunc func(format string, args ...any)

	mu      sync.Mutex
	pending map[string]pendingSnapshot

	wake     chan struct{}
	stopChan chan struct{}
	done     chan struct{}
	once     sync.Once
}

type pendingSnapshot struct {
	data []byte
	at   time.Time
}

func NewWriter(store Putter) *Writer {
	w := &Writer{
		store:    store,
		timeout:  5 * time.Second,
		LogFunc:  log.Printf,
		pending:  make(map[string]pendingSnapshot),
		wake:     make(chan struct{}, 1),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.run()
	return w
}

// Submit encodes items and queues them for kind, replacing any snapshot
// of the same kind not yet written.
func (w *Writer) Submit(kind string, items any) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.pending[kind] = pendingSnapshot{data: data, at: time.Now()}
	w.mu.Unlock()
	select {
	case w.wake <- struct{}{}:
	default:
	}
	return nil
}

func (w *Writer) run() {
	defer close(w.done)
	for {
		select {
		case <-w.stopChan:
			w.flush()
			return
		case <-w.wake:
			w.flush()
		}
	}
}

func (w *Writer) flush() {
	w.mu.Lock()
	batch := w.pending
	w.pending = make(map[string]pendingSnapshot)
	w.mu.Unlock()

	for kind, s := range batch {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		if err := w.store.Put(ctx, kind, s.data, s.at); err != nil {
			w.LogFunc("snapshot: write %s: %v", kind, err)
		}
		cancel()
	}
}

// Stop writes anything pending and ends the writer.
func (w *Writer) Stop() {
	w.once.Do(func() { close(w.stopChan) })
	<-w.done
}
