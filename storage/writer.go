package storage

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"taskboard/domain"
)

const defaultSaveTimeout = 5 * time.Second

// Saver persists a board snapshot.
type Saver interface {
	Save(ctx context.Context, b domain.Board) error
}

// Writer persists boards in the background so callers never wait on the
// store. It holds at most one pending board: submitting while a write is
// queued replaces the queued board, since only the latest state matters.
// A failed write is logged and not retried; the next submitted board is the
// next attempt.
type Writer struct {
	saver   Saver
	timeout time.Duration
	log     *log.Logger

	mu      sync.Mutex
	closed  bool
	mailbox chan domain.Board
	done    chan struct{}
}

// NewWriter starts the background worker.
func NewWriter(saver Saver, timeout time.Duration, logger *log.Logger) *Writer {
	if saver == nil {
		panic("storage.NewWriter: saver is nil")
	}
	if timeout <= 0 {
		timeout = defaultSaveTimeout
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	w := &Writer{
		saver:   saver,
		timeout: timeout,
		log:     logger,
		mailbox: make(chan domain.Board, 1),
		done:    make(chan struct{}),
	}
	go w.run()
	w.log.Debugf("snapshot writer started, timeout: %v", timeout)
	return w
}

func (w *Writer) run() {
	defer close(w.done)
	for b := range w.mailbox {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		err := w.saver.Save(ctx, b)
		cancel()
		if err != nil {
			w.log.WithError(err).Error("board snapshot write failed; keeping in-memory state")
		}
	}
}

// Submit queues b for writing and returns immediately.
func (w *Writer) Submit(b domain.Board) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		w.log.Warn("snapshot writer closed; dropping board")
		return
	}
	// Only Submit adds to the mailbox and it holds mu, so after draining a
	// stale board the send below cannot block.
	select {
	case <-w.mailbox:
	default:
	}
	w.mailbox <- b
}

// Close stops accepting boards and waits until the pending one is written
// or ctx ends.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.mailbox)
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
