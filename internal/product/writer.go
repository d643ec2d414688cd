package product

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/MikeMC777/profitory/internal/storage"
)

// writer persists collection snapshots on a single goroutine. Only the most
// recent pending snapshot is kept, so a burst of mutations results in one
// write of the final state.
type writer struct {
	slot storage.Slot
	key  string
	log  logrus.FieldLogger

	queue chan []byte
	flush chan chan struct{}
	stop  chan struct{}
	done  chan struct{}
	once  sync.Once
}

func newWriter(slot storage.Slot, key string, log logrus.FieldLogger) *writer {
	w := &writer{
		slot:  slot,
		key:   key,
		log:   log,
		queue: make(chan []byte, 1),
		flush: make(chan chan struct{}),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go w.run()
	return w
}

// schedule replaces any pending snapshot with b. Callers must serialize calls.
func (w *writer) schedule(b []byte) {
	select {
	case <-w.queue:
	default:
	}
	w.queue <- b
}

func (w *writer) run() {
	for {
		select {
		case b := <-w.queue:
			w.write(b)
		case ack := <-w.flush:
			w.drain()
			close(ack)
		case <-w.stop:
			w.drain()
			close(w.done)
			return
		}
	}
}

func (w *writer) drain() {
	select {
	case b := <-w.queue:
		w.write(b)
	default:
	}
}

func (w *writer) write(b []byte) {
	if err := w.slot.Set(context.Background(), w.key, b); err != nil {
		w.log.WithError(err).WithField("key", w.key).Error("[store] persist failed")
		return
	}
	w.log.WithFields(logrus.Fields{"key": w.key, "bytes": len(b)}).Debug("[store] persisted")
}

// Flush blocks until every snapshot scheduled before the call is written.
func (w *writer) Flush(ctx context.Context) error {
	ack := make(chan struct{})
	select {
	case w.flush <- ack:
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close writes what is pending and stops the goroutine.
func (w *writer) Close(ctx context.Context) error {
	w.once.Do(func() { close(w.stop) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
