// This file implements the single-writer persistence loop.
package cart

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/basket/pkg/types"
)

// writeTimeout bounds a single KV write.
const writeTimeout = 10 * time.Second

// writer owns every KV write for one store. schedule hands it the latest
// serialized snapshot, replacing any snapshot not yet written, so writes
// are serialized and the last scheduled snapshot is the one that lands.
// A failed write is logged and not retried; the next schedule carries the
// full state again.
type writer struct {
	kv       types.KVStore
	key      string
	strategy string
	batch    int
	interval time.Duration
	log      *logrus.Entry

	mu      sync.Mutex
	payload string
	dirty   bool
	count   int // schedules since the last write
	lastErr error
	writes  int

	wake     chan struct{}
	flushReq chan chan error
	stop     chan chan error
	done     chan struct{}
}

func newWriter(kv types.KVStore, key string, sc types.SyncConfig, log *logrus.Entry) *writer {
	w := &writer{
		kv:       kv,
		key:      key,
		strategy: sc.GetStrategy(),
		batch:    sc.GetBatchSize(),
		interval: time.Duration(sc.GetBatchInterval()) * time.Second,
		log:      log,
		wake:     make(chan struct{}, 1),
		flushReq: make(chan chan error),
		stop:     make(chan chan error),
		done:     make(chan struct{}),
	}
	go w.run()
	return w
}

// schedule records payload as the state to persist and wakes the loop. It
// never blocks on I/O.
func (w *writer) schedule(payload string) {
	w.mu.Lock()
	w.payload = payload
	w.dirty = true
	w.count++
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *writer) run() {
	var tick <-chan time.Time
	if w.strategy == types.SyncBatch {
		t := time.NewTicker(w.interval)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-w.wake:
			if w.writeOnWake() {
				w.write()
			}
		case <-tick:
			w.write()
		case reply := <-w.flushReq:
			reply <- w.write()
		case reply := <-w.stop:
			reply <- w.write()
			close(w.done)
			return
		}
	}
}

func (w *writer) writeOnWake() bool {
	switch w.strategy {
	case types.SyncImmediate:
		return true
	case types.SyncBatch:
		w.mu.Lock()
		defer w.mu.Unlock()
		return w.count >= w.batch
	default:
		return false
	}
}

// write persists the pending snapshot, if any, and returns the result of the
// most recent attempt.
func (w *writer) write() error {
	w.mu.Lock()
	if !w.dirty {
		err := w.lastErr
		w.mu.Unlock()
		return err
	}
	payload, n := w.payload, w.count
	w.dirty = false
	w.count = 0
	w.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	err := w.kv.Set(ctx, w.key, payload)
	cancel()

	w.mu.Lock()
	w.lastErr = err
	if err == nil {
		w.writes++
	}
	w.mu.Unlock()

	if err != nil {
		w.log.WithError(err).WithField("mutations", n).Warn("cart write-back failed")
	} else {
		w.log.WithField("mutations", n).Debug("cart written")
	}
	return err
}

// flush asks the loop to write whatever is pending and waits for the result.
func (w *writer) flush(ctx context.Context) error {
	reply := make(chan error, 1)
	select {
	case w.flushReq <- reply:
	case <-w.done:
		return types.ErrStoreClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close writes whatever is pending and stops the loop.
func (w *writer) close(ctx context.Context) error {
	reply := make(chan error, 1)
	select {
	case w.stop <- reply:
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// writeCount returns the number of successful writes.
func (w *writer) writeCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes
}
