// Package cart implements the cart store: an ordered list of line items held
// in memory, mirrored to a KV store, and observed by subscribers.
//
// A Store starts uninitialized. Mutations are accepted immediately and are
// visible in Products, but nothing is written until Load has read the
// persisted list. Load replays the mutations made before it completed on
// top of the loaded list, then the store is ready and every later mutation
// schedules a write-back. Write-backs go through a single writer goroutine,
// so the persisted value always converges on the latest mutation; callers
// never wait on them.
package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/basket/pkg/types"
)

// State is the load state of a Store.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// mutation transforms the item list. Mutations are pure so they can be
// replayed after Load.
type mutation func([]types.LineItem) []types.LineItem

// Store implements types.Cart.
type Store struct {
	mu      sync.RWMutex
	state   State
	items   []types.LineItem
	pending []mutation // applied before Ready; replayed by Load
	subs    map[uint64]func([]types.LineItem)
	nextSub uint64
	ready   chan struct{}

	kv        types.KVStore
	key       string
	onCorrupt string
	writer    *writer
	log       *logrus.Entry
	id        string
}

var _ types.Cart = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The store adds its own fields.
func WithLogger(log *logrus.Entry) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// New returns an uninitialized Store persisting to kv under cfg's key. The
// store owns kv and closes it on Close. Only the key, corrupt payload policy
// and sync settings of cfg are used.
func New(kv types.KVStore, cfg types.Config, opts ...Option) *Store {
	s := &Store{
		items:     []types.LineItem{},
		subs:      make(map[uint64]func([]types.LineItem)),
		ready:     make(chan struct{}),
		kv:        kv,
		key:       cfg.GetKey(),
		onCorrupt: cfg.GetOnCorrupt(),
		log:       logrus.NewEntry(logrus.StandardLogger()),
		id:        newID(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithFields(logrus.Fields{
		"component": "cart",
		"key":       s.key,
		"store_id":  s.id,
	})
	s.writer = newWriter(kv, s.key, cfg.Sync, s.log)
	return s
}

// newID returns a UUID v7, falling back to v4.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// mustExist panics on a nil store: using the cart without a store is a
// wiring mistake.
func (s *Store) mustExist() {
	if s == nil {
		panic(types.ErrNoStore)
	}
}

// State returns the current load state.
func (s *Store) State() State {
	s.mustExist()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Ready returns a channel closed once Load has completed.
func (s *Store) Ready() <-chan struct{} {
	s.mustExist()
	return s.ready
}

// Products returns a snapshot of the current ordered list. The snapshot is
// owned by the caller.
func (s *Store) Products() []types.LineItem {
	s.mustExist()
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state == StateClosed {
		panic(types.ErrStoreClosed)
	}
	return types.Clone(s.items)
}

// AddToCart adds one unit of p. An existing entry keeps its fields, gains a
// unit, and moves to the end of the list.
func (s *Store) AddToCart(p types.Product) {
	s.apply("add", p.ID, func(items []types.LineItem) []types.LineItem {
		return types.AddToCart(items, p)
	})
}

// Increment adds one unit to the entry with the given ID. Unknown IDs are
// ignored.
func (s *Store) Increment(id string) {
	s.apply("increment", id, func(items []types.LineItem) []types.LineItem {
		return types.Increment(items, id)
	})
}

// Decrement removes one unit from the entry with the given ID, dropping the
// entry at quantity 1. Unknown IDs are ignored.
func (s *Store) Decrement(id string) {
	s.apply("decrement", id, func(items []types.LineItem) []types.LineItem {
		return types.Decrement(items, id)
	})
}

// apply runs m against the list, schedules a write-back when ready, and
// notifies subscribers.
func (s *Store) apply(op, id string, m mutation) {
	s.mustExist()
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		panic(types.ErrStoreClosed)
	}

	s.items = m(s.items)
	if s.state == StateReady {
		s.scheduleLocked()
	} else {
		s.pending = append(s.pending, m)
	}
	snap, subs := s.items, s.subscribersLocked()
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"op": op, "id": id, "items": len(snap)}).Debug("cart mutated")
	notify(subs, snap)
}

// scheduleLocked hands the current list to the writer. The caller must hold
// s.mu so schedules reach the writer in mutation order.
func (s *Store) scheduleLocked() {
	payload, err := encodeItems(s.items)
	if err != nil {
		s.log.WithError(err).Error("cart encode failed")
		return
	}
	s.writer.schedule(payload)
}

// Load reads the persisted list and moves the store to StateReady.
//
// A missing key loads an empty cart. A read error leaves the store
// uninitialized so Load can be retried. A corrupt payload either resets the
// cart to empty, keeping the raw payload under "<key>.corrupt.<uuid>", or
// fails with types.ErrCorruptPayload, depending on the on_corrupt policy.
// Mutations applied before Load completes are replayed on the loaded list
// and, if there were any, written back once.
func (s *Store) Load(ctx context.Context) error {
	s.mustExist()
	s.mu.Lock()
	switch s.state {
	case StateReady:
		s.mu.Unlock()
		return types.ErrAlreadyLoaded
	case StateLoading:
		s.mu.Unlock()
		return types.ErrLoadInProgress
	case StateClosed:
		s.mu.Unlock()
		return types.ErrStoreClosed
	}
	s.state = StateLoading
	s.mu.Unlock()

	loaded, err := s.read(ctx)

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return types.ErrStoreClosed
	}
	if err != nil {
		s.state = StateUninitialized
		s.mu.Unlock()
		return err
	}

	items := loaded
	for _, m := range s.pending {
		items = m(items)
	}
	replayed := len(s.pending)
	s.items = items
	s.pending = nil
	s.state = StateReady
	if replayed > 0 {
		s.scheduleLocked()
	}
	close(s.ready)
	snap, subs := s.items, s.subscribersLocked()
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"items": len(snap), "replayed": replayed}).Info("cart loaded")
	notify(subs, snap)
	return nil
}

// read fetches and decodes the persisted list, applying the corrupt payload
// policy.
func (s *Store) read(ctx context.Context) ([]types.LineItem, error) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.key, err)
	}
	if !ok {
		return []types.LineItem{}, nil
	}

	items, err := decodeItems(raw)
	if err == nil {
		return items, nil
	}
	if s.onCorrupt == types.OnCorruptFail {
		return nil, fmt.Errorf("load %s: %w", s.key, err)
	}

	quarantine := s.key + ".corrupt." + newID()
	log := s.log.WithError(err).WithField("quarantine", quarantine)
	if qerr := s.kv.Set(ctx, quarantine, raw); qerr != nil {
		log.WithField("quarantine_error", qerr.Error()).Warn("corrupt cart payload could not be preserved")
	}
	log.Warn("corrupt cart payload, starting with an empty cart")
	return []types.LineItem{}, nil
}

// Subscribe registers fn to receive a snapshot after every change and after
// Load. fn runs on the mutating goroutine, outside the store lock.
func (s *Store) Subscribe(fn func([]types.LineItem)) (unsubscribe func()) {
	s.mustExist()
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) subscribersLocked() []func([]types.LineItem) {
	fns := make([]func([]types.LineItem), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	return fns
}

// notify gives every subscriber its own copy of items.
func notify(subs []func([]types.LineItem), items []types.LineItem) {
	for _, fn := range subs {
		fn(types.Clone(items))
	}
}

// Flush waits until every write-back scheduled before the call has been
// attempted. It returns the error of the most recent attempt.
func (s *Store) Flush(ctx context.Context) error {
	s.mustExist()
	return s.writer.flush(ctx)
}

// Close writes any pending state, stops the writer, and closes the KV store.
// Close is idempotent. A store closed before Load never writes.
func (s *Store) Close(ctx context.Context) error {
	s.mustExist()
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil
	}
	s.state = StateClosed
	s.subs = make(map[uint64]func([]types.LineItem))
	s.mu.Unlock()

	werr := s.writer.close(ctx)
	kerr := s.kv.Close()
	if werr != nil {
		return fmt.Errorf("flush cart: %w", werr)
	}
	if kerr != nil {
		return fmt.Errorf("close kv: %w", kerr)
	}
	s.log.Debug("cart closed")
	return nil
}
