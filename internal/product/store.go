// Package product holds the inventory domain: the Product record, its editable
// Input, and the Store that owns the collection and persists it to a slot.
package product

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/MikeMC777/profitory/internal/storage"
)

// DefaultKey is the slot key the collection is stored under.
const DefaultKey = "inventory.products"

// Store is the authoritative in-memory product collection. Every mutation
// updates memory first and then schedules a write of the whole collection;
// a failed write is logged and does not roll the mutation back.
type Store struct {
	mu      sync.RWMutex
	items   []Product
	loading atomic.Bool

	slot  storage.Slot
	key   string
	w     *writer
	log   logrus.FieldLogger
	newID func() string
}

func NewStore(slot storage.Slot, key string, log logrus.FieldLogger) *Store {
	if key == "" {
		key = DefaultKey
	}
	s := &Store{
		items: []Product{},
		slot:  slot,
		key:   key,
		w:     newWriter(slot, key, log),
		log:   log,
		newID: uuid.NewString,
	}
	s.loading.Store(true)
	return s
}

// Loading is true until the first Load completes.
func (s *Store) Loading() bool { return s.loading.Load() }

// Load replaces the collection with what the slot holds. A missing or
// unreadable payload yields an empty collection. Legacy records without cost
// get cost 0; profit is always recomputed.
func (s *Store) Load(ctx context.Context) error {
	defer s.loading.Store(false)

	items := []Product{}
	raw, err := s.slot.Get(ctx, s.key)
	switch {
	case errors.Is(err, storage.ErrEmptySlot):
	case err != nil:
		s.log.WithError(err).WithField("key", s.key).Warn("[store] load failed, starting empty")
	default:
		var stored []Product
		if err := json.Unmarshal(raw, &stored); err != nil {
			s.log.WithError(err).WithField("key", s.key).Warn("[store] stored inventory is not valid JSON, starting empty")
			break
		}
		for _, p := range stored {
			p.Profit = p.Price.Sub(p.Cost)
			items = append(items, p)
		}
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	s.log.WithFields(logrus.Fields{"key": s.key, "count": len(items)}).Info("[store] inventory loaded")
	return nil
}

// List returns a copy of the collection in insertion order.
func (s *Store) List() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Product(nil), s.items...)
}

func (s *Store) Get(id string) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], nil
	}
	return Product{}, ErrNotFound
}

// Add validates every input, then appends them all with fresh ids. If any
// input is invalid nothing is added and a *ValidationError is returned.
func (s *Store) Add(inputs ...Input) ([]Product, error) {
	if s.Loading() {
		return nil, ErrLoading
	}
	for i, in := range inputs {
		if err := in.Validate(); err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				verr.Index = i
			}
			return nil, err
		}
	}
	if len(inputs) == 0 {
		return []Product{}, nil
	}

	created := make([]Product, 0, len(inputs))
	for _, in := range inputs {
		created = append(created, in.toProduct(s.newID()))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, created...)
	s.persistLocked()
	return created, nil
}

// Edit replaces the record with the given id, keeping the id.
func (s *Store) Edit(id string, in Input) (Product, error) {
	if s.Loading() {
		return Product{}, ErrLoading
	}
	if err := in.Validate(); err != nil {
		return Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return Product{}, ErrNotFound
	}
	p := in.toProduct(id)
	s.items[i] = p
	s.persistLocked()
	return p, nil
}

func (s *Store) Remove(id string) error {
	if s.Loading() {
		return ErrLoading
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	s.persistLocked()
	return nil
}

func (s *Store) RemoveAll() error {
	if s.Loading() {
		return ErrLoading
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = []Product{}
	s.persistLocked()
	return nil
}

// Flush waits for every write scheduled so far.
func (s *Store) Flush(ctx context.Context) error { return s.w.Flush(ctx) }

// Close flushes pending writes and stops the background writer.
func (s *Store) Close(ctx context.Context) error { return s.w.Close(ctx) }

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) persistLocked() {
	b, err := json.Marshal(s.items)
	if err != nil {
		s.log.WithError(err).Error("[store] encode inventory")
		return
	}
	s.w.schedule(b)
}
