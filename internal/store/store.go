package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Proxy moves records between the Store and the backend.
type Proxy interface {
	Read(ctx context.Context) ([]Record, error)
	// Create and Update return the server's copy, or nil when the server sent none.
	Create(ctx context.Context, record Record) (*Record, error)
	Update(ctx context.Context, record Record) (*Record, error)
	Destroy(ctx context.Context, record Record) error
}

// Store is the client-side product collection. After every Load it mirrors the server's list;
// between loads it tracks pending creates (records without an id), updates (dirty records)
// and destroys (removed persisted records) until Sync flushes them.
//
// The mutex only keeps the collection memory-safe. Syncs are not serialized: a second Sync
// started before the first finishes sends whatever is pending at that moment.
type Store struct {
	proxy  Proxy
	logger *zap.Logger

	mu      sync.Mutex
	records []*Record
	removed []*Record
}

// New creates an empty Store backed by proxy.
func New(proxy Proxy, logger *zap.Logger) *Store {
	return &Store{
		proxy:  proxy,
		logger: logger.Named("store"),
	}
}

// Load replaces the collection with the server's list. When the read fails the rows from the
// previous load are kept and every pending change is dropped.
func (s *Store) Load(ctx context.Context) error {
	records, err := s.proxy.Read(ctx)
	if err != nil {
		s.mu.Lock()
		s.discardPendingLocked()
		s.mu.Unlock()
		s.logger.Warn("load failed", zap.Error(err))
		return fmt.Errorf("load products: %w", err)
	}

	loaded := make([]*Record, len(records))
	for i := range records {
		rec := records[i]
		rec.markPersisted()
		loaded[i] = &rec
	}

	s.mu.Lock()
	s.records = loaded
	s.removed = nil
	s.mu.Unlock()

	s.logger.Debug("loaded products", zap.Int("count", len(loaded)))
	return nil
}

// Reload is Load; it exists to name the post-sync refresh.
func (s *Store) Reload(ctx context.Context) error {
	return s.Load(ctx)
}

// Records returns a snapshot of the collection in display order.
func (s *Store) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	for i, r := range s.records {
		out[i] = *r
	}
	return out
}

// Count returns the number of records in the collection.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// At returns the record at index i, or nil when out of range.
func (s *Store) At(i int) *Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.records) {
		return nil
	}
	return s.records[i]
}

// GetByID returns the persisted record with the given id, or nil.
func (s *Store) GetByID(id int64) *Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.ID != nil && *r.ID == id {
			return r
		}
	}
	return nil
}

// Add appends record. A record without an id becomes a pending create.
func (s *Store) Add(record *Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
}

// Set applies values to record. A persisted record is marked for update only when a field changed.
func (s *Store) Set(record *Record, values Values) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.apply(values) && !record.IsPhantom() {
		record.dirty = true
	}
}

// Remove drops record from the collection. A persisted record becomes a pending destroy.
func (s *Store) Remove(record *Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.records {
		if r == record {
			s.records = append(s.records[:i], s.records[i+1:]...)
			if !record.IsPhantom() {
				s.removed = append(s.removed, record)
			}
			return
		}
	}
}

// HasPendingChanges reports whether Sync would send anything.
func (s *Store) HasPendingChanges() bool {
	return len(s.pendingOperations()) > 0
}

// Sync sends every pending create, update and destroy, in that order, as one batch. All
// operations run even after one fails. The store then reloads from the server whatever the
// outcome, so any local state the batch did not persist is discarded.
func (s *Store) Sync(ctx context.Context) *Batch {
	batch := &Batch{Operations: s.pendingOperations()}

	for i := range batch.Operations {
		op := &batch.Operations[i]
		s.logger.Debug("record data before sync",
			zap.String("action", string(op.Action)),
			zap.Any("record", *op.Record))
		op.Err = s.execute(ctx, op)
	}

	if batch.HasException() {
		s.logger.Warn("sync failed", zap.Error(batch.Err()))
	} else {
		s.logger.Debug("sync successful", zap.Int("operations", len(batch.Operations)))
	}

	batch.ReloadErr = s.Reload(ctx)
	return batch
}

func (s *Store) execute(ctx context.Context, op *Operation) error {
	switch op.Action {
	case ActionCreate:
		saved, err := s.proxy.Create(ctx, *op.Record)
		if err != nil {
			return err
		}
		s.commit(op.Record, saved)
	case ActionUpdate:
		saved, err := s.proxy.Update(ctx, *op.Record)
		if err != nil {
			return err
		}
		s.commit(op.Record, saved)
	case ActionDestroy:
		if err := s.proxy.Destroy(ctx, *op.Record); err != nil {
			return err
		}
		s.mu.Lock()
		for i, r := range s.removed {
			if r == op.Record {
				s.removed = append(s.removed[:i], s.removed[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
	default:
		return fmt.Errorf("unsupported action %q", op.Action)
	}
	return nil
}

// commit copies the server's copy of a record back onto the local one. Without a copy the
// local values are taken as saved.
func (s *Store) commit(local *Record, saved *Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if saved != nil {
		if saved.ID != nil {
			local.ID = Int64(*saved.ID)
		}
		local.apply(saved.Values())
	}
	local.markPersisted()
}

func (s *Store) pendingOperations() []Operation {
	s.mu.Lock()
	defer s.mu.Unlock()

	var creates, updates []Operation
	for _, r := range s.records {
		switch {
		case r.IsPhantom():
			creates = append(creates, Operation{Action: ActionCreate, Record: r})
		case r.dirty:
			updates = append(updates, Operation{Action: ActionUpdate, Record: r})
		}
	}
	ops := append(creates, updates...)
	for _, r := range s.removed {
		ops = append(ops, Operation{Action: ActionDestroy, Record: r})
	}
	return ops
}

// discardPendingLocked restores the last confirmed state: new records are dropped, removed
// ones come back and edited ones get their persisted values back.
func (s *Store) discardPendingLocked() {
	kept := s.records[:0]
	for _, r := range s.records {
		if r.IsPhantom() {
			continue
		}
		r.revert()
		kept = append(kept, r)
	}
	for _, r := range s.removed {
		r.revert()
		kept = append(kept, r)
	}
	sort.SliceStable(kept, func(i, j int) bool { return *kept[i].ID < *kept[j].ID })
	s.records = kept
	s.removed = nil
}
