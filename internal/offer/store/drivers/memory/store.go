// Package memory is the default handoff store: a mutex-guarded map.
// Records only live minutes, so losing them on restart is acceptable
// outside multi-process deployments.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/troyjfarrell/offergate/internal/offer/domain"
	"github.com/troyjfarrell/offergate/internal/offer/store"
)

type Store struct {
	handoffs handoffsRepo
}

func NewStore() *Store {
	return &Store{
		handoffs: handoffsRepo{records: make(map[string]domain.HandoffRecord)},
	}
}

func (s *Store) Handoffs() store.Handoffs { return &s.handoffs }

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Close() error { return nil }

type handoffsRepo struct {
	mu      sync.Mutex
	records map[string]domain.HandoffRecord
}

func (r *handoffsRepo) PutHandoff(ctx context.Context, rec domain.HandoffRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[rec.Reference] = rec
	return nil
}

func (r *handoffsRepo) ConsumeHandoff(ctx context.Context, reference string, now time.Time) (domain.HandoffRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[reference]
	if !ok {
		return domain.HandoffRecord{}, store.ErrNotFound
	}

	// Single-use: gone regardless of whether it was still fresh.
	delete(r.records, reference)

	if now.After(rec.Expires) {
		return domain.HandoffRecord{}, store.ErrNotFound
	}
	return rec, nil
}

func (r *handoffsRepo) DeleteExpiredHandoffs(ctx context.Context, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for ref, rec := range r.records {
		if now.After(rec.Expires) {
			delete(r.records, ref)
		}
	}
	return nil
}
