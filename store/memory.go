package store

import (
	"context"

	"github.com/puzpuzpuz/xsync/v3"
)

// MemoryTransactionStore is a lock-free in-memory transaction id set. It
// backs tests and single-process deployments that run without the legacy
// database.
type MemoryTransactionStore struct {
	ids *xsync.MapOf[int32, struct{}]
}

// NewMemoryTransactionStore creates an empty in-memory store.
func NewMemoryTransactionStore() *MemoryTransactionStore {
	return &MemoryTransactionStore{ids: xsync.NewMapOf[int32, struct{}]()}
}

// TransactionIDExists reports whether the id has been recorded.
func (s *MemoryTransactionStore) TransactionIDExists(ctx context.Context, id int32, correlationID string) (bool, error) {
	_, ok := s.ids.Load(id)
	return ok, nil
}

// Record marks an id as live.
func (s *MemoryTransactionStore) Record(id int32) {
	s.ids.Store(id, struct{}{})
}

// Remove deletes an id.
func (s *MemoryTransactionStore) Remove(id int32) {
	s.ids.Delete(id)
}

// Len returns the number of live ids.
func (s *MemoryTransactionStore) Len() int {
	return s.ids.Size()
}
