package storage

import (
	"context"
	"sync"

	"miniaevol/internal/snapshot"
)

// MemoryStore keeps snapshots in a process-local map. Used as the default
// backend and in tests where a sqlite build tag is unavailable.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	snapshots   map[string]snapshot.WorldSnapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	s.initialized = true
	s.snapshots = make(map[string]snapshot.WorldSnapshot)
	return nil
}

func (s *MemoryStore) SaveSnapshot(_ context.Context, runID string, snap snapshot.WorldSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	genomes := make([]snapshot.GenomeRecord, len(snap.Genomes))
	copy(genomes, snap.Genomes)
	snap.Genomes = genomes
	snap.Target = append([]float64(nil), snap.Target...)
	snap.SchemaVersion = CurrentSchemaVersion
	snap.CodecVersion = CurrentCodecVersion
	s.snapshots[runID] = snap
	return nil
}

func (s *MemoryStore) GetSnapshot(_ context.Context, runID string) (snapshot.WorldSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[runID]
	return snap, ok, nil
}
