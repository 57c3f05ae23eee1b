package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/stacklok/catalog-sync/internal/status"
)

const (
	// ProductStateFileName is the name of the product state file in the data directory
	ProductStateFileName = "product_state.json"

	lockRetryDelay = 50 * time.Millisecond
)

// FileStore keeps sync state in a JSON file. Writers on the same file are
// serialized with an advisory lock so that several processes do not lose
// each other's updates.
type FileStore struct {
	path string
	lock *flock.Flock

	mu     sync.RWMutex
	states map[string]SyncState
}

// NewFileStore opens the state file in dataDir, creating the directory when needed
func NewFileStore(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
	}

	path := filepath.Join(dataDir, ProductStateFileName)
	s := &FileStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}

	states, err := s.read()
	if err != nil {
		return nil, err
	}
	s.states = states
	return s, nil
}

// Get implements Store
func (s *FileStore) Get(_ context.Context, sku string) (*SyncState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.states[sku]
	if !ok {
		return nil, ErrNotFound
	}
	return &st, nil
}

// Upsert implements Store. The file is re-read under the lock and rewritten
// atomically with the single change applied.
func (s *FileStore) Upsert(ctx context.Context, sku, fingerprint string, isNew bool, at time.Time) error {
	// The flock handle is shared by all goroutines, so the mutex is taken first
	s.mu.Lock()
	defer s.mu.Unlock()

	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", s.path, err)
	}
	if !locked {
		return fmt.Errorf("failed to lock %s", s.path)
	}
	defer func() {
		_ = s.lock.Unlock()
	}()

	states, err := s.read()
	if err != nil {
		return err
	}
	states[sku] = SyncState{SKU: sku, Fingerprint: fingerprint, LastSyncedAt: at, SyncedAsNew: isNew}

	data, err := json.MarshalIndent(states, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sync state: %w", err)
	}
	if err := status.WriteFileAtomic(s.path, data); err != nil {
		return err
	}

	s.states = states
	return nil
}

func (s *FileStore) read() (map[string]SyncState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]SyncState), nil
		}
		return nil, fmt.Errorf("failed to read sync state file: %w", err)
	}

	states := make(map[string]SyncState)
	if len(data) == 0 {
		return states, nil
	}
	if err := json.Unmarshal(data, &states); err != nil {
		return nil, fmt.Errorf("failed to parse sync state file %s: %w", s.path, err)
	}
	return states, nil
}
