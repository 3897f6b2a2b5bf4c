package memory

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"vegledger/internal/core"
	"vegledger/internal/store"
)

var _ store.SnapshotStore = (*Store)(nil)

// Store keeps snapshots in process memory. Contents are lost on exit.
type Store struct {
	mu    sync.Mutex
	slots map[string][]byte
}

func New() *Store {
	return &Store{slots: map[string][]byte{}}
}

// NewFromDir seeds slots from <base>/<slot>.json files when present.
// Missing or empty files leave the slot unset so callers fall back to
// their defaults.
func NewFromDir(base string) *Store {
	s := New()
	for _, slot := range []string{core.SlotCustomers, core.SlotSalesRecords} {
		if b := readFile(filepath.Join(base, slot+".json")); len(b) > 0 {
			s.slots[slot] = b
		}
	}
	return s
}

// Load returns a copy of the stored payload.
func (s *Store) Load(_ context.Context, slot string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.slots[slot]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), b...), true, nil
}

// Save stores a copy of payload.
func (s *Store) Save(_ context.Context, slot string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[slot] = append([]byte(nil), payload...)
	return nil
}

func (s *Store) Close() error { return nil }

func readFile(path string) []byte {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return b
}
