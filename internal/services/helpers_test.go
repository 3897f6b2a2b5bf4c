package services

import (
	"context"
	"errors"
	"sync/atomic"

	"vegledger/internal/core"
	"vegledger/internal/store/memory"
)

var errDiskFull = errors.New("disk full")

// flakyStore wraps a memory store and fails every Save while failing is set.
type flakyStore struct {
	*memory.Store
	failing atomic.Bool
	saves   atomic.Int32
}

func newFlakyStore() *flakyStore {
	return &flakyStore{Store: memory.New()}
}

func (s *flakyStore) Save(ctx context.Context, slot string, payload []byte) error {
	if s.failing.Load() {
		return errDiskFull
	}
	s.saves.Add(1)
	return s.Store.Save(ctx, slot, payload)
}

// recordingNotifier captures published changes.
type recordingNotifier struct {
	changes []string
	err     error
}

func (n *recordingNotifier) NotifySaleChanged(_ context.Context, change core.SaleChange) error {
	n.changes = append(n.changes, change.Operation+":"+change.SaleID)
	return n.err
}
