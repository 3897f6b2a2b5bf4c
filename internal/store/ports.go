package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Ports for snapshot persistence.
type (
	// SnapshotStore keeps one serialized snapshot per named slot.
	SnapshotStore interface {
		// Load returns the stored payload for slot; found is false when the
		// slot was never written.
		Load(ctx context.Context, slot string) (payload []byte, found bool, err error)
		// Save replaces the payload for slot.
		Save(ctx context.Context, slot string, payload []byte) error
		Close() error
	}
)

// LoadSlot decodes the snapshot stored in slot, returning def when the slot
// is empty.
func LoadSlot[T any](ctx context.Context, st SnapshotStore, slot string, def T) (T, error) {
	payload, found, err := st.Load(ctx, slot)
	if err != nil {
		return def, fmt.Errorf("load %s: %w", slot, err)
	}
	if !found || len(payload) == 0 {
		return def, nil
	}
	var out T
	if err := json.Unmarshal(payload, &out); err != nil {
		return def, fmt.Errorf("decode %s: %w", slot, err)
	}
	return out, nil
}

// SaveSlot encodes v and stores it in slot.
func SaveSlot[T any](ctx context.Context, st SnapshotStore, slot string, v T) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", slot, err)
	}
	if err := st.Save(ctx, slot, payload); err != nil {
		return fmt.Errorf("save %s: %w", slot, err)
	}
	return nil
}
