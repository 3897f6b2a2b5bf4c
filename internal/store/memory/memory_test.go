package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"vegledger/internal/core"
	"vegledger/internal/store"
)

func TestMemoryStoreSaveAndLoad(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, found, err := s.Load(ctx, "missing"); err != nil || found {
		t.Fatalf("unexpected load of missing slot: found=%v err=%v", found, err)
	}

	payload := []byte(`[1,2]`)
	if err := s.Save(ctx, "nums", payload); err != nil {
		t.Fatalf("save: %v", err)
	}
	payload[0] = 'x' // caller mutation must not leak into the store

	got, found, err := s.Load(ctx, "nums")
	if err != nil || !found || string(got) != "[1,2]" {
		t.Fatalf("unexpected load: %q found=%v err=%v", got, found, err)
	}
}

func TestNewFromDirSeedsSlots(t *testing.T) {
	dir := t.TempDir()
	// No files -> slots unset, defaults apply
	s := NewFromDir(dir)
	customers, err := store.LoadSlot(context.Background(), s, core.SlotCustomers, core.DefaultCustomers())
	if err != nil || len(customers) != 6 {
		t.Fatalf("expected defaults when files missing: %d err=%v", len(customers), err)
	}

	content := `[{"id":"x","name":"Seeded","phone":"1234567890"}]`
	if err := os.WriteFile(filepath.Join(dir, "customers.json"), []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	s = NewFromDir(dir)
	customers, err = store.LoadSlot(context.Background(), s, core.SlotCustomers, core.DefaultCustomers())
	if err != nil || len(customers) != 1 || customers[0].Name != "Seeded" {
		t.Fatalf("unexpected seeded customers: %v err=%v", customers, err)
	}
}

func TestLoadSlotRejectsCorruptPayload(t *testing.T) {
	s := New()
	ctx := context.Background()
	_ = s.Save(ctx, core.SlotSalesRecords, []byte("{not json"))

	if _, err := store.LoadSlot[[]core.SaleRecord](ctx, s, core.SlotSalesRecords, nil); err == nil {
		t.Fatalf("expected decode error")
	}
}
