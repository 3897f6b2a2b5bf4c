package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"vegledger/internal/core"
	"vegledger/internal/ident"
	applog "vegledger/internal/log"
	"vegledger/internal/store"
)

// ChangeNotifier receives committed ledger mutations. Delivery is best
// effort; a failure never rolls back the mutation.
type ChangeNotifier interface {
	NotifySaleChanged(ctx context.Context, change core.SaleChange) error
}

type noopNotifier struct{}

func (noopNotifier) NotifySaleChanged(context.Context, core.SaleChange) error { return nil }

const notifyTimeout = 5 * time.Second

// SalesLedger owns the sale records and their line items. It keeps
// TotalPrice and TotalAmount consistent with the item data on every
// mutation.
type SalesLedger struct {
	mu       sync.Mutex
	store    store.SnapshotStore
	ids      ident.Generator
	notifier ChangeNotifier
	records  []core.SaleRecord
}

// NewSalesLedger loads the salesRecords slot (empty on first run). A nil
// notifier disables change notifications.
func NewSalesLedger(ctx context.Context, st store.SnapshotStore, ids ident.Generator, notifier ChangeNotifier) (*SalesLedger, error) {
	records, err := store.LoadSlot(ctx, st, core.SlotSalesRecords, []core.SaleRecord{})
	if err != nil {
		return nil, fmt.Errorf("load sales records: %w", err)
	}
	if records == nil {
		records = []core.SaleRecord{}
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}

	slog.InfoContext(ctx, "Sales ledger loaded",
		applog.FieldComponent, applog.ComponentLedger,
		applog.FieldRecordCount, len(records))

	return &SalesLedger{store: st, ids: ids, notifier: notifier, records: records}, nil
}

// Records returns a deep copy of every record in insertion order.
func (l *SalesLedger) Records() []core.SaleRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return cloneRecords(l.records)
}

// GetByID is a point lookup.
func (l *SalesLedger) GetByID(id string) (core.SaleRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := indexRecord(l.records, id)
	if i < 0 {
		return core.SaleRecord{}, false
	}
	return l.records[i].Clone(), true
}

// Query filters and sorts a copy of the records.
func (l *SalesLedger) Query(q SaleQuery) []core.SaleRecord {
	return FilterSales(l.Records(), q)
}

// CreateRecord appends a new record and returns its id. Items without an id
// get one; item totals are taken as given and TotalAmount is their sum.
func (l *SalesLedger) CreateRecord(ctx context.Context, in core.SaleInput) (string, error) {
	rec := core.SaleRecord{
		ID:         l.ids.NewID(),
		Date:       in.Date,
		CustomerID: in.CustomerID,
		Customer:   in.Customer,
		Items:      make([]core.LineItem, len(in.Items)),
	}
	copy(rec.Items, in.Items)
	for i := range rec.Items {
		if rec.Items[i].ID == "" {
			rec.Items[i].ID = l.ids.NewID()
		}
	}
	rec.TotalAmount = core.SumItems(rec.Items)

	err := l.mutate(ctx, core.SaleChange{SaleID: rec.ID, Operation: core.ChangeCreated},
		func(cur []core.SaleRecord) ([]core.SaleRecord, bool) {
			return append(cur, rec), true
		})
	if err != nil {
		return "", err
	}
	l.logRecord(ctx, applog.OpCreate, rec)
	return rec.ID, nil
}

// UpdateRecord replaces the record with the same id. TotalAmount is
// recomputed from the replacement's items.
func (l *SalesLedger) UpdateRecord(ctx context.Context, rec core.SaleRecord) error {
	rec = rec.Clone()
	if rec.Items == nil {
		rec.Items = []core.LineItem{}
	}
	rec.TotalAmount = core.SumItems(rec.Items)

	err := l.mutate(ctx, core.SaleChange{SaleID: rec.ID, Operation: core.ChangeUpdated},
		func(cur []core.SaleRecord) ([]core.SaleRecord, bool) {
			i := indexRecord(cur, rec.ID)
			if i < 0 {
				return nil, false
			}
			cur[i] = rec
			return cur, true
		})
	if err != nil {
		return err
	}
	l.logRecord(ctx, applog.OpUpdate, rec)
	return nil
}

// DeleteRecord removes the record and all of its items.
func (l *SalesLedger) DeleteRecord(ctx context.Context, id string) error {
	err := l.mutate(ctx, core.SaleChange{SaleID: id, Operation: core.ChangeDeleted},
		func(cur []core.SaleRecord) ([]core.SaleRecord, bool) {
			i := indexRecord(cur, id)
			if i < 0 {
				return nil, false
			}
			return slices.Delete(cur, i, i+1), true
		})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Sale record deleted",
		applog.FieldComponent, applog.ComponentLedger,
		applog.FieldOperation, applog.OpDelete,
		applog.FieldSaleID, id)
	return nil
}

// AddItem appends a new item to the record and returns the item id.
func (l *SalesLedger) AddItem(ctx context.Context, saleID string, in core.ItemInput) (string, error) {
	item := core.LineItem{
		ID:            l.ids.NewID(),
		VegetableName: in.VegetableName,
		Weight:        in.Weight,
		PricePerUnit:  in.PricePerUnit,
	}
	item.Recompute()

	err := l.mutate(ctx, core.SaleChange{SaleID: saleID, ItemID: item.ID, Operation: core.ChangeItemAdded},
		func(cur []core.SaleRecord) ([]core.SaleRecord, bool) {
			i := indexRecord(cur, saleID)
			if i < 0 {
				return nil, false
			}
			cur[i].Items = append(cur[i].Items, item)
			cur[i].TotalAmount = core.SumItems(cur[i].Items)
			return cur, true
		})
	if err != nil {
		return "", err
	}
	l.logItem(ctx, applog.OpAddItem, saleID, item)
	return item.ID, nil
}

// UpdateItem replaces the item with the same id inside the record.
// TotalPrice is recomputed; any supplied value is ignored.
func (l *SalesLedger) UpdateItem(ctx context.Context, saleID string, item core.LineItem) error {
	item.Recompute()

	err := l.mutate(ctx, core.SaleChange{SaleID: saleID, ItemID: item.ID, Operation: core.ChangeItemUpdated},
		func(cur []core.SaleRecord) ([]core.SaleRecord, bool) {
			i := indexRecord(cur, saleID)
			if i < 0 {
				return nil, false
			}
			j := indexItem(cur[i].Items, item.ID)
			if j < 0 {
				return nil, false
			}
			cur[i].Items[j] = item
			cur[i].TotalAmount = core.SumItems(cur[i].Items)
			return cur, true
		})
	if err != nil {
		return err
	}
	l.logItem(ctx, applog.OpUpdateItem, saleID, item)
	return nil
}

// DeleteItem removes one item. A record may end up with no items.
func (l *SalesLedger) DeleteItem(ctx context.Context, saleID, itemID string) error {
	err := l.mutate(ctx, core.SaleChange{SaleID: saleID, ItemID: itemID, Operation: core.ChangeItemDeleted},
		func(cur []core.SaleRecord) ([]core.SaleRecord, bool) {
			i := indexRecord(cur, saleID)
			if i < 0 {
				return nil, false
			}
			j := indexItem(cur[i].Items, itemID)
			if j < 0 {
				return nil, false
			}
			cur[i].Items = slices.Delete(cur[i].Items, j, j+1)
			cur[i].TotalAmount = core.SumItems(cur[i].Items)
			return cur, true
		})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Sale item deleted",
		applog.FieldComponent, applog.ComponentLedger,
		applog.FieldOperation, applog.OpDeleteItem,
		applog.FieldSaleID, saleID,
		applog.FieldItemID, itemID)
	return nil
}

// mutate applies fn to a private copy of the snapshot, persists the result
// and publishes it. fn reports false when its target does not exist, in
// which case nothing is saved.
func (l *SalesLedger) mutate(ctx context.Context, change core.SaleChange, fn func([]core.SaleRecord) ([]core.SaleRecord, bool)) error {
	l.mu.Lock()
	next, ok := fn(cloneRecords(l.records))
	if !ok {
		l.mu.Unlock()
		if change.ItemID != "" {
			return fmt.Errorf("sale %s item %s: %w", change.SaleID, change.ItemID, core.ErrNotFound)
		}
		return fmt.Errorf("sale %s: %w", change.SaleID, core.ErrNotFound)
	}
	if err := store.SaveSlot(ctx, l.store, core.SlotSalesRecords, next); err != nil {
		l.mu.Unlock()
		slog.ErrorContext(ctx, "Failed to persist sales records",
			applog.FieldComponent, applog.ComponentLedger,
			applog.FieldSlot, core.SlotSalesRecords,
			applog.FieldSaleID, change.SaleID,
			applog.FieldError, err)
		return fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}
	l.records = next
	l.mu.Unlock()

	l.notify(ctx, change)
	return nil
}

func (l *SalesLedger) notify(ctx context.Context, change core.SaleChange) {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := l.notifier.NotifySaleChanged(nctx, change); err != nil {
		slog.WarnContext(ctx, "Failed to publish sale change",
			applog.FieldComponent, applog.ComponentLedger,
			applog.FieldSaleID, change.SaleID,
			applog.FieldOperation, change.Operation,
			applog.FieldError, err)
	}
}

func (l *SalesLedger) logRecord(ctx context.Context, op string, rec core.SaleRecord) {
	slog.InfoContext(ctx, "Sale record saved",
		applog.NewFields().
			WithComponent(applog.ComponentLedger).
			WithOperation(op).
			WithSale(rec.ID, rec.Date.String(), len(rec.Items), rec.TotalAmount).
			ToSlice()...)
}

func (l *SalesLedger) logItem(ctx context.Context, op, saleID string, item core.LineItem) {
	slog.InfoContext(ctx, "Sale item saved",
		applog.FieldComponent, applog.ComponentLedger,
		applog.FieldOperation, op,
		applog.FieldSaleID, saleID,
		applog.FieldItemID, item.ID,
		applog.FieldVegetable, item.VegetableName)
}

func cloneRecords(in []core.SaleRecord) []core.SaleRecord {
	out := make([]core.SaleRecord, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}

func indexRecord(records []core.SaleRecord, id string) int {
	return slices.IndexFunc(records, func(r core.SaleRecord) bool { return r.ID == id })
}

func indexItem(items []core.LineItem, id string) int {
	return slices.IndexFunc(items, func(it core.LineItem) bool { return it.ID == id })
}
