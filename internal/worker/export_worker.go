package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"vegledger/internal/amqp"
	"vegledger/internal/core"
	applog "vegledger/internal/log"
	"vegledger/internal/sheets"
	"vegledger/internal/store"
)

const exportKey = "sales"

// ExportWorker mirrors the persisted sales ledger into a sheet. Any number of
// triggers (change messages, ticks, startup) collapse into as few full
// exports as possible, but a trigger never returns before an export that
// started after it has finished.
type ExportWorker struct {
	store    store.SnapshotStore
	exporter sheets.SalesExporter
	interval time.Duration

	group     singleflight.Group
	requested atomic.Int64
}

func NewExportWorker(st store.SnapshotStore, exporter sheets.SalesExporter, interval time.Duration) *ExportWorker {
	return &ExportWorker{store: st, exporter: exporter, interval: interval}
}

// Export re-exports the current ledger.
func (w *ExportWorker) Export(ctx context.Context) error {
	gen := w.requested.Add(1)
	for {
		v, err, shared := w.group.Do(exportKey, func() (any, error) {
			return w.run(ctx)
		})
		if err != nil {
			return err
		}
		if v.(int64) >= gen {
			if shared {
				slog.DebugContext(ctx, "Export request coalesced",
					applog.FieldComponent, applog.ComponentWorker)
			}
			return nil
		}
		// The shared run started before this request; export again.
	}
}

func (w *ExportWorker) run(ctx context.Context) (int64, error) {
	started := w.requested.Load()

	records, err := store.LoadSlot(ctx, w.store, core.SlotSalesRecords, []core.SaleRecord{})
	if err != nil {
		return 0, fmt.Errorf("load sales records: %w", err)
	}
	if err := w.exporter.ExportSales(ctx, records); err != nil {
		return 0, fmt.Errorf("export sales: %w", err)
	}

	slog.InfoContext(ctx, "Sales ledger exported",
		applog.FieldComponent, applog.ComponentWorker,
		applog.FieldOperation, applog.OpExport,
		applog.FieldRecordCount, len(records))
	return started, nil
}

// HandleSaleChanged is the AMQP consumer callback.
func (w *ExportWorker) HandleSaleChanged(ctx context.Context, msg *amqp.SaleChangedMessage) error {
	slog.InfoContext(ctx, "Processing sale change message",
		applog.FieldComponent, applog.ComponentWorker,
		applog.FieldSaleID, msg.SaleID,
		applog.FieldOperation, msg.Operation)
	return w.Export(ctx)
}

// StartupExport brings the sheet up to date after worker downtime.
func (w *ExportWorker) StartupExport(ctx context.Context) error {
	slog.InfoContext(ctx, "Running startup export",
		applog.FieldComponent, applog.ComponentWorker,
		applog.FieldOperation, applog.OpStartup)
	return w.Export(ctx)
}

// RunPeriodic exports on every interval tick until ctx is done. Failures are
// logged and retried on the next tick. It is the backstop for lost messages.
func (w *ExportWorker) RunPeriodic(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.Export(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic export failed",
					applog.FieldComponent, applog.ComponentWorker,
					applog.FieldError, err)
			}
		}
	}
}
