package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vegledger/internal/amqp"
	"vegledger/internal/core"
	sheetsmem "vegledger/internal/sheets/memory"
	"vegledger/internal/store"
	"vegledger/internal/store/memory"
)

// gatedExporter blocks every export until gate is closed.
type gatedExporter struct {
	*sheetsmem.Exporter
	entered chan struct{}
	gate    chan struct{}
}

func (g *gatedExporter) ExportSales(ctx context.Context, records []core.SaleRecord) error {
	g.entered <- struct{}{}
	<-g.gate
	return g.Exporter.ExportSales(ctx, records)
}

type failingExporter struct{}

func (failingExporter) ExportSales(context.Context, []core.SaleRecord) error {
	return errors.New("quota exceeded")
}

func saveRecords(t *testing.T, st store.SnapshotStore, ids ...string) {
	t.Helper()
	records := make([]core.SaleRecord, len(ids))
	for i, id := range ids {
		records[i] = core.SaleRecord{
			ID:    id,
			Date:  core.NewDate(2024, 5, 1),
			Items: []core.LineItem{{ID: id + "-1", VegetableName: "Tomato", Weight: 1, PricePerUnit: 30, TotalPrice: 30}},
		}
	}
	require.NoError(t, store.SaveSlot(context.Background(), st, core.SlotSalesRecords, records))
}

func TestExportWorkerExportsPersistedLedger(t *testing.T) {
	st := memory.New()
	saveRecords(t, st, "s1", "s2")
	exp := sheetsmem.New()
	w := NewExportWorker(st, exp, time.Minute)

	require.NoError(t, w.StartupExport(context.Background()))
	assert.Len(t, exp.Rows(), 3)
	assert.Equal(t, 1, exp.Exports())
}

func TestExportWorkerEmptyLedger(t *testing.T) {
	exp := sheetsmem.New()
	w := NewExportWorker(memory.New(), exp, time.Minute)

	require.NoError(t, w.Export(context.Background()))
	assert.Len(t, exp.Rows(), 1, "header only")
}

func TestExportWorkerRequestDuringExportTriggersFreshExport(t *testing.T) {
	st := memory.New()
	saveRecords(t, st, "s1")
	exp := &gatedExporter{Exporter: sheetsmem.New(), entered: make(chan struct{}, 4), gate: make(chan struct{})}
	w := NewExportWorker(st, exp, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs <- w.Export(ctx)
	}()
	<-exp.entered

	// A change lands while the first export is still running.
	saveRecords(t, st, "s1", "s2")
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs <- w.HandleSaleChanged(ctx, &amqp.SaleChangedMessage{SaleID: "s2", Operation: core.ChangeCreated})
	}()
	require.Eventually(t, func() bool { return w.requested.Load() == 2 }, time.Second, time.Millisecond)

	close(exp.gate)
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, 2, exp.Exports())
	rows := exp.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, "s2", rows[2][1])
}

func TestExportWorkerPropagatesExporterError(t *testing.T) {
	w := NewExportWorker(memory.New(), failingExporter{}, time.Minute)

	err := w.Export(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestExportWorkerRunPeriodic(t *testing.T) {
	st := memory.New()
	saveRecords(t, st, "s1")
	exp := sheetsmem.New()
	w := NewExportWorker(st, exp, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.RunPeriodic(ctx) }()

	require.Eventually(t, func() bool { return exp.Exports() >= 2 }, time.Second, time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}
