package memory

import (
	"context"
	"sync"

	"vegledger/internal/core"
	ports "vegledger/internal/sheets"
)

var _ ports.SalesExporter = (*Exporter)(nil)

// Exporter keeps the last exported rows in memory. Used when no spreadsheet
// is configured and in tests.
type Exporter struct {
	mu      sync.Mutex
	rows    [][]any
	exports int
}

func New() *Exporter {
	return &Exporter{}
}

func (e *Exporter) ExportSales(_ context.Context, records []core.SaleRecord) error {
	rows := ports.SaleRows(records)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rows = rows
	e.exports++
	return nil
}

// Rows returns the rows written by the most recent export.
func (e *Exporter) Rows() [][]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([][]any(nil), e.rows...)
}

// Exports counts completed exports.
func (e *Exporter) Exports() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exports
}
