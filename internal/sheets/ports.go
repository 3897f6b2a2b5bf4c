package sheets

import (
	"context"

	"vegledger/internal/core"
)

// Ports for outbound adapters.
type (
	// SalesExporter mirrors the full sales ledger into an external sheet.
	// Each call replaces whatever a previous export wrote.
	SalesExporter interface {
		ExportSales(ctx context.Context, records []core.SaleRecord) error
	}
)
