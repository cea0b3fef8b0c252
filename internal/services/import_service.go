package services

import (
	"context"
	"io"

	"circle/internal/importer"
	"circle/internal/ledger"
)

type importService struct {
	importer *importer.Importer
}

// NewImportService creates a new ImportServicer writing through l.
func NewImportService(l *ledger.Ledger) ImportServicer {
	return &importService{importer: importer.New(l)}
}

// Import applies a CSV export atomically.
func (s *importService) Import(ctx context.Context, r io.Reader, progress importer.ProgressFunc) (*importer.Result, error) {
	return s.importer.Import(ctx, r, progress)
}
