package services

import (
	"context"
	"time"

	apperrors "circle/internal/errors"
	"circle/internal/balance"
	"circle/internal/store"
)

type reportService struct {
	gw        store.Gateway
	engine    *balance.Engine
	base      string
	converter balance.Converter
}

// NewReportService creates a new ReportServicer. Summaries are expressed in
// base using converter.
func NewReportService(gw store.Gateway, engine *balance.Engine, base string, converter balance.Converter) ReportServicer {
	return &reportService{gw: gw, engine: engine, base: base, converter: converter}
}

// Balances returns the derived balance of every account, ordered by name.
func (s *reportService) Balances(ctx context.Context) ([]balance.Balance, error) {
	balances, err := s.engine.Balances(ctx)
	if err != nil {
		return nil, err
	}
	if balances == nil {
		balances = []balance.Balance{}
	}
	return balances, nil
}

// Summary combines every account balance into the base currency.
func (s *reportService) Summary(ctx context.Context) (*balance.Summary, error) {
	balances, err := s.engine.Balances(ctx)
	if err != nil {
		return nil, err
	}
	summary, err := balance.Combine(balances, s.base, s.converter)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// AssetHistory samples the cleared net assets every gap.
func (s *reportService) AssetHistory(ctx context.Context, gap time.Duration) ([]balance.Point, error) {
	accounts, err := s.gw.ListAccounts(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	txs, err := s.gw.FindTransactions(ctx, store.TransactionQuery{Ascending: true})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	points := balance.History(accounts, txs, gap)
	if points == nil {
		points = []balance.Point{}
	}
	return points, nil
}
