package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"circle/internal/balance"
	"circle/internal/models"
	"circle/internal/testutil"
)

func setupReports(t *testing.T) (*reportService, *models.Account, *models.Account) {
	t.Helper()
	db, l, _ := setupLedger(t)
	engine := balance.NewEngine(l.Gateway())
	l.Subscribe(engine)

	usd := testutil.CreateTestAccountWithBalance(t, db, 10000)
	eur := &models.Account{Name: "Euro Account", Currency: "EUR", Balance: 5000}
	testutil.AssertNoError(t, db.Create(eur).Error)
	testutil.AssertNoError(t, engine.Recompute(context.Background()))

	addExpense(t, l, usd, 2500, day(1))
	addExpense(t, l, eur, 1000, day(20))

	rates := &balance.StaticRates{Base: "USD", Rates: map[string]decimal.Decimal{"EUR": decimal.RequireFromString("1.5")}}
	svc := NewReportService(l.Gateway(), engine, "USD", rates).(*reportService)
	return svc, usd, eur
}

func TestReportBalances(t *testing.T) {
	svc, usd, eur := setupReports(t)

	balances, err := svc.Balances(context.Background())
	testutil.AssertNoError(t, err)
	if len(balances) != 2 {
		t.Fatalf("expected 2 balances, got %d", len(balances))
	}
	for _, b := range balances {
		switch b.AccountID {
		case usd.ID:
			if b.Cleared != 7500 {
				t.Errorf("expected USD cleared 7500, got %d", b.Cleared)
			}
		case eur.ID:
			if b.Cleared != 4000 {
				t.Errorf("expected EUR cleared 4000, got %d", b.Cleared)
			}
		}
	}
}

func TestReportSummary(t *testing.T) {
	svc, _, _ := setupReports(t)

	summary, err := svc.Summary(context.Background())
	testutil.AssertNoError(t, err)
	if summary.Currency != "USD" || summary.Accounts != 2 {
		t.Errorf("unexpected summary %+v", summary)
	}
	if summary.Cleared != 7500+6000 {
		t.Errorf("expected cleared 13500, got %d", summary.Cleared)
	}
}

func TestReportAssetHistory(t *testing.T) {
	svc, _, _ := setupReports(t)

	points, err := svc.AssetHistory(context.Background(), balance.DefaultGap)
	testutil.AssertNoError(t, err)
	if len(points) != 3 {
		t.Fatalf("expected 3 samples, got %+v", points)
	}
	if points[0].Value != 15000-2500 {
		t.Errorf("expected first sample 12500, got %d", points[0].Value)
	}
	if last := points[len(points)-1]; last.Value != 15000-2500-1000 {
		t.Errorf("expected last sample 11500, got %d", last.Value)
	}
}
