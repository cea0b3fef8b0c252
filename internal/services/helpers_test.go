package services

import (
	"context"
	"os"
	"testing"
	"time"

	"gorm.io/gorm"

	"circle/internal/ledger"
	"circle/internal/logger"
	"circle/internal/models"
	"circle/internal/store/gormstore"
	"circle/internal/testutil"
)

func TestMain(m *testing.M) {
	logger.Init("test")
	os.Exit(m.Run())
}

// recorder collects the changes a ledger publishes.
type recorder struct {
	changes []ledger.Change
}

func (r *recorder) HandleChange(_ context.Context, c ledger.Change) {
	r.changes = append(r.changes, c)
}

func setupLedger(t *testing.T) (*gorm.DB, *ledger.Ledger, *recorder) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	l := ledger.New(gormstore.New(db))
	rec := &recorder{}
	l.Subscribe(rec)
	return db, l, rec
}

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.Local)
}

func addExpense(t *testing.T, l *ledger.Ledger, account *models.Account, amount int64, date time.Time) *ledger.Change {
	t.Helper()
	change, err := l.AddOrEditTransaction(context.Background(), ledger.Request{
		Type:         models.TransactionTypeCredit,
		Amount:       amount,
		AccountID:    account.ID,
		Date:         date,
		Status:       models.TransactionStatusCleared,
		CategoryName: "Groceries",
		PayeeName:    "Market",
	})
	testutil.AssertNoError(t, err)
	return change
}

func addTransfer(t *testing.T, l *ledger.Ledger, from, to *models.Account, amount int64, date time.Time) *ledger.Change {
	t.Helper()
	change, err := l.AddOrEditTransaction(context.Background(), ledger.Request{
		Type:          models.TransactionTypeTransfer,
		Amount:        amount,
		Date:          date,
		Status:        models.TransactionStatusCleared,
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
	})
	testutil.AssertNoError(t, err)
	return change
}
