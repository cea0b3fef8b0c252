// Package storetest runs every store.Gateway implementation through the same
// behaviour checks and hands tests of higher layers one gateway per backend.
package storetest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"circle/internal/models"
	"circle/internal/store"
	"circle/internal/store/boltstore"
	"circle/internal/store/gormstore"
	"circle/internal/testutil"
)

// Backend names a gateway factory.
type Backend struct {
	Name string
	New  func(t *testing.T) store.Gateway
}

// NewGorm returns a GORM gateway over a fresh in-memory SQLite database.
func NewGorm(t *testing.T) store.Gateway {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })
	return gormstore.New(db)
}

// NewBolt returns a bbolt gateway over a file in a temp dir.
func NewBolt(t *testing.T) store.Gateway {
	t.Helper()
	s, err := boltstore.Open(filepath.Join(t.TempDir(), "circle.db"))
	if err != nil {
		t.Fatalf("failed to open bolt store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// Backends lists every gateway implementation.
func Backends() []Backend {
	return []Backend{
		{Name: "gorm", New: NewGorm},
		{Name: "bolt", New: NewBolt},
	}
}

// ForEach runs fn as a subtest against a fresh gateway of every backend.
func ForEach(t *testing.T, fn func(t *testing.T, gw store.Gateway)) {
	t.Helper()
	for _, b := range Backends() {
		t.Run(b.Name, func(t *testing.T) {
			fn(t, b.New(t))
		})
	}
}

func ptr(s string) *string { return &s }

// Run checks the Gateway contract against gateways produced by newGateway.
func Run(t *testing.T, newGateway func(t *testing.T) store.Gateway) {
	ctx := context.Background()
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	t.Run("accounts", func(t *testing.T) {
		gw := newGateway(t)

		a := &models.Account{Name: "Wallet", Currency: "USD", Balance: 100}
		testutil.AssertNoError(t, gw.AddAccount(ctx, a))
		if a.ID == "" {
			t.Fatal("AddAccount should assign an id")
		}

		got, err := gw.GetAccount(ctx, a.ID)
		testutil.AssertNoError(t, err)
		if got.Name != "Wallet" || got.Balance != 100 {
			t.Errorf("unexpected account %+v", got)
		}

		byName, err := gw.FindAccountByName(ctx, "Wallet")
		testutil.AssertNoError(t, err)
		if byName.ID != a.ID {
			t.Errorf("FindAccountByName returned %s, want %s", byName.ID, a.ID)
		}

		if err := gw.AddAccount(ctx, &models.Account{Name: "Wallet", Currency: "USD"}); err == nil {
			t.Error("expected duplicate name to be rejected")
		}

		got.Balance = 250
		testutil.AssertNoError(t, gw.PutAccount(ctx, got))
		again, err := gw.GetAccount(ctx, a.ID)
		testutil.AssertNoError(t, err)
		if again.Balance != 250 {
			t.Errorf("expected balance 250 after put, got %d", again.Balance)
		}

		testutil.AssertNoError(t, gw.AddAccount(ctx, &models.Account{Name: "Bank", Currency: "EUR"}))
		list, err := gw.ListAccounts(ctx)
		testutil.AssertNoError(t, err)
		if len(list) != 2 || list[0].Name != "Bank" {
			t.Errorf("expected [Bank Wallet], got %+v", list)
		}

		testutil.AssertNoError(t, gw.DeleteAccount(ctx, a.ID))
		if _, err := gw.GetAccount(ctx, a.ID); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
		testutil.AssertNoError(t, gw.DeleteAccount(ctx, a.ID))
	})

	t.Run("categories and payees", func(t *testing.T) {
		gw := newGateway(t)

		c := &models.Category{Name: "Groceries", Type: models.CategoryTypeExpense}
		testutil.AssertNoError(t, gw.AddCategory(ctx, c))
		found, err := gw.FindCategoryByName(ctx, "Groceries")
		testutil.AssertNoError(t, err)
		if found.ID != c.ID || found.Type != models.CategoryTypeExpense {
			t.Errorf("unexpected category %+v", found)
		}
		if _, err := gw.FindCategoryByName(ctx, "Missing"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}

		p := &models.Payee{Name: "Shop", CategoryIDs: models.IDSet{c.ID}}
		testutil.AssertNoError(t, gw.AddPayee(ctx, p))
		p.AccountIDs = p.AccountIDs.Add("acc-1")
		testutil.AssertNoError(t, gw.PutPayee(ctx, p))

		loaded, err := gw.GetPayee(ctx, p.ID)
		testutil.AssertNoError(t, err)
		if !loaded.CategoryIDs.Contains(c.ID) || !loaded.AccountIDs.Contains("acc-1") {
			t.Errorf("payee sets did not round-trip: %+v", loaded)
		}

		payees, err := gw.ListPayees(ctx)
		testutil.AssertNoError(t, err)
		if len(payees) != 1 {
			t.Errorf("expected 1 payee, got %d", len(payees))
		}
	})

	t.Run("transactions query", func(t *testing.T) {
		gw := newGateway(t)

		a := &models.Account{Name: "A", Currency: "USD"}
		b := &models.Account{Name: "B", Currency: "USD"}
		testutil.AssertNoError(t, gw.AddAccount(ctx, a))
		testutil.AssertNoError(t, gw.AddAccount(ctx, b))

		var ids []string
		for i := 0; i < 5; i++ {
			tx := &models.Transaction{
				Type:      models.TransactionTypeDebit,
				Amount:    int64(100 * (i + 1)),
				AccountID: a.ID,
				Date:      day.AddDate(0, 0, i/2),
				Status:    models.TransactionStatusCleared,
			}
			testutil.AssertNoError(t, gw.AddTransaction(ctx, tx))
			ids = append(ids, tx.ID)
		}
		other := &models.Transaction{Type: models.TransactionTypeCredit, Amount: 1, AccountID: b.ID, Date: day, Status: models.TransactionStatusPending}
		testutil.AssertNoError(t, gw.AddTransaction(ctx, other))

		all, err := gw.FindTransactions(ctx, store.TransactionQuery{AccountID: a.ID})
		testutil.AssertNoError(t, err)
		want := []string{ids[4], ids[3], ids[2], ids[1], ids[0]}
		if len(all) != len(want) {
			t.Fatalf("expected %d rows, got %d", len(want), len(all))
		}
		for i := range want {
			if all[i].ID != want[i] {
				t.Errorf("row %d: got %s, want %s", i, all[i].ID, want[i])
			}
		}

		page, err := gw.FindTransactions(ctx, store.TransactionQuery{AccountID: a.ID, Skip: 2, Take: 2})
		testutil.AssertNoError(t, err)
		if len(page) != 2 || page[0].ID != ids[2] || page[1].ID != ids[1] {
			t.Errorf("unexpected page %v", page)
		}

		asc, err := gw.FindTransactions(ctx, store.TransactionQuery{AccountID: a.ID, Ascending: true, Take: 1})
		testutil.AssertNoError(t, err)
		if len(asc) != 1 || asc[0].ID != ids[0] {
			t.Errorf("ascending first row should be %s, got %v", ids[0], asc)
		}

		byID, err := gw.FindTransactions(ctx, store.TransactionQuery{IDs: []string{ids[1], other.ID}})
		testutil.AssertNoError(t, err)
		if len(byID) != 2 {
			t.Errorf("expected 2 rows by id, got %d", len(byID))
		}

		count, err := gw.CountTransactions(ctx, store.TransactionQuery{})
		testutil.AssertNoError(t, err)
		if count != 6 {
			t.Errorf("expected 6 rows, got %d", count)
		}

		testutil.AssertNoError(t, gw.DeleteTransaction(ctx, ids[0]))
		testutil.AssertNoError(t, gw.DeleteTransaction(ctx, ids[0]))
		if _, err := gw.GetTransaction(ctx, ids[0], false); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("orders by instant across utc offsets", func(t *testing.T) {
		gw := newGateway(t)

		a := &models.Account{Name: "A", Currency: "USD"}
		testutil.AssertNoError(t, gw.AddAccount(ctx, a))

		tokyo := time.FixedZone("JST", 9*60*60)
		later := &models.Transaction{
			Type: models.TransactionTypeDebit, Amount: 1, AccountID: a.ID, Status: models.TransactionStatusCleared,
			Date: time.Date(2024, 3, 10, 5, 0, 0, 0, time.UTC),
		}
		earlier := &models.Transaction{
			Type: models.TransactionTypeDebit, Amount: 2, AccountID: a.ID, Status: models.TransactionStatusCleared,
			Date: time.Date(2024, 3, 10, 10, 0, 0, 0, tokyo), // 01:00 UTC
		}
		testutil.AssertNoError(t, gw.AddTransaction(ctx, later))
		testutil.AssertNoError(t, gw.AddTransaction(ctx, earlier))

		rows, err := gw.FindTransactions(ctx, store.TransactionQuery{AccountID: a.ID})
		testutil.AssertNoError(t, err)
		if len(rows) != 2 || rows[0].ID != later.ID || rows[1].ID != earlier.ID {
			t.Fatalf("expected %s before %s, got %v", later.ID, earlier.ID, rows)
		}

		// Moving the earlier row past the other one through put reorders them.
		earlier.Date = time.Date(2024, 3, 10, 15, 0, 0, 0, tokyo) // 06:00 UTC
		testutil.AssertNoError(t, gw.PutTransaction(ctx, earlier))
		rows, err = gw.FindTransactions(ctx, store.TransactionQuery{AccountID: a.ID})
		testutil.AssertNoError(t, err)
		if len(rows) != 2 || rows[0].ID != earlier.ID {
			t.Errorf("expected %s first after put, got %v", earlier.ID, rows)
		}
		if !rows[0].Date.Equal(earlier.Date) {
			t.Errorf("stored date %v is not the same instant as %v", rows[0].Date, earlier.Date)
		}
	})

	t.Run("transaction relations", func(t *testing.T) {
		gw := newGateway(t)

		a := &models.Account{Name: "Checking", Currency: "USD"}
		b := &models.Account{Name: "Savings", Currency: "USD"}
		testutil.AssertNoError(t, gw.AddAccount(ctx, a))
		testutil.AssertNoError(t, gw.AddAccount(ctx, b))
		c := &models.Category{Name: "Rent", Type: models.CategoryTypeExpense}
		testutil.AssertNoError(t, gw.AddCategory(ctx, c))
		p := &models.Payee{Name: "Landlord"}
		testutil.AssertNoError(t, gw.AddPayee(ctx, p))

		credit := &models.Transaction{
			Type: models.TransactionTypeCredit, Amount: 500, AccountID: a.ID, Date: day,
			Status: models.TransactionStatusCleared, FromAccountID: ptr(a.ID), ToAccountID: ptr(b.ID),
		}
		testutil.AssertNoError(t, gw.AddTransaction(ctx, credit))
		debit := &models.Transaction{
			Type: models.TransactionTypeDebit, Amount: 500, AccountID: b.ID, Date: day,
			Status: models.TransactionStatusCleared, FromAccountID: ptr(a.ID), ToAccountID: ptr(b.ID),
			SiblingID: ptr(credit.ID),
		}
		testutil.AssertNoError(t, gw.AddTransaction(ctx, debit))
		credit.SiblingID = ptr(debit.ID)
		testutil.AssertNoError(t, gw.PutTransaction(ctx, credit))

		rent := &models.Transaction{
			Type: models.TransactionTypeCredit, Amount: 900, AccountID: a.ID, Date: day,
			Status: models.TransactionStatusPending, CategoryID: ptr(c.ID), PayeeID: ptr(p.ID),
		}
		testutil.AssertNoError(t, gw.AddTransaction(ctx, rent))

		got, err := gw.GetTransaction(ctx, credit.ID, true)
		testutil.AssertNoError(t, err)
		if got.Sibling == nil || got.Sibling.ID != debit.ID {
			t.Errorf("expected sibling %s, got %+v", debit.ID, got.Sibling)
		}
		if got.Account == nil || got.Account.Name != "Checking" {
			t.Errorf("expected account relation, got %+v", got.Account)
		}
		if got.ToAccount == nil || got.ToAccount.Name != "Savings" {
			t.Errorf("expected to-account relation, got %+v", got.ToAccount)
		}

		plain, err := gw.GetTransaction(ctx, rent.ID, false)
		testutil.AssertNoError(t, err)
		if plain.Category != nil || plain.Payee != nil {
			t.Error("relations should be empty when not requested")
		}

		rows, err := gw.FindTransactions(ctx, store.TransactionQuery{IDs: []string{rent.ID}, Relations: true})
		testutil.AssertNoError(t, err)
		if len(rows) != 1 || rows[0].Category == nil || rows[0].Payee == nil {
			t.Fatalf("expected category and payee relations, got %+v", rows)
		}
		if rows[0].Category.Name != "Rent" || rows[0].Payee.Name != "Landlord" {
			t.Errorf("unexpected relations %+v %+v", rows[0].Category, rows[0].Payee)
		}

		// Writing a row that carries relations must not touch the related records.
		got.Account.Name = "Renamed"
		testutil.AssertNoError(t, gw.PutTransaction(ctx, got))
		acc, err := gw.GetAccount(ctx, a.ID)
		testutil.AssertNoError(t, err)
		if acc.Name != "Checking" {
			t.Errorf("put should not cascade into relations, account renamed to %q", acc.Name)
		}
	})

	t.Run("atomic scope", func(t *testing.T) {
		gw := newGateway(t)
		boom := errors.New("boom")

		err := gw.Transaction(ctx, func(scoped store.Gateway) error {
			if err := scoped.AddAccount(ctx, &models.Account{Name: "Ghost", Currency: "USD"}); err != nil {
				return err
			}
			if _, err := scoped.FindAccountByName(ctx, "Ghost"); err != nil {
				t.Errorf("write should be visible inside the scope: %v", err)
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		if _, err := gw.FindAccountByName(ctx, "Ghost"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("rolled back write is visible: %v", err)
		}

		err = gw.Transaction(ctx, func(scoped store.Gateway) error {
			if err := scoped.AddAccount(ctx, &models.Account{Name: "Outer", Currency: "USD"}); err != nil {
				return err
			}
			return scoped.Transaction(ctx, func(inner store.Gateway) error {
				return inner.AddAccount(ctx, &models.Account{Name: "Inner", Currency: "USD"})
			})
		})
		testutil.AssertNoError(t, err)
		accounts, err := gw.ListAccounts(ctx)
		testutil.AssertNoError(t, err)
		if len(accounts) != 2 {
			t.Errorf("expected joined scope to commit both accounts, got %d", len(accounts))
		}
	})
}
