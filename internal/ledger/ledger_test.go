package ledger_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"circle/internal/balance"
	apperrors "circle/internal/errors"
	"circle/internal/ledger"
	"circle/internal/logger"
	"circle/internal/models"
	"circle/internal/store"
	"circle/internal/store/storetest"
	"circle/internal/testutil"
)

func TestMain(m *testing.M) {
	logger.Init("test")
	os.Exit(m.Run())
}

type fixture struct {
	ctx      context.Context
	gw       store.Gateway
	ledger   *ledger.Ledger
	balances *balance.Engine
	changes  []ledger.Change
	checking *models.Account
	savings  *models.Account
}

func newFixture(t *testing.T, gw store.Gateway) *fixture {
	t.Helper()
	f := &fixture{ctx: context.Background(), gw: gw}
	f.ledger = ledger.New(gw)
	f.balances = balance.NewEngine(gw)
	f.ledger.Subscribe(f.balances)
	f.ledger.Subscribe(ledger.SubscriberFunc(func(_ context.Context, c ledger.Change) {
		f.changes = append(f.changes, c)
	}))

	f.checking = &models.Account{Name: "Checking", Currency: "USD"}
	f.savings = &models.Account{Name: "Savings", Currency: "USD"}
	testutil.AssertNoError(t, gw.AddAccount(f.ctx, f.checking))
	testutil.AssertNoError(t, gw.AddAccount(f.ctx, f.savings))
	return f
}

func (f *fixture) rows(t *testing.T) []models.Transaction {
	t.Helper()
	txs, err := f.gw.FindTransactions(f.ctx, store.TransactionQuery{})
	testutil.AssertNoError(t, err)
	return txs
}

func (f *fixture) salary(t *testing.T, amount int64, existingID string) *ledger.Change {
	t.Helper()
	change, err := f.ledger.AddOrEditTransaction(f.ctx, ledger.Request{
		Type:         models.TransactionTypeDebit,
		Amount:       amount,
		AccountID:    f.checking.ID,
		Date:         time.Now(),
		Status:       models.TransactionStatusCleared,
		CategoryName: "Salary",
		PayeeName:    "Employer",
		ExistingID:   existingID,
	})
	testutil.AssertNoError(t, err)
	return change
}

func (f *fixture) transfer(t *testing.T, amount int64) *ledger.Change {
	t.Helper()
	change, err := f.ledger.AddOrEditTransaction(f.ctx, ledger.Request{
		Type:          models.TransactionTypeTransfer,
		Amount:        amount,
		AccountID:     "unused",
		Date:          time.Now(),
		Status:        models.TransactionStatusPending,
		FromAccountID: f.checking.ID,
		ToAccountID:   f.savings.ID,
	})
	testutil.AssertNoError(t, err)
	return change
}

// noDanglingSiblings fails when any stored row points at a missing sibling.
func noDanglingSiblings(t *testing.T, f *fixture) {
	t.Helper()
	for _, tx := range f.rows(t) {
		if !tx.IsTransferLeg() {
			continue
		}
		if _, err := f.gw.GetTransaction(f.ctx, *tx.SiblingID, false); err != nil {
			t.Errorf("row %s points to missing sibling %s", tx.ID, *tx.SiblingID)
		}
	}
}

func TestScenarios(t *testing.T) {
	storetest.ForEach(t, func(t *testing.T, gw store.Gateway) {
		f := newFixture(t, gw)

		// A: a cleared salary on a regular account.
		created := f.salary(t, 500000, "")
		rows := f.rows(t)
		if len(rows) != 1 || rows[0].Type != models.TransactionTypeDebit || rows[0].Amount != 500000 {
			t.Fatalf("scenario A: unexpected rows %+v", rows)
		}
		b, err := f.balances.Balance(f.ctx, f.checking.ID)
		testutil.AssertNoError(t, err)
		if b.Totals.ClearedDebit != 500000 || b.Cleared != 500000 {
			t.Errorf("scenario A: balance %+v", b)
		}
		if b.Label() != "Cleared: $5,000.00; Pending: $5,000.00" {
			t.Errorf("scenario A: label %q", b.Label())
		}

		// B: a pending transfer between two accounts.
		transfer := f.transfer(t, 100000)
		if len(transfer.Created) != 2 {
			t.Fatalf("scenario B: expected two created legs, got %v", transfer.Created)
		}
		credit, err := gw.GetTransaction(f.ctx, transfer.Created[0], false)
		testutil.AssertNoError(t, err)
		debit, err := gw.GetTransaction(f.ctx, transfer.Created[1], false)
		testutil.AssertNoError(t, err)
		if credit.Type != models.TransactionTypeCredit || credit.AccountID != f.checking.ID || credit.Amount != 100000 {
			t.Errorf("scenario B: credit leg %+v", credit)
		}
		if debit.Type != models.TransactionTypeDebit || debit.AccountID != f.savings.ID || debit.Amount != 100000 {
			t.Errorf("scenario B: debit leg %+v", debit)
		}
		if *credit.SiblingID != debit.ID || *debit.SiblingID != credit.ID {
			t.Errorf("scenario B: legs are not linked to each other")
		}
		cb, _ := f.balances.Balance(f.ctx, f.checking.ID)
		sb, _ := f.balances.Balance(f.ctx, f.savings.ID)
		if cb.Totals.PendingCredit != 100000 || sb.Totals.PendingDebit != 100000 {
			t.Errorf("scenario B: totals checking=%+v savings=%+v", cb.Totals, sb.Totals)
		}

		// C: edit the salary.
		edited := f.salary(t, 600000, created.Created[0])
		if _, err := gw.GetTransaction(f.ctx, created.Created[0], false); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("scenario C: original row still exists (err=%v)", err)
		}
		if len(edited.Deleted) != 1 || edited.Deleted[0] != created.Created[0] {
			t.Errorf("scenario C: change should report the deleted row, got %+v", edited)
		}
		var salaries []models.Transaction
		for _, tx := range f.rows(t) {
			if tx.AccountID == f.checking.ID && tx.Type == models.TransactionTypeDebit {
				salaries = append(salaries, tx)
			}
		}
		if len(salaries) != 1 || salaries[0].Amount != 600000 {
			t.Errorf("scenario C: expected one 600000 row, got %+v", salaries)
		}
		payee, err := gw.FindPayeeByName(f.ctx, "Employer")
		testutil.AssertNoError(t, err)
		category, err := gw.FindCategoryByName(f.ctx, "Salary")
		testutil.AssertNoError(t, err)
		if !payee.CategoryIDs.Contains(category.ID) || !payee.AccountIDs.Contains(f.checking.ID) {
			t.Errorf("scenario C: payee hints lost: %+v", payee)
		}
		if len(payee.CategoryIDs) != 1 || len(payee.AccountIDs) != 1 {
			t.Errorf("scenario C: payee hints duplicated: %+v", payee)
		}
		if category.Type != models.CategoryTypeIncome {
			t.Errorf("scenario C: debit category should be income, got %s", category.Type)
		}
		b, _ = f.balances.Balance(f.ctx, f.checking.ID)
		if b.Cleared != 600000 || b.Available != 500000 {
			t.Errorf("scenario C: balances (%d, %d), want (600000, 500000)", b.Cleared, b.Available)
		}

		// E: delete the credit leg of the transfer.
		deleted, err := f.ledger.DeleteTransaction(f.ctx, credit.ID)
		testutil.AssertNoError(t, err)
		if len(deleted.Deleted) != 2 {
			t.Errorf("scenario E: expected both legs deleted, got %v", deleted.Deleted)
		}
		for _, id := range []string{credit.ID, debit.ID} {
			if _, err := gw.GetTransaction(f.ctx, id, false); !errors.Is(err, store.ErrNotFound) {
				t.Errorf("scenario E: leg %s still exists", id)
			}
		}
		for _, tx := range f.rows(t) {
			if tx.SiblingID != nil && (*tx.SiblingID == credit.ID || *tx.SiblingID == debit.ID) {
				t.Errorf("scenario E: row %s still references a deleted leg", tx.ID)
			}
		}
		sb, _ = f.balances.Balance(f.ctx, f.savings.ID)
		if sb.Totals != (balance.Totals{}) {
			t.Errorf("scenario E: savings should be back to zero, got %+v", sb.Totals)
		}

		if len(f.changes) != 4 {
			t.Errorf("expected 4 notifications, got %d", len(f.changes))
		}
	})
}

func TestTransferPairing(t *testing.T) {
	storetest.ForEach(t, func(t *testing.T, gw store.Gateway) {
		f := newFixture(t, gw)

		for _, amount := range []int64{0, 1, 2500, 999999} {
			change := f.transfer(t, amount)
			credit, err := gw.GetTransaction(f.ctx, change.Created[0], true)
			testutil.AssertNoError(t, err)
			debit, err := gw.GetTransaction(f.ctx, change.Created[1], true)
			testutil.AssertNoError(t, err)

			if credit.Sibling == nil || credit.Sibling.ID != debit.ID || debit.Sibling == nil || debit.Sibling.ID != credit.ID {
				t.Fatalf("amount %d: legs are not mutual siblings", amount)
			}
			if credit.Amount != debit.Amount || !credit.Date.Equal(debit.Date) || credit.Status != debit.Status {
				t.Errorf("amount %d: legs differ: %+v vs %+v", amount, credit, debit)
			}
			if credit.Type == debit.Type {
				t.Errorf("amount %d: legs share type %s", amount, credit.Type)
			}
			if credit.AccountID != f.checking.ID || debit.AccountID != f.savings.ID {
				t.Errorf("amount %d: legs on wrong accounts", amount)
			}
			if credit.CategoryID != nil || credit.PayeeID != nil {
				t.Errorf("amount %d: transfer legs should not carry a category or payee", amount)
			}
		}
	})
}

func TestDeleteEitherLeg(t *testing.T) {
	storetest.ForEach(t, func(t *testing.T, gw store.Gateway) {
		for leg := 0; leg < 2; leg++ {
			f := newFixture(t, gw)
			change := f.transfer(t, 700)
			_, err := f.ledger.DeleteTransaction(f.ctx, change.Created[leg])
			testutil.AssertNoError(t, err)

			for _, id := range change.Created {
				if _, err := gw.GetTransaction(f.ctx, id, false); !errors.Is(err, store.ErrNotFound) {
					t.Errorf("leg %d: row %s survived", leg, id)
				}
			}
			noDanglingSiblings(t, f)

			// Reset accounts for the next round.
			testutil.AssertNoError(t, gw.DeleteAccount(f.ctx, f.checking.ID))
			testutil.AssertNoError(t, gw.DeleteAccount(f.ctx, f.savings.ID))
		}
	})
}

func TestAddOrEditTransaction_Validation(t *testing.T) {
	storetest.ForEach(t, func(t *testing.T, gw store.Gateway) {
		f := newFixture(t, gw)

		tests := []struct {
			name string
			req  ledger.Request
			code string
		}{
			{
				name: "negative amount",
				req:  ledger.Request{Type: models.TransactionTypeDebit, Amount: -1, AccountID: f.checking.ID, CategoryName: "Food"},
				code: "NEGATIVE_AMOUNT",
			},
			{
				name: "unknown type",
				req:  ledger.Request{Type: "refund", AccountID: f.checking.ID, CategoryName: "Food"},
				code: "INVALID_TRANSACTION_TYPE",
			},
			{
				name: "unknown status",
				req:  ledger.Request{Type: models.TransactionTypeDebit, Status: "void", AccountID: f.checking.ID, CategoryName: "Food"},
				code: "INVALID_TRANSACTION_STATUS",
			},
			{
				name: "missing category",
				req:  ledger.Request{Type: models.TransactionTypeCredit, AccountID: f.checking.ID, CategoryName: "  "},
				code: "INVALID_INPUT",
			},
			{
				name: "missing account",
				req:  ledger.Request{Type: models.TransactionTypeCredit, CategoryName: "Food"},
				code: "INVALID_INPUT",
			},
			{
				name: "transfer without destination",
				req:  ledger.Request{Type: models.TransactionTypeTransfer, FromAccountID: f.checking.ID},
				code: "INVALID_INPUT",
			},
			{
				name: "transfer to same account",
				req:  ledger.Request{Type: models.TransactionTypeTransfer, FromAccountID: f.checking.ID, ToAccountID: f.checking.ID},
				code: "SAME_ACCOUNT_TRANSFER",
			},
			{
				name: "unknown account",
				req:  ledger.Request{Type: models.TransactionTypeCredit, AccountID: "missing", CategoryName: "Food"},
				code: "ACCOUNT_NOT_FOUND",
			},
			{
				name: "unknown transfer account",
				req:  ledger.Request{Type: models.TransactionTypeTransfer, FromAccountID: f.checking.ID, ToAccountID: "missing"},
				code: "ACCOUNT_NOT_FOUND",
			},
			{
				name: "edit of missing row",
				req:  ledger.Request{Type: models.TransactionTypeCredit, AccountID: f.checking.ID, CategoryName: "Food", ExistingID: "missing"},
				code: "TRANSACTION_NOT_FOUND",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := f.ledger.AddOrEditTransaction(f.ctx, tt.req)
				testutil.AssertAppError(t, err, tt.code)
			})
		}

		if rows := f.rows(t); len(rows) != 0 {
			t.Errorf("failed operations left %d rows", len(rows))
		}
		if categories, _ := gw.ListCategories(f.ctx); len(categories) != 0 {
			t.Errorf("failed operations left %d categories", len(categories))
		}
		if len(f.changes) != 0 {
			t.Errorf("failed operations notified %d times", len(f.changes))
		}
	})
}

func TestAddOrEditTransaction_Defaults(t *testing.T) {
	storetest.ForEach(t, func(t *testing.T, gw store.Gateway) {
		f := newFixture(t, gw)

		change, err := f.ledger.AddOrEditTransaction(f.ctx, ledger.Request{
			Type:         models.TransactionTypeCredit,
			Amount:       1250,
			AccountID:    f.checking.ID,
			CategoryName: "Groceries",
		})
		testutil.AssertNoError(t, err)

		tx, err := gw.GetTransaction(f.ctx, change.Created[0], true)
		testutil.AssertNoError(t, err)
		if tx.Status != models.TransactionStatusPending {
			t.Errorf("expected pending default, got %s", tx.Status)
		}
		if tx.Date.IsZero() {
			t.Error("expected date to default to now")
		}
		if tx.PayeeID != nil {
			t.Error("expected no payee when name is empty")
		}
		if tx.Category == nil || tx.Category.Type != models.CategoryTypeExpense {
			t.Errorf("credit should create an expense category, got %+v", tx.Category)
		}
	})
}

func TestEdit_TypeChange(t *testing.T) {
	storetest.ForEach(t, func(t *testing.T, gw store.Gateway) {
		f := newFixture(t, gw)

		t.Run("transfer to single row", func(t *testing.T) {
			transfer := f.transfer(t, 100)
			change, err := f.ledger.AddOrEditTransaction(f.ctx, ledger.Request{
				Type: models.TransactionTypeCredit, Amount: 100, AccountID: f.checking.ID,
				CategoryName: "Fees", ExistingID: transfer.Created[1],
			})
			testutil.AssertNoError(t, err)
			if len(change.Deleted) != 2 {
				t.Errorf("expected both legs removed, got %v", change.Deleted)
			}
			if rows := f.rows(t); len(rows) != 1 {
				t.Errorf("expected one row, got %d", len(rows))
			}
			noDanglingSiblings(t, f)
		})

		t.Run("single row to transfer", func(t *testing.T) {
			rows := f.rows(t)
			change, err := f.ledger.AddOrEditTransaction(f.ctx, ledger.Request{
				Type: models.TransactionTypeTransfer, Amount: 300,
				FromAccountID: f.savings.ID, ToAccountID: f.checking.ID, ExistingID: rows[0].ID,
			})
			testutil.AssertNoError(t, err)
			if len(change.Created) != 2 || len(change.Deleted) != 1 {
				t.Errorf("unexpected change %+v", change)
			}
			if rows := f.rows(t); len(rows) != 2 {
				t.Errorf("expected two legs, got %d rows", len(rows))
			}
			noDanglingSiblings(t, f)
		})
	})
}

func TestEdit_DanglingSibling(t *testing.T) {
	storetest.ForEach(t, func(t *testing.T, gw store.Gateway) {
		f := newFixture(t, gw)
		change := f.transfer(t, 100)
		testutil.AssertNoError(t, gw.DeleteTransaction(f.ctx, change.Created[1]))

		_, err := f.ledger.AddOrEditTransaction(f.ctx, ledger.Request{
			Type: models.TransactionTypeTransfer, Amount: 200,
			FromAccountID: f.checking.ID, ToAccountID: f.savings.ID, ExistingID: change.Created[0],
		})
		testutil.AssertAppError(t, err, "SIBLING_NOT_FOUND")
		testutil.AssertKind(t, err, apperrors.KindIntegrity)

		if _, err := gw.GetTransaction(f.ctx, change.Created[0], false); err != nil {
			t.Errorf("failed edit should leave the remaining leg alone: %v", err)
		}

		// Deleting still works and removes the orphan.
		deleted, err := f.ledger.DeleteTransaction(f.ctx, change.Created[0])
		testutil.AssertNoError(t, err)
		if len(deleted.Deleted) != 1 || len(f.rows(t)) != 0 {
			t.Errorf("expected the orphan leg to be removed, change=%+v", deleted)
		}
	})
}

func TestDeleteTransaction_Missing(t *testing.T) {
	storetest.ForEach(t, func(t *testing.T, gw store.Gateway) {
		f := newFixture(t, gw)
		change, err := f.ledger.DeleteTransaction(f.ctx, "does-not-exist")
		testutil.AssertNoError(t, err)
		if !change.Empty() {
			t.Errorf("expected empty change, got %+v", change)
		}
		if len(f.changes) != 0 {
			t.Error("empty change should not notify subscribers")
		}
	})
}

func TestBulkDelete(t *testing.T) {
	storetest.ForEach(t, func(t *testing.T, gw store.Gateway) {
		f := newFixture(t, gw)
		transfer := f.transfer(t, 100)
		single := f.salary(t, 200, "")

		change, err := f.ledger.BulkDelete(f.ctx, []string{transfer.Created[0], transfer.Created[1], single.Created[0]})
		testutil.AssertNoError(t, err)
		if len(change.Deleted) != 3 {
			t.Errorf("expected 3 deleted rows, got %v", change.Deleted)
		}
		if rows := f.rows(t); len(rows) != 0 {
			t.Errorf("expected no rows, got %d", len(rows))
		}
		// two adds and one bulk delete
		if len(f.changes) != 3 {
			t.Errorf("expected 3 notifications, got %d", len(f.changes))
		}
	})
}

func TestWithoutNotify(t *testing.T) {
	storetest.ForEach(t, func(t *testing.T, gw store.Gateway) {
		f := newFixture(t, gw)
		_, err := f.ledger.AddOrEditTransaction(f.ctx, ledger.Request{
			Type: models.TransactionTypeDebit, Amount: 10, AccountID: f.checking.ID, CategoryName: "Gift",
		}, ledger.WithoutNotify())
		testutil.AssertNoError(t, err)
		if len(f.changes) != 0 {
			t.Fatalf("expected no notification, got %d", len(f.changes))
		}

		f.ledger.Notify(f.ctx, ledger.Change{All: true})
		if len(f.changes) != 1 || !f.changes[0].All {
			t.Errorf("expected one bulk notification, got %+v", f.changes)
		}
	})
}

// failingGateway fails every AddTransaction after the first n.
type failingGateway struct {
	store.Gateway
	n    int
	adds *int
}

func (g *failingGateway) AddTransaction(ctx context.Context, tx *models.Transaction) error {
	*g.adds++
	if *g.adds > g.n {
		return errors.New("disk full")
	}
	return g.Gateway.AddTransaction(ctx, tx)
}

func (g *failingGateway) Transaction(ctx context.Context, fn func(store.Gateway) error) error {
	return g.Gateway.Transaction(ctx, func(scoped store.Gateway) error {
		return fn(&failingGateway{Gateway: scoped, n: g.n, adds: g.adds})
	})
}

func TestTransfer_DebitLegFailureRollsBack(t *testing.T) {
	storetest.ForEach(t, func(t *testing.T, gw store.Gateway) {
		f := newFixture(t, gw)
		existing := f.transfer(t, 100)

		adds := 0
		l := ledger.New(&failingGateway{Gateway: gw, n: 1, adds: &adds})
		_, err := l.AddOrEditTransaction(f.ctx, ledger.Request{
			Type: models.TransactionTypeTransfer, Amount: 500,
			FromAccountID: f.checking.ID, ToAccountID: f.savings.ID, ExistingID: existing.Created[0],
		})
		testutil.AssertKind(t, err, apperrors.KindInternal)

		rows := f.rows(t)
		if len(rows) != 2 {
			t.Fatalf("expected the original pair to survive, got %d rows", len(rows))
		}
		for _, tx := range rows {
			if tx.Amount != 100 {
				t.Errorf("row %s has amount %d, want 100", tx.ID, tx.Amount)
			}
		}
		noDanglingSiblings(t, f)
	})
}

func TestChange(t *testing.T) {
	c := ledger.AccountChange("a", "b", "a")
	if len(c.AccountIDs) != 2 {
		t.Errorf("expected deduplicated ids, got %v", c.AccountIDs)
	}
	if !c.Touches("a") || c.Touches("z") || !c.Touches("") {
		t.Error("Touches mismatch")
	}

	c.Merge(ledger.Change{AccountIDs: []string{"c"}, Created: []string{"x"}})
	if len(c.AccountIDs) != 3 || len(c.Created) != 1 {
		t.Errorf("unexpected merge result %+v", c)
	}

	var empty ledger.Change
	if !empty.Empty() || empty.Touches("") {
		t.Error("zero change should be empty")
	}
	if !(ledger.Change{All: true}).Touches("anything") {
		t.Error("bulk change should touch every account")
	}
}
