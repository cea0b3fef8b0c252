package services

import (
	"context"
	"testing"

	"circle/internal/testutil"
)

func TestGetPayee(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves_hints", func(t *testing.T) {
		db, l, _ := setupLedger(t)
		a := testutil.CreateTestAccount(t, db)
		b := testutil.CreateTestAccount(t, db)
		addExpense(t, l, a, 100, day(1))
		addExpense(t, l, b, 200, day(2))

		svc := NewPayeeService(l.Gateway())
		payees, err := svc.ListPayees(ctx)
		testutil.AssertNoError(t, err)
		if len(payees) != 1 || payees[0].Name != "Market" {
			t.Fatalf("expected the Market payee, got %+v", payees)
		}

		detail, err := svc.GetPayee(ctx, payees[0].ID)
		testutil.AssertNoError(t, err)
		if len(detail.Categories) != 1 || detail.Categories[0].Name != "Groceries" {
			t.Errorf("unexpected categories %+v", detail.Categories)
		}
		if len(detail.Accounts) != 2 || detail.Accounts[0].ID != a.ID || detail.Accounts[1].ID != b.ID {
			t.Errorf("unexpected accounts %+v", detail.Accounts)
		}
	})

	t.Run("skips_deleted_accounts", func(t *testing.T) {
		db, l, _ := setupLedger(t)
		a := testutil.CreateTestAccount(t, db)
		b := testutil.CreateTestAccount(t, db)
		addExpense(t, l, a, 100, day(1))
		addExpense(t, l, b, 200, day(2))
		testutil.AssertNoError(t, NewAccountService(l).DeleteAccount(ctx, b.ID, true))

		svc := NewPayeeService(l.Gateway())
		payees, _ := svc.ListPayees(ctx)
		detail, err := svc.GetPayee(ctx, payees[0].ID)
		testutil.AssertNoError(t, err)
		if len(detail.AccountIDs) != 2 {
			t.Errorf("hint sets never shrink, got %v", detail.AccountIDs)
		}
		if len(detail.Accounts) != 1 || detail.Accounts[0].ID != a.ID {
			t.Errorf("expected only the live account, got %+v", detail.Accounts)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		_, l, _ := setupLedger(t)
		_, err := NewPayeeService(l.Gateway()).GetPayee(ctx, "missing")
		testutil.AssertAppError(t, err, "PAYEE_NOT_FOUND")
	})
}
