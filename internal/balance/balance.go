// Package balance derives account balances from stored transactions.
// All sign handling goes through Impact.
package balance

import (
	"fmt"

	"circle/internal/models"
	"circle/internal/money"
)

// Totals are the four per-account aggregates, in minor units.
type Totals struct {
	PendingCredit int64 `json:"pending_credit"`
	PendingDebit  int64 `json:"pending_debit"`
	ClearedCredit int64 `json:"cleared_credit"`
	ClearedDebit  int64 `json:"cleared_debit"`
}

// Add buckets one transaction by (type, status). Rows with an unknown type or
// status are ignored.
func (t Totals) Add(tx models.Transaction) Totals {
	switch {
	case tx.Type == models.TransactionTypeCredit && tx.Status == models.TransactionStatusCleared:
		t.ClearedCredit += tx.Amount
	case tx.Type == models.TransactionTypeCredit && tx.Status == models.TransactionStatusPending:
		t.PendingCredit += tx.Amount
	case tx.Type == models.TransactionTypeDebit && tx.Status == models.TransactionStatusCleared:
		t.ClearedDebit += tx.Amount
	case tx.Type == models.TransactionTypeDebit && tx.Status == models.TransactionStatusPending:
		t.PendingDebit += tx.Amount
	}
	return t
}

// Fold reduces txs into Totals.
func Fold(txs []models.Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		t = t.Add(tx)
	}
	return t
}

// Impact returns the signed effect of amount of the given type on an account.
// Debits raise and credits lower a regular account; a credit account is the
// other way round.
func Impact(account models.Account, txType models.TransactionType, amount int64) int64 {
	var delta int64
	switch txType {
	case models.TransactionTypeDebit:
		delta = amount
	case models.TransactionTypeCredit:
		delta = -amount
	default:
		return 0
	}
	if account.IsCredit {
		return -delta
	}
	return delta
}

// Balance is the derived state of one account.
type Balance struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	Currency  string `json:"currency"`
	Start     int64  `json:"start"`
	Totals    Totals `json:"totals"`
	// Cleared counts settled rows only; Available adds pending rows.
	Cleared   int64 `json:"cleared"`
	Available int64 `json:"available"`
}

// Compute derives the displayed balances of account from its totals.
func Compute(account models.Account, totals Totals) Balance {
	cleared := account.Balance +
		Impact(account, models.TransactionTypeCredit, totals.ClearedCredit) +
		Impact(account, models.TransactionTypeDebit, totals.ClearedDebit)
	available := cleared +
		Impact(account, models.TransactionTypeCredit, totals.PendingCredit) +
		Impact(account, models.TransactionTypeDebit, totals.PendingDebit)

	return Balance{
		AccountID: account.ID,
		Name:      account.Name,
		Currency:  account.Currency,
		Start:     account.Balance,
		Totals:    totals,
		Cleared:   cleared,
		Available: available,
	}
}

// Label renders both balances, e.g. "Cleared: $5,000.00; Pending: $4,000.00".
func (b Balance) Label() string {
	return label(b.Cleared, b.Available, b.Currency)
}

func label(cleared, available int64, currency string) string {
	return fmt.Sprintf("Cleared: %s; Pending: %s", money.Format(cleared, currency), money.Format(available, currency))
}
