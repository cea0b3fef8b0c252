package balance

import (
	"math/rand"
	"testing"
	"time"

	"circle/internal/models"
)

func TestImpact(t *testing.T) {
	regular := models.Account{}
	card := models.Account{IsCredit: true}

	tests := []struct {
		name    string
		account models.Account
		txType  models.TransactionType
		want    int64
	}{
		{"debit raises a regular account", regular, models.TransactionTypeDebit, 100},
		{"credit lowers a regular account", regular, models.TransactionTypeCredit, -100},
		{"debit lowers a credit account", card, models.TransactionTypeDebit, -100},
		{"credit raises a credit account", card, models.TransactionTypeCredit, 100},
		{"transfer has no direct impact", regular, models.TransactionTypeTransfer, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Impact(tt.account, tt.txType, 100); got != tt.want {
				t.Errorf("Impact = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCompute(t *testing.T) {
	txs := []models.Transaction{
		{Type: models.TransactionTypeDebit, Status: models.TransactionStatusCleared, Amount: 500000},
		{Type: models.TransactionTypeCredit, Status: models.TransactionStatusCleared, Amount: 20000},
		{Type: models.TransactionTypeCredit, Status: models.TransactionStatusPending, Amount: 5000},
		{Type: models.TransactionTypeDebit, Status: models.TransactionStatusPending, Amount: 1000},
	}
	totals := Fold(txs)
	want := Totals{PendingCredit: 5000, PendingDebit: 1000, ClearedCredit: 20000, ClearedDebit: 500000}
	if totals != want {
		t.Fatalf("Fold = %+v, want %+v", totals, want)
	}

	t.Run("regular account", func(t *testing.T) {
		b := Compute(models.Account{Balance: 10000, Currency: "USD"}, totals)
		if b.Cleared != 490000 {
			t.Errorf("Cleared = %d, want 490000", b.Cleared)
		}
		if b.Available != 486000 {
			t.Errorf("Available = %d, want 486000", b.Available)
		}
		if got := b.Label(); got != "Cleared: $4,900.00; Pending: $4,860.00" {
			t.Errorf("Label = %q", got)
		}
	})

	t.Run("credit account", func(t *testing.T) {
		b := Compute(models.Account{Balance: 10000, Currency: "USD", IsCredit: true}, totals)
		if b.Cleared != -470000 {
			t.Errorf("Cleared = %d, want -470000", b.Cleared)
		}
		if b.Available != -466000 {
			t.Errorf("Available = %d, want -466000", b.Available)
		}
	})
}

// Totals must equal the per-bucket sums, and every displayed balance must
// equal the start plus the Impact of each row.
func TestFold_Property(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	types := []models.TransactionType{models.TransactionTypeCredit, models.TransactionTypeDebit}
	statuses := []models.TransactionStatus{models.TransactionStatusPending, models.TransactionStatusCleared}

	for round := 0; round < 200; round++ {
		account := models.Account{Balance: rng.Int63n(1_000_000) - 500_000, IsCredit: rng.Intn(2) == 0, Currency: "USD"}
		n := rng.Intn(40)
		txs := make([]models.Transaction, n)
		var sums [2][2]int64
		var cleared, available int64 = account.Balance, account.Balance
		for i := range txs {
			ti, si := rng.Intn(2), rng.Intn(2)
			txs[i] = models.Transaction{
				Type:   types[ti],
				Status: statuses[si],
				Amount: rng.Int63n(100_000),
				Date:   time.Unix(rng.Int63n(1_700_000_000), 0),
			}
			sums[ti][si] += txs[i].Amount
			delta := Impact(account, txs[i].Type, txs[i].Amount)
			available += delta
			if txs[i].Status == models.TransactionStatusCleared {
				cleared += delta
			}
		}

		totals := Fold(txs)
		if totals.PendingCredit != sums[0][0] || totals.ClearedCredit != sums[0][1] ||
			totals.PendingDebit != sums[1][0] || totals.ClearedDebit != sums[1][1] {
			t.Fatalf("round %d: totals %+v do not match bucket sums %v", round, totals, sums)
		}
		if again := Fold(txs); again != totals {
			t.Fatalf("round %d: Fold is not deterministic: %+v vs %+v", round, totals, again)
		}

		b := Compute(account, totals)
		if b.Cleared != cleared || b.Available != available {
			t.Fatalf("round %d: Compute = (%d, %d), want (%d, %d)", round, b.Cleared, b.Available, cleared, available)
		}
		if Compute(account, totals) != b {
			t.Fatalf("round %d: Compute is not deterministic", round)
		}
	}
}
