package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"circle/internal/app"
	"circle/internal/config"
	"circle/internal/logger"
	"circle/internal/middleware"
	"circle/internal/services"
)

const exportCSV = `Date,Description,Category,Payee,Notes,Status,Account,Transfer,Amount
2024-03-01,Coffee,Food,Cafe,,cleared,Checking,,-4.50
2024-03-02,Pay,Salary,Employer,march,cleared,Checking,,2500.00
2024-03-03,Move,,,,cleared,Checking,Savings,-100.00
`

func TestMain(m *testing.M) {
	logger.Init("test")
	os.Exit(m.Run())
}

// newLedgerFile creates a bolt ledger with a Checking and a Savings account.
func newLedgerFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "circle.db")

	a, err := app.Open(&config.Config{DBDriver: config.DriverBolt, DBPath: path, BaseCurrency: "USD"})
	if err != nil {
		t.Fatalf("app.Open: %v", err)
	}
	defer a.Close()

	for _, name := range []string{"Checking", "Savings"} {
		if _, err := a.Accounts.CreateAccount(context.Background(), services.AccountInput{Name: name, Currency: "USD"}); err != nil {
			t.Fatalf("CreateAccount(%s): %v", name, err)
		}
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestImportBalancesList(t *testing.T) {
	t.Setenv("EXCHANGE_RATES", "")
	t.Setenv("BASE_CURRENCY", "USD")
	dbPath := newLedgerFile(t)
	csvPath := filepath.Join(t.TempDir(), "export.csv")
	if err := os.WriteFile(csvPath, []byte(exportCSV), 0o600); err != nil {
		t.Fatal(err)
	}
	flags := []string{"--db-driver", "bolt", "--db-path", dbPath}

	out, err := run(t, append([]string{"import", csvPath}, flags...)...)
	if err != nil {
		t.Fatalf("import: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Received 3 records.") || !strings.Contains(out, "4 transaction(s) written") {
		t.Errorf("unexpected import output:\n%s", out)
	}

	out, err = run(t, append([]string{"balances"}, flags...)...)
	if err != nil {
		t.Fatalf("balances: %v\n%s", err, out)
	}
	for _, want := range []string{"Checking", "$2,395.50", "Savings", "$100.00", "Total (USD)", "$2,495.50"} {
		if !strings.Contains(out, want) {
			t.Errorf("balances output missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, append([]string{"list", "--account", "Savings"}, flags...)...)
	if err != nil {
		t.Fatalf("list: %v\n%s", err, out)
	}
	if !strings.Contains(out, "2024-03-03") || strings.Contains(out, "2024-03-01") {
		t.Errorf("unexpected list output:\n%s", out)
	}

	if _, err := run(t, append([]string{"list", "--account", "Wallet"}, flags...)...); err == nil {
		t.Error("expected an error for an unknown account")
	}
}

func TestImport_Malformed(t *testing.T) {
	dbPath := newLedgerFile(t)
	csvPath := filepath.Join(t.TempDir(), "export.csv")
	if err := os.WriteFile(csvPath, []byte("Date\n2024-03-01\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := run(t, "import", csvPath, "--db-driver", "bolt", "--db-path", dbPath)
	if err == nil || !strings.Contains(err.Error(), "expected 9 columns") {
		t.Fatalf("expected a column count error, got %v", err)
	}
}

func TestSeed(t *testing.T) {
	t.Setenv("CATEGORY_SEED_FILE", "")
	dbPath := filepath.Join(t.TempDir(), "circle.db")

	out, err := run(t, "seed", "--db-driver", "bolt", "--db-path", dbPath)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !strings.HasPrefix(out, "Created ") {
		t.Errorf("unexpected output %q", out)
	}

	out, err = run(t, "seed", "--db-driver", "bolt", "--db-path", dbPath)
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if !strings.Contains(out, "nothing to do") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestHashPassphrase(t *testing.T) {
	out, err := run(t, "hash-passphrase", "open sesame")
	if err != nil {
		t.Fatalf("hash-passphrase: %v", err)
	}
	if !middleware.VerifyPassphrase(strings.TrimSpace(out), "open sesame") {
		t.Errorf("printed hash does not verify: %q", out)
	}
}
