package boltstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"circle/internal/models"
	"circle/internal/store/boltstore"
	"circle/internal/store/storetest"
	"circle/internal/testutil"
)

func TestStore(t *testing.T) {
	storetest.Run(t, storetest.NewBolt)
}

func TestOpen_Persists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "circle.db")

	s, err := boltstore.Open(path)
	testutil.AssertNoError(t, err)
	account := &models.Account{Name: "Wallet", Currency: "USD"}
	testutil.AssertNoError(t, s.AddAccount(ctx, account))
	testutil.AssertNoError(t, s.Close())

	reopened, err := boltstore.Open(path)
	testutil.AssertNoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetAccount(ctx, account.ID)
	testutil.AssertNoError(t, err)
	if got.Name != "Wallet" {
		t.Errorf("expected Wallet, got %q", got.Name)
	}
}
