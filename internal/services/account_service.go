package services

import (
	"context"
	"errors"
	"strings"

	apperrors "circle/internal/errors"
	"circle/internal/ledger"
	"circle/internal/logger"
	"circle/internal/models"
	"circle/internal/money"
	"circle/internal/store"
)

// accountService handles account-related business logic.
type accountService struct {
	ledger *ledger.Ledger
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(l *ledger.Ledger) AccountServicer {
	return &accountService{ledger: l}
}

func normalizeCurrency(currency string) (string, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return "USD", nil
	}
	if !money.IsKnown(currency) {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown currency "+currency)
	}
	return currency, nil
}

// ensureUniqueName fails when another account already uses name.
func ensureUniqueName(ctx context.Context, gw store.Gateway, name, selfID string) error {
	existing, err := gw.FindAccountByName(ctx, name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil
	case err != nil:
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	case existing.ID != selfID:
		return apperrors.WithMessage(apperrors.ErrDuplicateName, "an account named "+name+" already exists")
	}
	return nil
}

// CreateAccount creates a new account
func (s *accountService) CreateAccount(ctx context.Context, in AccountInput) (*models.Account, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}
	currency, err := normalizeCurrency(in.Currency)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		Name:     name,
		Currency: currency,
		Balance:  in.Balance,
		IsCredit: in.IsCredit,
	}

	err = s.ledger.Gateway().Transaction(ctx, func(gw store.Gateway) error {
		if err := ensureUniqueName(ctx, gw, name, ""); err != nil {
			return err
		}
		if err := gw.AddAccount(ctx, account); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.ledger.Notify(ctx, ledger.AccountChange(account.ID))
	return account, nil
}

// GetAccount retrieves an account by ID
func (s *accountService) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	account, err := s.ledger.Gateway().GetAccount(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return account, nil
}

// ListAccounts returns every account ordered by name.
func (s *accountService) ListAccounts(ctx context.Context) ([]models.Account, error) {
	accounts, err := s.ledger.Gateway().ListAccounts(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if accounts == nil {
		accounts = []models.Account{}
	}
	return accounts, nil
}

// UpdateAccount applies the non-nil fields. Any field that differs from the
// stored value is published as a change of the account, since cached balances
// carry the name and currency as well as the amounts.
func (s *accountService) UpdateAccount(ctx context.Context, id string, fields AccountUpdateFields) (*models.Account, error) {
	var (
		account *models.Account
		changed bool
	)
	err := s.ledger.Gateway().Transaction(ctx, func(gw store.Gateway) error {
		var err error
		account, err = gw.GetAccount(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperrors.ErrAccountNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if fields.Name != nil {
			name := strings.TrimSpace(*fields.Name)
			if name == "" {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
			}
			if name != account.Name {
				if err := ensureUniqueName(ctx, gw, name, account.ID); err != nil {
					return err
				}
				account.Name = name
				changed = true
			}
		}
		if fields.Currency != nil {
			currency, err := normalizeCurrency(*fields.Currency)
			if err != nil {
				return err
			}
			changed = changed || currency != account.Currency
			account.Currency = currency
		}
		if fields.Balance != nil {
			changed = changed || *fields.Balance != account.Balance
			account.Balance = *fields.Balance
		}
		if fields.IsCredit != nil {
			changed = changed || *fields.IsCredit != account.IsCredit
			account.IsCredit = *fields.IsCredit
		}

		if err := gw.PutAccount(ctx, account); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.ledger.Notify(ctx, ledger.AccountChange(account.ID))
	}
	return account, nil
}

// DeleteAccount removes an account. Without cascade an account that still has
// transactions is refused; with cascade its transactions, and the sibling legs
// of its transfers, are deleted through the ledger in the same scope.
func (s *accountService) DeleteAccount(ctx context.Context, id string, cascade bool) error {
	var change ledger.Change
	err := s.ledger.Gateway().Transaction(ctx, func(gw store.Gateway) error {
		if _, err := gw.GetAccount(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperrors.ErrAccountNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		rows, err := gw.FindTransactions(ctx, store.TransactionQuery{AccountID: id})
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if len(rows) > 0 && !cascade {
			return apperrors.ErrAccountInUse
		}

		ids := make([]string, len(rows))
		for i, row := range rows {
			ids[i] = row.ID
		}
		deleted, err := ledger.New(gw).BulkDelete(ctx, ids, ledger.WithoutNotify())
		if err != nil {
			return err
		}
		change = *deleted

		if err := gw.DeleteAccount(ctx, id); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	change.Merge(ledger.AccountChange(id))
	s.ledger.Notify(ctx, change)
	logger.Get().Infow("Account deleted", "account_id", id, "transactions", len(change.Deleted))
	return nil
}
