package balance

import (
	"context"
	"errors"
	"sync"

	apperrors "circle/internal/errors"
	"circle/internal/ledger"
	"circle/internal/logger"
	"circle/internal/models"
	"circle/internal/store"
)

// Engine caches per-account balances and recomputes them from scratch when
// the ledger reports a change.
type Engine struct {
	gw store.Gateway

	mu    sync.RWMutex
	cache map[string]Balance
}

var _ ledger.Subscriber = (*Engine)(nil)

// NewEngine creates an Engine reading from gw.
func NewEngine(gw store.Gateway) *Engine {
	return &Engine{gw: gw, cache: make(map[string]Balance)}
}

// Recompute rescans the transactions of the given accounts, or of every
// account when none are given. Accounts that no longer exist are dropped
// from the cache.
func (e *Engine) Recompute(ctx context.Context, accountIDs ...string) error {
	var accounts []models.Account
	if len(accountIDs) == 0 {
		all, err := e.gw.ListAccounts(ctx)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		accounts = all

		e.mu.Lock()
		e.cache = make(map[string]Balance, len(all))
		e.mu.Unlock()
	} else {
		for _, id := range accountIDs {
			account, err := e.gw.GetAccount(ctx, id)
			if errors.Is(err, store.ErrNotFound) {
				e.mu.Lock()
				delete(e.cache, id)
				e.mu.Unlock()
				continue
			}
			if err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			accounts = append(accounts, *account)
		}
	}

	for _, account := range accounts {
		b, err := e.compute(ctx, account)
		if err != nil {
			return err
		}
		e.mu.Lock()
		e.cache[account.ID] = b
		e.mu.Unlock()
	}
	return nil
}

func (e *Engine) compute(ctx context.Context, account models.Account) (Balance, error) {
	txs, err := e.gw.FindTransactions(ctx, store.TransactionQuery{AccountID: account.ID})
	if err != nil {
		return Balance{}, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return Compute(account, Fold(txs)), nil
}

// Balance returns the balance of one account, computing it on a cache miss.
func (e *Engine) Balance(ctx context.Context, accountID string) (Balance, error) {
	e.mu.RLock()
	b, ok := e.cache[accountID]
	e.mu.RUnlock()
	if ok {
		return b, nil
	}

	if err := e.Recompute(ctx, accountID); err != nil {
		return Balance{}, err
	}

	e.mu.RLock()
	b, ok = e.cache[accountID]
	e.mu.RUnlock()
	if !ok {
		return Balance{}, apperrors.ErrAccountNotFound
	}
	return b, nil
}

// Balances returns the balance of every account, ordered by account name.
func (e *Engine) Balances(ctx context.Context) ([]Balance, error) {
	accounts, err := e.gw.ListAccounts(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := make([]Balance, 0, len(accounts))
	for _, account := range accounts {
		e.mu.RLock()
		b, ok := e.cache[account.ID]
		e.mu.RUnlock()
		if !ok {
			if b, err = e.compute(ctx, account); err != nil {
				return nil, err
			}
			e.mu.Lock()
			e.cache[account.ID] = b
			e.mu.Unlock()
		}
		result = append(result, b)
	}
	return result, nil
}

// HandleChange recomputes the accounts a ledger change touched.
func (e *Engine) HandleChange(ctx context.Context, change ledger.Change) {
	var err error
	if change.All {
		err = e.Recompute(ctx)
	} else if len(change.AccountIDs) > 0 {
		err = e.Recompute(ctx, change.AccountIDs...)
	}
	if err != nil {
		logger.Named("balance").Errorw("Failed to recompute balances", "accounts", change.AccountIDs, "all", change.All, "error", err)
	}
}
