package services

import (
	"context"
	"errors"

	apperrors "circle/internal/errors"
	"circle/internal/ledger"
	"circle/internal/models"
	"circle/internal/pagination"
	"circle/internal/store"
	"circle/internal/view"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	ledger *ledger.Ledger
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(l *ledger.Ledger) TransactionServicer {
	return &transactionService{ledger: l}
}

// SaveTransaction adds a transaction, or replaces req.ExistingID when set.
func (s *transactionService) SaveTransaction(ctx context.Context, req ledger.Request) (*ledger.Change, error) {
	return s.ledger.AddOrEditTransaction(ctx, req)
}

// DeleteTransaction deletes a transaction and its transfer sibling.
func (s *transactionService) DeleteTransaction(ctx context.Context, id string) (*ledger.Change, error) {
	return s.ledger.DeleteTransaction(ctx, id)
}

// BulkDelete deletes every id in one scope.
func (s *transactionService) BulkDelete(ctx context.Context, ids []string) (*ledger.Change, error) {
	if len(ids) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "at least one transaction id is required")
	}
	return s.ledger.BulkDelete(ctx, ids)
}

// GetTransaction retrieves a transaction with its relations.
func (s *transactionService) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	tx, err := s.ledger.Gateway().GetTransaction(ctx, id, true)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return tx, nil
}

// ListTransactions returns one page of the newest-first transaction list of
// accountID, or of every account when accountID is empty.
func (s *transactionService) ListTransactions(ctx context.Context, accountID string, page pagination.PageRequest) (*TransactionPage, error) {
	page.Defaults()
	gw := s.ledger.Gateway()

	if accountID != "" {
		if _, err := gw.GetAccount(ctx, accountID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, apperrors.ErrAccountNotFound
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	q := store.TransactionQuery{AccountID: accountID}
	totalItems, err := gw.CountTransactions(ctx, q)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	q.Skip, q.Take = page.Window()
	q.Relations = true
	txs, err := gw.FindTransactions(ctx, q)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &TransactionPage{
		PageResponse: pagination.NewPageResponse(txs, page.Page, page.PageSize, totalItems),
		Entries:      view.Group(txs),
	}, nil
}
