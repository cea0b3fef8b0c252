// Package ledger implements the mutating operations of the transaction ledger:
// adding, editing and deleting transactions while keeping transfer legs paired
// and payee hints up to date.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	apperrors "circle/internal/errors"
	"circle/internal/logger"
	"circle/internal/models"
	"circle/internal/store"
)

// Request carries the fields of AddOrEditTransaction.
type Request struct {
	Type      models.TransactionType
	Amount    int64
	AccountID string
	Date      time.Time
	Status    models.TransactionStatus

	// FromAccountID and ToAccountID are required for transfers.
	FromAccountID string
	ToAccountID   string

	// CategoryName is required for credit and debit rows. PayeeName is
	// optional; both are created on first use.
	CategoryName string
	PayeeName    string

	IsDone bool
	Note   string

	// ExistingID makes the call an edit of that transaction.
	ExistingID string
}

// Ledger applies ledger operations to a gateway and publishes the resulting
// changes to subscribers.
type Ledger struct {
	gw store.Gateway

	mu          sync.RWMutex
	subscribers []Subscriber
}

// New creates a Ledger over gw.
func New(gw store.Gateway) *Ledger {
	return &Ledger{gw: gw}
}

// Gateway returns the gateway the ledger writes to.
func (l *Ledger) Gateway() store.Gateway {
	return l.gw
}

// Subscribe registers s for every committed change.
func (l *Ledger) Subscribe(s Subscriber) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subscribers = append(l.subscribers, s)
}

// Notify delivers change to every subscriber in registration order.
// Empty changes are dropped.
func (l *Ledger) Notify(ctx context.Context, change Change) {
	if change.Empty() {
		return
	}
	l.mu.RLock()
	subs := make([]Subscriber, len(l.subscribers))
	copy(subs, l.subscribers)
	l.mu.RUnlock()

	for _, s := range subs {
		s.HandleChange(ctx, change)
	}
}

func (r *Request) normalize() {
	r.CategoryName = strings.TrimSpace(r.CategoryName)
	r.PayeeName = strings.TrimSpace(r.PayeeName)
	if r.Status == "" {
		r.Status = models.TransactionStatusPending
	}
	if r.Date.IsZero() {
		r.Date = time.Now()
	}
}

func (r *Request) validate() error {
	if r.Amount < 0 {
		return apperrors.ErrNegativeAmount
	}
	if !r.Status.Valid() {
		return apperrors.WithMessage(apperrors.ErrInvalidTransactionStatus,
			fmt.Sprintf("Unsupported transaction status %q", r.Status))
	}

	switch r.Type {
	case models.TransactionTypeTransfer:
		if r.FromAccountID == "" || r.ToAccountID == "" {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "Transfer requires both a source and a destination account")
		}
		if r.FromAccountID == r.ToAccountID {
			return apperrors.ErrSameAccountTransfer
		}
	case models.TransactionTypeCredit, models.TransactionTypeDebit:
		if r.AccountID == "" {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "Account is required")
		}
		if r.CategoryName == "" {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "Category is required")
		}
	default:
		return apperrors.WithMessage(apperrors.ErrInvalidTransactionType,
			fmt.Sprintf("Unsupported transaction type %q", r.Type))
	}
	return nil
}

// AddOrEditTransaction stores a new transaction, or replaces the one named by
// req.ExistingID. A transfer is stored as a credit leg on the source account
// and a debit leg on the destination, linked to each other. An edit deletes
// the old row (and its sibling) and inserts fresh rows, so ids change.
//
// Every step runs in one atomic scope: on error the store is left untouched.
// The first id in the returned Change.Created is the primary row (the credit
// leg for transfers).
func (l *Ledger) AddOrEditTransaction(ctx context.Context, req Request, opts ...Option) (*Change, error) {
	o := buildOptions(opts)

	req.normalize()
	if err := req.validate(); err != nil {
		return nil, err
	}

	var change Change
	err := l.gw.Transaction(ctx, func(gw store.Gateway) error {
		change = Change{}
		if req.ExistingID != "" {
			if err := removeForEdit(ctx, gw, req.ExistingID, &change); err != nil {
				return err
			}
		}
		if req.Type == models.TransactionTypeTransfer {
			return addTransfer(ctx, gw, &req, &change)
		}
		return addSingle(ctx, gw, &req, &change)
	})
	if err != nil {
		return nil, err
	}

	if !o.silent {
		l.Notify(ctx, change)
	}
	return &change, nil
}

// DeleteTransaction removes a transaction and, for transfer legs, its sibling.
// Both sibling pointers are cleared before either row is deleted. Deleting an
// id that does not exist is logged and reported as an empty change.
func (l *Ledger) DeleteTransaction(ctx context.Context, id string, opts ...Option) (*Change, error) {
	o := buildOptions(opts)

	var change Change
	err := l.gw.Transaction(ctx, func(gw store.Gateway) error {
		change = Change{}
		return deleteOne(ctx, gw, id, &change)
	})
	if err != nil {
		return nil, err
	}

	if !o.silent {
		l.Notify(ctx, change)
	}
	return &change, nil
}

// BulkDelete deletes every id in one atomic scope and publishes one change.
// Ids already removed as the sibling of an earlier id are skipped.
func (l *Ledger) BulkDelete(ctx context.Context, ids []string, opts ...Option) (*Change, error) {
	o := buildOptions(opts)

	var change Change
	err := l.gw.Transaction(ctx, func(gw store.Gateway) error {
		change = Change{}
		for _, id := range ids {
			if contains(change.Deleted, id) {
				continue
			}
			if err := deleteOne(ctx, gw, id, &change); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !o.silent {
		l.Notify(ctx, change)
	}
	return &change, nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func storageError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

func getAccount(ctx context.Context, gw store.Gateway, id string) (*models.Account, error) {
	account, err := gw.GetAccount(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.WithMessage(apperrors.ErrAccountNotFound, fmt.Sprintf("Account %s not found", id))
		}
		return nil, storageError(err)
	}
	return account, nil
}

// removeForEdit deletes the row being edited and its sibling, whatever their
// type, so a type change never leaves an orphan leg behind.
func removeForEdit(ctx context.Context, gw store.Gateway, id string, change *Change) error {
	existing, err := gw.GetTransaction(ctx, id, false)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.WithMessage(apperrors.ErrTransactionNotFound, fmt.Sprintf("Transaction %s not found", id))
		}
		return storageError(err)
	}

	if existing.IsTransferLeg() {
		sibling, err := gw.GetTransaction(ctx, *existing.SiblingID, false)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperrors.WithMessage(apperrors.ErrSiblingNotFound,
					fmt.Sprintf("Transaction %s points to missing sibling %s", existing.ID, *existing.SiblingID))
			}
			return storageError(err)
		}
		if err := gw.DeleteTransaction(ctx, sibling.ID); err != nil {
			return storageError(err)
		}
		change.touch(sibling.AccountID)
		change.Deleted = append(change.Deleted, sibling.ID)
	}

	if err := gw.DeleteTransaction(ctx, existing.ID); err != nil {
		return storageError(err)
	}
	change.touch(existing.AccountID)
	change.Deleted = append(change.Deleted, existing.ID)
	return nil
}

func addTransfer(ctx context.Context, gw store.Gateway, req *Request, change *Change) error {
	from, err := getAccount(ctx, gw, req.FromAccountID)
	if err != nil {
		return err
	}
	to, err := getAccount(ctx, gw, req.ToAccountID)
	if err != nil {
		return err
	}

	leg := func(txType models.TransactionType, accountID string) *models.Transaction {
		fromID, toID := from.ID, to.ID
		return &models.Transaction{
			Type:          txType,
			Amount:        req.Amount,
			AccountID:     accountID,
			Date:          req.Date,
			Status:        req.Status,
			IsDone:        req.IsDone,
			Note:          req.Note,
			FromAccountID: &fromID,
			ToAccountID:   &toID,
		}
	}

	credit := leg(models.TransactionTypeCredit, from.ID)
	if err := gw.AddTransaction(ctx, credit); err != nil {
		return storageError(err)
	}

	debit := leg(models.TransactionTypeDebit, to.ID)
	creditID := credit.ID
	debit.SiblingID = &creditID
	if err := gw.AddTransaction(ctx, debit); err != nil {
		return storageError(err)
	}

	debitID := debit.ID
	credit.SiblingID = &debitID
	if err := gw.PutTransaction(ctx, credit); err != nil {
		return storageError(err)
	}

	change.touch(from.ID)
	change.touch(to.ID)
	change.Created = append(change.Created, credit.ID, debit.ID)
	return nil
}

func addSingle(ctx context.Context, gw store.Gateway, req *Request, change *Change) error {
	account, err := getAccount(ctx, gw, req.AccountID)
	if err != nil {
		return err
	}

	category, err := ensureCategory(ctx, gw, req.CategoryName, req.Type)
	if err != nil {
		return err
	}

	var payeeID *string
	if req.PayeeName != "" {
		payee, err := ensurePayee(ctx, gw, req.PayeeName)
		if err != nil {
			return err
		}
		payee.CategoryIDs = payee.CategoryIDs.Add(category.ID)
		payee.AccountIDs = payee.AccountIDs.Add(account.ID)
		if err := gw.PutPayee(ctx, payee); err != nil {
			return storageError(err)
		}
		id := payee.ID
		payeeID = &id
	}

	categoryID := category.ID
	tx := &models.Transaction{
		Type:       req.Type,
		Amount:     req.Amount,
		AccountID:  account.ID,
		Date:       req.Date,
		PayeeID:    payeeID,
		CategoryID: &categoryID,
		Status:     req.Status,
		IsDone:     req.IsDone,
		Note:       req.Note,
	}
	if err := gw.AddTransaction(ctx, tx); err != nil {
		return storageError(err)
	}

	change.touch(account.ID)
	change.Created = append(change.Created, tx.ID)
	return nil
}

// ensureCategory returns the category called name, creating it when missing.
// A new category is an expense for credit rows and an income for debit rows.
func ensureCategory(ctx context.Context, gw store.Gateway, name string, txType models.TransactionType) (*models.Category, error) {
	category, err := gw.FindCategoryByName(ctx, name)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, storageError(err)
	}

	categoryType := models.CategoryTypeExpense
	if txType == models.TransactionTypeDebit {
		categoryType = models.CategoryTypeIncome
	}
	category = &models.Category{Name: name, Type: categoryType}
	if err := gw.AddCategory(ctx, category); err != nil {
		return nil, storageError(err)
	}
	logger.Get().Infow("Category created on first use", "category", name, "type", categoryType)
	return category, nil
}

func ensurePayee(ctx context.Context, gw store.Gateway, name string) (*models.Payee, error) {
	payee, err := gw.FindPayeeByName(ctx, name)
	if err == nil {
		return payee, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, storageError(err)
	}

	payee = &models.Payee{Name: name, CategoryIDs: models.IDSet{}, AccountIDs: models.IDSet{}}
	if err := gw.AddPayee(ctx, payee); err != nil {
		return nil, storageError(err)
	}
	logger.Get().Infow("Payee created on first use", "payee", name)
	return payee, nil
}

func deleteOne(ctx context.Context, gw store.Gateway, id string, change *Change) error {
	target, err := gw.GetTransaction(ctx, id, false)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			logger.Get().Warnw("Transaction to delete not found", "transaction_id", id)
			return nil
		}
		return storageError(err)
	}

	if target.IsTransferLeg() {
		siblingID := *target.SiblingID
		sibling, err := gw.GetTransaction(ctx, siblingID, false)
		switch {
		case errors.Is(err, store.ErrNotFound):
			logger.Get().Warnw("Transfer sibling missing, deleting the remaining leg",
				"transaction_id", target.ID, "sibling_id", siblingID)
		case err != nil:
			return storageError(err)
		default:
			target.SiblingID = nil
			if err := gw.PutTransaction(ctx, target); err != nil {
				return storageError(err)
			}
			sibling.SiblingID = nil
			if err := gw.PutTransaction(ctx, sibling); err != nil {
				return storageError(err)
			}
			if err := gw.DeleteTransaction(ctx, sibling.ID); err != nil {
				return storageError(err)
			}
			change.touch(sibling.AccountID)
			change.Deleted = append(change.Deleted, sibling.ID)
		}
	}

	if err := gw.DeleteTransaction(ctx, target.ID); err != nil {
		return storageError(err)
	}
	change.touch(target.AccountID)
	change.Deleted = append(change.Deleted, target.ID)
	return nil
}
