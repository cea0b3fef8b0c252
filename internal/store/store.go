// Package store defines the persistence gateway the ledger core talks to.
// Implementations live in sub-packages (gormstore, boltstore); the core only
// ever sees the Gateway interface.
package store

import (
	"context"
	"errors"

	"circle/internal/models"
)

// ErrNotFound is returned by Get* and Find*ByName when no record matches.
var ErrNotFound = errors.New("record not found")

// TransactionQuery selects transactions for FindTransactions and
// CountTransactions. The zero value selects every row, newest first.
type TransactionQuery struct {
	// AccountID restricts rows to one account. Empty means all accounts.
	AccountID string
	// IDs restricts rows to the given ids when non-empty.
	IDs []string
	// Skip and Take page the ordered result. Take <= 0 means no limit.
	Skip int
	Take int
	// Relations populates Account, Payee, Category, FromAccount, ToAccount
	// and Sibling on every returned row.
	Relations bool
	// Ascending switches the order from (date DESC, id DESC) to
	// (date ASC, id ASC).
	Ascending bool
}

// Gateway is the storage-agnostic interface over the four ledger collections.
//
// Get* return ErrNotFound for a missing record. Add* assign an id when the
// record has none. Put* upsert by id. Delete* of a missing id is not an error.
// No write ever cascades into relation fields.
type Gateway interface {
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	FindAccountByName(ctx context.Context, name string) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	AddAccount(ctx context.Context, account *models.Account) error
	PutAccount(ctx context.Context, account *models.Account) error
	DeleteAccount(ctx context.Context, id string) error

	GetCategory(ctx context.Context, id string) (*models.Category, error)
	FindCategoryByName(ctx context.Context, name string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	AddCategory(ctx context.Context, category *models.Category) error
	PutCategory(ctx context.Context, category *models.Category) error

	GetPayee(ctx context.Context, id string) (*models.Payee, error)
	FindPayeeByName(ctx context.Context, name string) (*models.Payee, error)
	ListPayees(ctx context.Context) ([]models.Payee, error)
	AddPayee(ctx context.Context, payee *models.Payee) error
	PutPayee(ctx context.Context, payee *models.Payee) error

	GetTransaction(ctx context.Context, id string, relations bool) (*models.Transaction, error)
	FindTransactions(ctx context.Context, q TransactionQuery) ([]models.Transaction, error)
	CountTransactions(ctx context.Context, q TransactionQuery) (int64, error)
	AddTransaction(ctx context.Context, tx *models.Transaction) error
	PutTransaction(ctx context.Context, tx *models.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error

	// Transaction runs fn inside one atomic scope. Writes made through the
	// gateway passed to fn are committed together when fn returns nil and
	// rolled back otherwise. On a gateway that is already scoped, fn joins
	// the enclosing scope.
	Transaction(ctx context.Context, fn func(Gateway) error) error
}
