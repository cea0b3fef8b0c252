package services

import (
	"context"
	"io"
	"time"

	"circle/internal/balance"
	"circle/internal/importer"
	"circle/internal/ledger"
	"circle/internal/models"
	"circle/internal/pagination"
	"circle/internal/view"
)

// AccountInput holds the fields of a new account.
type AccountInput struct {
	Name     string
	Currency string
	Balance  int64
	IsCredit bool
}

// AccountUpdateFields holds the optional fields of an account update. Nil
// fields are left unchanged.
type AccountUpdateFields struct {
	Name     *string
	Currency *string
	Balance  *int64
	IsCredit *bool
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(ctx context.Context, in AccountInput) (*models.Account, error)
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	UpdateAccount(ctx context.Context, id string, fields AccountUpdateFields) (*models.Account, error)
	DeleteAccount(ctx context.Context, id string, cascade bool) error
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, name string, categoryType models.CategoryType) (*models.Category, error)
	SeedDefaults(ctx context.Context) (int, error)
}

// PayeeDetail is a payee with its hint sets resolved.
type PayeeDetail struct {
	models.Payee
	Categories []models.Category `json:"categories"`
	Accounts   []models.Account  `json:"accounts"`
}

// PayeeServicer defines the contract for payee lookups.
type PayeeServicer interface {
	ListPayees(ctx context.Context) ([]models.Payee, error)
	GetPayee(ctx context.Context, id string) (*PayeeDetail, error)
}

// TransactionPage is one page of transactions plus the same rows grouped by
// date for display.
type TransactionPage struct {
	pagination.PageResponse[models.Transaction]
	Entries []view.Entry `json:"entries"`
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	SaveTransaction(ctx context.Context, req ledger.Request) (*ledger.Change, error)
	DeleteTransaction(ctx context.Context, id string) (*ledger.Change, error)
	BulkDelete(ctx context.Context, ids []string) (*ledger.Change, error)
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, accountID string, page pagination.PageRequest) (*TransactionPage, error)
}

// ReportServicer defines the contract for derived balance reports.
type ReportServicer interface {
	Balances(ctx context.Context) ([]balance.Balance, error)
	Summary(ctx context.Context) (*balance.Summary, error)
	AssetHistory(ctx context.Context, gap time.Duration) ([]balance.Point, error)
}

// ImportServicer defines the contract for bulk CSV imports.
type ImportServicer interface {
	Import(ctx context.Context, r io.Reader, progress importer.ProgressFunc) (*importer.Result, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
	List(page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error)
	HandleChange(ctx context.Context, change ledger.Change)
}
