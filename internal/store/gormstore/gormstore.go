// Package gormstore implements store.Gateway on top of GORM, so the ledger can
// run on SQLite (the local-first default) or PostgreSQL.
package gormstore

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"circle/internal/models"
	"circle/internal/store"
)

// Store is a GORM-backed store.Gateway.
type Store struct {
	db     *gorm.DB
	scoped bool
}

var _ store.Gateway = (*Store)(nil)

// New creates a Store over db. The schema must already be migrated.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying GORM handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// first loads one record matching the condition into dest, translating
// gorm.ErrRecordNotFound into store.ErrNotFound.
func first(q *gorm.DB, dest interface{}, query string, args ...interface{}) error {
	if err := q.Where(query, args...).First(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return store.ErrNotFound
		}
		return err
	}
	return nil
}

// GetAccount loads an account by id.
func (s *Store) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	if err := first(s.conn(ctx), &account, "id = ?", id); err != nil {
		return nil, err
	}
	return &account, nil
}

// FindAccountByName loads an account by its unique name.
func (s *Store) FindAccountByName(ctx context.Context, name string) (*models.Account, error) {
	var account models.Account
	if err := first(s.conn(ctx), &account, "name = ?", name); err != nil {
		return nil, err
	}
	return &account, nil
}

// ListAccounts returns every account ordered by name.
func (s *Store) ListAccounts(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	if err := s.conn(ctx).Order("name ASC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *Store) AddAccount(ctx context.Context, account *models.Account) error {
	return s.conn(ctx).Create(account).Error
}

func (s *Store) PutAccount(ctx context.Context, account *models.Account) error {
	return s.conn(ctx).Save(account).Error
}

func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	return s.conn(ctx).Where("id = ?", id).Delete(&models.Account{}).Error
}

// GetCategory loads a category by id.
func (s *Store) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	var category models.Category
	if err := first(s.conn(ctx), &category, "id = ?", id); err != nil {
		return nil, err
	}
	return &category, nil
}

// FindCategoryByName loads a category by its unique name.
func (s *Store) FindCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	if err := first(s.conn(ctx), &category, "name = ?", name); err != nil {
		return nil, err
	}
	return &category, nil
}

// ListCategories returns every category ordered by name.
func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := s.conn(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *Store) AddCategory(ctx context.Context, category *models.Category) error {
	return s.conn(ctx).Create(category).Error
}

func (s *Store) PutCategory(ctx context.Context, category *models.Category) error {
	return s.conn(ctx).Save(category).Error
}

// GetPayee loads a payee by id.
func (s *Store) GetPayee(ctx context.Context, id string) (*models.Payee, error) {
	var payee models.Payee
	if err := first(s.conn(ctx), &payee, "id = ?", id); err != nil {
		return nil, err
	}
	return &payee, nil
}

// FindPayeeByName loads a payee by its unique name.
func (s *Store) FindPayeeByName(ctx context.Context, name string) (*models.Payee, error) {
	var payee models.Payee
	if err := first(s.conn(ctx), &payee, "name = ?", name); err != nil {
		return nil, err
	}
	return &payee, nil
}

// ListPayees returns every payee ordered by name.
func (s *Store) ListPayees(ctx context.Context) ([]models.Payee, error) {
	var payees []models.Payee
	if err := s.conn(ctx).Order("name ASC").Find(&payees).Error; err != nil {
		return nil, err
	}
	return payees, nil
}

func (s *Store) AddPayee(ctx context.Context, payee *models.Payee) error {
	return s.conn(ctx).Create(payee).Error
}

func (s *Store) PutPayee(ctx context.Context, payee *models.Payee) error {
	return s.conn(ctx).Save(payee).Error
}

// withRelations preloads every relation of a transaction row.
func withRelations(q *gorm.DB) *gorm.DB {
	return q.Preload("Account").
		Preload("Payee").
		Preload("Category").
		Preload("FromAccount").
		Preload("ToAccount").
		Preload("Sibling")
}

// GetTransaction loads a transaction by id, optionally with its relations.
func (s *Store) GetTransaction(ctx context.Context, id string, relations bool) (*models.Transaction, error) {
	q := s.conn(ctx)
	if relations {
		q = withRelations(q)
	}
	var tx models.Transaction
	if err := first(q, &tx, "id = ?", id); err != nil {
		return nil, err
	}
	return &tx, nil
}

func applyQuery(q *gorm.DB, tq store.TransactionQuery) *gorm.DB {
	if tq.AccountID != "" {
		q = q.Where("account_id = ?", tq.AccountID)
	}
	if len(tq.IDs) > 0 {
		q = q.Where("id IN ?", tq.IDs)
	}
	return q
}

// FindTransactions returns the page of transactions selected by tq.
func (s *Store) FindTransactions(ctx context.Context, tq store.TransactionQuery) ([]models.Transaction, error) {
	q := applyQuery(s.conn(ctx).Model(&models.Transaction{}), tq)
	if tq.Relations {
		q = withRelations(q)
	}
	if tq.Ascending {
		q = q.Order("date ASC").Order("id ASC")
	} else {
		q = q.Order("date DESC").Order("id DESC")
	}
	if tq.Skip > 0 {
		q = q.Offset(tq.Skip)
	}
	if tq.Take > 0 {
		q = q.Limit(tq.Take)
	}

	var txs []models.Transaction
	if err := q.Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// CountTransactions counts the rows selected by tq, ignoring paging.
func (s *Store) CountTransactions(ctx context.Context, tq store.TransactionQuery) (int64, error) {
	var count int64
	if err := applyQuery(s.conn(ctx).Model(&models.Transaction{}), tq).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// AddTransaction and PutTransaction store dates in UTC. SQLite keeps times as
// text, so rows written with different offsets would otherwise sort by their
// wall clock instead of their instant.
func (s *Store) AddTransaction(ctx context.Context, tx *models.Transaction) error {
	tx.Date = tx.Date.UTC()
	return s.conn(ctx).Omit(clause.Associations).Create(tx).Error
}

func (s *Store) PutTransaction(ctx context.Context, tx *models.Transaction) error {
	tx.Date = tx.Date.UTC()
	return s.conn(ctx).Omit(clause.Associations).Save(tx).Error
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	return s.conn(ctx).Where("id = ?", id).Delete(&models.Transaction{}).Error
}

// Transaction runs fn inside a database transaction.
func (s *Store) Transaction(ctx context.Context, fn func(store.Gateway) error) error {
	if s.scoped {
		return fn(s)
	}
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, scoped: true})
	})
}
