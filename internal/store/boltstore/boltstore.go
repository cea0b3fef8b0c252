// Package boltstore implements store.Gateway on an embedded bbolt file.
// Each collection is one bucket of JSON documents keyed by record id.
package boltstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"circle/internal/models"
	"circle/internal/store"
)

// Bucket names.
const (
	BucketAccounts     = "accounts"
	BucketCategories   = "categories"
	BucketPayees       = "payees"
	BucketTransactions = "transactions"
)

// Store is a bbolt-backed store.Gateway. A Store created by Transaction is
// bound to one read-write bolt transaction and must not outlive it.
type Store struct {
	db *bolt.DB
	tx *bolt.Tx
}

var _ store.Gateway = (*Store)(nil)

// Open opens (or creates) the database file at path and initializes buckets.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		buckets := []string{BucketAccounts, BucketCategories, BucketPayees, BucketTransactions}
		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) view(fn func(tx *bolt.Tx) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	return s.db.View(fn)
}

func (s *Store) update(fn func(tx *bolt.Tx) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	return s.db.Update(fn)
}

// Transaction runs fn inside one read-write bolt transaction.
func (s *Store) Transaction(ctx context.Context, fn func(store.Gateway) error) error {
	if s.tx != nil {
		return fn(s)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return fn(&Store{db: s.db, tx: tx})
	})
}

func bucket(tx *bolt.Tx, name string) (*bolt.Bucket, error) {
	b := tx.Bucket([]byte(name))
	if b == nil {
		return nil, fmt.Errorf("bucket %s not found", name)
	}
	return b, nil
}

func get(tx *bolt.Tx, name, id string, value interface{}) error {
	b, err := bucket(tx, name)
	if err != nil {
		return err
	}
	data := b.Get([]byte(id))
	if data == nil {
		return store.ErrNotFound
	}
	return json.Unmarshal(data, value)
}

func put(tx *bolt.Tx, name, id string, value interface{}) error {
	b, err := bucket(tx, name)
	if err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return b.Put([]byte(id), data)
}

func del(tx *bolt.Tx, name, id string) error {
	b, err := bucket(tx, name)
	if err != nil {
		return err
	}
	return b.Delete([]byte(id))
}

// each decodes every document of a bucket into a fresh T and hands it to fn.
func each[T any](tx *bolt.Tx, name string, fn func(*T) error) error {
	b, err := bucket(tx, name)
	if err != nil {
		return err
	}
	return b.ForEach(func(_, v []byte) error {
		var item T
		if err := json.Unmarshal(v, &item); err != nil {
			return fmt.Errorf("failed to unmarshal %s record: %w", name, err)
		}
		return fn(&item)
	})
}

// stamp fills the id and timestamps the way GORM would on insert or save.
func stamp(base *models.Base, creating bool) {
	base.EnsureID()
	now := time.Now()
	if creating || base.CreatedAt.IsZero() {
		base.CreatedAt = now
	}
	base.UpdatedAt = now
}

// nameTaken reports whether another record of the bucket already uses name.
func nameTaken(tx *bolt.Tx, name, id, value string) (bool, error) {
	taken := false
	err := each(tx, name, func(r *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}) error {
		if r.Name == value && r.ID != id {
			taken = true
		}
		return nil
	})
	return taken, err
}

func putNamed(tx *bolt.Tx, bucketName string, base *models.Base, name string, value interface{}, creating bool) error {
	stamp(base, creating)
	taken, err := nameTaken(tx, bucketName, base.ID, name)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("unique constraint failed: %s.name %q", bucketName, name)
	}
	return put(tx, bucketName, base.ID, value)
}

func findByName[T any](tx *bolt.Tx, bucketName, name string, nameOf func(*T) string) (*T, error) {
	var found *T
	err := each(tx, bucketName, func(item *T) error {
		if found == nil && nameOf(item) == name {
			found = item
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, store.ErrNotFound
	}
	return found, nil
}

func list[T any](tx *bolt.Tx, bucketName string, nameOf func(*T) string) ([]T, error) {
	var items []T
	err := each(tx, bucketName, func(item *T) error {
		items = append(items, *item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return nameOf(&items[i]) < nameOf(&items[j])
	})
	return items, nil
}

func accountName(a *models.Account) string   { return a.Name }
func categoryName(c *models.Category) string { return c.Name }
func payeeName(p *models.Payee) string       { return p.Name }

// GetAccount loads an account by id.
func (s *Store) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	err := s.view(func(tx *bolt.Tx) error {
		return get(tx, BucketAccounts, id, &account)
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// FindAccountByName loads an account by its unique name.
func (s *Store) FindAccountByName(ctx context.Context, name string) (*models.Account, error) {
	var account *models.Account
	err := s.view(func(tx *bolt.Tx) error {
		var err error
		account, err = findByName(tx, BucketAccounts, name, accountName)
		return err
	})
	return account, err
}

// ListAccounts returns every account ordered by name.
func (s *Store) ListAccounts(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	err := s.view(func(tx *bolt.Tx) error {
		var err error
		accounts, err = list(tx, BucketAccounts, accountName)
		return err
	})
	return accounts, err
}

func (s *Store) AddAccount(ctx context.Context, account *models.Account) error {
	return s.update(func(tx *bolt.Tx) error {
		return putNamed(tx, BucketAccounts, &account.Base, account.Name, account, true)
	})
}

func (s *Store) PutAccount(ctx context.Context, account *models.Account) error {
	return s.update(func(tx *bolt.Tx) error {
		return putNamed(tx, BucketAccounts, &account.Base, account.Name, account, false)
	})
}

func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	return s.update(func(tx *bolt.Tx) error {
		return del(tx, BucketAccounts, id)
	})
}

// GetCategory loads a category by id.
func (s *Store) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	var category models.Category
	err := s.view(func(tx *bolt.Tx) error {
		return get(tx, BucketCategories, id, &category)
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// FindCategoryByName loads a category by its unique name.
func (s *Store) FindCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var category *models.Category
	err := s.view(func(tx *bolt.Tx) error {
		var err error
		category, err = findByName(tx, BucketCategories, name, categoryName)
		return err
	})
	return category, err
}

// ListCategories returns every category ordered by name.
func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.view(func(tx *bolt.Tx) error {
		var err error
		categories, err = list(tx, BucketCategories, categoryName)
		return err
	})
	return categories, err
}

func (s *Store) AddCategory(ctx context.Context, category *models.Category) error {
	return s.update(func(tx *bolt.Tx) error {
		return putNamed(tx, BucketCategories, &category.Base, category.Name, category, true)
	})
}

func (s *Store) PutCategory(ctx context.Context, category *models.Category) error {
	return s.update(func(tx *bolt.Tx) error {
		return putNamed(tx, BucketCategories, &category.Base, category.Name, category, false)
	})
}

// GetPayee loads a payee by id.
func (s *Store) GetPayee(ctx context.Context, id string) (*models.Payee, error) {
	var payee models.Payee
	err := s.view(func(tx *bolt.Tx) error {
		return get(tx, BucketPayees, id, &payee)
	})
	if err != nil {
		return nil, err
	}
	return &payee, nil
}

// FindPayeeByName loads a payee by its unique name.
func (s *Store) FindPayeeByName(ctx context.Context, name string) (*models.Payee, error) {
	var payee *models.Payee
	err := s.view(func(tx *bolt.Tx) error {
		var err error
		payee, err = findByName(tx, BucketPayees, name, payeeName)
		return err
	})
	return payee, err
}

// ListPayees returns every payee ordered by name.
func (s *Store) ListPayees(ctx context.Context) ([]models.Payee, error) {
	var payees []models.Payee
	err := s.view(func(tx *bolt.Tx) error {
		var err error
		payees, err = list(tx, BucketPayees, payeeName)
		return err
	})
	return payees, err
}

func (s *Store) AddPayee(ctx context.Context, payee *models.Payee) error {
	return s.update(func(tx *bolt.Tx) error {
		return putNamed(tx, BucketPayees, &payee.Base, payee.Name, payee, true)
	})
}

func (s *Store) PutPayee(ctx context.Context, payee *models.Payee) error {
	return s.update(func(tx *bolt.Tx) error {
		return putNamed(tx, BucketPayees, &payee.Base, payee.Name, payee, false)
	})
}

// resolve populates the relation pointers of tx from the other buckets.
// Dangling references are left nil, matching a SQL preload.
func resolve(btx *bolt.Tx, t *models.Transaction) error {
	lookupAccount := func(id *string) (*models.Account, error) {
		if id == nil || *id == "" {
			return nil, nil
		}
		var a models.Account
		if err := get(btx, BucketAccounts, *id, &a); err != nil {
			if err == store.ErrNotFound {
				return nil, nil
			}
			return nil, err
		}
		return &a, nil
	}

	var err error
	if t.Account, err = lookupAccount(&t.AccountID); err != nil {
		return err
	}
	if t.FromAccount, err = lookupAccount(t.FromAccountID); err != nil {
		return err
	}
	if t.ToAccount, err = lookupAccount(t.ToAccountID); err != nil {
		return err
	}

	if t.PayeeID != nil && *t.PayeeID != "" {
		var p models.Payee
		switch err := get(btx, BucketPayees, *t.PayeeID, &p); err {
		case nil:
			t.Payee = &p
		case store.ErrNotFound:
		default:
			return err
		}
	}
	if t.CategoryID != nil && *t.CategoryID != "" {
		var c models.Category
		switch err := get(btx, BucketCategories, *t.CategoryID, &c); err {
		case nil:
			t.Category = &c
		case store.ErrNotFound:
		default:
			return err
		}
	}
	if t.IsTransferLeg() {
		var sib models.Transaction
		switch err := get(btx, BucketTransactions, *t.SiblingID, &sib); err {
		case nil:
			t.Sibling = &sib
		case store.ErrNotFound:
		default:
			return err
		}
	}
	return nil
}

// GetTransaction loads a transaction by id, optionally with its relations.
func (s *Store) GetTransaction(ctx context.Context, id string, relations bool) (*models.Transaction, error) {
	var t models.Transaction
	err := s.view(func(tx *bolt.Tx) error {
		if err := get(tx, BucketTransactions, id, &t); err != nil {
			return err
		}
		if relations {
			return resolve(tx, &t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func matches(t *models.Transaction, q store.TransactionQuery) bool {
	if q.AccountID != "" && t.AccountID != q.AccountID {
		return false
	}
	if len(q.IDs) > 0 {
		for _, id := range q.IDs {
			if id == t.ID {
				return true
			}
		}
		return false
	}
	return true
}

func (s *Store) selectTransactions(tx *bolt.Tx, q store.TransactionQuery) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := each(tx, BucketTransactions, func(t *models.Transaction) error {
		if matches(t, q) {
			txs = append(txs, *t)
		}
		return nil
	})
	return txs, err
}

// FindTransactions returns the page of transactions selected by q.
func (s *Store) FindTransactions(ctx context.Context, q store.TransactionQuery) ([]models.Transaction, error) {
	var page []models.Transaction
	err := s.view(func(tx *bolt.Tx) error {
		txs, err := s.selectTransactions(tx, q)
		if err != nil {
			return err
		}

		sort.Slice(txs, func(i, j int) bool {
			a, b := txs[i], txs[j]
			if !a.Date.Equal(b.Date) {
				if q.Ascending {
					return a.Date.Before(b.Date)
				}
				return a.Date.After(b.Date)
			}
			if q.Ascending {
				return a.ID < b.ID
			}
			return a.ID > b.ID
		})

		if q.Skip > 0 {
			if q.Skip >= len(txs) {
				txs = nil
			} else {
				txs = txs[q.Skip:]
			}
		}
		if q.Take > 0 && len(txs) > q.Take {
			txs = txs[:q.Take]
		}

		if q.Relations {
			for i := range txs {
				if err := resolve(tx, &txs[i]); err != nil {
					return err
				}
			}
		}
		page = txs
		return nil
	})
	return page, err
}

// CountTransactions counts the rows selected by q, ignoring paging.
func (s *Store) CountTransactions(ctx context.Context, q store.TransactionQuery) (int64, error) {
	var count int64
	err := s.view(func(tx *bolt.Tx) error {
		return each(tx, BucketTransactions, func(t *models.Transaction) error {
			if matches(t, q) {
				count++
			}
			return nil
		})
	})
	return count, err
}

func (s *Store) writeTransaction(t *models.Transaction, creating bool) error {
	stamp(&t.Base, creating)
	row := *t
	row.StripRelations()
	return s.update(func(tx *bolt.Tx) error {
		return put(tx, BucketTransactions, row.ID, &row)
	})
}

func (s *Store) AddTransaction(ctx context.Context, t *models.Transaction) error {
	return s.writeTransaction(t, true)
}

func (s *Store) PutTransaction(ctx context.Context, t *models.Transaction) error {
	return s.writeTransaction(t, false)
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	return s.update(func(tx *bolt.Tx) error {
		return del(tx, BucketTransactions, id)
	})
}
